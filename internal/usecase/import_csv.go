package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

const MaxImportRows = 200

type ImportCsvUseCase struct {
	UoW    UnitOfWork
	Events EventPublisher
	Logger *zap.Logger
	Now    func() time.Time
}

func NewImportCsvUseCase(uow UnitOfWork, events EventPublisher, logger *zap.Logger) *ImportCsvUseCase {
	return &ImportCsvUseCase{
		UoW:    uow,
		Events: events,
		Logger: loggerOrNop(logger),
	}
}

// Execute validates every data row on its own and inserts the valid ones in
// a single transaction. Row numbers in the report are source line numbers,
// the header being line 1.
func (uc *ImportCsvUseCase) Execute(ctx context.Context, identity entity.Identity, text string) (*ImportCsvOutput, error) {
	rows := parseCSV(strings.TrimPrefix(text, "\ufeff"))
	if len(rows) == 0 {
		return nil, newBadFormat("empty CSV")
	}
	if !headerMatches(rows[0]) {
		return nil, newBadFormat("CSV header mismatch. Expected: " + strings.Join(CSVHeader, ","))
	}
	body := rows[1:]
	if len(body) > MaxImportRows {
		return nil, newBadFormat(fmt.Sprintf("CSV row limit exceeded (max %d)", MaxImportRows))
	}

	now := currentTime(uc.Now)
	out := &ImportCsvOutput{RowErrors: []RowError{}}
	var buyers []*entity.Buyer

	for i, row := range body {
		line := i + 2
		record := mapCSVRow(row)

		if errs := checkCSVRecord(record); len(errs) > 0 {
			out.RowErrors = append(out.RowErrors, RowError{Row: line, Message: "CSV parse error: " + joinValidationErrors(errs)})
			continue
		}

		buyer, errs := ValidateBuyerInput(coerceCSVRecord(record))
		if len(errs) > 0 {
			out.RowErrors = append(out.RowErrors, RowError{Row: line, Message: "Validation: " + joinValidationErrors(errs)})
			continue
		}

		buyer.ID = uuid.New().String()
		buyer.OwnerID = identity.UserID
		if buyer.Status == "" {
			buyer.Status = entity.StatusNew
		}
		buyer.CreatedAt = now
		buyer.UpdatedAt = now
		buyers = append(buyers, buyer)
	}

	if len(buyers) == 0 {
		return out, nil
	}

	entries := make([]*entity.HistoryEntry, len(buyers))
	for i, b := range buyers {
		entries[i] = newHistoryEntry(b.ID, identity.UserID, entity.Created{After: *b}, now)
	}

	err := uc.UoW.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		for i, b := range buyers {
			if err := repos.Buyers().Create(ctx, b); err != nil {
				return fmt.Errorf("insert buyer %d: %w", i+1, err)
			}
			if err := repos.History().Append(ctx, entries[i]); err != nil {
				return fmt.Errorf("append history for buyer %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		uc.Logger.Error("Failed importing buyers", zap.String("userId", identity.UserID), zap.Int("rows", len(buyers)), zap.Error(err))
		return nil, storageError("failed to import buyers", err)
	}

	out.InsertedCount = len(buyers)
	uc.Logger.Info("CSV import finished",
		zap.String("userId", identity.UserID),
		zap.Int("inserted", out.InsertedCount),
		zap.Int("rejected", len(out.RowErrors)))

	publishEvents(ctx, uc.Events, uc.Logger, entries...)
	return out, nil
}

// mapCSVRow keys the row by header name. Missing trailing columns become "".
func mapCSVRow(row []string) map[string]string {
	record := make(map[string]string, len(CSVHeader))
	for i, h := range CSVHeader {
		if i < len(row) {
			record[h] = strings.TrimSpace(row[i])
		} else {
			record[h] = ""
		}
	}
	return record
}

func checkCSVRecord(record map[string]string) []ValidationError {
	var errs []ValidationError
	if record["fullName"] == "" {
		errs = append(errs, ValidationError{"fullName", "is required"})
	}
	return errs
}

func coerceCSVRecord(record map[string]string) BuyerInput {
	input := BuyerInput{
		FullName:     record["fullName"],
		Email:        optional(record["email"]),
		Phone:        record["phone"],
		City:         strings.ToUpper(record["city"]),
		PropertyType: strings.ToUpper(record["propertyType"]),
		BHK:          optional(strings.ToUpper(record["bhk"])),
		Purpose:      strings.ToUpper(record["purpose"]),
		BudgetMin:    optionalNumber(record["budgetMin"]),
		BudgetMax:    optionalNumber(record["budgetMax"]),
		Timeline:     strings.ToUpper(record["timeline"]),
		Source:       strings.ToUpper(record["source"]),
		Notes:        optional(record["notes"]),
		Tags:         splitTags(record["tags"]),
		Status:       optional(strings.ToUpper(record["status"])),
	}
	return input
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalNumber(s string) *Budget {
	if s == "" {
		return nil
	}
	return &Budget{Number: json.Number(s)}
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func joinValidationErrors(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
