package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

type ExportCsvUseCase struct {
	UoW    UnitOfWork
	Logger *zap.Logger
}

func NewExportCsvUseCase(uow UnitOfWork, logger *zap.Logger) *ExportCsvUseCase {
	return &ExportCsvUseCase{UoW: uow, Logger: loggerOrNop(logger)}
}

// Execute writes every buyer matching filter, most recently updated first.
// Lines are CRLF separated with no trailing terminator.
func (uc *ExportCsvUseCase) Execute(ctx context.Context, filter entity.BuyerFilter, w io.Writer) error {
	buyers, err := uc.UoW.Reader().Buyers().Find(ctx, filter, nil)
	if err != nil {
		uc.Logger.Error("Failed loading buyers for export", zap.Error(err))
		return storageError("failed to export buyers", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(formatCSVRow(CSVHeader)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range buyers {
		if _, err := bw.WriteString("\r\n" + formatCSVRow(buyerCSVFields(b))); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return bw.Flush()
}
