package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

type UpdateBuyerUseCase struct {
	UoW    UnitOfWork
	Events EventPublisher
	Logger *zap.Logger
	Now    func() time.Time
}

func NewUpdateBuyerUseCase(uow UnitOfWork, events EventPublisher, logger *zap.Logger) *UpdateBuyerUseCase {
	return &UpdateBuyerUseCase{
		UoW:    uow,
		Events: events,
		Logger: loggerOrNop(logger),
	}
}

func (uc *UpdateBuyerUseCase) Execute(ctx context.Context, identity entity.Identity, id string, input UpdateBuyerInput) (*entity.Buyer, error) {
	fields, validationErrors := ValidateBuyerInput(input.BuyerInput)
	if input.UpdatedAt == nil && !input.Force {
		validationErrors = append(validationErrors, ValidationError{"updatedAt", "is required unless force is set"})
	}
	if len(validationErrors) > 0 {
		return nil, newValidationError(validationErrors)
	}

	expected := input.UpdatedAt
	if input.Force {
		expected = nil
	}

	var (
		updated *entity.Buyer
		entry   *entity.HistoryEntry
	)
	err := uc.UoW.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		current, err := repos.Buyers().FindByID(ctx, id)
		if errors.Is(err, entity.ErrBuyerNotFound) {
			return errNotFound
		}
		if err != nil {
			return fmt.Errorf("find buyer: %w", err)
		}

		if err := Authorize(identity, current); err != nil {
			return err
		}
		if err := CheckFreshness(expected, current.UpdatedAt); err != nil {
			return err
		}

		after := *current
		after.ApplyFields(*fields)
		if fields.Status == "" {
			after.Status = current.Status
		}
		now := currentTime(uc.Now)
		after.UpdatedAt = nextUpdatedAt(now, current.UpdatedAt)

		// The write is conditional on the timestamp read above, so a writer
		// that committed in between is caught here.
		if err := repos.Buyers().Update(ctx, &after, current.UpdatedAt); err != nil {
			if errors.Is(err, entity.ErrStaleRecord) {
				return conflictFromStore(ctx, repos, id)
			}
			return fmt.Errorf("update buyer: %w", err)
		}

		entry = newHistoryEntry(id, identity.UserID, entity.Updated{Before: *current, After: after}, now)
		if err := repos.History().Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		updated = &after
		return nil
	})
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) {
			return nil, de
		}
		uc.Logger.Error("Failed updating buyer", zap.String("buyerId", id), zap.String("userId", identity.UserID), zap.Error(err))
		return nil, storageError("failed to update buyer", err)
	}

	publishEvents(ctx, uc.Events, uc.Logger, entry)
	return updated, nil
}

func conflictFromStore(ctx context.Context, repos Repositories, id string) error {
	latest, err := repos.Buyers().FindByID(ctx, id)
	if errors.Is(err, entity.ErrBuyerNotFound) {
		return errNotFound
	}
	if err != nil {
		return fmt.Errorf("reload buyer: %w", err)
	}
	return newConflict(latest.UpdatedAt)
}
