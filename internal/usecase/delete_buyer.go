package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

type DeleteBuyerUseCase struct {
	UoW    UnitOfWork
	Events EventPublisher
	Logger *zap.Logger
	Now    func() time.Time
}

func NewDeleteBuyerUseCase(uow UnitOfWork, events EventPublisher, logger *zap.Logger) *DeleteBuyerUseCase {
	return &DeleteBuyerUseCase{
		UoW:    uow,
		Events: events,
		Logger: loggerOrNop(logger),
	}
}

// Execute removes the buyer and records a Deleted entry with its last state.
func (uc *DeleteBuyerUseCase) Execute(ctx context.Context, identity entity.Identity, id string) error {
	var entry *entity.HistoryEntry
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

		if err := repos.Buyers().Delete(ctx, id); err != nil {
			if errors.Is(err, entity.ErrBuyerNotFound) {
				return errNotFound
			}
			return fmt.Errorf("delete buyer: %w", err)
		}

		entry = newHistoryEntry(id, identity.UserID, entity.Deleted{Before: *current}, currentTime(uc.Now))
		if err := repos.History().Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) {
			return de
		}
		uc.Logger.Error("Failed deleting buyer", zap.String("buyerId", id), zap.String("userId", identity.UserID), zap.Error(err))
		return storageError("failed to delete buyer", err)
	}

	publishEvents(ctx, uc.Events, uc.Logger, entry)
	return nil
}
