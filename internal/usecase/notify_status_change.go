package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/queue"
)

// NotifyStatusChangeUseCase mails a buyer's owner when the buyer moves to a
// new status. Every other event is ignored.
type NotifyStatusChangeUseCase struct {
	Users  entity.UserRepositoryInterface
	Mailer EmailService
	Logger *zap.Logger
}

func NewNotifyStatusChangeUseCase(users entity.UserRepositoryInterface, mailer EmailService, logger *zap.Logger) *NotifyStatusChangeUseCase {
	return &NotifyStatusChangeUseCase{Users: users, Mailer: mailer, Logger: loggerOrNop(logger)}
}

func (uc *NotifyStatusChangeUseCase) HandleBuyerEvent(ctx context.Context, event queue.BuyerEvent) error {
	if !event.StatusChanged() {
		return nil
	}

	owner, err := uc.Users.FindByID(ctx, event.OwnerID)
	if errors.Is(err, entity.ErrUserNotFound) {
		uc.Logger.Warn("Owner not found for status change", zap.String("buyerId", event.BuyerID), zap.String("ownerId", event.OwnerID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load owner %s: %w", event.OwnerID, err)
	}

	if err := uc.Mailer.SendStatusChange(owner.Email, event.FullName, event.StatusBefore, event.StatusAfter); err != nil {
		return fmt.Errorf("send status change to %s: %w", owner.Email, err)
	}
	uc.Logger.Info("Status change notified",
		zap.String("buyerId", event.BuyerID),
		zap.String("from", string(event.StatusBefore)),
		zap.String("to", string(event.StatusAfter)))
	return nil
}
