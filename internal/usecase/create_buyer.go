package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

type CreateBuyerUseCase struct {
	UoW     UnitOfWork
	Limiter RateLimiter
	Events  EventPublisher
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewCreateBuyerUseCase(uow UnitOfWork, limiter RateLimiter, events EventPublisher, logger *zap.Logger) *CreateBuyerUseCase {
	return &CreateBuyerUseCase{
		UoW:     uow,
		Limiter: limiter,
		Events:  events,
		Logger:  loggerOrNop(logger),
	}
}

func (uc *CreateBuyerUseCase) Execute(ctx context.Context, identity entity.Identity, input BuyerInput) (*entity.Buyer, error) {
	// 1. Throttle per identity. A broken limiter backend must not take creation down with it.
	if uc.Limiter != nil {
		allowed, err := uc.Limiter.Allow(ctx, identity.UserID)
		if err != nil {
			uc.Logger.Warn("Rate limiter unavailable, allowing request", zap.String("userId", identity.UserID), zap.Error(err))
		} else if !allowed {
			return nil, errRateLimited
		}
	}

	// 2. Validate
	buyer, validationErrors := ValidateBuyerInput(input)
	if len(validationErrors) > 0 {
		return nil, newValidationError(validationErrors)
	}

	now := currentTime(uc.Now)
	buyer.ID = uuid.New().String()
	buyer.OwnerID = identity.UserID
	if buyer.Status == "" {
		buyer.Status = entity.StatusNew
	}
	buyer.CreatedAt = now
	buyer.UpdatedAt = now

	entry := newHistoryEntry(buyer.ID, identity.UserID, entity.Created{After: *buyer}, now)

	// 3. Buyer + history in one transaction
	err := uc.UoW.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Buyers().Create(ctx, buyer); err != nil {
			return fmt.Errorf("create buyer: %w", err)
		}
		if err := repos.History().Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.Logger.Error("Failed creating buyer", zap.String("userId", identity.UserID), zap.Error(err))
		return nil, storageError("failed to create buyer", err)
	}

	publishEvents(ctx, uc.Events, uc.Logger, entry)
	return buyer, nil
}
