package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

const (
	PageSize          = 10
	recentHistorySize = 5
)

type QueryBuyersUseCase struct {
	UoW    UnitOfWork
	Logger *zap.Logger
}

func NewQueryBuyersUseCase(uow UnitOfWork, logger *zap.Logger) *QueryBuyersUseCase {
	return &QueryBuyersUseCase{UoW: uow, Logger: loggerOrNop(logger)}
}

func (uc *QueryBuyersUseCase) List(ctx context.Context, input ListBuyersInput) (*ListBuyersOutput, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	repo := uc.UoW.Reader().Buyers()

	total, err := repo.Count(ctx, input.Filter)
	if err != nil {
		uc.Logger.Error("Failed counting buyers", zap.Error(err))
		return nil, storageError("failed to list buyers", err)
	}
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	// Pages past the end resolve to the last one.
	if page > totalPages {
		page = totalPages
	}

	items, err := repo.Find(ctx, input.Filter, &entity.Page{Limit: PageSize, Offset: (page - 1) * PageSize})
	if err != nil {
		uc.Logger.Error("Failed listing buyers", zap.Error(err))
		return nil, storageError("failed to list buyers", err)
	}
	if items == nil {
		items = []*entity.Buyer{}
	}
	return &ListBuyersOutput{Items: items, Total: total, Page: page, TotalPages: totalPages}, nil
}

// Get returns the buyer with its most recent history, newest first.
func (uc *QueryBuyersUseCase) Get(ctx context.Context, id string) (*BuyerDetailOutput, error) {
	repos := uc.UoW.Reader()
	buyer, err := repos.Buyers().FindByID(ctx, id)
	if errors.Is(err, entity.ErrBuyerNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		uc.Logger.Error("Failed getting buyer", zap.String("buyerId", id), zap.Error(err))
		return nil, storageError("failed to get buyer", err)
	}

	history, err := repos.History().ListByBuyer(ctx, id, recentHistorySize)
	if err != nil {
		uc.Logger.Error("Failed getting buyer history", zap.String("buyerId", id), zap.Error(err))
		return nil, storageError("failed to get buyer history", err)
	}
	if history == nil {
		history = []*entity.HistoryEntry{}
	}
	return &BuyerDetailOutput{Buyer: buyer, History: history}, nil
}

func (uc *QueryBuyersUseCase) CityCounts(ctx context.Context) ([]entity.CityCount, error) {
	counts, err := uc.UoW.Reader().Buyers().CountByCity(ctx)
	if err != nil {
		uc.Logger.Error("Failed counting buyers by city", zap.Error(err))
		return nil, storageError("failed to count buyers", err)
	}
	if counts == nil {
		counts = []entity.CityCount{}
	}
	return counts, nil
}
