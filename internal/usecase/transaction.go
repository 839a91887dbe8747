package usecase

import (
	"context"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

// Repositories groups the stores a mutation touches. Inside WithinTx they
// are bound to the same transaction.
type Repositories interface {
	Buyers() entity.BuyerRepositoryInterface
	History() entity.HistoryRepositoryInterface
}

// UnitOfWork runs fn atomically: either every write made through repos is
// committed, or none is. An error returned by fn rolls the transaction back.
type UnitOfWork interface {
	Reader() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
