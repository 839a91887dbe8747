package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

type repositories struct {
	db DBTX
}

func (r repositories) Buyers() entity.BuyerRepositoryInterface {
	return NewBuyerRepository(r.db)
}

func (r repositories) History() entity.HistoryRepositoryInterface {
	return NewHistoryRepository(r.db)
}

// Store hands out repositories bound to the pool or to one transaction.
type Store struct {
	DB *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Reader() usecase.Repositories {
	return repositories{db: s.DB}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos usecase.Repositories) error) error {
	return WithTx(ctx, s.DB, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, repositories{db: tx})
	})
}

func (s *Store) Users() *UserRepository {
	return NewUserRepository(s.DB)
}

func (s *Store) Tokens() *VerificationTokenRepository {
	return NewVerificationTokenRepository(s.DB)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
