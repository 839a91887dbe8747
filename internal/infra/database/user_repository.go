package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

type userRow struct {
	ID        string         `db:"id"`
	Email     string         `db:"email"`
	Name      sql.NullString `db:"name"`
	Role      string         `db:"role"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      fromNullString(r.Name),
		Role:      entity.Role(r.Role),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type UserRepository struct {
	DB DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.DB, &row, `SELECT id, email, name, role, created_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, wrapDBError("find user", err)
	}
	return row.toEntity(), nil
}

// UpsertByEmail keeps an existing name unless a new one is given.
func (r *UserRepository) UpsertByEmail(ctx context.Context, email string, name *string) (*entity.User, error) {
	query := `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email)
		DO UPDATE SET name = COALESCE(EXCLUDED.name, users.name)
		RETURNING id, email, name, role, created_at`

	var row userRow
	if err := sqlx.GetContext(ctx, r.DB, &row, query, email, name); err != nil {
		return nil, wrapDBError("upsert user", err)
	}
	return row.toEntity(), nil
}

type VerificationTokenRepository struct {
	DB DBTX
}

func NewVerificationTokenRepository(db DBTX) *VerificationTokenRepository {
	return &VerificationTokenRepository{DB: db}
}

func (r *VerificationTokenRepository) Create(ctx context.Context, t *entity.VerificationToken) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO verification_tokens (token, identifier, expires) VALUES ($1, $2, $3)`,
		t.Token, t.Identifier, t.Expires)
	if isUniqueViolation(err) {
		return fmt.Errorf("verification token collision: %w", err)
	}
	if err != nil {
		return wrapDBError("insert verification token", err)
	}
	return nil
}

func (r *VerificationTokenRepository) Consume(ctx context.Context, token, identifier string) (*entity.VerificationToken, error) {
	var row struct {
		Token      string    `db:"token"`
		Identifier string    `db:"identifier"`
		Expires    time.Time `db:"expires"`
	}
	query := `
		DELETE FROM verification_tokens
		WHERE token = $1 AND identifier = $2
		RETURNING token, identifier, expires`
	err := sqlx.GetContext(ctx, r.DB, &row, query, token, identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTokenNotFound
	}
	if err != nil {
		return nil, wrapDBError("consume verification token", err)
	}
	return &entity.VerificationToken{Token: row.Token, Identifier: row.Identifier, Expires: row.Expires.UTC()}, nil
}

func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM verification_tokens WHERE expires < $1`, now)
	if err != nil {
		return 0, wrapDBError("delete expired tokens", err)
	}
	return res.RowsAffected()
}
