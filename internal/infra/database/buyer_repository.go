package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

const buyerColumns = `id, full_name, email, phone, city, property_type, bhk, purpose,
	budget_min, budget_max, timeline, source, notes, tags, status, owner_id, created_at, updated_at`

type buyerRow struct {
	ID           string         `db:"id"`
	FullName     string         `db:"full_name"`
	Email        sql.NullString `db:"email"`
	Phone        string         `db:"phone"`
	City         string         `db:"city"`
	PropertyType string         `db:"property_type"`
	BHK          sql.NullString `db:"bhk"`
	Purpose      string         `db:"purpose"`
	BudgetMin    sql.NullInt64  `db:"budget_min"`
	BudgetMax    sql.NullInt64  `db:"budget_max"`
	Timeline     string         `db:"timeline"`
	Source       string         `db:"source"`
	Notes        sql.NullString `db:"notes"`
	Tags         pq.StringArray `db:"tags"`
	Status       string         `db:"status"`
	OwnerID      string         `db:"owner_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r buyerRow) toEntity() *entity.Buyer {
	b := &entity.Buyer{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        fromNullString(r.Email),
		Phone:        r.Phone,
		City:         entity.City(r.City),
		PropertyType: entity.PropertyType(r.PropertyType),
		Purpose:      entity.Purpose(r.Purpose),
		BudgetMin:    fromNullInt64(r.BudgetMin),
		BudgetMax:    fromNullInt64(r.BudgetMax),
		Timeline:     entity.Timeline(r.Timeline),
		Source:       entity.Source(r.Source),
		Notes:        fromNullString(r.Notes),
		Tags:         []string(r.Tags),
		Status:       entity.Status(r.Status),
		OwnerID:      r.OwnerID,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.BHK.Valid {
		bhk := entity.BHK(r.BHK.String)
		b.BHK = &bhk
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b
}

type BuyerRepository struct {
	DB DBTX
}

func NewBuyerRepository(db DBTX) *BuyerRepository {
	return &BuyerRepository{DB: db}
}

func (r *BuyerRepository) FindByID(ctx context.Context, id string) (*entity.Buyer, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrBuyerNotFound
	}
	var row buyerRow
	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE id = $1`
	err := sqlx.GetContext(ctx, r.DB, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrBuyerNotFound
	}
	if err != nil {
		return nil, wrapDBError("find buyer", err)
	}
	return row.toEntity(), nil
}

// Find returns matching buyers, most recently updated first. A nil page
// returns every match.
func (r *BuyerRepository) Find(ctx context.Context, filter entity.BuyerFilter, page *entity.Page) ([]*entity.Buyer, error) {
	where, args := buyerWhere(filter)
	query := `SELECT ` + buyerColumns + ` FROM buyers` + where + ` ORDER BY updated_at DESC, id`
	if page != nil {
		args = append(args, page.Limit, page.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	var rows []buyerRow
	if err := sqlx.SelectContext(ctx, r.DB, &rows, query, args...); err != nil {
		return nil, wrapDBError("find buyers", err)
	}

	out := make([]*entity.Buyer, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func (r *BuyerRepository) Count(ctx context.Context, filter entity.BuyerFilter) (int, error) {
	where, args := buyerWhere(filter)
	var n int
	if err := sqlx.GetContext(ctx, r.DB, &n, `SELECT COUNT(*) FROM buyers`+where, args...); err != nil {
		return 0, wrapDBError("count buyers", err)
	}
	return n, nil
}

func (r *BuyerRepository) CountByCity(ctx context.Context) ([]entity.CityCount, error) {
	var rows []struct {
		City  string `db:"city"`
		Count int    `db:"count"`
	}
	query := `SELECT city, COUNT(*) AS count FROM buyers GROUP BY city ORDER BY count DESC, city`
	if err := sqlx.SelectContext(ctx, r.DB, &rows, query); err != nil {
		return nil, wrapDBError("count buyers by city", err)
	}

	out := make([]entity.CityCount, len(rows))
	for i, row := range rows {
		out[i] = entity.CityCount{City: entity.City(row.City), Count: row.Count}
	}
	return out, nil
}

func (r *BuyerRepository) Create(ctx context.Context, b *entity.Buyer) error {
	query := `
		INSERT INTO buyers (` + buyerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.DB.ExecContext(ctx, query,
		b.ID, b.FullName, b.Email, b.Phone,
		string(b.City), string(b.PropertyType), bhkValue(b.BHK), string(b.Purpose),
		b.BudgetMin, b.BudgetMax, string(b.Timeline), string(b.Source),
		b.Notes, pq.StringArray(b.Tags), string(b.Status), b.OwnerID,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return wrapDBError("insert buyer", err)
	}
	return nil
}

// Update writes b only while the stored row still carries expectedUpdatedAt.
// No matching row means another writer got there first, or the row is gone.
func (r *BuyerRepository) Update(ctx context.Context, b *entity.Buyer, expectedUpdatedAt time.Time) error {
	id, ok := canonicalID(b.ID)
	if !ok {
		return entity.ErrBuyerNotFound
	}
	query := `
		UPDATE buyers SET
			full_name = $2, email = $3, phone = $4, city = $5, property_type = $6, bhk = $7,
			purpose = $8, budget_min = $9, budget_max = $10, timeline = $11, source = $12,
			notes = $13, tags = $14, status = $15, updated_at = $16
		WHERE id = $1 AND updated_at = $17`

	res, err := r.DB.ExecContext(ctx, query,
		id, b.FullName, b.Email, b.Phone,
		string(b.City), string(b.PropertyType), bhkValue(b.BHK),
		string(b.Purpose), b.BudgetMin, b.BudgetMax, string(b.Timeline), string(b.Source),
		b.Notes, pq.StringArray(b.Tags), string(b.Status), b.UpdatedAt,
		expectedUpdatedAt,
	)
	if err != nil {
		return wrapDBError("update buyer", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update buyer", err)
	}
	if n == 0 {
		return entity.ErrStaleRecord
	}
	return nil
}

func (r *BuyerRepository) Delete(ctx context.Context, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return entity.ErrBuyerNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM buyers WHERE id = $1`, id)
	if err != nil {
		return wrapDBError("delete buyer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("delete buyer", err)
	}
	if n == 0 {
		return entity.ErrBuyerNotFound
	}
	return nil
}

// canonicalID reports whether id is a UUID and returns its canonical form.
// Anything else cannot name a stored row.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// buyerWhere renders filter as a WHERE clause with positional arguments.
func buyerWhere(f entity.BuyerFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	eq := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	eq("city", string(f.City))
	eq("property_type", string(f.PropertyType))
	eq("status", string(f.Status))
	eq("timeline", string(f.Timeline))

	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d OR phone LIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func bhkValue(b *entity.BHK) *string {
	if b == nil {
		return nil
	}
	s := string(*b)
	return &s
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
