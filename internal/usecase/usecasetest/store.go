// Package usecasetest provides in-memory collaborators for exercising the
// use cases without a database or broker.
package usecasetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

type state struct {
	buyers  map[string]entity.Buyer
	history []entity.HistoryEntry
}

func (s *state) clone() *state {
	c := &state{
		buyers:  make(map[string]entity.Buyer, len(s.buyers)),
		history: append([]entity.HistoryEntry(nil), s.history...),
	}
	for id, b := range s.buyers {
		c.buyers[id] = copyBuyer(b)
	}
	return c
}

// Store is a transactional in-memory UnitOfWork. A transaction works on a
// private copy that replaces the committed state only when fn succeeds.
// Transactions are serialized.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state

	// FailHistoryAppend, when set, is returned by every History().Append.
	FailHistoryAppend error
	// FailBuyerCreate, when set, is returned by every Buyers().Create.
	FailBuyerCreate error
}

func NewStore() *Store {
	return &Store{st: &state{buyers: map[string]entity.Buyer{}}}
}

func (s *Store) Reader() usecase.Repositories {
	return repos{store: s}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos usecase.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(ctx, repos{store: s, tx: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

// Put seeds a committed buyer.
func (s *Store) Put(b entity.Buyer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.buyers[b.ID] = copyBuyer(b)
}

func (s *Store) Buyer(id string) (entity.Buyer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.st.buyers[id]
	return copyBuyer(b), ok
}

func (s *Store) BuyerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.buyers)
}

// History returns committed entries in append order.
func (s *Store) History() []entity.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.HistoryEntry(nil), s.st.history...)
}

type repos struct {
	store *Store
	tx    *state
}

func (r repos) Buyers() entity.BuyerRepositoryInterface    { return buyerRepo(r) }
func (r repos) History() entity.HistoryRepositoryInterface { return historyRepo(r) }

// view runs fn against the transaction copy, or the committed state.
func (r repos) view(fn func(st *state)) {
	if r.tx != nil {
		fn(r.tx)
		return
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	fn(r.store.st)
}

func (r repos) write(fn func(st *state)) {
	if r.tx != nil {
		fn(r.tx)
		return
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	fn(r.store.st)
}

type buyerRepo repos

func (r buyerRepo) FindByID(_ context.Context, id string) (*entity.Buyer, error) {
	var (
		b  entity.Buyer
		ok bool
	)
	repos(r).view(func(st *state) { b, ok = st.buyers[id] })
	if !ok {
		return nil, entity.ErrBuyerNotFound
	}
	c := copyBuyer(b)
	return &c, nil
}

func (r buyerRepo) Find(_ context.Context, filter entity.BuyerFilter, page *entity.Page) ([]*entity.Buyer, error) {
	var matched []entity.Buyer
	repos(r).view(func(st *state) {
		for _, b := range st.buyers {
			if matches(b, filter) {
				matched = append(matched, copyBuyer(b))
			}
		}
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if page != nil {
		start := min(page.Offset, len(matched))
		end := min(start+page.Limit, len(matched))
		matched = matched[start:end]
	}

	out := make([]*entity.Buyer, len(matched))
	for i := range matched {
		out[i] = &matched[i]
	}
	return out, nil
}

func (r buyerRepo) Count(ctx context.Context, filter entity.BuyerFilter) (int, error) {
	all, err := r.Find(ctx, filter, nil)
	return len(all), err
}

func (r buyerRepo) CountByCity(_ context.Context) ([]entity.CityCount, error) {
	counts := map[entity.City]int{}
	repos(r).view(func(st *state) {
		for _, b := range st.buyers {
			counts[b.City]++
		}
	})

	out := make([]entity.CityCount, 0, len(counts))
	for city, n := range counts {
		out = append(out, entity.CityCount{City: city, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	return out, nil
}

func (r buyerRepo) Create(_ context.Context, b *entity.Buyer) error {
	if err := r.store.FailBuyerCreate; err != nil {
		return err
	}
	repos(r).write(func(st *state) { st.buyers[b.ID] = copyBuyer(*b) })
	return nil
}

func (r buyerRepo) Update(_ context.Context, b *entity.Buyer, expectedUpdatedAt time.Time) error {
	var err error
	repos(r).write(func(st *state) {
		cur, ok := st.buyers[b.ID]
		if !ok || !cur.UpdatedAt.Equal(expectedUpdatedAt) {
			err = entity.ErrStaleRecord
			return
		}
		st.buyers[b.ID] = copyBuyer(*b)
	})
	return err
}

func (r buyerRepo) Delete(_ context.Context, id string) error {
	var ok bool
	repos(r).write(func(st *state) {
		if _, ok = st.buyers[id]; ok {
			delete(st.buyers, id)
		}
	})
	if !ok {
		return entity.ErrBuyerNotFound
	}
	return nil
}

type historyRepo repos

func (r historyRepo) Append(_ context.Context, h *entity.HistoryEntry) error {
	if err := r.store.FailHistoryAppend; err != nil {
		return err
	}
	repos(r).write(func(st *state) { st.history = append(st.history, *h) })
	return nil
}

func (r historyRepo) ListByBuyer(_ context.Context, buyerID string, limit int) ([]*entity.HistoryEntry, error) {
	var out []*entity.HistoryEntry
	repos(r).view(func(st *state) {
		for i := len(st.history) - 1; i >= 0 && len(out) < limit; i-- {
			if st.history[i].BuyerID == buyerID {
				h := st.history[i]
				out = append(out, &h)
			}
		}
	})
	return out, nil
}

func matches(b entity.Buyer, f entity.BuyerFilter) bool {
	if f.City != "" && b.City != f.City {
		return false
	}
	if f.PropertyType != "" && b.PropertyType != f.PropertyType {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Timeline != "" && b.Timeline != f.Timeline {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	email := ""
	if b.Email != nil {
		email = strings.ToLower(*b.Email)
	}
	return strings.Contains(strings.ToLower(b.FullName), q) ||
		strings.Contains(email, q) ||
		strings.Contains(b.Phone, q)
}

func copyBuyer(b entity.Buyer) entity.Buyer {
	b.Tags = append([]string{}, b.Tags...)
	return b
}
