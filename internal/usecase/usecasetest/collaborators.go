package usecasetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/queue"
)

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []queue.BuyerEvent
	Err    error
}

func (p *Publisher) PublishBuyerEvent(_ context.Context, event queue.BuyerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *Publisher) Events() []queue.BuyerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BuyerEvent(nil), p.events...)
}

type SentStatusChange struct {
	To        string
	BuyerName string
	From      entity.Status
	ToStatus  entity.Status
}

// Mailer records outgoing mail instead of sending it.
type Mailer struct {
	mu            sync.Mutex
	MagicLinks    map[string]string
	StatusChanges []SentStatusChange
	Err           error
}

func NewMailer() *Mailer {
	return &Mailer{MagicLinks: map[string]string{}}
}

func (m *Mailer) SendMagicLink(to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.MagicLinks[to] = link
	return nil
}

func (m *Mailer) SendStatusChange(to, buyerName string, oldStatus, newStatus entity.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.StatusChanges = append(m.StatusChanges, SentStatusChange{To: to, BuyerName: buyerName, From: oldStatus, ToStatus: newStatus})
	return nil
}

// Users is an in-memory user store keyed by id and email.
type Users struct {
	mu      sync.Mutex
	byID    map[string]*entity.User
	byEmail map[string]string
}

func NewUsers() *Users {
	return &Users{byID: map[string]*entity.User{}, byEmail: map[string]string{}}
}

// Add stores a user with the given role and returns it.
func (u *Users) Add(email string, role entity.Role) *entity.User {
	user, _ := u.UpsertByEmail(context.Background(), email, nil)
	u.mu.Lock()
	defer u.mu.Unlock()
	user.Role = role
	u.byID[user.ID].Role = role
	return user
}

func (u *Users) FindByID(_ context.Context, id string) (*entity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (u *Users) UpsertByEmail(_ context.Context, email string, name *string) (*entity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if id, ok := u.byEmail[email]; ok {
		user := u.byID[id]
		if name != nil {
			user.Name = name
		}
		c := *user
		return &c, nil
	}
	user := &entity.User{ID: uuid.New().String(), Email: email, Name: name, Role: entity.RoleUser, CreatedAt: time.Now().UTC()}
	u.byID[user.ID] = user
	u.byEmail[email] = user.ID
	c := *user
	return &c, nil
}

// Tokens is an in-memory verification token store.
type Tokens struct {
	mu     sync.Mutex
	tokens map[string]entity.VerificationToken
}

func NewTokens() *Tokens {
	return &Tokens{tokens: map[string]entity.VerificationToken{}}
}

func (t *Tokens) Create(_ context.Context, vt *entity.VerificationToken) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tokens[vt.Token]; ok {
		return fmt.Errorf("duplicate token")
	}
	t.tokens[vt.Token] = *vt
	return nil
}

func (t *Tokens) Consume(_ context.Context, token, identifier string) (*entity.VerificationToken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	vt, ok := t.tokens[token]
	if !ok || vt.Identifier != identifier {
		return nil, entity.ErrTokenNotFound
	}
	delete(t.tokens, token)
	return &vt, nil
}

func (t *Tokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for k, vt := range t.tokens {
		if vt.Expired(now) {
			delete(t.tokens, k)
			n++
		}
	}
	return n, nil
}

// ForIdentifier returns the stored token for identifier, if any.
func (t *Tokens) ForIdentifier(identifier string) (entity.VerificationToken, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, vt := range t.tokens {
		if strings.EqualFold(vt.Identifier, identifier) {
			return vt, true
		}
	}
	return entity.VerificationToken{}, false
}

// Sessions issues predictable tokens of the form "session-<userID>".
type Sessions struct {
	Err error
}

func (s Sessions) Issue(user *entity.User) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return "session-" + user.ID, nil
}
