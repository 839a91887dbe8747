package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

const (
	DemoEmail    = "demo@example.com"
	DemoName     = "Demo User"
	MagicLinkTTL = 15 * time.Minute

	magicTokenBytes = 32
)

var errInvalidLink = &DomainError{Code: CodeUnauthorized, Message: "invalid or expired link"}

// Session is a signed-in user together with the signed session token.
type Session struct {
	User  *entity.User
	Token string
}

type AuthUseCase struct {
	Users    entity.UserRepositoryInterface
	Tokens   entity.VerificationTokenRepositoryInterface
	Sessions SessionIssuer
	Mailer   EmailService
	BaseURL  string
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewAuthUseCase(
	users entity.UserRepositoryInterface,
	tokens entity.VerificationTokenRepositoryInterface,
	sessions SessionIssuer,
	mailer EmailService,
	baseURL string,
	logger *zap.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		Users:    users,
		Tokens:   tokens,
		Sessions: sessions,
		Mailer:   mailer,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Logger:   loggerOrNop(logger),
	}
}

func (uc *AuthUseCase) DemoLogin(ctx context.Context) (*Session, error) {
	name := DemoName
	user, err := uc.Users.UpsertByEmail(ctx, DemoEmail, &name)
	if err != nil {
		uc.Logger.Error("Failed upserting demo user", zap.Error(err))
		return nil, storageError("failed to sign in", err)
	}
	return uc.issue(user)
}

// RequestMagicLink stores a single-use token for email and mails the link.
// Without a mailer the link is only logged.
func (uc *AuthUseCase) RequestMagicLink(ctx context.Context, email string) error {
	identifier, ok := normalizeEmail(email)
	if !ok {
		return newValidationError([]ValidationError{{"email", "must be a valid email address"}})
	}

	token, err := randomToken()
	if err != nil {
		return &TechnicalError{Code: CodeStorage, Message: "failed to create sign-in link", Err: err}
	}
	vt := &entity.VerificationToken{
		Token:      token,
		Identifier: identifier,
		Expires:    currentTime(uc.Now).Add(MagicLinkTTL),
	}
	if err := uc.Tokens.Create(ctx, vt); err != nil {
		uc.Logger.Error("Failed storing verification token", zap.String("email", identifier), zap.Error(err))
		return storageError("failed to create sign-in link", err)
	}

	link := uc.magicLink(token, identifier)
	if uc.Mailer == nil {
		uc.Logger.Info("Magic link issued", zap.String("email", identifier), zap.String("link", link))
		return nil
	}
	if err := uc.Mailer.SendMagicLink(identifier, link); err != nil {
		uc.Logger.Error("Failed sending magic link", zap.String("email", identifier), zap.Error(err))
		return &TechnicalError{Code: CodeStorage, Message: "failed to send sign-in link", Err: err}
	}
	return nil
}

func (uc *AuthUseCase) VerifyMagicLink(ctx context.Context, token, email string) (*Session, error) {
	var errs []ValidationError
	if token == "" {
		errs = append(errs, ValidationError{"token", "is required"})
	}
	if email == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	}
	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	identifier := strings.ToLower(strings.TrimSpace(email))
	vt, err := uc.Tokens.Consume(ctx, token, identifier)
	if errors.Is(err, entity.ErrTokenNotFound) {
		return nil, errInvalidLink
	}
	if err != nil {
		return nil, storageError("failed to verify sign-in link", err)
	}
	// Expired tokens are consumed too.
	if vt.Expired(currentTime(uc.Now)) {
		return nil, errInvalidLink
	}

	user, err := uc.Users.UpsertByEmail(ctx, identifier, nil)
	if err != nil {
		return nil, storageError("failed to sign in", err)
	}
	return uc.issue(user)
}

// CurrentUser loads the user behind a session. A session whose user no
// longer exists is unauthorized.
func (uc *AuthUseCase) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.Users.FindByID(ctx, userID)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, errUnauthorized
	}
	if err != nil {
		return nil, storageError("failed to load user", err)
	}
	return user, nil
}

func (uc *AuthUseCase) ResolveIdentity(ctx context.Context, userID string) (entity.Identity, error) {
	user, err := uc.CurrentUser(ctx, userID)
	if err != nil {
		return entity.Identity{}, err
	}
	role := user.Role
	if role == "" {
		role = entity.RoleUser
	}
	return entity.Identity{UserID: user.ID, Email: user.Email, Role: role}, nil
}

func (uc *AuthUseCase) issue(user *entity.User) (*Session, error) {
	token, err := uc.Sessions.Issue(user)
	if err != nil {
		return nil, &TechnicalError{Code: CodeStorage, Message: "failed to issue session", Err: err}
	}
	return &Session{User: user, Token: token}, nil
}

func (uc *AuthUseCase) magicLink(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return fmt.Sprintf("%s/api/auth/verify?%s", uc.BaseURL, q.Encode())
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func randomToken() (string, error) {
	b := make([]byte, magicTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
