package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/audit"
	apperrors "github.com/rockguard/portal-server-go/internal/errors"
	"github.com/rockguard/portal-server-go/internal/model"
	"github.com/rockguard/portal-server-go/internal/repository"
	"github.com/rockguard/portal-server-go/internal/util"
)

// SessionService owns the login check and the session lifecycle. Session
// tokens are random and only their keyed hash is stored, so a leaked store
// never yields usable tokens.
type SessionService struct {
	accounts      repository.AccountRepository
	sessions      repository.SessionRepository
	sessionSecret string
	sessionTTL    time.Duration
	rememberTTL   time.Duration
}

func NewSessionService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	sessionSecret string,
	sessionTTL, rememberTTL time.Duration,
) *SessionService {
	return &SessionService{
		accounts:      accounts,
		sessions:      sessions,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
		rememberTTL:   rememberTTL,
	}
}

// Login verifies the submitted credentials and returns the session
// projection of the matching account. An unknown email and a wrong password
// both yield the same InvalidCredentials error so the response cannot be
// used to probe which emails are registered.
func (s *SessionService) Login(ctx context.Context, email, password string) (model.SessionUser, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return model.SessionUser{}, apperrors.Internal("An error occurred during login").WithCause(err)
	}
	if account == nil {
		return model.SessionUser{}, apperrors.InvalidCredentials()
	}

	if !util.CheckPasswordHash(password, account.PasswordHash) {
		return model.SessionUser{}, apperrors.InvalidCredentials()
	}

	return account.SessionUser(), nil
}

// Issue creates a session for user and returns the bearer token the client
// must present. Remember extends the lifetime from the short default to the
// long remembered duration.
func (s *SessionService) Issue(ctx context.Context, user model.SessionUser, remember bool) (string, *model.Session, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", nil, apperrors.Internal("An error occurred during login").WithCause(err)
	}

	session, err := s.sessions.Create(ctx, model.CreateSessionParams{
		TokenHash: util.HmacSHA256(s.sessionSecret, token),
		User:      user,
		ExpiresAt: time.Now().Add(s.TTL(remember)),
	})
	if err != nil {
		return "", nil, apperrors.Internal("An error occurred during login").WithCause(err)
	}

	audit.Log(ctx, audit.Event{
		Type:    audit.EventSessionCreate,
		UserID:  user.ID,
		Details: map[string]interface{}{"remember": remember},
	})

	return token, session, nil
}

// TTL returns the session lifetime for the given remember choice.
func (s *SessionService) TTL(remember bool) time.Duration {
	if remember {
		return s.rememberTTL
	}
	return s.sessionTTL
}

// Current resolves the non-expired session for token, or nil when the client
// has none.
func (s *SessionService) Current(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessions.FindByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token))
}

// Destroy invalidates the session for token. It always leaves the client
// without an active session; a teardown fault is logged, not surfaced.
func (s *SessionService) Destroy(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.DeleteByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token)); err != nil {
		log.Error().Err(err).Msg("session teardown failed")
		return
	}
	audit.Log(ctx, audit.Event{Type: audit.EventSessionDestroy})
}
