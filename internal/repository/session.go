package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rockguard/portal-server-go/internal/model"
)

type SessionRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type memorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewSessionRepository() SessionRepository {
	return &memorySessionRepo{
		sessions: make(map[string]*model.Session),
	}
}

// FindByTokenHash resolves a session by its token hash. Expired sessions are
// treated as absent.
func (r *memorySessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[tokenHash]
	if !ok || session.Expired(time.Now()) {
		return nil, nil
	}
	return copySession(session), nil
}

func (r *memorySessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &model.Session{
		ID:        uuid.NewString(),
		TokenHash: params.TokenHash,
		User:      params.User,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now(),
	}
	r.sessions[session.TokenHash] = session

	return copySession(session), nil
}

func (r *memorySessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r *memorySessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var removed int64
	for tokenHash, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, tokenHash)
			removed++
		}
	}
	return removed, nil
}

func copySession(s *model.Session) *model.Session {
	c := *s
	return &c
}
