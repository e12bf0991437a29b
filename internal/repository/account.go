package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rockguard/portal-server-go/internal/model"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("email already exists")

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	Count(ctx context.Context) (int, error)
}

// memoryAccountRepo keeps accounts in process memory for their whole
// lifetime. Emails are case-sensitive, untrimmed keys. The write lock makes
// the duplicate check and the insert atomic, so two concurrent signups with
// the same email cannot both succeed.
type memoryAccountRepo struct {
	mu      sync.RWMutex
	byEmail map[string]*model.Account
	byID    map[string]*model.Account
}

func NewAccountRepository() AccountRepository {
	return &memoryAccountRepo{
		byEmail: make(map[string]*model.Account),
		byID:    make(map[string]*model.Account),
	}
}

func (r *memoryAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return copyAccount(account), nil
}

func (r *memoryAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return copyAccount(account), nil
}

func (r *memoryAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[params.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Company:      params.Company,
		Phone:        params.Phone,
		MineType:     params.MineType,
		Newsletter:   params.Newsletter,
		CreatedAt:    time.Now(),
	}

	r.byEmail[account.Email] = account
	r.byID[account.ID] = account

	return copyAccount(account), nil
}

func (r *memoryAccountRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail), nil
}

func copyAccount(a *model.Account) *model.Account {
	c := *a
	return &c
}
