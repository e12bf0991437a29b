package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/config"
	apperrors "github.com/rockguard/portal-server-go/internal/errors"
	"github.com/rockguard/portal-server-go/internal/model"
	"github.com/rockguard/portal-server-go/internal/repository"
	"github.com/rockguard/portal-server-go/internal/util"
)

type AccountService struct {
	accounts   repository.AccountRepository
	bcryptCost int
}

func NewAccountService(accounts repository.AccountRepository, bcryptCost int) *AccountService {
	return &AccountService{
		accounts:   accounts,
		bcryptCost: bcryptCost,
	}
}

type RegisterParams struct {
	FirstName       string
	LastName        string
	Email           string
	Company         string
	Phone           string
	MineType        string
	Password        string
	ConfirmPassword string
	TermsAccepted   bool
	Newsletter      bool
}

// Register validates a signup submission and creates the account. Checks run
// in a fixed order and stop at the first failure: completeness, password
// confirmation, minimum length, terms, email uniqueness. The password is
// hashed only after validation passes.
func (s *AccountService) Register(ctx context.Context, params RegisterParams) (*model.Account, error) {
	required := []string{
		params.FirstName, params.LastName, params.Email, params.Company,
		params.Phone, params.MineType, params.Password, params.ConfirmPassword,
	}
	for _, field := range required {
		if field == "" {
			return nil, apperrors.IncompleteSubmission()
		}
	}

	if params.Password != params.ConfirmPassword {
		return nil, apperrors.PasswordMismatch()
	}

	if len(params.Password) < config.MinPasswordLength {
		return nil, apperrors.PasswordTooShort()
	}

	if !params.TermsAccepted {
		return nil, apperrors.TermsNotAccepted()
	}

	existing, err := s.accounts.FindByEmail(ctx, params.Email)
	if err != nil {
		return nil, apperrors.Internal("An error occurred during signup").WithCause(err)
	}
	if existing != nil {
		return nil, apperrors.DuplicateEmail()
	}

	hash, err := util.HashPassword(params.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("An error occurred during signup").WithCause(err)
	}

	account, err := s.accounts.Create(ctx, model.CreateAccountParams{
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Company:      params.Company,
		Phone:        params.Phone,
		MineType:     params.MineType,
		Newsletter:   params.Newsletter,
	})
	if err != nil {
		// The store redoes the uniqueness check under its write lock, so a
		// signup that raced past the lookup above still loses cleanly here.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.DuplicateEmail()
		}
		return nil, apperrors.Internal("An error occurred during signup").WithCause(err)
	}

	log.Info().Str("accountId", account.ID).Msg("account created")

	return account, nil
}
