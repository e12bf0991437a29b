package model

import (
	"time"
)

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Company      string    `json:"company"`
	Phone        string    `json:"phone"`
	MineType     string    `json:"mineType"`
	Newsletter   bool      `json:"newsletter"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateAccountParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Company      string
	Phone        string
	MineType     string
	Newsletter   bool
}

// SessionUser is the projection of an Account carried by a session.
// It never includes the password hash.
type SessionUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
}

func (a *Account) SessionUser() SessionUser {
	return SessionUser{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
	}
}
