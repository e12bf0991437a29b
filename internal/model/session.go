package model

import (
	"time"
)

type Session struct {
	ID        string      `json:"id"`
	TokenHash string      `json:"-"`
	User      SessionUser `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type CreateSessionParams struct {
	TokenHash string
	User      SessionUser
	ExpiresAt time.Time
}
