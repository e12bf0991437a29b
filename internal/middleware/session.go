package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/audit"
	apperrors "github.com/rockguard/portal-server-go/internal/errors"
	"github.com/rockguard/portal-server-go/internal/flash"
	"github.com/rockguard/portal-server-go/internal/httputil"
	"github.com/rockguard/portal-server-go/internal/model"
	"github.com/rockguard/portal-server-go/internal/service"
)

const SessionCookie = "rg_session"

type contextKey string

const UserContextKey contextKey = "sessionUser"

// GetUser returns the authenticated user for the request, or nil.
func GetUser(ctx context.Context) *model.SessionUser {
	if user, ok := ctx.Value(UserContextKey).(*model.SessionUser); ok {
		return user
	}
	return nil
}

// SessionMiddleware resolves the session cookie and gates protected routes.
type SessionMiddleware struct {
	sessions *service.SessionService
	flashes  *flash.Store
	secure   bool
}

func NewSessionMiddleware(sessions *service.SessionService, flashes *flash.Store, secure bool) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		flashes:  flashes,
		secure:   secure,
	}
}

// LoadUser attaches the current user to the request context when a valid
// session exists, and passes through otherwise. Pages that render for both
// anonymous and authenticated visitors sit behind this.
func (m *SessionMiddleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.currentUser(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth allows the request through only with a non-expired session.
// Anonymous visitors get an error flash and a redirect to the login form;
// API routes get a JSON 401 instead, since a redirect is useless to a
// programmatic client.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			user = m.currentUser(r)
		}
		if user == nil {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			if strings.HasPrefix(r.URL.Path, "/api/") {
				httputil.WriteError(w, apperrors.NotAuthenticated())
				return
			}
			m.flashes.PushHTTP(w, r, flash.Entry{
				Kind:    flash.KindError,
				Message: apperrors.NotAuthenticated().Message,
			})
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) currentUser(r *http.Request) *model.SessionUser {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := m.sessions.Current(r.Context(), cookie.Value)
	if err != nil {
		log.Error().Err(err).Msg("session middleware: lookup failed")
		return nil
	}
	if session == nil {
		return nil
	}
	return &session.User
}

func SetSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
