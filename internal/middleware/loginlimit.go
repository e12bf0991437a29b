package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rockguard/portal-server-go/internal/audit"
	"github.com/rockguard/portal-server-go/internal/config"
	apperrors "github.com/rockguard/portal-server-go/internal/errors"
	"github.com/rockguard/portal-server-go/internal/flash"
)

const loginCleanupPeriod = 5 * time.Minute

// LoginLimiter bounds login attempts per client IP.
type LoginLimiter interface {
	Allow(r *http.Request, ip string) bool
}

type loginAttempt struct {
	count       int
	windowStart time.Time
}

// MemoryLoginLimiter is the process-local limiter used when no Redis is
// configured.
type MemoryLoginLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*loginAttempt
	lastCleanup time.Time
}

func NewMemoryLoginLimiter() *MemoryLoginLimiter {
	return &MemoryLoginLimiter{
		attempts:    make(map[string]*loginAttempt),
		lastCleanup: time.Now(),
	}
}

func (l *MemoryLoginLimiter) cleanup() {
	now := time.Now()
	if now.Sub(l.lastCleanup) < loginCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for ip, attempt := range l.attempts {
		if now.Sub(attempt.windowStart) > config.LoginWindow {
			delete(l.attempts, ip)
		}
	}
}

func (l *MemoryLoginLimiter) Allow(_ *http.Request, ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup()

	now := time.Now()
	attempt, exists := l.attempts[ip]

	if !exists {
		l.attempts[ip] = &loginAttempt{
			count:       1,
			windowStart: now,
		}
		return true
	}

	if now.Sub(attempt.windowStart) > config.LoginWindow {
		attempt.count = 1
		attempt.windowStart = now
		return true
	}

	if attempt.count >= config.LoginMaxAttempts {
		return false
	}

	attempt.count++
	return true
}

// LoginRateLimitMiddleware guards POST /login. Over-limit clients get the
// rate limit message flashed and are bounced back to the form.
type LoginRateLimitMiddleware struct {
	limiter LoginLimiter
	flashes *flash.Store
}

func NewLoginRateLimitMiddleware(limiter LoginLimiter, flashes *flash.Store) *LoginRateLimitMiddleware {
	return &LoginRateLimitMiddleware{
		limiter: limiter,
		flashes: flashes,
	}
}

func (m *LoginRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RealIP has already folded any forwarding headers into RemoteAddr.
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !m.limiter.Allow(r, ip) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			w.Header().Set("Retry-After", "60")
			m.flashes.PushHTTP(w, r, flash.Entry{
				Kind:    flash.KindError,
				Message: apperrors.RateLimitExceeded().Message,
			})
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
