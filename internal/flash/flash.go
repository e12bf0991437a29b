// Package flash carries a single feedback message plus form prefill values
// across one redirect hop. Entries are stored server-side, keyed by a random
// per-client cookie, and are consumed on first read so a page refresh does
// not replay stale messages.
package flash

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/util"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

const CookieName = "rg_flash"

// Entries are scoped to a single redirect hop, so the keying cookie does not
// need to outlive one by much.
const cookieMaxAge = 10 * time.Minute

type Entry struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

type storedEntry struct {
	entry    Entry
	storedAt time.Time
}

type Store struct {
	mu      sync.Mutex
	entries map[string]storedEntry
	secure  bool
}

func NewStore(secure bool) *Store {
	return &Store{
		entries: make(map[string]storedEntry),
		secure:  secure,
	}
}

// Push stores the entry for key, replacing any unread entry. Each client
// context carries at most one pending entry.
func (s *Store) Push(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = storedEntry{entry: e, storedAt: time.Now()}
}

// Drain returns the pending entry for key and clears it in the same critical
// section. A second Drain before the next Push reports no entry.
func (s *Store) Drain(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	delete(s.entries, key)
	return stored.entry, true
}

// PurgeStale drops entries that were pushed but never drained, e.g. when the
// client abandoned the redirect. Returns the number removed.
func (s *Store) PurgeStale(maxAge time.Duration) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var removed int64
	for key, stored := range s.entries {
		if stored.storedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// PushHTTP pushes an entry keyed by the client's flash cookie, issuing the
// cookie first if the client does not have one yet.
func (s *Store) PushHTTP(w http.ResponseWriter, r *http.Request, e Entry) {
	key := s.clientKey(w, r)
	if key == "" {
		// Without a key the message cannot survive the redirect; the form
		// still re-renders, just without feedback.
		log.Error().Str("kind", string(e.Kind)).Msg("flash: dropping entry, no client key")
		return
	}
	s.Push(key, e)
}

// DrainHTTP drains the pending entry for the client's flash cookie, if any.
func (s *Store) DrainHTTP(r *http.Request) (Entry, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Entry{}, false
	}
	return s.Drain(cookie.Value)
}

func (s *Store) clientKey(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	key, err := util.GenerateToken()
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    key,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}
