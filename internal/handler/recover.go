package handler

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/middleware"
)

// Recoverer turns a handler panic into a rendered generic error page. The
// panic value and stack go to the log only; the client never sees them.
func Recoverer(renderer *Renderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				log.Error().
					Interface("panic", rvr).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("request panicked")

				renderer.Render(w, http.StatusInternalServerError, "error.html", pageData{
					Title: "Error - RockGuard AI",
					User:  middleware.GetUser(r.Context()),
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
