package handler

import (
	"net/http"

	"github.com/rockguard/portal-server-go/internal/flash"
	"github.com/rockguard/portal-server-go/internal/middleware"
)

type PagesHandler struct {
	flashes  *flash.Store
	renderer *Renderer
}

func NewPagesHandler(flashes *flash.Store, renderer *Renderer) *PagesHandler {
	return &PagesHandler{
		flashes:  flashes,
		renderer: renderer,
	}
}

// GET /
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.flashes.DrainHTTP(r)
	data := pageData{
		Title: "RockGuard AI - Rockfall Prediction System",
		User:  middleware.GetUser(r.Context()),
	}.withFlash(entry, ok)
	h.renderer.Render(w, http.StatusOK, "index.html", data)
}

// GET /dashboard (protected)
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.flashes.DrainHTTP(r)
	data := pageData{
		Title: "Dashboard - RockGuard AI",
		User:  middleware.GetUser(r.Context()),
	}.withFlash(entry, ok)
	h.renderer.Render(w, http.StatusOK, "dashboard.html", data)
}

// GET /terms
func (h *PagesHandler) Terms(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "terms.html", pageData{
		Title: "Terms of Service - RockGuard AI",
		User:  middleware.GetUser(r.Context()),
	})
}

// GET /privacy
func (h *PagesHandler) Privacy(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "privacy.html", pageData{
		Title: "Privacy Policy - RockGuard AI",
		User:  middleware.GetUser(r.Context()),
	})
}

// Fallback for unmatched routes.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusNotFound, "404.html", pageData{
		Title: "Page Not Found - RockGuard AI",
		User:  middleware.GetUser(r.Context()),
	})
}
