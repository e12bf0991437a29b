package handler

import (
	"net/http"

	"github.com/rockguard/portal-server-go/internal/middleware"
)

type APIHandler struct{}

func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

// GET /api/user (protected)
func (h *APIHandler) User(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
