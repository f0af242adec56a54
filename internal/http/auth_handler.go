package httpapi

import (
	"net/http"

	"labcatalog/internal/auth"
)

// AuthHandler session introspection. Sessions are issued elsewhere.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type authCheckResult struct {
	Authenticated bool            `json:"authenticated"`
	IsAdmin       bool            `json:"isAdmin"`
	User          *auth.Principal `json:"user"`
}

// AuthCheck reports the caller's identity; never fails.
func (h *AuthHandler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, Ok(authCheckResult{}))
		return
	}
	writeJSON(w, http.StatusOK, Ok(authCheckResult{Authenticated: true, IsAdmin: p.IsAdmin(), User: &p}))
}
