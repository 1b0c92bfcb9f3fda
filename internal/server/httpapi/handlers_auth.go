package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/medvoice/medvoice/internal/common"
)

type googleTokenRequest struct {
	IDToken string `json:"id_token"`
}

// handleGoogleToken exchanges a Google ID token for a session token.
func (s *HTTPServer) handleGoogleToken(w http.ResponseWriter, r *http.Request) {
	var req googleTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		s.writeError(w, r, common.ErrorValidation)
		return
	}

	user, token, err := s.users.LoginWithGoogleToken(r.Context(), req.IDToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserResponse(user),
	})
}

// handleGoogleLogin documents the sign-in flow. The browser obtains the ID
// token itself via Google's client library and posts it to the token
// endpoint; there is no server-side OAuth redirect dance.
func (s *HTTPServer) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Use Google OAuth2 client library in frontend to obtain ID token",
		"endpoint": "/auth/google/token",
		"method":   http.MethodPost,
		"body":     map[string]string{"id_token": "google_id_token_here"},
	})
}

// handleMe returns the account behind the current session token.
func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleLogout is stateless: sessions are bearer tokens, the client
// discards its copy.
func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully. Please discard your access token.",
	})
}
