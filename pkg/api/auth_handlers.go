package api

import (
	"net/http"
	"time"

	"github.com/platinummonkey/brandhub/pkg/httputil"
)

// createUser handles POST /auth/users
//
// Bootstrap endpoint: user creation does not require an existing identity
// so the first account can be provisioned.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := s.users.CreateUser(req.Username, req.Email, req.FullName)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	httputil.WriteCreated(w, user)
}

// getUser handles GET /auth/users/{id}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	if s.requireAuth(w, r) == nil {
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.users.GetUser(id)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w)
		return
	}
	if user == nil {
		httputil.WriteNotFound(w, "user not found")
		return
	}

	httputil.WriteSuccess(w, user)
}

// createToken handles POST /auth/tokens
//
// Like user creation, token issuance accepts an explicit user_id so the
// first credential can be minted. The plaintext token appears only in
// this response.
func (s *Server) createToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    int64      `json:"user_id"`
		Name      string     `json:"name"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	userID := req.UserID
	if authCtx := s.optionalAuth(r); authCtx != nil {
		// Authenticated callers mint tokens for themselves only
		userID = authCtx.User.ID
	}
	if userID == 0 {
		httputil.WriteBadRequest(w, "user_id is required")
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "token name is required")
		return
	}

	apiToken, plaintext, err := s.tokens.CreateToken(userID, req.Name, req.ExpiresAt)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("token creation failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"token":     plaintext,
		"api_token": apiToken,
	})
}

// listTokens handles GET /auth/tokens
func (s *Server) listTokens(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	tokens, err := s.tokens.ListUserTokens(authCtx.User.ID)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("token listing failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, tokens)
}

// revokeToken handles DELETE /auth/tokens/{id}
func (s *Server) revokeToken(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.tokens.RevokeToken(id, authCtx.User.ID); err != nil {
		httputil.WriteNotFound(w, "token not found")
		return
	}

	httputil.WriteNoContent(w)
}
