package api

import (
	"net/http"

	"github.com/platinummonkey/brandhub/pkg/audit"
	"github.com/platinummonkey/brandhub/pkg/businesses"
	"github.com/platinummonkey/brandhub/pkg/httputil"
)

// listMembers handles GET /businesses/{id}/members
func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	list, err := s.service.ListMembers(businessID, authCtx.User.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, list)
}

// updateMemberRole handles PUT /businesses/{id}/members/{user_id}
func (s *Server) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	targetUserID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	var req businesses.UpdateMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.service.UpdateMemberRole(businessID, targetUserID, req.Role, authCtx.User.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, businessID, audit.EventMemberRoleChanged, "", map[string]interface{}{
		"user_id": targetUserID,
		"role":    string(req.Role),
	})
	if s.metrics != nil {
		s.metrics.MembershipChanges.WithLabelValues("role_changed").Inc()
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"business_id": businessID,
		"user_id":     targetUserID,
		"role":        req.Role,
	})
}

// removeMember handles DELETE /businesses/{id}/members/{user_id}
//
// Members may remove themselves regardless of role; removing anyone else
// requires the manage_team capability.
func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	targetUserID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	if err := s.service.RemoveMember(businessID, targetUserID, authCtx.User.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	kind := "removed"
	action := audit.EventMemberRemoved
	if targetUserID == authCtx.User.ID {
		kind = "self_removed"
		action = audit.EventMemberLeft
	}
	s.recordEvent(authCtx.User.ID, businessID, action, "", map[string]interface{}{
		"user_id": targetUserID,
	})
	if s.metrics != nil {
		s.metrics.MembershipChanges.WithLabelValues(kind).Inc()
		s.metrics.MembersTotal.Dec()
	}

	httputil.WriteNoContent(w)
}
