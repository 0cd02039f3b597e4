package api

import (
	"net/http"

	"github.com/platinummonkey/brandhub/pkg/audit"
	"github.com/platinummonkey/brandhub/pkg/businesses"
	"github.com/platinummonkey/brandhub/pkg/httputil"
)

// createAccessRequest handles POST /businesses/{id}/access-requests
func (s *Server) createAccessRequest(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var input businesses.AccessRequestInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	request, err := s.service.CreateAccessRequest(businessID, authCtx.User.ID, &input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, businessID, audit.EventAccessRequested, "", map[string]interface{}{
		"request_id":     request.ID,
		"requested_role": string(request.RequestedRole),
	})
	if s.metrics != nil {
		s.metrics.AccessRequestsTotal.WithLabelValues("created").Inc()
	}

	httputil.WriteCreated(w, request)
}

// listAccessRequests handles GET /businesses/{id}/access-requests
func (s *Server) listAccessRequests(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	requests, err := s.service.ListAccessRequests(businessID, authCtx.User.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, requests)
}

// reviewAccessRequest handles POST /businesses/{id}/access-requests/{request_id}/review
func (s *Server) reviewAccessRequest(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	requestID, ok := httputil.ParsePathInt64OrError(w, r, "request_id")
	if !ok {
		return
	}

	var body struct {
		Decision businesses.ReviewDecision `json:"decision"`
	}
	if !httputil.ParseJSONOrError(w, r, &body) {
		return
	}
	if body.Decision != businesses.ReviewApprove && body.Decision != businesses.ReviewReject {
		httputil.WriteBadRequest(w, "decision must be approve or reject")
		return
	}

	request, err := s.service.ReviewAccessRequest(businessID, requestID, authCtx.User.ID, body.Decision)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	action := audit.EventAccessRejected
	outcome := "rejected"
	if body.Decision == businesses.ReviewApprove {
		action = audit.EventAccessApproved
		outcome = "approved"
	}
	s.recordEvent(authCtx.User.ID, businessID, action, "", map[string]interface{}{
		"request_id": requestID,
		"user_id":    request.UserID,
	})
	if s.metrics != nil {
		s.metrics.AccessRequestsTotal.WithLabelValues(outcome).Inc()
		if body.Decision == businesses.ReviewApprove {
			s.metrics.MembershipChanges.WithLabelValues("added").Inc()
			s.metrics.MembersTotal.Inc()
		}
	}

	httputil.WriteSuccess(w, request)
}

// listAuditEvents handles GET /businesses/{id}/audit
//
// Restricted to callers with the manage_team capability.
func (s *Server) listAuditEvents(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	perm, err := s.service.ResolvePermission(authCtx.User.ID, businessID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !perm.CanManageTeam {
		httputil.WriteForbidden(w, "permission denied")
		return
	}

	events, err := s.recorder.List(r.Context(), businessID, 100)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, events)
}
