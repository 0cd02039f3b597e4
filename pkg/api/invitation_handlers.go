package api

import (
	"net/http"
	"time"

	"github.com/platinummonkey/brandhub/pkg/audit"
	"github.com/platinummonkey/brandhub/pkg/businesses"
	"github.com/platinummonkey/brandhub/pkg/httputil"
	"github.com/platinummonkey/brandhub/pkg/middleware"
)

// createInvitation handles POST /businesses/{id}/invitations
func (s *Server) createInvitation(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req businesses.InviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	invitation, err := s.service.CreateInvitation(businessID, req.Email, req.Role, authCtx.User.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, businessID, audit.EventInvitationCreated, invitation.Email, map[string]interface{}{
		"invitation_id": invitation.ID,
		"role":          string(invitation.Role),
	})
	if s.metrics != nil {
		s.metrics.InvitationsTotal.WithLabelValues("created").Inc()
	}

	// The token is included exactly once, in this response. Listings
	// never expose it.
	httputil.WriteCreated(w, invitation)
}

// listInvitations handles GET /businesses/{id}/invitations
func (s *Server) listInvitations(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	invitations, err := s.service.ListInvitations(businessID, authCtx.User.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, invitations)
}

// revokeInvitation handles DELETE /businesses/{id}/invitations/{invitation_id}
//
// Revocation is idempotent: revoking an already-resolved or missing
// invitation still succeeds.
func (s *Server) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	businessID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	invitationID, ok := httputil.ParsePathInt64OrError(w, r, "invitation_id")
	if !ok {
		return
	}

	if err := s.service.RevokeInvitation(businessID, invitationID, authCtx.User.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, businessID, audit.EventInvitationRevoked, "", map[string]interface{}{
		"invitation_id": invitationID,
	})
	if s.metrics != nil {
		s.metrics.InvitationsTotal.WithLabelValues("revoked").Inc()
	}

	httputil.WriteNoContent(w)
}

// getInvitation handles GET /invitations/{token}
//
// Public: the invitee follows an email link before having an account.
// The response carries the effective status so an expired invitation
// reads as expired even though the stored row is still pending.
func (s *Server) getInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	invitation, err := s.service.GetInvitationByToken(token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// Never echo the token back
	invitation.Token = ""
	httputil.WriteSuccess(w, invitation)
}

// acceptInvitation handles POST /invitations/{token}/accept
//
// Requires authentication; the caller's account email must match the
// invitation's target email.
func (s *Server) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	invitation, err := s.service.AcceptInvitation(token, authCtx.User.ID, authCtx.User.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, invitation.BusinessID, audit.EventInvitationAccepted, invitation.Email, map[string]interface{}{
		"invitation_id": invitation.ID,
		"role":          string(invitation.Role),
	})
	if s.metrics != nil {
		s.metrics.InvitationsTotal.WithLabelValues("accepted").Inc()
		s.metrics.MembershipChanges.WithLabelValues("added").Inc()
		s.metrics.MembersTotal.Inc()
	}

	invitation.Token = ""
	httputil.WriteSuccess(w, invitation)
}

// declineInvitation handles POST /invitations/{token}/decline
//
// Public and allowed past expiry: an invitee can always say no for the
// record. Authentication is not required, but an authenticated decline
// is attributed in the audit trail.
func (s *Server) declineInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	invitation, err := s.service.GetInvitationByToken(token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.service.DeclineInvitation(token); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var actorID int64
	if authCtx := middleware.GetAuthContext(r); authCtx != nil && authCtx.User != nil {
		actorID = authCtx.User.ID
	}
	s.recordEvent(actorID, invitation.BusinessID, audit.EventInvitationDeclined, invitation.Email, map[string]interface{}{
		"invitation_id": invitation.ID,
	})
	if s.metrics != nil {
		s.metrics.InvitationsTotal.WithLabelValues("declined").Inc()
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"status":      businesses.InvitationDeclined,
		"declined_at": time.Now(),
	})
}
