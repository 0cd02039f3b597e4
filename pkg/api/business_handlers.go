package api

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/brandhub/pkg/audit"
	"github.com/platinummonkey/brandhub/pkg/businesses"
	"github.com/platinummonkey/brandhub/pkg/httputil"
)

// createBusiness handles POST /businesses
func (s *Server) createBusiness(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	var req businesses.CreateBusinessRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		httputil.WriteBadRequest(w, "business name is required")
		return
	}

	business := &businesses.Business{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		OwnerID:     authCtx.User.ID,
		Settings:    req.Settings,
	}

	if err := s.service.CreateBusiness(business); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, business.ID, audit.EventBusinessCreated, business.Slug, map[string]interface{}{
		"name": business.Name,
	})
	if s.metrics != nil {
		s.metrics.BusinessesTotal.Inc()
	}

	httputil.WriteCreated(w, business)
}

// listBusinesses handles GET /businesses
func (s *Server) listBusinesses(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	list, err := s.service.ListBusinesses(authCtx.User.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, list)
}

// getBusiness handles GET /businesses/{id}
func (s *Server) getBusiness(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	// Visibility follows the capability row: callers with no view
	// capability get the same 404 as a missing business.
	perm, err := s.service.ResolvePermission(authCtx.User.ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !perm.CanView {
		httputil.WriteNotFound(w, "business not found")
		return
	}

	business, err := s.service.GetBusiness(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, business)
}

// updateBusiness handles PUT /businesses/{id}
func (s *Server) updateBusiness(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req businesses.UpdateBusinessRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.service.UpdateBusiness(id, authCtx.User.ID, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, id, audit.EventBusinessUpdated, "", nil)

	business, err := s.service.GetBusiness(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, business)
}

// deleteBusiness handles DELETE /businesses/{id}
func (s *Server) deleteBusiness(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.service.DeleteBusiness(id, authCtx.User.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.recordEvent(authCtx.User.ID, id, audit.EventBusinessDeleted, "", nil)
	if s.metrics != nil {
		s.metrics.BusinessesTotal.Dec()
	}

	httputil.WriteNoContent(w)
}

// getPermissions handles GET /businesses/{id}/permissions
//
// Returns the caller's resolved capability row. A non-member gets an
// all-false row, never an error.
func (s *Server) getPermissions(w http.ResponseWriter, r *http.Request) {
	authCtx := s.requireAuth(w, r)
	if authCtx == nil {
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	perm, err := s.service.ResolvePermission(authCtx.User.ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, perm)
}
