package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/brandhub/pkg/businesses"
	"github.com/platinummonkey/brandhub/pkg/httputil"
)

// writeServiceError maps domain errors onto HTTP status codes. Anything
// outside the known taxonomy becomes a generic 500; the detail is logged,
// never sent to the caller.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, businesses.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, businesses.ErrPermissionDenied):
		if s.metrics != nil {
			s.metrics.PermissionDenials.WithLabelValues(r.URL.Path).Inc()
		}
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, businesses.ErrEmailMismatch):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, businesses.ErrNotFound):
		httputil.WriteNotFound(w, err.Error())
	case errors.Is(err, businesses.ErrInvitationExpired):
		httputil.WriteGone(w, err.Error())
	case errors.Is(err, businesses.ErrDuplicateInvitation),
		errors.Is(err, businesses.ErrDuplicateAccessRequest),
		errors.Is(err, businesses.ErrInvalidStateTransition),
		errors.Is(err, businesses.ErrOwnerImmutable):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, businesses.ErrValidation):
		httputil.WriteBadRequest(w, err.Error())
	default:
		s.logger.WithContext(r.Context()).WithError(err).
			WithField("path", r.URL.Path).
			Error("request failed")
		httputil.WriteInternalError(w)
	}
}
