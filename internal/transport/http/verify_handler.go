package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "keygate/internal/errors"
	"keygate/internal/license"
	"keygate/internal/services"
	api "keygate/pkg/contracts/api/v1"
)

// VerifyHandler serves the client facing endpoints: the liveness banner at /
// and key verification at /verify.
type VerifyHandler struct {
	service    services.KeyService
	errHandler *apierrors.ErrorHandler
	logger     *slog.Logger
}

// NewVerifyHandler creates a new verify handler
func NewVerifyHandler(service services.KeyService, errHandler *apierrors.ErrorHandler, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		service:    service,
		errHandler: errHandler,
		logger:     logger.With(slog.String("handler", "verify")),
	}
}

// Index handles GET /
func (h *VerifyHandler) Index(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.MessageResponse{Message: api.MessageAPIOnline, Status: api.StatusOK})
}

// Verify handles GET /verify?key=&hwid=
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	key := query.Get("key")
	if key == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.MessageResponse{Message: api.MessageMissingKey, Status: api.StatusError})
		return
	}

	result, err := h.service.Verify(r.Context(), key, query.Get("hwid"))
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	status, body := verifyResponse(result)
	render.Status(r, status)
	render.JSON(w, r, body)
}

// verifyResponse maps an outcome onto its status code and body
func verifyResponse(result *services.VerifyResult) (int, interface{}) {
	switch result.Outcome {
	case license.OutcomeNotFound:
		return http.StatusNotFound, api.MessageResponse{Message: api.MessageKeyNotFound, Status: api.StatusInvalid}
	case license.OutcomeExpired:
		return http.StatusForbidden, api.MessageResponse{Message: api.MessageKeyExpired, Status: api.StatusExpired}
	case license.OutcomeMismatch:
		return http.StatusForbidden, api.MessageResponse{Message: api.MessageHwidMismatch, Status: api.StatusInvalid}
	case license.OutcomeValidBypass:
		id := result.ID
		return http.StatusOK, api.VerifyResponse{ID: &id, Message: api.MessageKeyValidBypass, Status: api.StatusOK}
	default:
		id := result.ID
		return http.StatusOK, api.VerifyResponse{ID: &id, Message: api.MessageKeyValid, Status: api.StatusOK}
	}
}
