package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "keygate/internal/errors"
	"keygate/internal/license"
	"keygate/internal/middleware"
	"keygate/internal/services"
	api "keygate/pkg/contracts/api/v1"
)

// KeyHandler serves the administrative /keys endpoints
type KeyHandler struct {
	service    services.KeyService
	validator  *middleware.RequestValidator
	errHandler *apierrors.ErrorHandler
	logger     *slog.Logger
}

// NewKeyHandler creates a new key handler
func NewKeyHandler(service services.KeyService, validator *middleware.RequestValidator, errHandler *apierrors.ErrorHandler, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{
		service:    service,
		validator:  validator,
		errHandler: errHandler,
		logger:     logger.With(slog.String("handler", "keys")),
	}
}

// Routes returns a chi router for key administration. Ids that are not
// non-negative integers never match and fall through to 404.
func (h *KeyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validator.LimitBody)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/{id:[0-9]+}", h.Update)
	r.Delete("/{id:[0-9]+}", h.Delete)

	return r
}

// Create handles POST /keys
func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := api.NewCreateKeyRequest()
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.decodeFailure(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		if middleware.FailedField(err, "key", "required") {
			h.keyRequired(w, r)
			return
		}
		h.errHandler.HandleError(w, r, err)
		return
	}

	id, err := h.service.Create(r.Context(), services.CreateKeyInput{
		Key:        req.Key,
		Months:     int(req.Months),
		HwidBypass: req.HwidBypass,
	})
	if err != nil {
		if errors.Is(err, license.ErrKeyRequired) {
			h.keyRequired(w, r)
			return
		}
		if errors.Is(err, license.ErrMonthsOutOfRange) {
			h.logger.DebugContext(r.Context(), "create rejected with months out of range",
				slog.String("request_id", middleware.GetRequestID(r.Context())),
				slog.String("code", license.ErrCodeMonthsRange),
				slog.Int("months", int(req.Months)))
			err = apierrors.NewValidationErrors([]apierrors.ValidationError{{
				Field:   "months",
				Rule:    "range",
				Message: "months puts the expiry outside the years 0000 to 9999",
			}})
		}
		h.errHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.CreateKeyResponse{ID: id, Status: api.StatusOK})
}

// List handles GET /keys
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	views := make([]api.KeyView, 0, len(records))
	for i := range records {
		views = append(views, toKeyView(&records[i]))
	}
	render.JSON(w, r, views)
}

// Update handles PATCH /keys/{id}
func (h *KeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req api.UpdateKeyRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.decodeFailure(w, r, err)
		return
	}
	if !req.HwidSet {
		h.logger.DebugContext(r.Context(), "update rejected without editable field",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("code", license.ErrCodeNoValidField))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.ErrorResponse{Error: license.ErrNoValidField.Error()})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	if err := h.service.UpdateHwid(r.Context(), id, req.Hwid); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.StatusResponse{Status: api.StatusOK})
}

// Delete handles DELETE /keys/{id}
func (h *KeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.StatusResponse{Status: api.StatusDeleted})
}

// parseID reads the {id} URL parameter. The route pattern guarantees digits,
// so the only failure left is an id too large for int64, which cannot exist.
func (h *KeyHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errHandler.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *KeyHandler) decodeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, middleware.ErrEmptyBody) {
		err = apierrors.ErrMissingBody
	}
	h.errHandler.HandleError(w, r, err)
}

func (h *KeyHandler) keyRequired(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "create rejected without key",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("code", license.ErrCodeKeyRequired))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, api.ErrorResponse{Error: license.ErrKeyRequired.Error()})
}

func toKeyView(rec *license.KeyRecord) api.KeyView {
	return api.KeyView{
		CreatedAt: license.FormatTimestamp(rec.CreatedAt),
		ExpiresAt: license.FormatTimestamp(rec.ExpiresAt),
		Hwid:      rec.Hwid,
		ID:        rec.ID,
		Key:       rec.Key,
		Months:    rec.Months,
	}
}
