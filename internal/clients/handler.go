package clients

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Handler exposes the client endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the client handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}", h.update)
	r.Put("/{id}/status", h.updateStatus)
	r.Post("/{id}/deactivate", h.deactivate)
	r.Post("/{id}/reactivate", h.reactivate)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,max=60"`
}

func clientID(r *http.Request) remote.ID {
	return remote.ID(chi.URLParam(r, "id"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	items, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, "list clients failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, "get client failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create client failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := httpx.Bind(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateFields(r.Context(), clientID(r), patch)
	if err != nil {
		h.fail(w, "update client failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateStatus(r.Context(), clientID(r), req.Status)
	if err != nil {
		h.fail(w, "update client status failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Deactivate(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, "deactivate client failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Reactivate(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, "reactivate client failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
