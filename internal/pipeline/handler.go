package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Handler exposes the board.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the pipeline handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches pipeline routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.board)
	r.Post("/{id}/move", h.move)
}

type moveRequest struct {
	Status string `json:"status" validate:"required,max=60"`
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Board(r.Context(), r.URL.Query().Get("inactive") == "true")
	if err != nil {
		h.logger.Error("load pipeline failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Move(r.Context(), remote.ID(chi.URLParam(r, "id")), req.Status)
	if err != nil {
		h.logger.Error("move client failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
