package budget

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/billdesk/billdesk/internal/journal"
	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// JournalReader lists past save cycles.
type JournalReader interface {
	ListForClient(ctx context.Context, clientID string, limit int) ([]journal.Entry, error)
}

// Handler exposes a client's budget. It is mounted under /api/clients/{id}.
type Handler struct {
	logger     *slog.Logger
	reconciler *Reconciler
	journal    JournalReader
}

// NewHandler constructs the budget handler. journal may be nil.
func NewHandler(logger *slog.Logger, reconciler *Reconciler, journal JournalReader) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, reconciler: reconciler, journal: journal}
}

// MountRoutes attaches budget routes to the clients router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/budget", h.show)
	r.Put("/{id}/budget", h.save)
	r.Get("/{id}/budget/journal", h.history)
	r.Post("/{id}/budget/services/{serviceID}/reactivate", h.reactivate)
}

type budgetView struct {
	ClientID remote.ID  `json:"clientId"`
	Items    []WireItem `json:"items"`
	Totals   Totals     `json:"totals"`
}

type saveRequest struct {
	Items []WireItem `json:"items" validate:"dive"`
}

type saveResponse struct {
	budgetView
	Applied  Applied  `json:"applied"`
	Warnings []string `json:"warnings,omitempty"`
}

type syncProblem struct {
	Title   string  `json:"title"`
	Status  int     `json:"status"`
	Detail  string  `json:"detail"`
	Phase   string  `json:"phase"`
	Applied Applied `json:"applied"`
}

func view(clientID remote.ID, items []Item) budgetView {
	return budgetView{ClientID: clientID, Items: Encode(items), Totals: Sum(items)}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id := remote.ID(chi.URLParam(r, "id"))
	items, err := h.reconciler.Load(r.Context(), id)
	if err != nil {
		h.fail(w, "load budget failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view(id, items))
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	id := remote.ID(chi.URLParam(r, "id"))
	var req saveRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := Decode(req.Items)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.reconciler.Save(r.Context(), id, items)
	if err != nil {
		if se, ok := AsSyncError(err); ok {
			h.logger.Error("save budget failed", slog.String("phase", se.Phase), slog.Any("error", err))
			status := httpx.Status(err)
			httpx.JSON(w, status, syncProblem{
				Title:   "Budget Not Saved",
				Status:  status,
				Detail:  "the save stopped part way; changes already applied were kept",
				Phase:   se.Phase,
				Applied: se.Applied,
			})
			return
		}
		h.fail(w, "save budget failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, saveResponse{
		budgetView: view(id, res.Items),
		Applied:    res.Applied,
		Warnings:   res.Warnings,
	})
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	id := remote.ID(chi.URLParam(r, "id"))
	items, err := h.reconciler.Reactivate(r.Context(), id, remote.ID(chi.URLParam(r, "serviceID")))
	if err != nil {
		h.fail(w, "reactivate service failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view(id, items))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		httpx.JSON(w, http.StatusOK, []journal.Entry{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.journal.ListForClient(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.fail(w, "list budget journal failed", err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
