package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/billdesk/billdesk/internal/platform/httpx"
	"github.com/billdesk/billdesk/internal/remote"
)

// Handler exposes catalog, combo and plan endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.snapshot)
	r.Post("/refresh", h.refresh)
	r.Post("/items", h.createItem)
	r.Put("/items/{id}", h.updateItem)
	r.Delete("/items/{id}", h.deleteItem)
	r.Post("/combos", h.createCombo)
	r.Put("/combos/{id}", h.updateCombo)
	r.Delete("/combos/{id}", h.deleteCombo)
	r.Get("/combos/{id}/price", h.quote)
}

// MountPlanRoutes attaches plan routes.
func (h *Handler) MountPlanRoutes(r chi.Router) {
	r.Get("/", h.listPlans)
	r.Post("/", h.createPlan)
	r.Put("/{id}", h.updatePlan)
	r.Delete("/{id}", h.deletePlan)
}

type comboView struct {
	Combo
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
}

type snapshotView struct {
	Items  []Item      `json:"items"`
	Combos []comboView `json:"combos"`
}

func pathID(r *http.Request) remote.ID {
	return remote.ID(chi.URLParam(r, "id"))
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, snap Snapshot) {
	view := snapshotView{Items: snap.Items, Combos: make([]comboView, 0, len(snap.Combos))}
	for _, c := range snap.Combos {
		view.Combos = append(view.Combos, comboView{Combo: c, EffectivePrice: EffectivePrice(c, snap)})
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.fail(w, "load catalog failed", err)
		return
	}
	h.writeSnapshot(w, snap)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Refresh(r.Context())
	if err != nil {
		h.fail(w, "refresh catalog failed", err)
		return
	}
	h.writeSnapshot(w, snap)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	it, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		h.fail(w, "create catalog item failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, it)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	it, err := h.service.UpdateItem(r.Context(), pathID(r), req)
	if err != nil {
		h.fail(w, "update catalog item failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, it)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), pathID(r)); err != nil {
		h.fail(w, "delete catalog item failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createCombo(w http.ResponseWriter, r *http.Request) {
	var req ComboRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateCombo(r.Context(), req)
	if err != nil {
		h.fail(w, "create combo failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCombo(w http.ResponseWriter, r *http.Request) {
	var req ComboRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateCombo(r.Context(), pathID(r), req)
	if err != nil {
		h.fail(w, "update combo failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCombo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCombo(r.Context(), pathID(r)); err != nil {
		h.fail(w, "delete combo failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.QuoteCombo(r.Context(), pathID(r))
	if err != nil {
		h.fail(w, "quote combo failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		h.fail(w, "list plans failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, plans)
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		h.fail(w, "create plan failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdatePlan(r.Context(), pathID(r), req)
	if err != nil {
		h.fail(w, "update plan failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePlan(r.Context(), pathID(r)); err != nil {
		h.fail(w, "delete plan failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
