package presentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sellora/marketplace-service/internal/application"
	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/presentation/helpers"
)

func (h *Handler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		OrderID string                        `json:"order_id"`
		Items   []application.ReturnItemInput `json:"items"`
		Notes   string                        `json:"notes"`
	}
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	orderID, err := uuid.Parse(body.OrderID)
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid order_id")
		return
	}

	req, err := h.returns.Create(r.Context(), id, orderID, body.Items, body.Notes)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) TransitionReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	returnID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid return id")
		return
	}

	var body struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	req, err := h.returns.Transition(r.Context(), id, returnID, body.Status, body.Note)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) ListMyReturns(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	page, limit := parsePage(r)

	items, total, err := h.returns.ListMine(r.Context(), id, page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, items, total, page, limit)
}

func (h *Handler) ListVendorReturns(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	page, limit := parsePage(r)

	items, total, err := h.returns.ListVendor(r.Context(), id, r.URL.Query().Get("status"), page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, items, total, page, limit)
}

func (h *Handler) ListAllReturns(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	page, limit := parsePage(r)
	q := r.URL.Query()

	items, total, err := h.returns.ListAll(r.Context(), id, q.Get("status"), q.Get("email"), page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, items, total, page, limit)
}
