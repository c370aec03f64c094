package presentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sellora/marketplace-service/internal/application"
	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/presentation/helpers"
)

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in application.CheckoutInput
	if err := helpers.DecodeJSON(r.Body, &in); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	order, err := h.orders.Checkout(r.Context(), in)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, order)
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := domain.IdentityFromContext(r.Context())
	page, limit := parsePage(r)

	orders, total, err := h.orders.ListMine(r.Context(), id, r.URL.Query().Get("email"), page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, orders, total, page, limit)
}

func (h *Handler) ListVendorOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	page, limit := parsePage(r)

	orders, total, err := h.orders.ListVendor(r.Context(), id, page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, orders, total, page, limit)
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	page, limit := parsePage(r)
	q := r.URL.Query()

	orders, total, err := h.orders.ListAll(r.Context(), id, q.Get("email"), q.Get("status"), page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, orders, total, page, limit)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, orderID, body.Status)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, order)
}
