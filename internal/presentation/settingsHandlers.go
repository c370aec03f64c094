package presentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/presentation/helpers"
)

// UpsertRates serves both the vendor and admin settings routes; the scope
// is derived from the caller's role inside the service.
func (h *Handler) UpsertRates(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	kind, ok := domain.ParseRateKind(chi.URLParam(r, "kind"))
	if !ok {
		helpers.HttpError(w, http.StatusBadRequest, "kind must be tax or shipping")
		return
	}

	var body struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	setting, err := h.rates.Upsert(r.Context(), id, kind, body.Rates)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, setting)
}
