package presentation

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sellora/marketplace-service/internal/application"
	"github.com/sellora/marketplace-service/internal/presentation/helpers"
)

type taxQuoteRequest struct {
	Country  string                  `json:"country"`
	Items    []application.QuoteItem `json:"items"`
	Discount decimal.Decimal         `json:"discount"`
}

func (h *Handler) QuoteTax(w http.ResponseWriter, r *http.Request) {
	var req taxQuoteRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	total, perSeller, err := h.pricing.QuoteTax(r.Context(), req.Country, req.Items, req.Discount)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"country":   req.Country,
		"totalTax":  total,
		"perSeller": perSeller,
	})
}

type shippingQuoteRequest struct {
	Country string                  `json:"country"`
	Items   []application.QuoteItem `json:"items"`
}

func (h *Handler) QuoteShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingQuoteRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	perSeller, total, err := h.pricing.QuoteShipping(r.Context(), req.Country, req.Items)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"country":       req.Country,
		"perSeller":     perSeller,
		"totalShipping": total,
	})
}
