package presentation

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sellora/marketplace-service/internal/application"
	"github.com/sellora/marketplace-service/internal/domain"
)

type Handler struct {
	pricing *application.PricingService
	orders  *application.OrdersService
	returns *application.ReturnsService
	rates   *application.RatesService
	audit   *application.AuditService
	notifs  *application.NotificationsService
}

func NewHandler(pricing *application.PricingService, orders *application.OrdersService,
	returns *application.ReturnsService, rates *application.RatesService,
	audit *application.AuditService, notifs *application.NotificationsService) *Handler {
	return &Handler{pricing: pricing, orders: orders, returns: returns, rates: rates, audit: audit, notifs: notifs}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(Identity)

		r.Post("/pricing/tax", h.QuoteTax)
		r.Post("/pricing/shipping", h.QuoteShipping)
		r.Post("/checkout", h.Checkout)

		r.Get("/orders", h.ListMyOrders)
		r.Get("/vendor/orders", h.ListVendorOrders)
		r.Get("/admin/orders", h.ListAllOrders)
		r.Patch("/admin/orders/{id}/status", h.UpdateOrderStatus)

		r.Post("/returns", h.CreateReturn)
		r.Get("/returns", h.ListMyReturns)
		r.Get("/vendor/returns", h.ListVendorReturns)
		r.Get("/admin/returns", h.ListAllReturns)
		r.Patch("/returns/{id}/status", h.TransitionReturn)

		r.Put("/vendor/settings/{kind}", h.UpsertRates)
		r.Put("/admin/settings/{kind}", h.UpsertRates)

		r.With(RequireRole(domain.RoleAdmin)).Get("/admin/audit", h.ListAudit)
		r.With(RequireRole(domain.RoleAdmin)).Get("/admin/audit/export", h.ExportAudit)

		r.Route("/notifications", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleCustomer, domain.RoleCompany, domain.RoleAdmin))
			r.Get("/", h.ListNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Post("/{id}/read", h.MarkNotificationRead)
			r.Post("/read-all", h.MarkAllNotificationsRead)
		})
	})
}

func parsePage(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
