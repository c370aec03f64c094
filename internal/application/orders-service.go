package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/repository"
)

type OrdersService struct {
	repo    repository.OrderRepo
	catalog repository.Catalog
	pricing *PricingService
	outbox  Outbox
	audit   *AuditService
	notify  *NotificationsService
}

func NewOrdersService(r repository.OrderRepo, catalog repository.Catalog, pricing *PricingService,
	outbox Outbox, audit *AuditService, notify *NotificationsService) *OrdersService {
	return &OrdersService{repo: r, catalog: catalog, pricing: pricing, outbox: outbox, audit: audit, notify: notify}
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutInput struct {
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Country       string          `json:"country"`
	Zip           string          `json:"zip"`
	Items         []CheckoutItem  `json:"items"`
	PaymentMethod string          `json:"payment_method"`
	CouponCode    string          `json:"coupon_code"`
	Discount      decimal.Decimal `json:"discount"` // pre-validated by the coupon evaluator
}

// Checkout prices the cart and persists the order. Line prices and seller
// attribution come from the catalog, never from the client; the discount is
// consumed as-is (coupon validation is upstream).
func (s *OrdersService) Checkout(ctx context.Context, in CheckoutInput) (*domain.Order, error) {
	switch {
	case strings.TrimSpace(in.CustomerEmail) == "":
		return nil, domain.Validationf("customer_email is required")
	case strings.TrimSpace(in.CustomerName) == "":
		return nil, domain.Validationf("customer_name is required")
	case strings.TrimSpace(in.Address) == "":
		return nil, domain.Validationf("address is required")
	case strings.TrimSpace(in.Country) == "":
		return nil, domain.Validationf("country is required")
	case len(in.Items) == 0:
		return nil, domain.Validationf("items must not be empty")
	case in.Discount.IsNegative():
		return nil, domain.Validationf("discount must not be negative")
	}

	ids := make([]string, 0, len(in.Items))
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, domain.Validationf("item %d: quantity must be positive", i)
		}
		if it.ProductID == "" {
			return nil, domain.Validationf("item %d: product_id is required", i)
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lineItems := make([]domain.OrderLineItem, 0, len(in.Items))
	quoteItems := make([]QuoteItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, domain.NotFound("product", it.ProductID)
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		lineItems = append(lineItems, domain.OrderLineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Subtotal:  p.Price.Mul(qty),
			Seller:    p.Seller,
		})
		quoteItems = append(quoteItems, QuoteItem{
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Seller:    p.Seller,
		})
	}

	summary, err := s.pricing.Summary(ctx, in.Country, quoteItems, in.Discount)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            uuid.New(),
		CustomerEmail: in.CustomerEmail,
		CustomerName:  in.CustomerName,
		Phone:         in.Phone,
		Address:       in.Address,
		City:          in.City,
		Country:       in.Country,
		Zip:           in.Zip,
		Items:         lineItems,
		Summary:       summary,
		PaymentMethod: in.PaymentMethod,
		Status:        domain.OrderPending,
		CouponCode:    in.CouponCode,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.AddOrder(ctx, order); err != nil {
		return nil, err
	}

	id, _ := domain.IdentityFromContext(ctx)
	meta := domain.MetaFromContext(ctx)
	s.outbox.Enqueue(Task{Kind: "audit", Run: func(taskCtx context.Context) error {
		s.audit.Record(domain.WithRequestMeta(taskCtx, meta), domain.AuditLogEntry{
			Actor:        in.CustomerEmail,
			ActorRole:    id.Role,
			Action:       "order.created",
			ResourceType: "order",
			ResourceID:   order.ID.String(),
			After:        map[string]any{"status": order.Status, "total": order.Summary.Total},
		})
		return nil
	}})
	for _, seller := range distinctItemSellers(lineItems) {
		seller := seller
		s.outbox.Enqueue(Task{Kind: "notify", Run: func(taskCtx context.Context) error {
			return s.notify.Notify(taskCtx, seller,
				"New order received",
				fmt.Sprintf("Order %s contains items from your store.", order.ID),
				"order_created",
				map[string]any{"order_id": order.ID.String()})
		}})
	}

	return order, nil
}

// ListMine returns the customer's orders, newest first. An explicit email is
// honoured for pre-auth lookups and admin searches.
func (s *OrdersService) ListMine(ctx context.Context, id domain.Identity, emailOverride string, page, limit int) ([]domain.Order, int, error) {
	email := id.Email
	if emailOverride != "" && (id.Email == "" || id.IsAdmin()) {
		email = emailOverride
	}
	if email == "" {
		return nil, 0, domain.Validationf("email is required")
	}

	limit, offset := pageBounds(page, limit)
	var (
		orders []domain.Order
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.repo.ListByEmail(gctx, email, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByEmail(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListVendor decomposes shared orders into vendor-scoped sub-orders.
func (s *OrdersService) ListVendor(ctx context.Context, id domain.Identity, page, limit int) ([]domain.VendorOrder, int, error) {
	if !id.IsVendor() {
		return nil, 0, domain.Forbiddenf("vendor role required")
	}

	limit, offset := pageBounds(page, limit)
	var (
		lines []domain.VendorOrderLine
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lines, err = s.repo.ListVendorOrderLines(gctx, id.UserID, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountVendorOrders(gctx, id.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return groupVendorLines(lines), total, nil
}

// groupVendorLines regroups unwound vendor lines by originating order,
// preserving newest-first order and summing the vendor-scoped subtotal.
func groupVendorLines(lines []domain.VendorOrderLine) []domain.VendorOrder {
	byOrder := make(map[uuid.UUID]*domain.VendorOrder)
	var ordered []uuid.UUID
	for _, line := range lines {
		vo, ok := byOrder[line.OrderID]
		if !ok {
			vo = &domain.VendorOrder{
				OrderID:       line.OrderID,
				CustomerEmail: line.CustomerEmail,
				Status:        line.Status,
				PaymentMethod: line.PaymentMethod,
				CreatedAt:     line.CreatedAt,
			}
			byOrder[line.OrderID] = vo
			ordered = append(ordered, line.OrderID)
		}
		vo.Items = append(vo.Items, line.Item)
		vo.TotalForVendor = vo.TotalForVendor.Add(line.Item.Subtotal)
	}

	out := make([]domain.VendorOrder, 0, len(ordered))
	for _, id := range ordered {
		out = append(out, *byOrder[id])
	}
	return out
}

func (s *OrdersService) ListAll(ctx context.Context, id domain.Identity, emailSearch, status string, page, limit int) ([]domain.Order, int, error) {
	if !id.IsAdmin() {
		return nil, 0, domain.Forbiddenf("admin role required")
	}

	limit, offset := pageBounds(page, limit)
	var (
		orders []domain.Order
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.repo.ListAll(gctx, emailSearch, status, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountAll(gctx, emailSearch, status)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus is admin-only. The write is revision-guarded; after it lands,
// the customer and every distinct vendor in the order are notified through
// the outbox, so a flaky side channel can never roll back the transition.
func (s *OrdersService) UpdateStatus(ctx context.Context, id domain.Identity, orderID uuid.UUID, statusStr string) (*domain.Order, error) {
	if !id.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}
	status, ok := domain.ParseOrderStatus(statusStr)
	if !ok {
		return nil, domain.Validationf("invalid order status %q", statusStr)
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NotFound("order", orderID.String())
	}

	prev := order.Status
	if err := s.repo.UpdateStatus(ctx, orderID, status, order.Revision); err != nil {
		return nil, err
	}
	order.Status = status
	order.Revision++

	meta := domain.MetaFromContext(ctx)
	s.outbox.Enqueue(Task{Kind: "audit", Run: func(taskCtx context.Context) error {
		s.audit.Record(domain.WithRequestMeta(taskCtx, meta), domain.AuditLogEntry{
			Actor:        id.UserID,
			ActorRole:    id.Role,
			Action:       "order.status_changed",
			ResourceType: "order",
			ResourceID:   orderID.String(),
			Before:       map[string]any{"status": prev},
			After:        map[string]any{"status": status},
		})
		return nil
	}})

	message := fmt.Sprintf("Order %s is now %s.", orderID, status)
	s.outbox.Enqueue(Task{Kind: "notify", Run: func(taskCtx context.Context) error {
		return s.notify.Notify(taskCtx, order.CustomerEmail,
			"Order status updated", message, "order_status",
			map[string]any{"order_id": orderID.String(), "status": status})
	}})

	vendors, err := s.repo.DistinctVendors(ctx, orderID)
	if err != nil {
		// Vendor fan-out is best-effort; the transition already landed.
		vendors = nil
	}
	for _, vendor := range vendors {
		vendor := vendor
		s.outbox.Enqueue(Task{Kind: "notify", Run: func(taskCtx context.Context) error {
			return s.notify.Notify(taskCtx, vendor,
				"Order status updated", message, "order_status",
				map[string]any{"order_id": orderID.String(), "status": status})
		}})
	}

	return order, nil
}

func distinctItemSellers(items []domain.OrderLineItem) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		if it.Seller == "" {
			continue
		}
		if _, ok := seen[it.Seller]; ok {
			continue
		}
		seen[it.Seller] = struct{}{}
		out = append(out, it.Seller)
	}
	return out
}
