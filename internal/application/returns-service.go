package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/repository"
)

type ReturnsService struct {
	repo    repository.ReturnRepo
	orders  repository.OrderRepo
	catalog repository.Catalog
	outbox  Outbox
	audit   *AuditService
	notify  *NotificationsService
}

func NewReturnsService(r repository.ReturnRepo, orders repository.OrderRepo, catalog repository.Catalog,
	outbox Outbox, audit *AuditService, notify *NotificationsService) *ReturnsService {
	return &ReturnsService{repo: r, orders: orders, catalog: catalog, outbox: outbox, audit: audit, notify: notify}
}

type ReturnItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// Create opens a return request against an order the customer owns. Every
// requested quantity must fit within what the order actually contains; a
// missing product fails the whole request, there is no partial creation.
func (s *ReturnsService) Create(ctx context.Context, id domain.Identity, orderID uuid.UUID, items []ReturnItemInput, notes string) (*domain.ReturnRequest, error) {
	if id.Role != domain.RoleCustomer {
		return nil, domain.Forbiddenf("only customers can request returns")
	}
	if len(items) == 0 {
		return nil, domain.Validationf("items must not be empty")
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NotFound("order", orderID.String())
	}
	if !strings.EqualFold(order.CustomerEmail, id.Email) {
		return nil, domain.Forbiddenf("order does not belong to this customer")
	}

	// Quantity actually ordered per product, summed across matching lines.
	orderedQty := make(map[string]int)
	for _, line := range order.Items {
		orderedQty[line.ProductID] += line.Quantity
	}

	// Requested quantities are summed per product before the bound check, so
	// a product listed twice cannot slip past the per-line comparison.
	requested := make(map[string]int)
	ids := make([]string, 0, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return nil, domain.Validationf("item %d: product_id is required", i)
		}
		if it.Quantity <= 0 {
			return nil, domain.Validationf("item %d: quantity must be positive", i)
		}
		requested[it.ProductID] += it.Quantity
		if requested[it.ProductID] > orderedQty[it.ProductID] {
			return nil, domain.Validationf("item %d: requested quantity %d for product %s exceeds ordered quantity %d",
				i, requested[it.ProductID], it.ProductID, orderedQty[it.ProductID])
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]domain.ReturnItem, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, domain.NotFound("product", it.ProductID)
		}
		enriched = append(enriched, domain.ReturnItem{
			ProductID: it.ProductID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			Reason:    it.Reason,
			Seller:    p.Seller,
		})
	}

	now := time.Now().UTC()
	req := &domain.ReturnRequest{
		ID:            uuid.New(),
		OrderID:       orderID,
		CustomerEmail: order.CustomerEmail,
		Items:         enriched,
		Status:        domain.ReturnRequested,
		Notes:         notes,
		History: []domain.ReturnHistoryEntry{{
			ActorRole: domain.RoleCustomer,
			Actor:     id.Email,
			Action:    string(domain.ReturnRequested),
			Note:      notes,
			Timestamp: now,
		}},
		CreatedAt: now,
	}
	if err := s.repo.AddReturn(ctx, req); err != nil {
		return nil, err
	}

	meta := domain.MetaFromContext(ctx)
	s.outbox.Enqueue(Task{Kind: "audit", Run: func(taskCtx context.Context) error {
		s.audit.Record(domain.WithRequestMeta(taskCtx, meta), domain.AuditLogEntry{
			Actor:        id.Email,
			ActorRole:    domain.RoleCustomer,
			Action:       "return.created",
			ResourceType: "return_request",
			ResourceID:   req.ID.String(),
			After:        map[string]any{"status": req.Status, "order_id": orderID.String()},
		})
		return nil
	}})
	for _, seller := range req.Sellers() {
		seller := seller
		s.outbox.Enqueue(Task{Kind: "notify", Run: func(taskCtx context.Context) error {
			return s.notify.Notify(taskCtx, seller,
				"Return requested",
				fmt.Sprintf("A return was requested for order %s.", orderID),
				"return_created",
				map[string]any{"return_id": req.ID.String(), "order_id": orderID.String()})
		}})
	}

	return req, nil
}

// Transition moves a return to a new status. Admins may transition any
// return; a vendor only one whose items all belong to it — a return
// spanning several vendors can only be progressed by an admin.
func (s *ReturnsService) Transition(ctx context.Context, id domain.Identity, returnID uuid.UUID, statusStr, note string) (*domain.ReturnRequest, error) {
	status, ok := domain.ParseReturnStatus(statusStr)
	if !ok {
		return nil, domain.Validationf("invalid return status %q", statusStr)
	}

	req, err := s.repo.GetReturnByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.NotFound("return request", returnID.String())
	}

	switch {
	case id.IsAdmin():
		// unconditional
	case id.IsVendor():
		if !id.VendorOK {
			return nil, domain.Forbiddenf("vendor account is not approved")
		}
		if !id.Permissions.Has(domain.PermManageReturns) {
			return nil, domain.Forbiddenf("missing %s permission", domain.PermManageReturns)
		}
		if !req.BelongsEntirelyTo(id.UserID) {
			return nil, domain.Forbiddenf("return contains items from other vendors")
		}
	default:
		return nil, domain.Forbiddenf("role %s cannot transition returns", id.Role)
	}

	if !domain.CanTransition(req.Status, status) {
		return nil, domain.Validationf("cannot transition return from %s to %s", req.Status, status)
	}

	prev := req.Status
	history := append(req.History, domain.ReturnHistoryEntry{
		ActorRole: id.Role,
		Actor:     id.UserID,
		Action:    string(status),
		Note:      note,
		Timestamp: time.Now().UTC(),
	})
	if err := s.repo.UpdateStatus(ctx, returnID, status, history, req.Revision); err != nil {
		return nil, err
	}
	req.Status = status
	req.History = history
	req.Revision++

	meta := domain.MetaFromContext(ctx)
	s.outbox.Enqueue(Task{Kind: "audit", Run: func(taskCtx context.Context) error {
		s.audit.Record(domain.WithRequestMeta(taskCtx, meta), domain.AuditLogEntry{
			Actor:        id.UserID,
			ActorRole:    id.Role,
			Action:       "return.status_changed",
			ResourceType: "return_request",
			ResourceID:   returnID.String(),
			Before:       map[string]any{"status": prev},
			After:        map[string]any{"status": status},
			Metadata:     map[string]any{"note": note},
		})
		return nil
	}})
	s.outbox.Enqueue(Task{Kind: "notify", Run: func(taskCtx context.Context) error {
		return s.notify.Notify(taskCtx, req.CustomerEmail,
			"Return status updated",
			fmt.Sprintf("Your return for order %s is now %s.", req.OrderID, status),
			"return_status",
			map[string]any{"return_id": returnID.String(), "status": status})
	}})

	return req, nil
}

func (s *ReturnsService) ListMine(ctx context.Context, id domain.Identity, page, limit int) ([]domain.ReturnRequest, int, error) {
	if id.Email == "" {
		return nil, 0, domain.Validationf("email is required")
	}

	limit, offset := pageBounds(page, limit)
	var (
		items []domain.ReturnRequest
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListByEmail(gctx, id.Email, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByEmail(gctx, id.Email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *ReturnsService) ListVendor(ctx context.Context, id domain.Identity, status string, page, limit int) ([]domain.ReturnRequest, int, error) {
	if !id.IsVendor() {
		return nil, 0, domain.Forbiddenf("vendor role required")
	}
	if status != "" {
		if _, ok := domain.ParseReturnStatus(status); !ok {
			return nil, 0, domain.Validationf("invalid return status %q", status)
		}
	}

	limit, offset := pageBounds(page, limit)
	var (
		items []domain.ReturnRequest
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListByVendor(gctx, id.UserID, status, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByVendor(gctx, id.UserID, status)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *ReturnsService) ListAll(ctx context.Context, id domain.Identity, status, emailSearch string, page, limit int) ([]domain.ReturnRequest, int, error) {
	if !id.IsAdmin() {
		return nil, 0, domain.Forbiddenf("admin role required")
	}
	if status != "" {
		if _, ok := domain.ParseReturnStatus(status); !ok {
			return nil, 0, domain.Validationf("invalid return status %q", status)
		}
	}

	limit, offset := pageBounds(page, limit)
	var (
		items []domain.ReturnRequest
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListAll(gctx, status, emailSearch, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountAll(gctx, status, emailSearch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
