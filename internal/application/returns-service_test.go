package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/marketplace-service/internal/domain"
)

type returnsFixture struct {
	svc        *ReturnsService
	returnRepo *fakeReturnRepo
	orderRepo  *fakeOrderRepo
	auditRepo  *fakeAuditRepo
	notifRepo  *fakeNotifRepo
	orderID    uuid.UUID
	customer   domain.Identity
}

func newReturnsFixture() *returnsFixture {
	returnRepo := newFakeReturnRepo()
	orderRepo := newFakeOrderRepo()
	auditRepo := &fakeAuditRepo{}
	notifRepo := &fakeNotifRepo{}
	catalog := &fakeCatalog{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Desk Lamp", Seller: "v1", Price: dec("25.00")},
		"p3": {ID: "p3", Name: "Rug", Seller: "v2", Price: dec("40.00")},
	}}

	orderID := uuid.New()
	orderRepo.orders[orderID] = &domain.Order{
		ID:            orderID,
		CustomerEmail: "Buyer@Example.com",
		Status:        domain.OrderDelivered,
		Items: []domain.OrderLineItem{
			{ProductID: "p1", Quantity: 2, Seller: "v1"},
			{ProductID: "p3", Quantity: 1, Seller: "v2"},
		},
		CreatedAt: time.Now().UTC(),
	}

	auditSvc := NewAuditService(auditRepo)
	notifSvc := NewNotificationsService(notifRepo, nil, nil)
	svc := NewReturnsService(returnRepo, orderRepo, catalog, syncOutbox{}, auditSvc, notifSvc)
	return &returnsFixture{
		svc: svc, returnRepo: returnRepo, orderRepo: orderRepo,
		auditRepo: auditRepo, notifRepo: notifRepo, orderID: orderID,
		customer: domain.Identity{UserID: "c1", Email: "buyer@example.com", Role: domain.RoleCustomer},
	}
}

func TestCreateReturn(t *testing.T) {
	fx := newReturnsFixture()

	req, err := fx.svc.Create(context.Background(), fx.customer, fx.orderID,
		[]ReturnItemInput{
			{ProductID: "p1", Quantity: 1, Reason: "damaged"},
			{ProductID: "p3", Quantity: 1, Reason: "wrong color"},
		}, "package arrived crushed")
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnRequested, req.Status)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "Desk Lamp", req.Items[0].Name)
	assert.Equal(t, "v1", req.Items[0].Seller)
	require.Len(t, req.History, 1)
	assert.Equal(t, string(domain.ReturnRequested), req.History[0].Action)

	require.Len(t, fx.auditRepo.entries, 1)
	assert.Equal(t, "return.created", fx.auditRepo.entries[0].Action)
	assert.ElementsMatch(t, []string{"v1", "v2"}, fx.notifRepo.recipients())
}

func TestCreateReturnQuantityExceedsOrdered(t *testing.T) {
	fx := newReturnsFixture()

	var verr *domain.ValidationError
	_, err := fx.svc.Create(context.Background(), fx.customer, fx.orderID,
		[]ReturnItemInput{{ProductID: "p1", Quantity: 3, Reason: "damaged"}}, "")
	assert.ErrorAs(t, err, &verr)

	// A product the order never contained has ordered quantity zero.
	_, err = fx.svc.Create(context.Background(), fx.customer, fx.orderID,
		[]ReturnItemInput{{ProductID: "p9", Quantity: 1, Reason: "damaged"}}, "")
	assert.ErrorAs(t, err, &verr)
}

func TestCreateReturnDuplicateProductQuantitiesSummed(t *testing.T) {
	fx := newReturnsFixture()

	// The order holds 2 units of p1: two lines of 2 each total 4 and must be
	// rejected even though each line alone fits the bound.
	var verr *domain.ValidationError
	_, err := fx.svc.Create(context.Background(), fx.customer, fx.orderID,
		[]ReturnItemInput{
			{ProductID: "p1", Quantity: 2, Reason: "damaged"},
			{ProductID: "p1", Quantity: 2, Reason: "damaged"},
		}, "")
	assert.ErrorAs(t, err, &verr)

	// Split lines whose sum fits are fine.
	req, err := fx.svc.Create(context.Background(), fx.customer, fx.orderID,
		[]ReturnItemInput{
			{ProductID: "p1", Quantity: 1, Reason: "damaged"},
			{ProductID: "p1", Quantity: 1, Reason: "scratched"},
		}, "")
	require.NoError(t, err)
	assert.Len(t, req.Items, 2)
}

func TestCreateReturnEmailMismatch(t *testing.T) {
	fx := newReturnsFixture()
	stranger := domain.Identity{UserID: "c2", Email: "other@example.com", Role: domain.RoleCustomer}

	var ferr *domain.AuthorizationError
	_, err := fx.svc.Create(context.Background(), stranger, fx.orderID,
		[]ReturnItemInput{{ProductID: "p1", Quantity: 1}}, "")
	assert.ErrorAs(t, err, &ferr)
}

func TestCreateReturnCustomerRoleOnly(t *testing.T) {
	fx := newReturnsFixture()
	admin := domain.Identity{UserID: "a1", Email: "buyer@example.com", Role: domain.RoleAdmin}

	var ferr *domain.AuthorizationError
	_, err := fx.svc.Create(context.Background(), admin, fx.orderID,
		[]ReturnItemInput{{ProductID: "p1", Quantity: 1}}, "")
	assert.ErrorAs(t, err, &ferr)
}

func TestCreateReturnUnknownOrder(t *testing.T) {
	fx := newReturnsFixture()

	var nferr *domain.NotFoundError
	_, err := fx.svc.Create(context.Background(), fx.customer, uuid.New(),
		[]ReturnItemInput{{ProductID: "p1", Quantity: 1}}, "")
	assert.ErrorAs(t, err, &nferr)
}

func createReturn(t *testing.T, fx *returnsFixture, items []ReturnItemInput) *domain.ReturnRequest {
	t.Helper()
	req, err := fx.svc.Create(context.Background(), fx.customer, fx.orderID, items, "")
	require.NoError(t, err)
	return req
}

func TestTransitionAdminAppendsHistory(t *testing.T) {
	fx := newReturnsFixture()
	req := createReturn(t, fx, []ReturnItemInput{{ProductID: "p1", Quantity: 1}})
	admin := domain.Identity{UserID: "a1", Role: domain.RoleAdmin}

	got, err := fx.svc.Transition(context.Background(), admin, req.ID, "Approved", "looks legit")
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnApproved, got.Status)
	assert.Equal(t, req.Revision+1, got.Revision)
	require.Len(t, got.History, 2)
	assert.Equal(t, "Approved", got.History[1].Action)
	assert.Equal(t, "looks legit", got.History[1].Note)

	// The customer is told about the change.
	assert.Contains(t, fx.notifRepo.recipients(), "buyer@example.com")
}

func TestTransitionTerminalStatusRejected(t *testing.T) {
	fx := newReturnsFixture()
	req := createReturn(t, fx, []ReturnItemInput{{ProductID: "p1", Quantity: 1}})
	admin := domain.Identity{UserID: "a1", Role: domain.RoleAdmin}

	_, err := fx.svc.Transition(context.Background(), admin, req.ID, "Refunded", "")
	require.NoError(t, err)

	var verr *domain.ValidationError
	_, err = fx.svc.Transition(context.Background(), admin, req.ID, "Approved", "")
	assert.ErrorAs(t, err, &verr)
}

func TestTransitionInvalidStatus(t *testing.T) {
	fx := newReturnsFixture()
	admin := domain.Identity{UserID: "a1", Role: domain.RoleAdmin}

	var verr *domain.ValidationError
	_, err := fx.svc.Transition(context.Background(), admin, uuid.New(), "approved", "")
	assert.ErrorAs(t, err, &verr)
}

func TestTransitionVendorScoping(t *testing.T) {
	fx := newReturnsFixture()
	mixed := createReturn(t, fx, []ReturnItemInput{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p3", Quantity: 1},
	})
	own := createReturn(t, fx, []ReturnItemInput{{ProductID: "p1", Quantity: 1}})

	vendor := domain.Identity{UserID: "v1", Role: domain.RoleCompany, VendorOK: true,
		Permissions: domain.ParsePermissionSet("returns:manage")}

	// A return spanning two vendors is admin territory.
	var ferr *domain.AuthorizationError
	_, err := fx.svc.Transition(context.Background(), vendor, mixed.ID, "Approved", "")
	assert.ErrorAs(t, err, &ferr)

	got, err := fx.svc.Transition(context.Background(), vendor, own.ID, "Approved", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnApproved, got.Status)

	admin := domain.Identity{UserID: "a1", Role: domain.RoleAdmin}
	got, err = fx.svc.Transition(context.Background(), admin, mixed.ID, "Approved", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnApproved, got.Status)
}

func TestTransitionVendorGates(t *testing.T) {
	fx := newReturnsFixture()
	req := createReturn(t, fx, []ReturnItemInput{{ProductID: "p1", Quantity: 1}})
	ctx := context.Background()
	var ferr *domain.AuthorizationError

	unapproved := domain.Identity{UserID: "v1", Role: domain.RoleCompany,
		Permissions: domain.ParsePermissionSet("legacy")}
	_, err := fx.svc.Transition(ctx, unapproved, req.ID, "Approved", "")
	assert.ErrorAs(t, err, &ferr)

	noGrant := domain.Identity{UserID: "v1", Role: domain.RoleCompany, VendorOK: true,
		Permissions: domain.ParsePermissionSet("orders:manage")}
	_, err = fx.svc.Transition(ctx, noGrant, req.ID, "Approved", "")
	assert.ErrorAs(t, err, &ferr)

	customer := domain.Identity{UserID: "c1", Role: domain.RoleCustomer}
	_, err = fx.svc.Transition(ctx, customer, req.ID, "Approved", "")
	assert.ErrorAs(t, err, &ferr)
}

func TestTransitionAuditFailureDoesNotFail(t *testing.T) {
	fx := newReturnsFixture()
	req := createReturn(t, fx, []ReturnItemInput{{ProductID: "p1", Quantity: 1}})
	fx.auditRepo.failAdd = true

	admin := domain.Identity{UserID: "a1", Role: domain.RoleAdmin}
	got, err := fx.svc.Transition(context.Background(), admin, req.ID, "Rejected", "no receipt")
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnRejected, got.Status)

	stored, err := fx.returnRepo.GetReturnByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnRejected, stored.Status)
}

func TestCreateReturnStorageFailureSurfaces(t *testing.T) {
	fx := newReturnsFixture()
	fx.returnRepo.failAdd = true

	_, err := fx.svc.Create(context.Background(), fx.customer, fx.orderID,
		[]ReturnItemInput{{ProductID: "p1", Quantity: 1}}, "")
	assert.Error(t, err)
	assert.Empty(t, fx.auditRepo.entries)
	assert.Empty(t, fx.notifRepo.notifications)
}

func TestTransitionStorageFailureSurfaces(t *testing.T) {
	fx := newReturnsFixture()
	req := createReturn(t, fx, []ReturnItemInput{{ProductID: "p1", Quantity: 1}})
	fx.returnRepo.failUpdate = true
	fx.notifRepo.notifications = nil

	admin := domain.Identity{UserID: "a1", Role: domain.RoleAdmin}
	_, err := fx.svc.Transition(context.Background(), admin, req.ID, "Approved", "")
	assert.Error(t, err)

	// The failed write leaves the stored request untouched and fans nothing out.
	stored, gerr := fx.returnRepo.GetReturnByID(context.Background(), req.ID)
	require.NoError(t, gerr)
	assert.Equal(t, domain.ReturnRequested, stored.Status)
	assert.Empty(t, fx.notifRepo.notifications)
}

func TestListVendorReturnsStatusValidation(t *testing.T) {
	fx := newReturnsFixture()
	vendor := domain.Identity{UserID: "v1", Role: domain.RoleCompany, VendorOK: true}

	var verr *domain.ValidationError
	_, _, err := fx.svc.ListVendor(context.Background(), vendor, "bogus", 1, 20)
	assert.ErrorAs(t, err, &verr)

	createReturn(t, fx, []ReturnItemInput{{ProductID: "p1", Quantity: 1}})
	items, total, err := fx.svc.ListVendor(context.Background(), vendor, "Requested", 1, 20)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
}

func TestListMineRequiresEmail(t *testing.T) {
	fx := newReturnsFixture()
	anon := domain.Identity{UserID: "c1", Role: domain.RoleCustomer}

	var verr *domain.ValidationError
	_, _, err := fx.svc.ListMine(context.Background(), anon, 1, 20)
	assert.ErrorAs(t, err, &verr)
}
