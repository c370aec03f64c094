package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/sellora/marketplace-service/internal/domain"
)

type OrderRepo interface {
	AddOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Order, error)
	CountByEmail(ctx context.Context, email string) (int, error)
	ListAll(ctx context.Context, emailSearch string, status string, limit, offset int) ([]domain.Order, error)
	CountAll(ctx context.Context, emailSearch string, status string) (int, error)
	ListVendorOrderLines(ctx context.Context, vendorID string, limit, offset int) ([]domain.VendorOrderLine, error)
	CountVendorOrders(ctx context.Context, vendorID string) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, revision int64) error
	DistinctVendors(ctx context.Context, id uuid.UUID) ([]string, error)
}

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(p *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: p}
}

func (r *OrderRepository) AddOrder(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO mp.orders
			(id, customer_email, customer_name, phone, address, city, country, zip,
			 payment_method, status, coupon_code,
			 items_subtotal, shipping, discount, tax, total, revision, created_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8,
			 $9, $10, $11,
			 $12, $13, $14, $15, $16, $17, $18)`,
		o.ID,
		o.CustomerEmail,
		o.CustomerName,
		o.Phone,
		o.Address,
		o.City,
		o.Country,
		o.Zip,
		o.PaymentMethod,
		string(o.Status),
		o.CouponCode,
		o.Summary.ItemsSubtotal,
		o.Summary.Shipping,
		o.Summary.Discount,
		o.Summary.Tax,
		o.Summary.Total,
		o.Revision,
		o.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	if len(o.Items) > 0 {
		batch := &pgx.Batch{}
		for _, it := range o.Items {
			batch.Queue(
				`INSERT INTO mp.order_items (order_id, product_id, name, price, quantity, subtotal)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				o.ID, it.ProductID, it.Name, it.Price, it.Quantity, it.Subtotal,
			)
		}
		br := tx.SendBatch(ctx, batch)
		if err = br.Close(); err != nil {
			return errors.Wrap(err, "insert order items")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit order")
	}
	tx = nil
	return nil
}

const orderColumns = `id, customer_email, customer_name, phone, address, city, country, zip,
	payment_method, status, coupon_code, items_subtotal, shipping, discount, tax, total, revision, created_at`

func (r *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM mp.orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get order")
	}

	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *OrderRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM mp.orders
		 WHERE lower(customer_email) = lower($1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, email, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by email")
	}
	return r.collectOrders(ctx, rows)
}

func (r *OrderRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.orders WHERE lower(customer_email) = lower($1)`, email).Scan(&n)
	return n, errors.Wrap(err, "count orders by email")
}

func (r *OrderRepository) ListAll(ctx context.Context, emailSearch, status string, limit, offset int) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM mp.orders
		 WHERE ($1 = '' OR customer_email ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`, emailSearch, status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list all orders")
	}
	return r.collectOrders(ctx, rows)
}

func (r *OrderRepository) CountAll(ctx context.Context, emailSearch, status string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.orders
		 WHERE ($1 = '' OR customer_email ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR status = $2)`, emailSearch, status).Scan(&n)
	return n, errors.Wrap(err, "count all orders")
}

// ListVendorOrderLines unwinds order lines and joins the catalog for seller
// attribution, keeping only the vendor's lines. Pagination applies to the
// originating orders, not the lines; regrouping happens in the service.
func (r *OrderRepository) ListVendorOrderLines(ctx context.Context, vendorID string, limit, offset int) ([]domain.VendorOrderLine, error) {
	idRows, err := r.pool.Query(ctx,
		`SELECT o.id FROM mp.orders o
		 WHERE EXISTS (
			SELECT 1 FROM mp.order_items oi
			JOIN mp.products p ON p.id = oi.product_id
			WHERE oi.order_id = o.id AND p.seller_id = $1)
		 ORDER BY o.created_at DESC
		 LIMIT $2 OFFSET $3`, vendorID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "vendor order ids")
	}
	ids, err := pgx.CollectRows(idRows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, errors.Wrap(err, "collect vendor order ids")
	}
	if len(ids) == 0 {
		return []domain.VendorOrderLine{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT oi.order_id, oi.product_id, oi.name, oi.price, oi.quantity, oi.subtotal,
				p.seller_id, o.customer_email, o.status, o.payment_method, o.created_at
		 FROM mp.order_items oi
		 JOIN mp.products p ON p.id = oi.product_id
		 JOIN mp.orders o ON o.id = oi.order_id
		 WHERE p.seller_id = $1 AND oi.order_id = ANY($2)
		 ORDER BY o.created_at DESC, oi.order_id, oi.id`, vendorID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "vendor order lines")
	}
	defer rows.Close()

	var out []domain.VendorOrderLine
	for rows.Next() {
		var (
			line   domain.VendorOrderLine
			status string
		)
		if err := rows.Scan(&line.OrderID, &line.Item.ProductID, &line.Item.Name, &line.Item.Price,
			&line.Item.Quantity, &line.Item.Subtotal, &line.Item.Seller,
			&line.CustomerEmail, &status, &line.PaymentMethod, &line.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan vendor order line")
		}
		line.Status = domain.OrderStatus(status)
		out = append(out, line)
	}
	return out, errors.Wrap(rows.Err(), "vendor order rows")
}

func (r *OrderRepository) CountVendorOrders(ctx context.Context, vendorID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT oi.order_id)
		 FROM mp.order_items oi
		 JOIN mp.products p ON p.id = oi.product_id
		 WHERE p.seller_id = $1`, vendorID).Scan(&n)
	return n, errors.Wrap(err, "count vendor orders")
}

// UpdateStatus is revision-guarded: a concurrent writer that got there first
// makes this call report a conflict instead of silently overwriting.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, revision int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE mp.orders SET status = $1, revision = revision + 1
		 WHERE id = $2 AND revision = $3`, string(status), id, revision)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict("order", id.String())
	}
	return nil
}

func (r *OrderRepository) DistinctVendors(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT p.seller_id
		 FROM mp.order_items oi
		 JOIN mp.products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1 AND p.seller_id <> ''`, id)
	if err != nil {
		return nil, errors.Wrap(err, "distinct vendors")
	}
	vendors, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return vendors, errors.Wrap(err, "collect distinct vendors")
}

func (r *OrderRepository) collectOrders(ctx context.Context, rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	var out []domain.Order
	var ids []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "order rows")
	}
	if len(out) == 0 {
		return []domain.Order{}, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

// loadItems fetches lines for a set of orders in one query, with seller
// attribution resolved through the catalog join.
func (r *OrderRepository) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.OrderLineItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT oi.order_id, oi.product_id, oi.name, oi.price, oi.quantity, oi.subtotal,
				COALESCE(p.seller_id, '')
		 FROM mp.order_items oi
		 LEFT JOIN mp.products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load order items")
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.OrderLineItem, len(ids))
	for rows.Next() {
		var (
			orderID uuid.UUID
			it      domain.OrderLineItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Subtotal, &it.Seller); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, errors.Wrap(rows.Err(), "order item rows")
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerEmail, &o.CustomerName, &o.Phone, &o.Address, &o.City,
		&o.Country, &o.Zip, &o.PaymentMethod, &status, &o.CouponCode,
		&o.Summary.ItemsSubtotal, &o.Summary.Shipping, &o.Summary.Discount, &o.Summary.Tax,
		&o.Summary.Total, &o.Revision, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
