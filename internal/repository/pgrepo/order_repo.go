package pgrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

type OrderRepository struct {
	db uow.DBTX
}

func NewOrderRepository(db uow.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, created_at, updated_at, user_id,
	customer_first_name, customer_last_name, customer_phone, customer_email,
	customer_address_type, customer_address_line, customer_city, customer_state, customer_pincode,
	subtotal, tax, shipping, discount, total, promo_code,
	payment_method, payment_status,
	gateway_order_id, gateway_payment_id, gateway_signature,
	order_status, COALESCE(idempotency_key, '')`

// Create вставляет заказ вместе с позициями. Заказ создается единожды и далее меняется
// только операциями перехода статуса и верификацией платежа. Дубликат ключа
// идемпотентности вернет domain.ErrDuplicateKey.
func (o *OrderRepository) Create(ctx context.Context, args repoargs.OrderCreate) (*domain.Order, error) {
	row := o.db.QueryRow(ctx,
		`INSERT INTO orders (
			user_id,
			customer_first_name, customer_last_name, customer_phone, customer_email,
			customer_address_type, customer_address_line, customer_city, customer_state, customer_pincode,
			subtotal, tax, shipping, discount, total, promo_code,
			payment_method, payment_status, order_status, idempotency_key
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, NULLIF($20, '')
		)
		RETURNING `+orderColumns,
		args.UserID,
		args.Customer.FirstName, args.Customer.LastName, args.Customer.Phone, args.Customer.Email,
		args.Customer.AddressType, args.Customer.Address.Line, args.Customer.Address.City,
		args.Customer.Address.State, args.Customer.Address.Pincode,
		args.Subtotal, args.Tax, args.Shipping, args.Discount, args.Total, args.PromoCode,
		args.PaymentMethod, args.PaymentStatus, args.Status, args.IdempotencyKey,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order for user %d", args.UserID)
	}

	for _, item := range args.Items {
		if _, execErr := o.db.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, name, image, price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, item.ProductID, item.Name, item.Image, item.Price, item.Quantity,
		); execErr != nil {
			return nil, convertErr(execErr, "creating order item for order %d", order.ID)
		}
	}
	order.Items = args.Items
	return order, nil
}

func (o *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := o.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding order by id %d", id)
	}
	if loadErr := o.loadItems(ctx, order); loadErr != nil {
		return nil, loadErr
	}
	return order, nil
}

// FindByIdempotencyKey ищет заказ юзера по ключу идемпотентности.
func (o *OrderRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (*domain.Order, error) {
	row := o.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND idempotency_key = $2`,
		userID, key,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding order by idempotency key for user %d", userID)
	}
	if loadErr := o.loadItems(ctx, order); loadErr != nil {
		return nil, loadErr
	}
	return order, nil
}

// GetAll возвращает все заказы, новые первыми. Позиции заказов не подгружаются:
// админский список ими не пользуется.
func (o *OrderRepository) GetAll(ctx context.Context) ([]domain.Order, error) {
	return o.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

// GetByUserID возвращает заказы юзера, новые первыми.
func (o *OrderRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	return o.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

// UpdateStatus выставляет новый статус заказа. Допустимость перехода проверяет сервис.
func (o *OrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status domain.OrderStatusType,
) (*domain.Order, error) {
	row := o.db.QueryRow(ctx,
		`UPDATE orders SET order_status = $1, updated_at = now() WHERE id = $2 RETURNING `+orderColumns,
		status, id,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "updating status of order %d", id)
	}
	return order, nil
}

// ForceCancel безусловно переводит заказ в cancelled/failed. Используется отменой заказа
// владельцем, которая идет в обход таблицы переходов.
func (o *OrderRepository) ForceCancel(ctx context.Context, id int64) (*domain.Order, error) {
	row := o.db.QueryRow(ctx,
		`UPDATE orders SET order_status = $1, payment_status = $2, updated_at = now()
		 WHERE id = $3 RETURNING `+orderColumns,
		domain.OrderStatusCancelled, domain.PaymentStatusFailed, id,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "cancelling order %d", id)
	}
	return order, nil
}

// MarkPaidByGateway помечает заказ оплаченным через шлюз и сохраняет корреляционные поля.
func (o *OrderRepository) MarkPaidByGateway(
	ctx context.Context,
	id int64,
	refs domain.GatewayRefs,
) (*domain.Order, error) {
	row := o.db.QueryRow(ctx,
		`UPDATE orders SET
			payment_status = $1, payment_method = $2,
			gateway_order_id = $3, gateway_payment_id = $4, gateway_signature = $5,
			updated_at = now()
		 WHERE id = $6 RETURNING `+orderColumns,
		domain.PaymentStatusPaid, domain.PaymentMethodGateway,
		refs.OrderID, refs.PaymentID, refs.Signature, id,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "marking order %d paid by gateway", id)
	}
	return order, nil
}

// SalesReport агрегирует продажи по дням плюс сводку за период.
func (o *OrderRepository) SalesReport(
	ctx context.Context,
	filter repoargs.SalesReportFilter,
) ([]repoargs.SalesReportRow, *repoargs.SalesReportSummary, error) {
	rows, err := o.db.Query(ctx,
		`SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COALESCE(SUM(total), 0), COUNT(*)
		 FROM orders
		 WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		   AND ($2::timestamptz IS NULL OR created_at <= $2)
		 GROUP BY day
		 ORDER BY day DESC`,
		filter.From, filter.To,
	)
	if err != nil {
		return nil, nil, convertErr(err, "building sales report")
	}
	defer rows.Close()

	var report []repoargs.SalesReportRow
	for rows.Next() {
		var r repoargs.SalesReportRow
		if scanErr := rows.Scan(&r.Date, &r.TotalSales, &r.Orders); scanErr != nil {
			return nil, nil, convertErr(scanErr, "scanning sales report row")
		}
		report = append(report, r)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, nil, convertErr(rowsErr, "iterating sales report")
	}

	var summary repoargs.SalesReportSummary
	sumErr := o.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0), COUNT(*)
		 FROM orders
		 WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		   AND ($2::timestamptz IS NULL OR created_at <= $2)`,
		filter.From, filter.To,
	).Scan(&summary.TotalRevenue, &summary.TotalOrders)
	if sumErr != nil {
		return nil, nil, convertErr(sumErr, "building sales summary")
	}
	if summary.TotalOrders > 0 {
		summary.AvgOrderValue = summary.TotalRevenue.DivRound(decimal.NewFromInt(summary.TotalOrders), 2)
	}
	return report, &summary, nil
}

func (o *OrderRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	rows, err := o.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, convertErr(err, "querying orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning order")
		}
		orders = append(orders, *order)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "iterating orders")
	}
	return orders, nil
}

func (o *OrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := o.db.Query(ctx,
		`SELECT product_id, name, image, price, quantity
		 FROM order_items WHERE order_id = $1 ORDER BY id`,
		order.ID,
	)
	if err != nil {
		return convertErr(err, "loading items of order %d", order.ID)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if scanErr := rows.Scan(&item.ProductID, &item.Name, &item.Image, &item.Price, &item.Quantity); scanErr != nil {
			return convertErr(scanErr, "scanning item of order %d", order.ID)
		}
		order.Items = append(order.Items, item)
	}
	return convertErr(rows.Err(), "iterating items of order %d", order.ID)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var userID *int64
	err := row.Scan(
		&o.ID, &o.CreatedAt, &o.UpdatedAt, &userID,
		&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Phone, &o.Customer.Email,
		&o.Customer.AddressType, &o.Customer.Address.Line, &o.Customer.Address.City,
		&o.Customer.Address.State, &o.Customer.Address.Pincode,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.Discount, &o.Total, &o.PromoCode,
		&o.PaymentMethod, &o.PaymentStatus,
		&o.Gateway.OrderID, &o.Gateway.PaymentID, &o.Gateway.Signature,
		&o.Status, &o.IdempotencyKey,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if userID != nil {
		o.UserID = *userID
	}
	return &o, nil
}
