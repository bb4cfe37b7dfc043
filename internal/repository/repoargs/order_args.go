package repoargs

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
)

type OrderCreate struct {
	UserID         int64
	Customer       domain.Customer
	Items          []domain.OrderItem
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	PromoCode      string
	PaymentMethod  domain.PaymentMethodType
	PaymentStatus  domain.PaymentStatusType
	Status         domain.OrderStatusType
	IdempotencyKey string
}

type SalesReportFilter struct {
	From *time.Time
	To   *time.Time
}

type SalesReportRow struct {
	Date       string
	TotalSales decimal.Decimal
	Orders     int64
}

type SalesReportSummary struct {
	TotalRevenue  decimal.Decimal
	TotalOrders   int64
	AvgOrderValue decimal.Decimal
}
