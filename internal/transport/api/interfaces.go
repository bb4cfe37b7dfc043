package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/internal/service"
	"github.com/aldenshop/alden/internal/transport/gateway"
)

// UserServicer интерфейс исключительно для моков.
type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
}

type OrderServicer interface {
	Create(ctx context.Context, userID int64, args service.CreateOrderArgs) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetAll(ctx context.Context) ([]domain.Order, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, next domain.OrderStatusType) (*domain.Order, error)
	Cancel(ctx context.Context, id int64, userID int64) (*domain.Order, error)
	SalesReport(
		ctx context.Context,
		filter repoargs.SalesReportFilter,
	) ([]repoargs.SalesReportRow, *repoargs.SalesReportSummary, error)
}

type WalletServicer interface {
	Get(ctx context.Context, userID int64) (*domain.Wallet, []domain.WalletEntry, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, paymentID string) (*domain.Wallet, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, orderID int64) (*domain.Wallet, error)
}

type PaymentServicer interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal) (*gateway.Intent, error)
	Verify(ctx context.Context, userID int64, args service.VerifyArgs) (*service.VerifyResult, error)
}

type LedgerServicer interface {
	GetByUserID(ctx context.Context, userID int64) ([]domain.LedgerEntry, error)
}

type PromoServicer interface {
	Apply(ctx context.Context, code string, cartTotal decimal.Decimal) (*service.PromoResult, error)
}
