package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/internal/transport/gateway"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type OrderRepository interface {
	Create(ctx context.Context, args repoargs.OrderCreate) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (*domain.Order, error)
	GetAll(ctx context.Context) ([]domain.Order, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatusType) (*domain.Order, error)
	ForceCancel(ctx context.Context, id int64) (*domain.Order, error)
	MarkPaidByGateway(ctx context.Context, id int64, refs domain.GatewayRefs) (*domain.Order, error)
	SalesReport(
		ctx context.Context,
		filter repoargs.SalesReportFilter,
	) ([]repoargs.SalesReportRow, *repoargs.SalesReportSummary, error)
}

type WalletRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*domain.Wallet, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Wallet, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Wallet, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Wallet, error)
	AddEntry(ctx context.Context, entry repoargs.WalletEntryCreate) (*domain.WalletEntry, error)
	GetEntries(ctx context.Context, walletID int64) ([]domain.WalletEntry, error)
}

type LedgerRepository interface {
	Create(ctx context.Context, entry repoargs.LedgerEntryCreate) (*domain.LedgerEntry, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.LedgerEntry, error)
}

type PromoRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	IncrementUsage(ctx context.Context, id int64) error
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// GatewayClient интерфейс клиента внешнего платежного шлюза.
type GatewayClient interface {
	CreateOrder(
		ctx context.Context,
		amount decimal.Decimal,
		currency string,
		receipt string,
	) (*gateway.Intent, error)
}
