package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/transport/api/middlewares"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup       = "/api"
	RegisterRoute    = "/auth/register"
	LoginRoute       = "/auth/login"
	OrdersRoute      = "/orders"
	OrdersMyRoute    = "/orders/my"
	OrderByIDRoute   = "/orders/:id"
	OrderStatusRoute = "/orders/:id/status"
	OrderCancelRoute = "/orders/:id/cancel"
	SalesReportRoute = "/orders/sales-report"
	PaymentRoute     = "/payment/gateway/create-order"
	VerifyRoute      = "/payment/gateway/verify"
	WalletRoute      = "/wallet"
	WalletCredit     = "/wallet/credit"
	WalletDebit      = "/wallet/debit"
	TransactionsMy   = "/transactions/my"
	PromoApplyRoute  = "/promo/apply"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	UserService    UserServicer
	OrderService   OrderServicer
	WalletService  WalletServicer
	PaymentService PaymentServicer
	LedgerService  LedgerServicer
	PromoService   PromoServicer
	JWTSecretKey   []byte
}

func New(args RouterArgs) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.UserService)
	ordersHandler := NewOrdersHandler(args.OrderService)
	walletHandler := NewWalletHandler(args.WalletService)
	paymentHandler := NewPaymentHandler(args.PaymentService)
	transactionsHandler := NewTransactionsHandler(args.LedgerService)
	promoHandler := NewPromoHandler(args.PromoService)

	authRequired := middlewares.AuthRequired(args.JWTSecretKey)
	adminRequired := middlewares.AuthRequired(args.JWTSecretKey, domain.RoleAdmin)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)

	// админские роуты.
	api.GET(OrdersRoute, adminRequired, ordersHandler.Index)
	api.PUT(OrderStatusRoute, adminRequired, ordersHandler.UpdateStatus)
	api.GET(SalesReportRoute, adminRequired, ordersHandler.SalesReport)

	// ниже все роуты группы требуют авторизованного пользователя.
	api.Use(authRequired)
	api.POST(OrdersRoute, ordersHandler.Create)
	api.GET(OrdersMyRoute, ordersHandler.My)
	api.GET(OrderByIDRoute, ordersHandler.Show)
	api.PUT(OrderCancelRoute, ordersHandler.Cancel)

	api.POST(PaymentRoute, paymentHandler.CreateIntent)
	api.POST(VerifyRoute, paymentHandler.Verify)

	api.GET(WalletRoute, walletHandler.Index)
	api.POST(WalletCredit, walletHandler.Credit)
	api.POST(WalletDebit, walletHandler.Debit)

	api.GET(TransactionsMy, transactionsHandler.My)
	api.POST(PromoApplyRoute, promoHandler.Apply)

	return r
}
