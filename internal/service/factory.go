package service

import (
	"fmt"

	"github.com/aldenshop/alden/pkg/uow"
)

type AppServices struct {
	UserService    *UserService
	OrderService   *OrderService
	WalletService  *WalletService
	PaymentService *PaymentService
	LedgerService  *LedgerService
	PromoService   *PromoService
}

type FactoryArgs struct {
	UnitOfWork    uow.UOW
	GatewayClient GatewayClient
	JWTSecret     []byte
	GatewaySecret []byte
	Currency      string
}

func Factory(args FactoryArgs) (*AppServices, error) {
	userService, userServiceErr := NewUserService(args.UnitOfWork, args.JWTSecret)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	orderService, orderServiceErr := NewOrderService(args.UnitOfWork)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderServiceErr.Error())
	}

	walletService, walletServiceErr := NewWalletService(args.UnitOfWork)
	if walletServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", walletServiceErr.Error())
	}

	paymentService, paymentServiceErr := NewPaymentService(
		args.UnitOfWork, args.GatewayClient, args.GatewaySecret, args.Currency,
	)
	if paymentServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", paymentServiceErr.Error())
	}

	ledgerService, ledgerServiceErr := NewLedgerService(args.UnitOfWork)
	if ledgerServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", ledgerServiceErr.Error())
	}

	promoService, promoServiceErr := NewPromoService(args.UnitOfWork)
	if promoServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", promoServiceErr.Error())
	}

	return &AppServices{
		UserService:    userService,
		OrderService:   orderService,
		WalletService:  walletService,
		PaymentService: paymentService,
		LedgerService:  ledgerService,
		PromoService:   promoService,
	}, nil
}
