package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/internal/transport/gateway"
	"github.com/aldenshop/alden/pkg/uow"
)

type PaymentService struct {
	uow       uow.UOW
	orderRepo OrderRepository
	client    GatewayClient
	secret    []byte
	currency  string
}

func NewPaymentService(u uow.UOW, client GatewayClient, secret []byte, currency string) (*PaymentService, error) {
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err
	}
	return &PaymentService{
		uow:       u,
		orderRepo: orderRepo,
		client:    client,
		secret:    secret,
		currency:  currency,
	}, nil
}

// CreateIntent просит шлюз создать платежное намерение на amount. Локальное состояние не
// меняется, заказ остается pending до верификации. Недоступность шлюза - восстановимая
// ошибка, клиент повторяет запрос.
func (s *PaymentService) CreateIntent(ctx context.Context, amount decimal.Decimal) (*gateway.Intent, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	intent, err := s.client.CreateOrder(ctx, amount, s.currency, "rcpt_"+uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}
	return intent, nil
}

type VerifyArgs struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	OrderID          int64
}

type VerifyResult struct {
	Order *domain.Order
	// AlreadyVerified колбэк доставлен повторно: заказ уже оплачен, ничего не менялось.
	AlreadyVerified bool
}

// Verify проверяет подписанный колбэк шлюза и помечает заказ оплаченным.
//
// Подпись пересчитывается локально по общему секрету; несовпадение возвращает
// domain.ErrInvalidSignature без каких-либо мутаций. Повторная доставка того же колбэка
// безопасна: уже оплаченный заказ возвращается с AlreadyVerified без второй записи аудита.
// Смена статуса и запись аудита выполняются одной транзакцией.
func (s *PaymentService) Verify(ctx context.Context, userID int64, args VerifyArgs) (*VerifyResult, error) {
	if !gateway.VerifySignature(args.GatewayOrderID, args.GatewayPaymentID, args.Signature, s.secret) {
		return nil, domain.ErrInvalidSignature
	}

	var result VerifyResult

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr //nolint:wrapcheck
		}

		order, findErr := orderRepo.FindByID(c, args.OrderID)
		if findErr != nil {
			return findErr //nolint:wrapcheck
		}

		if order.PaymentStatus == domain.PaymentStatusPaid {
			result = VerifyResult{Order: order, AlreadyVerified: true}
			return nil
		}

		paid, markErr := orderRepo.MarkPaidByGateway(c, order.ID, domain.GatewayRefs{
			OrderID:   args.GatewayOrderID,
			PaymentID: args.GatewayPaymentID,
			Signature: args.Signature,
		})
		if markErr != nil {
			return markErr //nolint:wrapcheck
		}

		ledgerRepo, ledgerRepoErr := uow.GetAs[LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
		if ledgerRepoErr != nil {
			return ledgerRepoErr //nolint:wrapcheck
		}
		if _, ledgerErr := ledgerRepo.Create(c, repoargs.LedgerEntryCreate{
			UserID:      userID,
			Type:        domain.LedgerTypeOrderPayment,
			Method:      domain.PaymentMethodGateway,
			Amount:      paid.Total,
			OrderID:     &paid.ID,
			Description: fmt.Sprintf("Paid for Order #%d", paid.ID),
			Status:      domain.LedgerStatusSuccess,
		}); ledgerErr != nil {
			return ledgerErr //nolint:wrapcheck
		}

		result = VerifyResult{Order: paid}
		return nil
	})

	if txErr != nil {
		if errors.Is(txErr, domain.ErrRecordNotFound) {
			return nil, txErr
		}
		return nil, fmt.Errorf("verifying payment: %w", txErr)
	}
	return &result, nil
}
