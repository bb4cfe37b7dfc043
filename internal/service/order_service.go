package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

type OrderService struct {
	uow       uow.UOW
	orderRepo OrderRepository
}

func NewOrderService(u uow.UOW) (*OrderService, error) {
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err
	}
	return &OrderService{
		uow:       u,
		orderRepo: orderRepo,
	}, nil
}

type CreateOrderArgs struct {
	Customer       domain.Customer
	Items          []domain.OrderItem
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	PaymentMethod  domain.PaymentMethodType
	PromoCode      string
	IdempotencyKey string
}

// Create оформляет заказ.
//
// Алгоритм работы:
//  1. Валидирует данные покупателя и позиции.
//  2. Сверяет цены позиций с каталогом и пересчитывает subtotal на сервере:
//     присланным клиентом суммам для денежной операции не доверяем.
//  3. Валидирует промокод и пересчитывает скидку и итог.
//  4. При оплате кошельком атомарно списывает итог с баланса.
//  5. Сохраняет заказ, строку журнала кошелька и запись аудита.
//
// Шаги 2-5 выполняются в одной транзакции: частичный сбой не может оставить кошелек
// списанным без заказа или заказ оплаченным без записи аудита.
//
// Повторная отправка с тем же ключом идемпотентности возвращает *domain.DuplicateOrderError
// с уже созданным заказом и ничего не меняет.
func (s *OrderService) Create(ctx context.Context, userID int64, args CreateOrderArgs) (*domain.Order, error) {
	if validErr := validateCreateArgs(args); validErr != nil {
		return nil, validErr
	}

	if args.IdempotencyKey != "" {
		existing, findErr := s.orderRepo.FindByIdempotencyKey(ctx, userID, args.IdempotencyKey)
		if findErr == nil {
			return nil, domain.NewDuplicateOrderError(existing)
		}
		if !errors.Is(findErr, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("creating order: %w", findErr)
		}
	}

	var order *domain.Order

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		subtotal, itemsErr := s.reconcileItems(c, tx, args.Items)
		if itemsErr != nil {
			return itemsErr
		}
		if !args.Subtotal.Equal(subtotal) {
			return fmt.Errorf("%w: subtotal mismatch", domain.ErrValidation)
		}

		discount, promoErr := s.applyPromo(c, tx, args.PromoCode, subtotal)
		if promoErr != nil {
			return promoErr
		}

		total := subtotal.Add(args.Tax).Add(args.Shipping).Sub(discount)

		paymentStatus := domain.PaymentStatusPending
		var wallet *domain.Wallet

		if args.PaymentMethod == domain.PaymentMethodWallet {
			walletRepo, walletRepoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
			if walletRepoErr != nil {
				return walletRepoErr //nolint:wrapcheck
			}
			var debitErr error
			wallet, debitErr = walletRepo.Debit(c, userID, total)
			if debitErr != nil {
				return debitErr //nolint:wrapcheck
			}
			paymentStatus = domain.PaymentStatusPaid
		}

		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr //nolint:wrapcheck
		}

		var createErr error
		order, createErr = orderRepo.Create(c, repoargs.OrderCreate{
			UserID:         userID,
			Customer:       args.Customer,
			Items:          args.Items,
			Subtotal:       subtotal,
			Tax:            args.Tax,
			Shipping:       args.Shipping,
			Discount:       discount,
			Total:          total,
			PromoCode:      args.PromoCode,
			PaymentMethod:  args.PaymentMethod,
			PaymentStatus:  paymentStatus,
			Status:         domain.OrderStatusPending,
			IdempotencyKey: args.IdempotencyKey,
		})
		if createErr != nil {
			return createErr //nolint:wrapcheck
		}

		if args.PaymentMethod == domain.PaymentMethodWallet {
			return s.recordWalletPayment(c, tx, wallet, order)
		}
		return nil
	})

	if txErr != nil {
		// Гонка двух запросов с одним ключом идемпотентности: проигравший уникальный
		// индекс возвращает уже созданный заказ.
		if errors.Is(txErr, domain.ErrDuplicateKey) && args.IdempotencyKey != "" {
			existing, findErr := s.orderRepo.FindByIdempotencyKey(ctx, userID, args.IdempotencyKey)
			if findErr == nil {
				return nil, domain.NewDuplicateOrderError(existing)
			}
		}
		return nil, fmt.Errorf("creating order: %w", txErr)
	}

	return order, nil
}

// reconcileItems сверяет позиции заказа с каталогом и возвращает пересчитанный subtotal.
func (s *OrderService) reconcileItems(
	ctx context.Context,
	tx uow.TX,
	items []domain.OrderItem,
) (decimal.Decimal, error) {
	productRepo, repoErr := uow.GetAs[ProductRepository](tx, uow.RepositoryName(repoargs.ProductRepoName))
	if repoErr != nil {
		return decimal.Zero, repoErr //nolint:wrapcheck
	}

	ids := lo.Map(items, func(item domain.OrderItem, _ int) int64 {
		return item.ProductID
	})
	products, findErr := productRepo.FindByIDs(ctx, ids)
	if findErr != nil {
		return decimal.Zero, findErr //nolint:wrapcheck
	}
	byID := lo.KeyBy(products, func(p domain.Product) int64 {
		return p.ID
	})

	subtotal := decimal.Zero
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: unknown product %d", domain.ErrValidation, item.ProductID)
		}
		if item.Quantity <= 0 {
			return decimal.Zero, fmt.Errorf("%w: invalid quantity for product %d", domain.ErrValidation, item.ProductID)
		}
		if !item.Price.Equal(product.Price) {
			return decimal.Zero, fmt.Errorf("%w: price mismatch for product %d", domain.ErrValidation, item.ProductID)
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return subtotal, nil
}

// applyPromo пересчитывает скидку внутри транзакции заказа и увеличивает счетчик
// использований промокода.
func (s *OrderService) applyPromo(
	ctx context.Context,
	tx uow.TX,
	code string,
	subtotal decimal.Decimal,
) (decimal.Decimal, error) {
	if code == "" {
		return decimal.Zero, nil
	}

	promoRepo, repoErr := uow.GetAs[PromoRepository](tx, uow.RepositoryName(repoargs.PromoRepoName))
	if repoErr != nil {
		return decimal.Zero, repoErr //nolint:wrapcheck
	}

	promo, findErr := promoRepo.FindByCode(ctx, code)
	if findErr != nil {
		if errors.Is(findErr, domain.ErrRecordNotFound) {
			return decimal.Zero, domain.NewPromoError(code, "invalid code")
		}
		return decimal.Zero, findErr //nolint:wrapcheck
	}

	discount, discountErr := computePromoDiscount(promo, subtotal, time.Now())
	if discountErr != nil {
		return decimal.Zero, discountErr
	}

	if incErr := promoRepo.IncrementUsage(ctx, promo.ID); incErr != nil {
		return decimal.Zero, incErr //nolint:wrapcheck
	}
	return discount, nil
}

// recordWalletPayment дописывает строку журнала кошелька и запись аудита для заказа,
// оплаченного кошельком. Ссылка журнала сразу содержит id заказа: транзакция делает
// ненужным прежний двухфазный трюк с плейсхолдером.
func (s *OrderService) recordWalletPayment(
	ctx context.Context,
	tx uow.TX,
	wallet *domain.Wallet,
	order *domain.Order,
) error {
	walletRepo, walletRepoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
	if walletRepoErr != nil {
		return walletRepoErr //nolint:wrapcheck
	}
	if _, entryErr := walletRepo.AddEntry(ctx, repoargs.WalletEntryCreate{
		WalletID:  wallet.ID,
		Direction: domain.DirectionDebit,
		Amount:    order.Total,
		Label:     "Purchase",
		Reference: strconv.FormatInt(order.ID, 10),
	}); entryErr != nil {
		return entryErr //nolint:wrapcheck
	}

	ledgerRepo, ledgerRepoErr := uow.GetAs[LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
	if ledgerRepoErr != nil {
		return ledgerRepoErr //nolint:wrapcheck
	}
	balanceAfter := wallet.Balance
	if _, ledgerErr := ledgerRepo.Create(ctx, repoargs.LedgerEntryCreate{
		UserID:       order.UserID,
		Type:         domain.LedgerTypeOrderPayment,
		Method:       domain.PaymentMethodWallet,
		Amount:       order.Total,
		BalanceAfter: &balanceAfter,
		OrderID:      &order.ID,
		Description:  fmt.Sprintf("Paid for Order #%d (Wallet)", order.ID),
		Status:       domain.LedgerStatusSuccess,
	}); ledgerErr != nil {
		return ledgerErr //nolint:wrapcheck
	}
	return nil
}

func (s *OrderService) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return order, nil
}

// GetAll возвращает все заказы, новые первыми. Только для админки.
func (s *OrderService) GetAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return orders, nil
}

// GetByUserID возвращает заказы юзера, новые первыми.
func (s *OrderService) GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return orders, nil
}

// UpdateStatus переводит заказ в статус next, проверяя переход по таблице. Недопустимый
// переход возвращает *domain.InvalidTransitionError, статус не меняется.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	id int64,
	next domain.OrderStatusType,
) (*domain.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %s", domain.ErrValidation, next)
	}

	order, findErr := s.orderRepo.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr //nolint:wrapcheck
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, domain.NewInvalidTransitionError(order.Status, next)
	}

	updated, updErr := s.orderRepo.UpdateStatus(ctx, id, next)
	if updErr != nil {
		return nil, updErr //nolint:wrapcheck
	}
	return updated, nil
}

// Cancel отменяет заказ владельцем. Намеренно идет в обход таблицы переходов:
// из любого недоставленного статуса заказ безусловно уходит в cancelled/failed.
// Не владелец получает domain.ErrOwnerConflict, доставленный заказ - domain.ErrOrderDelivered.
func (s *OrderService) Cancel(ctx context.Context, id int64, userID int64) (*domain.Order, error) {
	order, findErr := s.orderRepo.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr //nolint:wrapcheck
	}

	if order.UserID != userID {
		return nil, domain.ErrOwnerConflict
	}
	if order.Status == domain.OrderStatusDelivered {
		return nil, domain.ErrOrderDelivered
	}

	cancelled, cancelErr := s.orderRepo.ForceCancel(ctx, id)
	if cancelErr != nil {
		return nil, cancelErr //nolint:wrapcheck
	}
	return cancelled, nil
}

// SalesReport продажи по дням плюс сводка за период.
func (s *OrderService) SalesReport(
	ctx context.Context,
	filter repoargs.SalesReportFilter,
) ([]repoargs.SalesReportRow, *repoargs.SalesReportSummary, error) {
	report, summary, err := s.orderRepo.SalesReport(ctx, filter)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	return report, summary, nil
}

func validateCreateArgs(args CreateOrderArgs) error {
	customer := args.Customer
	switch {
	case customer.FirstName == "",
		customer.Phone == "",
		customer.Email == "",
		customer.Address.Line == "",
		customer.Address.City == "",
		customer.Address.State == "",
		customer.Address.Pincode == "":
		return fmt.Errorf("%w: missing required customer data", domain.ErrValidation)
	}
	if len(args.Items) == 0 {
		return fmt.Errorf("%w: order has no items", domain.ErrValidation)
	}
	if !args.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %s", domain.ErrValidation, args.PaymentMethod)
	}
	if args.Tax.IsNegative() || args.Shipping.IsNegative() || args.Subtotal.IsNegative() {
		return fmt.Errorf("%w: negative amounts", domain.ErrValidation)
	}
	return nil
}
