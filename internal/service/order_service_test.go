package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/internal/service/mocks"
	"github.com/aldenshop/alden/pkg/uow"
	uowmocks "github.com/aldenshop/alden/pkg/uow/mocks"
)

type OrderServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUOW         *uowmocks.MockUOW
	mockTX          *uowmocks.MockTX
	mockOrderRepo   *mocks.MockOrderRepository
	mockWalletRepo  *mocks.MockWalletRepository
	mockLedgerRepo  *mocks.MockLedgerRepository
	mockPromoRepo   *mocks.MockPromoRepository
	mockProductRepo *mocks.MockProductRepository
	orderService    *OrderService
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockOrderRepo = mocks.NewMockOrderRepository(s.mockCtrl)
	s.mockWalletRepo = mocks.NewMockWalletRepository(s.mockCtrl)
	s.mockLedgerRepo = mocks.NewMockLedgerRepository(s.mockCtrl)
	s.mockPromoRepo = mocks.NewMockPromoRepository(s.mockCtrl)
	s.mockProductRepo = mocks.NewMockProductRepository(s.mockCtrl)

	// Мок получения репозитория из uow. Выполняется в инициализации сервиса.
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil).AnyTimes()

	orderService, servErr := NewOrderService(s.mockUOW)
	s.Require().NoError(servErr)
	s.orderService = orderService
}

func (s *OrderServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

// expectTx настраивает мок UOW так, чтобы транзакционный блок выполнялся с s.mockTX.
func (s *OrderServiceTestSuite) expectTx() {
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		},
	)
}

func (s *OrderServiceTestSuite) expectTxRepos() {
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.LedgerRepoName)).
		Return(s.mockLedgerRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.PromoRepoName)).
		Return(s.mockPromoRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.ProductRepoName)).
		Return(s.mockProductRepo, nil).AnyTimes()
}

func testCustomer() domain.Customer {
	return domain.Customer{
		FirstName:   "Arjun",
		LastName:    "Mehta",
		Phone:       "9876543210",
		Email:       "arjun@example.com",
		AddressType: "home",
		Address: domain.Address{
			Line:    "12 MG Road",
			City:    "Pune",
			State:   "MH",
			Pincode: "411001",
		},
	}
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Keyboard", Price: decimal.NewFromInt(150), Stock: 10},
		{ID: 2, Name: "Mouse", Price: decimal.NewFromInt(50), Stock: 10},
	}
}

func testItems() []domain.OrderItem {
	return []domain.OrderItem{
		{ProductID: 1, Name: "Keyboard", Price: decimal.NewFromInt(150), Quantity: 2},
		{ProductID: 2, Name: "Mouse", Price: decimal.NewFromInt(50), Quantity: 2},
	}
}

// testCreateArgs корзина на 400: 2x150 + 2x50.
func testCreateArgs(method domain.PaymentMethodType) CreateOrderArgs {
	return CreateOrderArgs{
		Customer:      testCustomer(),
		Items:         testItems(),
		Subtotal:      decimal.NewFromInt(400),
		Tax:           decimal.NewFromInt(20),
		Shipping:      decimal.NewFromInt(30),
		PaymentMethod: method,
	}
}

func (s *OrderServiceTestSuite) TestCreate_WalletPaid() {
	userID := int64(123)
	args := testCreateArgs(domain.PaymentMethodWallet)
	total := decimal.NewFromInt(450) // 400 + 20 + 30

	// баланс 1000 до списания, 550 после.
	walletAfter := &domain.Wallet{ID: 7, UserID: userID, Balance: decimal.NewFromInt(550)}

	s.expectTx()
	s.expectTxRepos()

	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts(), nil)

	s.mockWalletRepo.EXPECT().Debit(gomock.Any(), userID, total).
		Return(walletAfter, nil)

	s.mockOrderRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, create repoargs.OrderCreate) (*domain.Order, error) {
			// убеждаемся что заказ создается уже оплаченным и с пересчитанным итогом.
			s.Equal(userID, create.UserID)
			s.True(create.Total.Equal(total))
			s.True(create.Discount.IsZero())
			s.Equal(domain.PaymentStatusPaid, create.PaymentStatus)
			s.Equal(domain.OrderStatusPending, create.Status)
			return &domain.Order{
				ID:            55,
				UserID:        userID,
				Total:         create.Total,
				PaymentMethod: create.PaymentMethod,
				PaymentStatus: create.PaymentStatus,
				Status:        create.Status,
			}, nil
		})

	s.mockWalletRepo.EXPECT().AddEntry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry repoargs.WalletEntryCreate) (*domain.WalletEntry, error) {
			s.Equal(walletAfter.ID, entry.WalletID)
			s.Equal(domain.DirectionDebit, entry.Direction)
			s.True(entry.Amount.Equal(total))
			s.Equal("55", entry.Reference)
			return &domain.WalletEntry{ID: 1}, nil
		})

	s.mockLedgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry repoargs.LedgerEntryCreate) (*domain.LedgerEntry, error) {
			s.Equal(userID, entry.UserID)
			s.Equal(domain.LedgerTypeOrderPayment, entry.Type)
			s.Equal(domain.PaymentMethodWallet, entry.Method)
			s.True(entry.Amount.Equal(total))
			s.Require().NotNil(entry.BalanceAfter)
			s.True(entry.BalanceAfter.Equal(walletAfter.Balance))
			s.Require().NotNil(entry.OrderID)
			s.Equal(int64(55), *entry.OrderID)
			return &domain.LedgerEntry{ID: 1}, nil
		})

	order, err := s.orderService.Create(context.Background(), userID, args)
	s.Require().NoError(err)
	s.Equal(int64(55), order.ID)
	s.Equal(domain.PaymentStatusPaid, order.PaymentStatus)
}

func (s *OrderServiceTestSuite) TestCreate_WalletInsufficient() {
	userID := int64(123)
	args := testCreateArgs(domain.PaymentMethodWallet)

	s.expectTx()
	s.expectTxRepos()

	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts(), nil)

	// списание отклонено, заказ не создается, журнал и аудит не трогаются:
	// для Create/AddEntry/ledger ожидания не настроены.
	s.mockWalletRepo.EXPECT().Debit(gomock.Any(), userID, gomock.Any()).
		Return(nil, domain.ErrNotEnoughBalance)

	_, err := s.orderService.Create(context.Background(), userID, args)
	s.Require().ErrorIs(err, domain.ErrNotEnoughBalance)
}

func (s *OrderServiceTestSuite) TestCreate_GatewayPending() {
	userID := int64(123)
	args := testCreateArgs(domain.PaymentMethodGateway)

	s.expectTx()
	s.expectTxRepos()

	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts(), nil)

	s.mockOrderRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, create repoargs.OrderCreate) (*domain.Order, error) {
			// при оплате через шлюз заказ остается неоплаченным до верификации.
			s.Equal(domain.PaymentStatusPending, create.PaymentStatus)
			return &domain.Order{ID: 56, UserID: userID, PaymentStatus: create.PaymentStatus}, nil
		})

	order, err := s.orderService.Create(context.Background(), userID, args)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPending, order.PaymentStatus)
}

func (s *OrderServiceTestSuite) TestCreate_SubtotalMismatch() {
	args := testCreateArgs(domain.PaymentMethodGateway)
	// клиент прислал заниженную сумму корзины.
	args.Subtotal = decimal.NewFromInt(10)

	s.expectTx()
	s.expectTxRepos()

	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts(), nil)

	_, err := s.orderService.Create(context.Background(), 123, args)
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func (s *OrderServiceTestSuite) TestCreate_PriceMismatch() {
	args := testCreateArgs(domain.PaymentMethodGateway)
	// клиент прислал чужую цену на позицию.
	args.Items[0].Price = decimal.NewFromInt(1)

	s.expectTx()
	s.expectTxRepos()

	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts(), nil)

	_, err := s.orderService.Create(context.Background(), 123, args)
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func (s *OrderServiceTestSuite) TestCreate_UnknownProduct() {
	args := testCreateArgs(domain.PaymentMethodGateway)

	s.expectTx()
	s.expectTxRepos()

	// каталог вернул только один из двух товаров.
	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts()[:1], nil)

	_, err := s.orderService.Create(context.Background(), 123, args)
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func (s *OrderServiceTestSuite) TestCreate_PromoApplied() {
	userID := int64(123)
	args := testCreateArgs(domain.PaymentMethodGateway)
	args.PromoCode = "SAVE10"

	promo := &domain.PromoCode{
		ID:            3,
		Code:          "SAVE10",
		DiscountType:  domain.DiscountPercent,
		DiscountValue: decimal.NewFromInt(10),
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      true,
	}

	s.expectTx()
	s.expectTxRepos()

	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts(), nil)
	s.mockPromoRepo.EXPECT().FindByCode(gomock.Any(), "SAVE10").Return(promo, nil)
	s.mockPromoRepo.EXPECT().IncrementUsage(gomock.Any(), promo.ID).Return(nil)

	s.mockOrderRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, create repoargs.OrderCreate) (*domain.Order, error) {
			// скидка 10% от 400 и итог 400 + 20 + 30 - 40.
			s.True(create.Discount.Equal(decimal.NewFromInt(40)))
			s.True(create.Total.Equal(decimal.NewFromInt(410)))
			s.Equal("SAVE10", create.PromoCode)
			return &domain.Order{ID: 57, UserID: userID}, nil
		})

	_, err := s.orderService.Create(context.Background(), userID, args)
	s.Require().NoError(err)
}

func (s *OrderServiceTestSuite) TestCreate_PromoRejected() {
	args := testCreateArgs(domain.PaymentMethodGateway)
	args.PromoCode = "DEAD"

	s.expectTx()
	s.expectTxRepos()

	s.mockProductRepo.EXPECT().FindByIDs(gomock.Any(), []int64{1, 2}).
		Return(testProducts(), nil)
	s.mockPromoRepo.EXPECT().FindByCode(gomock.Any(), "DEAD").
		Return(nil, domain.ErrRecordNotFound)

	_, err := s.orderService.Create(context.Background(), 123, args)

	var promoErr *domain.PromoError
	s.Require().ErrorAs(err, &promoErr)
	s.Equal("DEAD", promoErr.Code)
}

func (s *OrderServiceTestSuite) TestCreate_IdempotentReplay() {
	userID := int64(123)
	args := testCreateArgs(domain.PaymentMethodWallet)
	args.IdempotencyKey = "key-1"

	existing := &domain.Order{ID: 55, UserID: userID, IdempotencyKey: "key-1"}

	// заказ с таким ключом уже есть: транзакция не запускается, списаний нет.
	s.mockOrderRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), userID, "key-1").
		Return(existing, nil)

	_, err := s.orderService.Create(context.Background(), userID, args)

	var duplicateErr *domain.DuplicateOrderError
	s.Require().ErrorAs(err, &duplicateErr)
	s.Equal(existing.ID, duplicateErr.Order.ID)
}

func (s *OrderServiceTestSuite) TestCreate_IdempotencyRace() {
	userID := int64(123)
	args := testCreateArgs(domain.PaymentMethodGateway)
	args.IdempotencyKey = "key-2"

	existing := &domain.Order{ID: 60, UserID: userID, IdempotencyKey: "key-2"}

	// первый поиск ключа пуст, но конкурирующий запрос успел вставить заказ:
	// транзакция падает на уникальном индексе, возвращаем уже созданный заказ.
	first := s.mockOrderRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), userID, "key-2").
		Return(nil, domain.ErrRecordNotFound)
	s.mockOrderRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), userID, "key-2").
		Return(existing, nil).After(first)

	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateKey)

	_, err := s.orderService.Create(context.Background(), userID, args)

	var duplicateErr *domain.DuplicateOrderError
	s.Require().ErrorAs(err, &duplicateErr)
	s.Equal(existing.ID, duplicateErr.Order.ID)
}

func (s *OrderServiceTestSuite) TestCreate_InvalidArgs() {
	cases := []struct {
		mutate func(*CreateOrderArgs)
		name   string
	}{
		{name: "no items", mutate: func(a *CreateOrderArgs) { a.Items = nil }},
		{name: "missing phone", mutate: func(a *CreateOrderArgs) { a.Customer.Phone = "" }},
		{name: "missing pincode", mutate: func(a *CreateOrderArgs) { a.Customer.Address.Pincode = "" }},
		{name: "bad payment method", mutate: func(a *CreateOrderArgs) { a.PaymentMethod = "bitcoin" }},
		{name: "negative tax", mutate: func(a *CreateOrderArgs) { a.Tax = decimal.NewFromInt(-1) }},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			args := testCreateArgs(domain.PaymentMethodGateway)
			t.mutate(&args)

			_, err := s.orderService.Create(context.Background(), 123, args)
			s.Require().ErrorIs(err, domain.ErrValidation)
		})
	}
}

func (s *OrderServiceTestSuite) TestUpdateStatus() {
	cases := []struct {
		name    string
		from    domain.OrderStatusType
		to      domain.OrderStatusType
		allowed bool
	}{
		{name: "pending to processing", from: domain.OrderStatusPending, to: domain.OrderStatusProcessing, allowed: true},
		{name: "processing to shipped", from: domain.OrderStatusProcessing, to: domain.OrderStatusShipped, allowed: true},
		{name: "shipped to delivered", from: domain.OrderStatusShipped, to: domain.OrderStatusDelivered, allowed: true},
		{name: "pending skips to shipped", from: domain.OrderStatusPending, to: domain.OrderStatusShipped, allowed: false},
		{name: "delivered is terminal", from: domain.OrderStatusDelivered, to: domain.OrderStatusProcessing, allowed: false},
		{name: "backwards", from: domain.OrderStatusShipped, to: domain.OrderStatusProcessing, allowed: false},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			order := &domain.Order{ID: 1, Status: t.from}
			s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)

			if t.allowed {
				s.mockOrderRepo.EXPECT().UpdateStatus(gomock.Any(), order.ID, t.to).
					Return(&domain.Order{ID: 1, Status: t.to}, nil)
			}

			updated, err := s.orderService.UpdateStatus(context.Background(), order.ID, t.to)
			if !t.allowed {
				var transitionErr *domain.InvalidTransitionError
				s.Require().ErrorAs(err, &transitionErr)
				s.Equal(t.from, transitionErr.From)
				s.Equal(t.to, transitionErr.To)
				return
			}
			s.Require().NoError(err)
			s.Equal(t.to, updated.Status)
		})
	}
}

func (s *OrderServiceTestSuite) TestUpdateStatus_UnknownStatus() {
	_, err := s.orderService.UpdateStatus(context.Background(), 1, "teleported")
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func (s *OrderServiceTestSuite) TestCancel() {
	ownerID := int64(123)

	s.Run("owner cancels pending order", func() {
		order := &domain.Order{ID: 1, UserID: ownerID, Status: domain.OrderStatusPending}
		s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		s.mockOrderRepo.EXPECT().ForceCancel(gomock.Any(), order.ID).
			Return(&domain.Order{
				ID:            1,
				UserID:        ownerID,
				Status:        domain.OrderStatusCancelled,
				PaymentStatus: domain.PaymentStatusFailed,
			}, nil)

		cancelled, err := s.orderService.Cancel(context.Background(), order.ID, ownerID)
		s.Require().NoError(err)
		s.Equal(domain.OrderStatusCancelled, cancelled.Status)
		s.Equal(domain.PaymentStatusFailed, cancelled.PaymentStatus)
	})

	s.Run("non-owner is rejected", func() {
		order := &domain.Order{ID: 2, UserID: ownerID, Status: domain.OrderStatusPending}
		s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)

		_, err := s.orderService.Cancel(context.Background(), order.ID, ownerID+1)
		s.Require().ErrorIs(err, domain.ErrOwnerConflict)
	})

	s.Run("delivered order cannot be cancelled", func() {
		order := &domain.Order{ID: 3, UserID: ownerID, Status: domain.OrderStatusDelivered}
		s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)

		_, err := s.orderService.Cancel(context.Background(), order.ID, ownerID)
		s.Require().ErrorIs(err, domain.ErrOrderDelivered)
	})
}

func (s *OrderServiceTestSuite) TestSalesReport() {
	rows := []repoargs.SalesReportRow{
		{Date: "2026-08-01", TotalSales: decimal.NewFromInt(900), Orders: 3},
		{Date: "2026-08-02", TotalSales: decimal.NewFromInt(450), Orders: 1},
	}
	summary := &repoargs.SalesReportSummary{
		TotalRevenue:  decimal.NewFromInt(1350),
		TotalOrders:   4,
		AvgOrderValue: decimal.NewFromFloat(337.5),
	}

	s.mockOrderRepo.EXPECT().SalesReport(gomock.Any(), gomock.Any()).Return(rows, summary, nil)

	gotRows, gotSummary, err := s.orderService.SalesReport(context.Background(), repoargs.SalesReportFilter{})
	s.Require().NoError(err)
	s.Len(gotRows, 2)
	s.Equal(int64(4), gotSummary.TotalOrders)
}
