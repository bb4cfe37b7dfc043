package service

import (
	"context"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/internal/service/mocks"
	"github.com/aldenshop/alden/pkg/uow"
	uowmocks "github.com/aldenshop/alden/pkg/uow/mocks"
)

type WalletServiceTestSuite struct {
	suite.Suite
	mockCtrl       *gomock.Controller
	mockUOW        *uowmocks.MockUOW
	mockTX         *uowmocks.MockTX
	mockWalletRepo *mocks.MockWalletRepository
	mockLedgerRepo *mocks.MockLedgerRepository
	walletService  *WalletService
}

func TestWalletServiceSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceTestSuite))
}

func (s *WalletServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockWalletRepo = mocks.NewMockWalletRepository(s.mockCtrl)
	s.mockLedgerRepo = mocks.NewMockLedgerRepository(s.mockCtrl)

	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil).AnyTimes()

	walletService, servErr := NewWalletService(s.mockUOW)
	s.Require().NoError(servErr)
	s.walletService = walletService
}

func (s *WalletServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *WalletServiceTestSuite) expectTx() {
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		},
	)
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.LedgerRepoName)).
		Return(s.mockLedgerRepo, nil).AnyTimes()
}

func (s *WalletServiceTestSuite) TestGet() {
	userID := int64(123)
	wallet := &domain.Wallet{ID: 7, UserID: userID, Balance: decimal.NewFromInt(100)}
	entries := []domain.WalletEntry{
		{ID: 2, WalletID: 7, Direction: domain.DirectionDebit, Amount: decimal.NewFromInt(50)},
		{ID: 1, WalletID: 7, Direction: domain.DirectionCredit, Amount: decimal.NewFromInt(150)},
	}

	s.mockWalletRepo.EXPECT().GetOrCreate(gomock.Any(), userID).Return(wallet, nil)
	s.mockWalletRepo.EXPECT().GetEntries(gomock.Any(), wallet.ID).Return(entries, nil)

	gotWallet, gotEntries, err := s.walletService.Get(context.Background(), userID)
	s.Require().NoError(err)
	s.True(gotWallet.Balance.Equal(wallet.Balance))
	s.Len(gotEntries, 2)
}

func (s *WalletServiceTestSuite) TestCredit() {
	userID := int64(123)
	amount := decimal.NewFromInt(500)
	walletAfter := &domain.Wallet{ID: 7, UserID: userID, Balance: decimal.NewFromInt(500)}

	s.expectTx()

	s.mockWalletRepo.EXPECT().GetOrCreate(gomock.Any(), userID).
		Return(&domain.Wallet{ID: 7, UserID: userID, Balance: decimal.Zero}, nil)
	s.mockWalletRepo.EXPECT().Credit(gomock.Any(), userID, amount).Return(walletAfter, nil)

	s.mockWalletRepo.EXPECT().AddEntry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry repoargs.WalletEntryCreate) (*domain.WalletEntry, error) {
			s.Equal(walletAfter.ID, entry.WalletID)
			s.Equal(domain.DirectionCredit, entry.Direction)
			s.True(entry.Amount.Equal(amount))
			s.Equal("Fund Added", entry.Label)
			s.Equal("pay_123", entry.Reference)
			return &domain.WalletEntry{ID: 1}, nil
		})

	s.mockLedgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry repoargs.LedgerEntryCreate) (*domain.LedgerEntry, error) {
			s.Equal(domain.LedgerTypeWalletCredit, entry.Type)
			s.Require().NotNil(entry.BalanceAfter)
			s.True(entry.BalanceAfter.Equal(walletAfter.Balance))
			s.Nil(entry.OrderID)
			return &domain.LedgerEntry{ID: 1}, nil
		})

	wallet, err := s.walletService.Credit(context.Background(), userID, amount, "pay_123")
	s.Require().NoError(err)
	s.True(wallet.Balance.Equal(walletAfter.Balance))
}

func (s *WalletServiceTestSuite) TestCredit_NonPositiveAmount() {
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := s.walletService.Credit(context.Background(), 123, amount, "pay_123")
		s.Require().ErrorIs(err, domain.ErrValidation)
	}
}

func (s *WalletServiceTestSuite) TestDebit() {
	userID := int64(123)
	orderID := int64(55)
	amount := decimal.NewFromInt(400)
	walletAfter := &domain.Wallet{ID: 7, UserID: userID, Balance: decimal.NewFromInt(600)}

	s.expectTx()

	s.mockWalletRepo.EXPECT().Debit(gomock.Any(), userID, amount).Return(walletAfter, nil)

	s.mockWalletRepo.EXPECT().AddEntry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry repoargs.WalletEntryCreate) (*domain.WalletEntry, error) {
			s.Equal(domain.DirectionDebit, entry.Direction)
			s.Equal("Purchase", entry.Label)
			s.Equal("55", entry.Reference)
			return &domain.WalletEntry{ID: 2}, nil
		})

	// запись аудита у прямого списания ничем не отличается от списания при создании заказа.
	s.mockLedgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry repoargs.LedgerEntryCreate) (*domain.LedgerEntry, error) {
			s.Equal(domain.LedgerTypeOrderPayment, entry.Type)
			s.Equal(domain.PaymentMethodWallet, entry.Method)
			s.Require().NotNil(entry.OrderID)
			s.Equal(orderID, *entry.OrderID)
			s.Require().NotNil(entry.BalanceAfter)
			s.True(entry.BalanceAfter.Equal(walletAfter.Balance))
			return &domain.LedgerEntry{ID: 2}, nil
		})

	wallet, err := s.walletService.Debit(context.Background(), userID, amount, orderID)
	s.Require().NoError(err)
	s.True(wallet.Balance.Equal(decimal.NewFromInt(600)))
}

func (s *WalletServiceTestSuite) TestDebit_NotEnoughBalance() {
	s.expectTx()

	// списание отклонено условным UPDATE: ни журнал, ни аудит не трогаются.
	s.mockWalletRepo.EXPECT().Debit(gomock.Any(), int64(123), gomock.Any()).
		Return(nil, domain.ErrNotEnoughBalance)

	_, err := s.walletService.Debit(context.Background(), 123, decimal.NewFromInt(1000), 55)
	s.Require().ErrorIs(err, domain.ErrNotEnoughBalance)
}

// TestDebit_ConcurrentSerialized два конкурентных списания поверх стора с условным
// декрементом: проходит ровно одно, баланс не уходит в минус.
func (s *WalletServiceTestSuite) TestDebit_ConcurrentSerialized() {
	userID := int64(123)
	amount := decimal.NewFromInt(700)

	store := newFakeWalletStore(decimal.NewFromInt(1000))

	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		},
	).Times(2)
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.LedgerRepoName)).
		Return(s.mockLedgerRepo, nil).AnyTimes()

	s.mockWalletRepo.EXPECT().Debit(gomock.Any(), userID, amount).
		DoAndReturn(func(_ context.Context, _ int64, amt decimal.Decimal) (*domain.Wallet, error) {
			return store.debit(userID, amt)
		}).Times(2)
	s.mockWalletRepo.EXPECT().AddEntry(gomock.Any(), gomock.Any()).
		Return(&domain.WalletEntry{ID: 1}, nil).MaxTimes(1)
	s.mockLedgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&domain.LedgerEntry{ID: 1}, nil).MaxTimes(1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.walletService.Debit(context.Background(), userID, amount, int64(100+i))
		}()
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			s.Require().ErrorIs(err, domain.ErrNotEnoughBalance)
			failures++
		}
	}
	s.Equal(1, failures)
	s.True(store.balance().Equal(decimal.NewFromInt(300)))
}

// fakeWalletStore имитирует атомарный условный декремент баланса в БД.
type fakeWalletStore struct {
	mu  sync.Mutex
	bal decimal.Decimal
}

func newFakeWalletStore(initial decimal.Decimal) *fakeWalletStore {
	return &fakeWalletStore{bal: initial}
}

func (f *fakeWalletStore) debit(userID int64, amount decimal.Decimal) (*domain.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bal.LessThan(amount) {
		return nil, domain.ErrNotEnoughBalance
	}
	f.bal = f.bal.Sub(amount)
	return &domain.Wallet{ID: 7, UserID: userID, Balance: f.bal}, nil
}

func (f *fakeWalletStore) balance() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bal
}
