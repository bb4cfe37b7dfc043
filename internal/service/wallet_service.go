package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

type WalletService struct {
	uow        uow.UOW
	walletRepo WalletRepository
}

func NewWalletService(u uow.UOW) (*WalletService, error) {
	walletRepo, err := uow.GetRepositoryAs[WalletRepository](u, uow.RepositoryName(repoargs.WalletRepoName))
	if err != nil {
		return nil, err
	}
	return &WalletService{
		uow:        u,
		walletRepo: walletRepo,
	}, nil
}

// Get возвращает кошелек юзера и его журнал, новые записи первыми. Кошелек лениво
// создается с нулевым балансом при первом обращении.
func (s *WalletService) Get(ctx context.Context, userID int64) (*domain.Wallet, []domain.WalletEntry, error) {
	wallet, walletErr := s.walletRepo.GetOrCreate(ctx, userID)
	if walletErr != nil {
		return nil, nil, fmt.Errorf("getting wallet: %w", walletErr)
	}
	entries, entriesErr := s.walletRepo.GetEntries(ctx, wallet.ID)
	if entriesErr != nil {
		return nil, nil, fmt.Errorf("getting wallet: %w", entriesErr)
	}
	return wallet, entries, nil
}

// Credit пополняет кошелек на amount, лениво создавая его при отсутствии. Пополнение,
// строка журнала и запись аудита пишутся одной транзакцией.
func (s *WalletService) Credit(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
	paymentID string,
) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	var wallet *domain.Wallet

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		walletRepo, walletRepoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
		if walletRepoErr != nil {
			return walletRepoErr //nolint:wrapcheck
		}

		if _, createErr := walletRepo.GetOrCreate(c, userID); createErr != nil {
			return createErr //nolint:wrapcheck
		}

		var creditErr error
		wallet, creditErr = walletRepo.Credit(c, userID, amount)
		if creditErr != nil {
			return creditErr //nolint:wrapcheck
		}

		if _, entryErr := walletRepo.AddEntry(c, repoargs.WalletEntryCreate{
			WalletID:  wallet.ID,
			Direction: domain.DirectionCredit,
			Amount:    amount,
			Label:     "Fund Added",
			Reference: paymentID,
		}); entryErr != nil {
			return entryErr //nolint:wrapcheck
		}

		return s.writeLedger(c, tx, repoargs.LedgerEntryCreate{
			UserID:       userID,
			Type:         domain.LedgerTypeWalletCredit,
			Amount:       amount,
			BalanceAfter: &wallet.Balance,
			Description:  "Wallet credited",
			Status:       domain.LedgerStatusSuccess,
		})
	})

	if txErr != nil {
		return nil, fmt.Errorf("crediting wallet: %w", txErr)
	}
	return wallet, nil
}

// Debit списывает amount с кошелька в счет заказа orderID. В отличие от Credit кошелек
// не создается лениво: списывать с несуществующего кошелька нечего, а нулевой баланс все
// равно не пройдет проверку достаточности. Списание атомарно: при нехватке средств ни
// баланс, ни журнал не меняются, возвращается domain.ErrNotEnoughBalance.
// Запись аудита пишется всегда, этот путь не отличается от списания при создании заказа.
func (s *WalletService) Debit(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
	orderID int64,
) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	var wallet *domain.Wallet

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		walletRepo, walletRepoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
		if walletRepoErr != nil {
			return walletRepoErr //nolint:wrapcheck
		}

		var debitErr error
		wallet, debitErr = walletRepo.Debit(c, userID, amount)
		if debitErr != nil {
			return debitErr //nolint:wrapcheck
		}

		if _, entryErr := walletRepo.AddEntry(c, repoargs.WalletEntryCreate{
			WalletID:  wallet.ID,
			Direction: domain.DirectionDebit,
			Amount:    amount,
			Label:     "Purchase",
			Reference: strconv.FormatInt(orderID, 10),
		}); entryErr != nil {
			return entryErr //nolint:wrapcheck
		}

		return s.writeLedger(c, tx, repoargs.LedgerEntryCreate{
			UserID:       userID,
			Type:         domain.LedgerTypeOrderPayment,
			Method:       domain.PaymentMethodWallet,
			Amount:       amount,
			BalanceAfter: &wallet.Balance,
			OrderID:      &orderID,
			Description:  fmt.Sprintf("Paid for Order #%d (Wallet)", orderID),
			Status:       domain.LedgerStatusSuccess,
		})
	})

	if txErr != nil {
		return nil, fmt.Errorf("debiting wallet: %w", txErr)
	}
	return wallet, nil
}

func (s *WalletService) writeLedger(ctx context.Context, tx uow.TX, entry repoargs.LedgerEntryCreate) error {
	ledgerRepo, ledgerRepoErr := uow.GetAs[LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
	if ledgerRepoErr != nil {
		return ledgerRepoErr //nolint:wrapcheck
	}
	if _, err := ledgerRepo.Create(ctx, entry); err != nil {
		return err //nolint:wrapcheck
	}
	return nil
}
