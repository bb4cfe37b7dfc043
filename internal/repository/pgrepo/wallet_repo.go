package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

type WalletRepository struct {
	db uow.DBTX
}

func NewWalletRepository(db uow.DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

const walletColumns = `id, created_at, updated_at, user_id, balance`

// GetOrCreate возвращает кошелек юзера, лениво создавая его с нулевым балансом.
func (w *WalletRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Wallet, error) {
	_, insErr := w.db.Exec(ctx,
		`INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if insErr != nil {
		return nil, convertErr(insErr, "creating wallet for user %d", userID)
	}
	return w.FindByUserID(ctx, userID)
}

func (w *WalletRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	row := w.db.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`,
		userID,
	)
	wallet, err := scanWallet(row)
	if err != nil {
		return nil, convertErr(err, "finding wallet by userID %d", userID)
	}
	return wallet, nil
}

// Credit увеличивает баланс кошелька на amount. Кошелек должен существовать.
func (w *WalletRepository) Credit(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
) (*domain.Wallet, error) {
	row := w.db.QueryRow(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = now()
		 WHERE user_id = $2
		 RETURNING `+walletColumns,
		amount, userID,
	)
	wallet, err := scanWallet(row)
	if err != nil {
		return nil, convertErr(err, "crediting wallet of user %d", userID)
	}
	return wallet, nil
}

// Debit атомарно списывает amount с баланса при условии balance >= amount. Проверка и
// списание выполняются одним UPDATE, поэтому конкурентные списания не могут увести баланс
// в минус. Возвращает domain.ErrNotEnoughBalance при нехватке средств и
// domain.ErrRecordNotFound при отсутствии кошелька.
func (w *WalletRepository) Debit(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
) (*domain.Wallet, error) {
	row := w.db.QueryRow(ctx,
		`UPDATE wallets SET balance = balance - $1, updated_at = now()
		 WHERE user_id = $2 AND balance >= $1
		 RETURNING `+walletColumns,
		amount, userID,
	)
	wallet, err := scanWallet(row)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, convertErr(err, "debiting wallet of user %d", userID)
	}

	// различаем отсутствие кошелька и нехватку средств.
	var exists bool
	existsErr := w.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wallets WHERE user_id = $1)`,
		userID,
	).Scan(&exists)
	if existsErr != nil {
		return nil, convertErr(existsErr, "checking wallet of user %d", userID)
	}
	if !exists {
		return nil, fmt.Errorf("[repository/debiting wallet of user %d] %w", userID, domain.ErrRecordNotFound)
	}
	return nil, fmt.Errorf("[repository/debiting wallet of user %d] %w", userID, domain.ErrNotEnoughBalance)
}

// AddEntry дописывает строку во встроенный журнал кошелька.
func (w *WalletRepository) AddEntry(
	ctx context.Context,
	entry repoargs.WalletEntryCreate,
) (*domain.WalletEntry, error) {
	row := w.db.QueryRow(ctx,
		`INSERT INTO wallet_entries (wallet_id, direction, amount, label, reference)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, wallet_id, direction, amount, label, reference`,
		entry.WalletID, entry.Direction, entry.Amount, entry.Label, entry.Reference,
	)
	var e domain.WalletEntry
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.WalletID, &e.Direction, &e.Amount, &e.Label, &e.Reference); err != nil {
		return nil, convertErr(err, "adding wallet entry for wallet %d", entry.WalletID)
	}
	return &e, nil
}

// GetEntries возвращает журнал кошелька, новые записи первыми.
func (w *WalletRepository) GetEntries(ctx context.Context, walletID int64) ([]domain.WalletEntry, error) {
	rows, err := w.db.Query(ctx,
		`SELECT id, created_at, wallet_id, direction, amount, label, reference
		 FROM wallet_entries WHERE wallet_id = $1
		 ORDER BY created_at DESC, id DESC`,
		walletID,
	)
	if err != nil {
		return nil, convertErr(err, "getting wallet entries for wallet %d", walletID)
	}
	defer rows.Close()

	var entries []domain.WalletEntry
	for rows.Next() {
		var e domain.WalletEntry
		if scanErr := rows.Scan(&e.ID, &e.CreatedAt, &e.WalletID, &e.Direction, &e.Amount, &e.Label, &e.Reference); scanErr != nil {
			return nil, convertErr(scanErr, "scanning wallet entry")
		}
		entries = append(entries, e)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "iterating wallet entries")
	}
	return entries, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := row.Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt, &w.UserID, &w.Balance); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &w, nil
}
