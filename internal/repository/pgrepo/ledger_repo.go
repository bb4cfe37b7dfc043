package pgrepo

import (
	"context"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

// LedgerRepository append-only хранилище сквозного аудита платежей. Записи никогда не
// обновляются и не удаляются.
type LedgerRepository struct {
	db uow.DBTX
}

func NewLedgerRepository(db uow.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const ledgerColumns = `id, created_at, user_id, type, COALESCE(method, ''), amount,
	balance_after, order_id, description, status`

func (l *LedgerRepository) Create(
	ctx context.Context,
	entry repoargs.LedgerEntryCreate,
) (*domain.LedgerEntry, error) {
	row := l.db.QueryRow(ctx,
		`INSERT INTO ledger_entries (user_id, type, method, amount, balance_after, order_id, description, status)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		 RETURNING `+ledgerColumns,
		entry.UserID, entry.Type, entry.Method, entry.Amount,
		entry.BalanceAfter, entry.OrderID, entry.Description, entry.Status,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		return nil, convertErr(err, "creating ledger entry for user %d", entry.UserID)
	}
	return e, nil
}

// GetByUserID возвращает записи аудита юзера, новые первыми.
func (l *LedgerRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.LedgerEntry, error) {
	rows, err := l.db.Query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, convertErr(err, "getting ledger entries for user %d", userID)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, scanErr := scanLedgerEntry(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning ledger entry")
		}
		entries = append(entries, *e)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "iterating ledger entries")
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.ID, &e.CreatedAt, &e.UserID, &e.Type, &e.Method, &e.Amount,
		&e.BalanceAfter, &e.OrderID, &e.Description, &e.Status,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &e, nil
}
