package repoargs

import (
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
)

type WalletEntryCreate struct {
	WalletID  int64
	Direction domain.DirectionType
	Amount    decimal.Decimal
	Label     string
	Reference string
}

type LedgerEntryCreate struct {
	UserID       int64
	Type         domain.LedgerType
	Method       domain.PaymentMethodType
	Amount       decimal.Decimal
	BalanceAfter *decimal.Decimal
	OrderID      *int64
	Description  string
	Status       domain.LedgerStatusType
}
