package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/aldenshop/alden/internal/domain"
)

type TransactionsHandler struct {
	svs LedgerServicer
}

func NewTransactionsHandler(svs LedgerServicer) *TransactionsHandler {
	return &TransactionsHandler{
		svs: svs,
	}
}

type TransactionResponse struct {
	ID           int64                    `json:"id"`
	Type         domain.LedgerType        `json:"type"`
	Method       domain.PaymentMethodType `json:"method,omitempty"`
	Amount       float64                  `json:"amount"`
	BalanceAfter *float64                 `json:"balanceAfter,omitempty"`
	OrderID      *int64                   `json:"orderId,omitempty"`
	Description  string                   `json:"description"`
	Status       domain.LedgerStatusType  `json:"status"`
	CreatedAt    time.Time                `json:"createdAt"`
}

// My GET RouteGroup + TransactionsMyRoute. Сквозной аудит платежей текущего юзера,
// новые первыми.
func (t *TransactionsHandler) My(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	entries, err := t.svs.GetByUserID(ctx, currentUserID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	response := lo.Map(entries, func(entry domain.LedgerEntry, _ int) TransactionResponse {
		item := TransactionResponse{
			ID:          entry.ID,
			Type:        entry.Type,
			Method:      entry.Method,
			Amount:      entry.Amount.InexactFloat64(),
			OrderID:     entry.OrderID,
			Description: entry.Description,
			Status:      entry.Status,
			CreatedAt:   entry.CreatedAt,
		}
		if entry.BalanceAfter != nil {
			balance := entry.BalanceAfter.InexactFloat64()
			item.BalanceAfter = &balance
		}
		return item
	})

	c.JSON(http.StatusOK, gin.H{"transactions": response})
}
