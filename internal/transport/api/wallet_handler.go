package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
)

type WalletHandler struct {
	svs WalletServicer
}

func NewWalletHandler(svs WalletServicer) *WalletHandler {
	return &WalletHandler{
		svs: svs,
	}
}

type WalletEntryResponse struct {
	Direction domain.DirectionType `json:"type"`
	Amount    float64              `json:"amount"`
	Label     string               `json:"label"`
	Reference string               `json:"reference,omitempty"`
	CreatedAt time.Time            `json:"date"`
}

// Index GET RouteGroup + WalletRoute. Баланс и журнал кошелька, записи журнала новые первыми.
// Кошелек создается лениво при первом обращении.
func (w *WalletHandler) Index(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, entries, err := w.svs.Get(ctx, currentUserID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance": wallet.Balance.InexactFloat64(),
		"transactions": lo.Map(entries, func(entry domain.WalletEntry, _ int) WalletEntryResponse {
			return WalletEntryResponse{
				Direction: entry.Direction,
				Amount:    entry.Amount.InexactFloat64(),
				Label:     entry.Label,
				Reference: entry.Reference,
				CreatedAt: entry.CreatedAt,
			}
		}),
	})
}

type WalletCreditParams struct {
	Amount    decimal.Decimal `json:"amount"`
	PaymentID string          `binding:"required" json:"paymentId"`
}

// Credit POST RouteGroup + WalletCreditRoute. Пополняет кошелек после подтвержденного
// платежа через шлюз.
func (w *WalletHandler) Credit(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params WalletCreditParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, err := w.svs.Credit(ctx, currentUserID, params.Amount, params.PaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypePublic)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": wallet.Balance.InexactFloat64()})
}

type WalletDebitParams struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID int64           `binding:"required" json:"orderId"`
}

// Debit POST RouteGroup + WalletDebitRoute. Списывает средства в счет оплаты заказа.
func (w *WalletHandler) Debit(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params WalletDebitParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	wallet, err := w.svs.Debit(ctx, currentUserID, params.Amount, params.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypePublic)
		case errors.Is(err, domain.ErrNotEnoughBalance):
			_ = c.AbortWithError(http.StatusBadRequest, domain.ErrNotEnoughBalance).
				SetType(gin.ErrorTypePublic)
		case errors.Is(err, domain.ErrRecordNotFound):
			_ = c.AbortWithError(http.StatusNotFound, err).SetType(gin.ErrorTypePrivate)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": wallet.Balance.InexactFloat64()})
}
