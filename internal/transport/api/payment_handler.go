package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/service"
	"github.com/aldenshop/alden/internal/transport/gateway"
)

type PaymentHandler struct {
	svs PaymentServicer
}

func NewPaymentHandler(svs PaymentServicer) *PaymentHandler {
	return &PaymentHandler{
		svs: svs,
	}
}

type CreateIntentParams struct {
	Amount decimal.Decimal `json:"amount"`
}

type IntentResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateIntent POST RouteGroup + PaymentCreateRoute. Создает платежное намерение во внешнем
// шлюзе. Локальное состояние не меняется.
func (p *PaymentHandler) CreateIntent(c *gin.Context) {
	var params CreateIntentParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	intent, err := p.svs.CreateIntent(ctx, params.Amount)
	if err != nil {
		var statusErr *gateway.StatusCodeError
		switch {
		case errors.Is(err, domain.ErrValidation):
			_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypePublic)
		case errors.As(err, &statusErr):
			_ = c.AbortWithError(http.StatusBadGateway, err).SetType(gin.ErrorTypePrivate)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": IntentResponse{
		ID:       intent.ID,
		Amount:   intent.Amount,
		Currency: intent.Currency,
		Receipt:  intent.Receipt,
	}})
}

type VerifyParams struct {
	GatewayOrderID   string `binding:"required" json:"gatewayOrderId"`
	GatewayPaymentID string `binding:"required" json:"gatewayPaymentId"`
	Signature        string `binding:"required" json:"signature"`
	OrderID          int64  `binding:"required" json:"orderId"`
}

// Verify POST RouteGroup + PaymentVerifyRoute. Проверяет подписанный колбэк шлюза и помечает
// заказ оплаченным. Повторная доставка колбэка вернет 200 без изменений.
func (p *PaymentHandler) Verify(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params VerifyParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := p.svs.Verify(ctx, currentUserID, service.VerifyArgs{
		GatewayOrderID:   params.GatewayOrderID,
		GatewayPaymentID: params.GatewayPaymentID,
		Signature:        params.Signature,
		OrderID:          params.OrderID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			_ = c.AbortWithError(http.StatusBadRequest, domain.ErrInvalidSignature).
				SetType(gin.ErrorTypePublic)
		case errors.Is(err, domain.ErrRecordNotFound):
			_ = c.AbortWithError(http.StatusNotFound, err).SetType(gin.ErrorTypePrivate)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		}
		return
	}

	message := "Payment verified successfully"
	if result.AlreadyVerified {
		message = "Already verified"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"order":   newOrderResponse(result.Order),
	})
}
