package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
)

type PromoHandler struct {
	svs PromoServicer
}

func NewPromoHandler(svs PromoServicer) *PromoHandler {
	return &PromoHandler{
		svs: svs,
	}
}

type PromoApplyParams struct {
	Code      string          `binding:"required" json:"code"`
	CartTotal decimal.Decimal `json:"cartTotal"`
}

// Apply POST RouteGroup + PromoApplyRoute. Предварительный расчет скидки для корзины.
// Счетчик использований промокода не трогает: он инкрементируется только при оформлении
// заказа.
func (p *PromoHandler) Apply(c *gin.Context) {
	var params PromoApplyParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := p.svs.Apply(ctx, params.Code, params.CartTotal)
	if err != nil {
		var promoErr *domain.PromoError
		if errors.As(err, &promoErr) {
			_ = c.AbortWithError(http.StatusBadRequest, promoErr).SetType(gin.ErrorTypePublic)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     result.Promo.Code,
		"promoId":  result.Promo.ID,
		"discount": result.Discount.InexactFloat64(),
	})
}
