package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

const percentBase = 100

type PromoService struct {
	uow       uow.UOW
	promoRepo PromoRepository
}

func NewPromoService(u uow.UOW) (*PromoService, error) {
	promoRepo, err := uow.GetRepositoryAs[PromoRepository](u, uow.RepositoryName(repoargs.PromoRepoName))
	if err != nil {
		return nil, err
	}
	return &PromoService{
		uow:       u,
		promoRepo: promoRepo,
	}, nil
}

type PromoResult struct {
	Promo    *domain.PromoCode
	Discount decimal.Decimal
}

// Apply проверяет промокод против суммы корзины и возвращает рассчитанную скидку.
// Тот же расчет выполняется на сервере при создании заказа: клиентской скидке не доверяем.
func (p *PromoService) Apply(ctx context.Context, code string, cartTotal decimal.Decimal) (*PromoResult, error) {
	promo, findErr := p.promoRepo.FindByCode(ctx, code)
	if findErr != nil {
		if errors.Is(findErr, domain.ErrRecordNotFound) {
			return nil, domain.NewPromoError(code, "invalid code")
		}
		return nil, fmt.Errorf("applying promo: %w", findErr)
	}

	discount, discountErr := computePromoDiscount(promo, cartTotal, time.Now())
	if discountErr != nil {
		return nil, discountErr
	}

	return &PromoResult{Promo: promo, Discount: discount}, nil
}

// computePromoDiscount валидирует промокод и считает скидку. Скидка ограничивается
// max_discount и суммой корзины.
func computePromoDiscount(
	promo *domain.PromoCode,
	cartTotal decimal.Decimal,
	now time.Time,
) (decimal.Decimal, error) {
	if !promo.IsActive {
		return decimal.Zero, domain.NewPromoError(promo.Code, "invalid code")
	}
	if promo.ExpiresAt.Before(now) {
		return decimal.Zero, domain.NewPromoError(promo.Code, "expired")
	}
	if promo.UsageLimit != nil && promo.UsedCount >= *promo.UsageLimit {
		return decimal.Zero, domain.NewPromoError(promo.Code, "usage limit reached")
	}
	if cartTotal.LessThan(promo.MinCartValue) {
		return decimal.Zero, domain.NewPromoError(promo.Code, "minimum cart value not met")
	}

	var discount decimal.Decimal
	if promo.DiscountType == domain.DiscountPercent {
		discount = cartTotal.Mul(promo.DiscountValue).Div(decimal.NewFromInt(percentBase))
	} else {
		discount = promo.DiscountValue
	}
	if promo.MaxDiscount != nil && discount.GreaterThan(*promo.MaxDiscount) {
		discount = *promo.MaxDiscount
	}
	if discount.GreaterThan(cartTotal) {
		discount = cartTotal
	}
	return discount.Round(2), nil
}
