package pgrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/pkg/uow"
)

type PromoRepository struct {
	db uow.DBTX
}

func NewPromoRepository(db uow.DBTX) *PromoRepository {
	return &PromoRepository{db: db}
}

const promoColumns = `id, created_at, updated_at, code, discount_type, discount_value,
	min_cart_value, max_discount, expires_at, is_active, usage_limit, used_count`

// FindByCode ищет промокод без учета регистра. Проверки активности, срока и лимитов
// выполняет сервис.
func (p *PromoRepository) FindByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`,
		strings.ToUpper(code),
	)
	var promo domain.PromoCode
	err := row.Scan(
		&promo.ID, &promo.CreatedAt, &promo.UpdatedAt, &promo.Code,
		&promo.DiscountType, &promo.DiscountValue, &promo.MinCartValue, &promo.MaxDiscount,
		&promo.ExpiresAt, &promo.IsActive, &promo.UsageLimit, &promo.UsedCount,
	)
	if err != nil {
		return nil, convertErr(err, "finding promo code `%s`", code)
	}
	return &promo, nil
}

// IncrementUsage увеличивает счетчик использований промокода.
func (p *PromoRepository) IncrementUsage(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE promo_codes SET used_count = used_count + 1, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return convertErr(err, "incrementing usage of promo %d", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("[repository/incrementing usage of promo %d] %w", id, domain.ErrRecordNotFound)
	}
	return nil
}
