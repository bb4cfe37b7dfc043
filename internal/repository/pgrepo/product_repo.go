package pgrepo

import (
	"context"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/pkg/uow"
)

// ProductRepository минимальный доступ к каталогу: заказу нужны только авторитетные цены.
// CRUD каталога живет во внешнем сервисе.
type ProductRepository struct {
	db uow.DBTX
}

func NewProductRepository(db uow.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByIDs возвращает товары по списку id. Отсутствующие id просто не попадают в ответ,
// их обнаруживает сервис при сверке позиций.
func (p *ProductRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, name, image, price, stock FROM products WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, convertErr(err, "finding products by ids %v", ids)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var pr domain.Product
		if scanErr := rows.Scan(&pr.ID, &pr.Name, &pr.Image, &pr.Price, &pr.Stock); scanErr != nil {
			return nil, convertErr(scanErr, "scanning product")
		}
		products = append(products, pr)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "iterating products")
	}
	return products, nil
}
