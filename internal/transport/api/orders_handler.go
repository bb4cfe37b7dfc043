package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/internal/service"
)

// IdempotencyKeyHeader необязательный заголовок запроса оформления заказа. Повтор запроса
// с тем же ключом возвращает ранее созданный заказ вместо создания нового.
const IdempotencyKeyHeader = "Idempotency-Key"

type OrdersHandler struct {
	orderSvs OrderServicer
}

func NewOrdersHandler(orderSvs OrderServicer) *OrdersHandler {
	return &OrdersHandler{
		orderSvs: orderSvs,
	}
}

type AddressParams struct {
	Line    string `binding:"required" json:"line"`
	City    string `binding:"required" json:"city"`
	State   string `binding:"required" json:"state"`
	Pincode string `binding:"required" json:"pincode"`
}

type CustomerParams struct {
	FirstName   string        `binding:"required"       json:"firstName"`
	LastName    string        `json:"lastName"`
	Phone       string        `binding:"required"       json:"phone"`
	Email       string        `binding:"required,email" json:"email"`
	AddressType string        `json:"addressType"`
	Address     AddressParams `binding:"required"       json:"address"`
}

type OrderItemParams struct {
	ProductID int64           `binding:"required"      json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `binding:"required,gt=0" json:"quantity"`
}

type CreateOrderParams struct {
	Customer      CustomerParams    `binding:"required"             json:"customer"`
	Items         []OrderItemParams `binding:"required,min=1,dive"  json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Shipping      decimal.Decimal   `json:"shipping"`
	PaymentMethod string            `binding:"required"             json:"paymentMethod"`
	PromoCode     string            `json:"promoCode"`
}

type OrderItemResponse struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int32   `json:"quantity"`
}

type OrderResponse struct {
	ID            int64                    `json:"id"`
	CreatedAt     time.Time                `json:"createdAt"`
	Customer      CustomerParams           `json:"customer"`
	Items         []OrderItemResponse      `json:"items"`
	Subtotal      float64                  `json:"subtotal"`
	Tax           float64                  `json:"tax"`
	Shipping      float64                  `json:"shipping"`
	Discount      float64                  `json:"discount"`
	Total         float64                  `json:"total"`
	PromoCode     string                   `json:"promoCode,omitempty"`
	PaymentMethod domain.PaymentMethodType `json:"paymentMethod"`
	PaymentStatus domain.PaymentStatusType `json:"paymentStatus"`
	Status        domain.OrderStatusType   `json:"status"`
}

func newOrderResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:        order.ID,
		CreatedAt: order.CreatedAt,
		Customer: CustomerParams{
			FirstName:   order.Customer.FirstName,
			LastName:    order.Customer.LastName,
			Phone:       order.Customer.Phone,
			Email:       order.Customer.Email,
			AddressType: order.Customer.AddressType,
			Address: AddressParams{
				Line:    order.Customer.Address.Line,
				City:    order.Customer.Address.City,
				State:   order.Customer.Address.State,
				Pincode: order.Customer.Address.Pincode,
			},
		},
		Items: lo.Map(order.Items, func(item domain.OrderItem, _ int) OrderItemResponse {
			return OrderItemResponse{
				ProductID: item.ProductID,
				Name:      item.Name,
				Image:     item.Image,
				Price:     item.Price.InexactFloat64(),
				Quantity:  item.Quantity,
			}
		}),
		Subtotal:      order.Subtotal.InexactFloat64(),
		Tax:           order.Tax.InexactFloat64(),
		Shipping:      order.Shipping.InexactFloat64(),
		Discount:      order.Discount.InexactFloat64(),
		Total:         order.Total.InexactFloat64(),
		PromoCode:     order.PromoCode,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Status:        order.Status,
	}
}

// Create POST RouteGroup + OrdersRoute. Оформляет заказ.
func (o *OrdersHandler) Create(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params CreateOrderParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs.Error()})
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, createErr := o.orderSvs.Create(ctx, currentUserID, service.CreateOrderArgs{
		Customer: domain.Customer{
			FirstName:   params.Customer.FirstName,
			LastName:    params.Customer.LastName,
			Phone:       params.Customer.Phone,
			Email:       params.Customer.Email,
			AddressType: params.Customer.AddressType,
			Address: domain.Address{
				Line:    params.Customer.Address.Line,
				City:    params.Customer.Address.City,
				State:   params.Customer.Address.State,
				Pincode: params.Customer.Address.Pincode,
			},
		},
		Items: lo.Map(params.Items, func(item OrderItemParams, _ int) domain.OrderItem {
			return domain.OrderItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Image:     item.Image,
				Price:     item.Price,
				Quantity:  item.Quantity,
			}
		}),
		Subtotal:       params.Subtotal,
		Tax:            params.Tax,
		Shipping:       params.Shipping,
		PaymentMethod:  domain.PaymentMethodType(params.PaymentMethod),
		PromoCode:      params.PromoCode,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if createErr != nil {
		o.abortCreateError(c, createErr)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": newOrderResponse(order)})
}

// abortCreateError транслирует ошибки оформления заказа в http статусы.
func (o *OrdersHandler) abortCreateError(c *gin.Context, err error) {
	var duplicateErr *domain.DuplicateOrderError
	var promoErr *domain.PromoError

	switch {
	case errors.As(err, &duplicateErr):
		// Повтор с тем же ключом идемпотентности: отдаем уже созданный заказ.
		c.JSON(http.StatusOK, gin.H{"order": newOrderResponse(duplicateErr.Order)})
		c.Abort()
	case errors.As(err, &promoErr):
		_ = c.AbortWithError(http.StatusBadRequest, promoErr).SetType(gin.ErrorTypePublic)
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
}

// Index GET RouteGroup + OrdersRoute. Все заказы, новые первыми. Только для админа.
func (o *OrdersHandler) Index(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.GetAll(ctx)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": ordersResponse(orders)})
}

// My GET RouteGroup + OrdersMyRoute. Заказы текущего юзера, новые первыми.
func (o *OrdersHandler) My(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.GetByUserID(ctx, currentUserID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": ordersResponse(orders)})
}

// Show GET RouteGroup + OrderByIDRoute.
func (o *OrdersHandler) Show(c *gin.Context) {
	orderID, idErr := parseOrderID(c)
	if idErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, idErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			_ = c.AbortWithError(http.StatusNotFound, err).SetType(gin.ErrorTypePrivate)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": newOrderResponse(order)})
}

type UpdateStatusParams struct {
	Status string `binding:"required" json:"status"`
}

// UpdateStatus PUT RouteGroup + OrderStatusRoute. Перевод заказа по таблице статусов.
// Только для админа.
func (o *OrdersHandler) UpdateStatus(c *gin.Context) {
	orderID, idErr := parseOrderID(c)
	if idErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, idErr).SetType(gin.ErrorTypeBind)
		return
	}

	var params UpdateStatusParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.UpdateStatus(ctx, orderID, domain.OrderStatusType(params.Status))
	if err != nil {
		var transitionErr *domain.InvalidTransitionError
		switch {
		case errors.As(err, &transitionErr):
			_ = c.AbortWithError(http.StatusBadRequest, transitionErr).SetType(gin.ErrorTypePublic)
		case errors.Is(err, domain.ErrValidation):
			_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypePublic)
		case errors.Is(err, domain.ErrRecordNotFound):
			_ = c.AbortWithError(http.StatusNotFound, err).SetType(gin.ErrorTypePrivate)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": newOrderResponse(order)})
}

// Cancel PUT RouteGroup + OrderCancelRoute. Отмена заказа владельцем.
func (o *OrdersHandler) Cancel(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	orderID, idErr := parseOrderID(c)
	if idErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, idErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.Cancel(ctx, orderID, currentUserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOwnerConflict):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		case errors.Is(err, domain.ErrOrderDelivered):
			_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypePublic)
		case errors.Is(err, domain.ErrRecordNotFound):
			_ = c.AbortWithError(http.StatusNotFound, err).SetType(gin.ErrorTypePrivate)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": newOrderResponse(order)})
}

type SalesReportRowResponse struct {
	Date       string  `json:"date"`
	TotalSales float64 `json:"totalSales"`
	Orders     int64   `json:"orders"`
}

type SalesReportSummaryResponse struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalOrders   int64   `json:"totalOrders"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

// SalesReport GET RouteGroup + SalesReportRoute. Продажи по дням за период. Только для админа.
// Границы периода передаются query-параметрами from и to в формате RFC3339.
func (o *OrdersHandler) SalesReport(c *gin.Context) {
	filter, filterErr := parseSalesReportFilter(c)
	if filterErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, filterErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	rows, summary, err := o.orderSvs.SalesReport(ctx, filter)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": lo.Map(rows, func(row repoargs.SalesReportRow, _ int) SalesReportRowResponse {
			return SalesReportRowResponse{
				Date:       row.Date,
				TotalSales: row.TotalSales.InexactFloat64(),
				Orders:     row.Orders,
			}
		}),
		"summary": SalesReportSummaryResponse{
			TotalRevenue:  summary.TotalRevenue.InexactFloat64(),
			TotalOrders:   summary.TotalOrders,
			AvgOrderValue: summary.AvgOrderValue.InexactFloat64(),
		},
	})
}

func ordersResponse(orders []domain.Order) []OrderResponse {
	return lo.Map(orders, func(order domain.Order, _ int) OrderResponse {
		return newOrderResponse(&order)
	})
}

func parseOrderID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid order id")
	}
	return id, nil
}

func parseSalesReportFilter(c *gin.Context) (repoargs.SalesReportFilter, error) {
	var filter repoargs.SalesReportFilter

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid from date")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid to date")
		}
		filter.To = &to
	}
	return filter, nil
}
