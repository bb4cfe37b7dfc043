package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Email     string
	Password  string
	Role      RoleType
}

// Address входит в снапшот данных покупателя на момент оформления заказа.
type Address struct {
	Line    string
	City    string
	State   string
	Pincode string
}

// Customer снапшот контактных данных покупателя. Хранится внутри заказа и не связан
// с живой записью юзера: последующие правки адреса не должны менять исторические заказы.
type Customer struct {
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	AddressType string
	Address     Address
}

// OrderItem неизменяемый снапшот позиции заказа на момент покупки.
type OrderItem struct {
	ProductID int64
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int32
}

// GatewayRefs корреляционные поля внешнего платежного шлюза.
type GatewayRefs struct {
	OrderID   string
	PaymentID string
	Signature string
}

type Order struct {
	ID             int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UserID         int64
	Customer       Customer
	Items          []OrderItem
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	PromoCode      string
	PaymentMethod  PaymentMethodType
	PaymentStatus  PaymentStatusType
	Gateway        GatewayRefs
	Status         OrderStatusType
	IdempotencyKey string
}

type Wallet struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    int64
	Balance   decimal.Decimal
}

// WalletEntry строка встроенного журнала кошелька. Журнал append-only.
type WalletEntry struct {
	ID        int64
	CreatedAt time.Time
	WalletID  int64
	Direction DirectionType
	Amount    decimal.Decimal
	Label     string
	Reference string
}

// LedgerEntry независимая, append-only запись сквозного аудита платежей. Покрывает и
// списания с кошелька, и успешные платежи через внешний шлюз. Никогда не обновляется.
type LedgerEntry struct {
	ID           int64
	CreatedAt    time.Time
	UserID       int64
	Type         LedgerType
	Method       PaymentMethodType
	Amount       decimal.Decimal
	BalanceAfter *decimal.Decimal
	OrderID      *int64
	Description  string
	Status       LedgerStatusType
}

type PromoCode struct {
	ID            int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinCartValue  decimal.Decimal
	MaxDiscount   *decimal.Decimal
	ExpiresAt     time.Time
	IsActive      bool
	UsageLimit    *int32
	UsedCount     int32
}

// Product используется заказом как авторитетный источник цен: стоимость позиций
// пересчитывается на сервере и клиентским ценам не доверяем.
type Product struct {
	ID    int64
	Name  string
	Image string
	Price decimal.Decimal
	Stock int32
}
