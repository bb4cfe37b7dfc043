package domain

type OrderStatusType string

const (
	OrderStatusPending    OrderStatusType = "pending"
	OrderStatusProcessing OrderStatusType = "processing"
	OrderStatusShipped    OrderStatusType = "shipped"
	OrderStatusDelivered  OrderStatusType = "delivered"
	OrderStatusCancelled  OrderStatusType = "cancelled"
)

// orderTransitions таблица допустимых переходов статуса заказа. Терминальные статусы
// (delivered, cancelled) переходов не имеют.
var orderTransitions = map[OrderStatusType][]OrderStatusType{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func (s OrderStatusType) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo проверяет переход по таблице. Отмена заказа владельцем идет в обход
// таблицы, см. OrderService.Cancel.
func (s OrderStatusType) CanTransitionTo(next OrderStatusType) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentMethodType string

const (
	PaymentMethodGateway PaymentMethodType = "gateway"
	PaymentMethodWallet  PaymentMethodType = "wallet"
	PaymentMethodCOD     PaymentMethodType = "cod"
)

func (m PaymentMethodType) Valid() bool {
	switch m {
	case PaymentMethodGateway, PaymentMethodWallet, PaymentMethodCOD:
		return true
	}
	return false
}

type PaymentStatusType string

const (
	PaymentStatusPending PaymentStatusType = "pending"
	PaymentStatusPaid    PaymentStatusType = "paid"
	PaymentStatusFailed  PaymentStatusType = "failed"
)

type DirectionType string

const (
	DirectionCredit DirectionType = "credit"
	DirectionDebit  DirectionType = "debit"
)

type LedgerType string

const (
	LedgerTypeWalletCredit LedgerType = "wallet_credit"
	LedgerTypeOrderPayment LedgerType = "order_payment"
)

type LedgerStatusType string

const (
	LedgerStatusSuccess LedgerStatusType = "success"
	LedgerStatusFailed  LedgerStatusType = "failed"
)

type DiscountType string

const (
	DiscountFlat    DiscountType = "flat"
	DiscountPercent DiscountType = "percent"
)

type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleAdmin RoleType = "admin"
)
