package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")

	ErrValidation       = errors.New("validation error")
	ErrNotEnoughBalance = errors.New("insufficient wallet balance")
	ErrOwnerConflict    = errors.New("owner conflict")
	// ErrInvalidSignature подпись шлюза не сошлась с пересчитанной. Отдается отдельно от
	// обычной валидации: несовпадение может означать подделку колбэка.
	ErrInvalidSignature = errors.New("invalid signature")
	ErrOrderDelivered   = errors.New("delivered orders cannot be cancelled")
)

// DuplicateOrderError возвращается при повторной отправке заказа с тем же ключом
// идемпотентности. Несет уже созданный заказ, чтобы вернуть его клиенту без повторных
// списаний.
type DuplicateOrderError struct {
	Order *Order
}

func NewDuplicateOrderError(order *Order) error {
	return &DuplicateOrderError{Order: order}
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf(
		"order with idempotency key %s already exists for user with id %d",
		e.Order.IdempotencyKey,
		e.Order.UserID,
	)
}

// InvalidTransitionError недопустимый переход статуса заказа по таблице переходов.
type InvalidTransitionError struct {
	From OrderStatusType
	To   OrderStatusType
}

func NewInvalidTransitionError(from, to OrderStatusType) error {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// PromoError промокод не может быть применен. Reason безопасен для показа клиенту.
type PromoError struct {
	Code   string
	Reason string
}

func NewPromoError(code, reason string) error {
	return &PromoError{Code: code, Reason: reason}
}

func (e *PromoError) Error() string {
	return fmt.Sprintf("promo code %s rejected: %s", e.Code, e.Reason)
}
