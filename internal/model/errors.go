package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Базовые виды ошибок. Конкретные ошибки оборачивают их через %w.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication invalid")
	ErrConflict        = errors.New("conflict")
)

var (
	// ErrShopNotFound возвращается, если клиника не найдена.
	ErrShopNotFound = fmt.Errorf("shop %w", ErrNotFound)
	// ErrBillNotFound возвращается, если счёт не найден.
	ErrBillNotFound = fmt.Errorf("bill %w", ErrNotFound)
	// ErrPaymentNotFound возвращается, если платёж не найден.
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	ErrNoLineItems         = fmt.Errorf("%w: please provide at least one product", ErrInvalidInput)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidInput, MaxQuantity)
	ErrTotalTooLarge       = fmt.Errorf("%w: bill total too large", ErrInvalidInput)
	ErrAmountRequired      = fmt.Errorf("%w: valid amount required", ErrInvalidInput)
	ErrPaymentExceedsTotal = fmt.Errorf("%w: payment exceeds total", ErrInvalidInput)

	// ErrNotBillOwner возвращается при удалении чужого счёта без прав администратора.
	ErrNotBillOwner = fmt.Errorf("%w: not authorized to delete this bill", ErrForbidden)

	// ErrInvoiceTaken возвращается при повторном использовании номера счёта.
	ErrInvoiceTaken = fmt.Errorf("%w: invoice number already issued", ErrConflict)
	// ErrConcurrentUpdate возвращается, если счёт изменён параллельной операцией.
	ErrConcurrentUpdate = fmt.Errorf("%w: bill was modified concurrently, retry the operation", ErrConflict)
)

// ProductNotFound возвращает ошибку с идентификатором отсутствующего товара.
func ProductNotFound(id uuid.UUID) error {
	return fmt.Errorf("product %s %w", id, ErrNotFound)
}
