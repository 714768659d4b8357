// Package model содержит доменные сущности сервиса учёта счетов ветклиник.
package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Role описывает роль пользователя системы.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User представляет сотрудника, работающего с системой.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Identity описывает аутентифицированного вызывающего.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin сообщает, обладает ли вызывающий правами администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Shop описывает клиентскую клинику.
type Shop struct {
	ID            uuid.UUID
	ShopName      string
	DoctorName    string
	Location      string
	ContactNumber string
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// Product описывает позицию каталога услуг и товаров. Цена хранится в копейках.
type Product struct {
	ID          uuid.UUID
	Name        string
	Price       int64
	Description *string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}

// BillStatus описывает статус оплаты счёта.
type BillStatus string

const (
	BillStatusUnpaid BillStatus = "Unpaid"
	BillStatusPaid   BillStatus = "Paid"
)

// ParseBillStatus принимает только точные значения Paid и Unpaid.
func ParseBillStatus(s string) (BillStatus, bool) {
	switch BillStatus(s) {
	case BillStatusPaid, BillStatusUnpaid:
		return BillStatus(s), true
	}
	return "", false
}

// DeriveStatus вычисляет статус счёта по сумме внесённых платежей.
func DeriveStatus(current, total int64) BillStatus {
	if current == total {
		return BillStatusPaid
	}
	return BillStatusUnpaid
}

// LineItem — снимок позиции каталога на момент выставления счёта.
type LineItem struct {
	ProductID uuid.UUID
	Name      string
	Price     int64
	Quantity  int
}

// Total возвращает стоимость позиции с учётом количества.
func (li LineItem) Total() int64 {
	return li.Price * int64(li.Quantity)
}

// MaxQuantity — наибольшее количество в одной позиции счёта (диапазон столбца quantity).
const MaxQuantity = math.MaxInt32

// CheckedTotal возвращает стоимость позиции и false, если она не помещается в int64.
func (li LineItem) CheckedTotal() (int64, bool) {
	if li.Price < 0 || li.Quantity < 0 {
		return 0, false
	}
	if li.Quantity != 0 && li.Price > math.MaxInt64/int64(li.Quantity) {
		return 0, false
	}
	return li.Total(), true
}

// Bill описывает выставленный клинике счёт.
type Bill struct {
	ID             uuid.UUID
	InvoiceNumber  string
	ShopID         uuid.UUID
	ShopName       string
	DoctorName     string
	Items          []LineItem
	TotalAmount    int64
	CurrentPayment int64
	Status         BillStatus
	Payments       []uuid.UUID
	CreatedBy      uuid.UUID
	Date           time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}

// Clone возвращает глубокую копию счёта.
func (b *Bill) Clone() *Bill {
	c := *b
	c.Items = append([]LineItem(nil), b.Items...)
	c.Payments = append([]uuid.UUID(nil), b.Payments...)
	return &c
}

// Payment описывает один платёж по счёту. После создания не изменяется.
type Payment struct {
	ID        uuid.UUID
	BillID    uuid.UUID
	Amount    int64
	CreatedBy uuid.UUID
	CreatedAt time.Time
}

// BillDetail — счёт вместе с данными клиники, автора и историей платежей.
type BillDetail struct {
	Bill           *Bill
	Shop           *Shop
	Creator        *User
	PaymentRecords []Payment
}

// BillFilter задаёт условия выборки счетов. Все текстовые поля сравниваются
// как подстрока без учёта регистра.
type BillFilter struct {
	Status        *BillStatus
	ShopID        *uuid.UUID
	Query         string
	ShopName      string
	DoctorName    string
	InvoiceNumber string
}

// PaymentDrift описывает расхождение между суммой в счёте и суммой его платежей.
type PaymentDrift struct {
	BillID         uuid.UUID
	InvoiceNumber  string
	CurrentPayment int64
	PaymentsSum    int64
}
