// Package service реализует бизнес-логику учёта счетов и платежей.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/vetbill/internal/invoice"
	"github.com/mmeshcher/vetbill/internal/model"
	"github.com/mmeshcher/vetbill/internal/repository"
)

// Store описывает контракт хранилища счетов и платежей, используемый сервисом.
type Store interface {
	Close() error
	InTx(ctx context.Context, fn func(tx repository.LedgerTx) error) error
	GetBill(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	ListBills(ctx context.Context, f model.BillFilter) ([]model.Bill, error)
	ListPayments(ctx context.Context, billID uuid.UUID) ([]model.Payment, error)
	FindPaymentDrift(ctx context.Context) ([]model.PaymentDrift, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Catalog описывает справочник клиник и позиций каталога.
type Catalog interface {
	GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// LineRequest описывает запрошенную позицию счёта. Нулевое количество означает 1.
type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// Service содержит бизнес-логику учёта счетов.
type Service struct {
	store   Store
	catalog Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// NewService создаёт новый сервис с указанным хранилищем и каталогом.
func NewService(store Store, catalog Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		catalog: catalog,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// CreateBill выставляет счёт клинике, фиксируя названия и цены позиций на момент создания.
func (s *Service) CreateBill(ctx context.Context, shopID uuid.UUID, lines []LineRequest, callerID uuid.UUID) (*model.Bill, error) {
	if len(lines) == 0 {
		return nil, model.ErrNoLineItems
	}

	shop, err := s.catalog.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	items := make([]model.LineItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 || qty > model.MaxQuantity {
			return nil, model.ErrInvalidQuantity
		}

		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}

		item := model.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  qty,
		}
		lineTotal, ok := item.CheckedTotal()
		if !ok || total > math.MaxInt64-lineTotal {
			return nil, model.ErrTotalTooLarge
		}
		items = append(items, item)
		total += lineTotal
	}

	now := s.now()
	bill := &model.Bill{
		ID:             uuid.New(),
		ShopID:         shop.ID,
		ShopName:       shop.ShopName,
		DoctorName:     shop.DoctorName,
		Items:          items,
		TotalAmount:    total,
		CurrentPayment: 0,
		Status:         model.DeriveStatus(0, total),
		Payments:       []uuid.UUID{},
		CreatedBy:      callerID,
		Date:           now,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}

	err = s.store.InTx(ctx, func(tx repository.LedgerTx) error {
		seq, err := tx.NextInvoiceSeq(ctx)
		if err != nil {
			return err
		}
		bill.InvoiceNumber = invoice.Format(seq)
		return tx.InsertBill(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bill created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("invoice", bill.InvoiceNumber),
		zap.String("shop_id", shopID.String()),
		zap.Int64("total", bill.TotalAmount),
		zap.String("caller", callerID.String()),
	)

	return bill, nil
}

// AddPayment вносит платёж по счёту. Запись платежа, ссылка на него в счёте и новая
// сумма оплаты сохраняются одной транзакцией; переплата откатывает всё.
func (s *Service) AddPayment(ctx context.Context, billID uuid.UUID, amount int64, callerID uuid.UUID) (*model.Bill, error) {
	if amount <= 0 {
		return nil, model.ErrAmountRequired
	}

	var updated *model.Bill
	err := s.store.InTx(ctx, func(tx repository.LedgerTx) error {
		bill, err := tx.LockBill(ctx, billID)
		if err != nil {
			return err
		}

		payment := &model.Payment{
			ID:        uuid.New(),
			BillID:    bill.ID,
			Amount:    amount,
			CreatedBy: callerID,
			CreatedAt: s.now(),
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		bill.Payments = append(bill.Payments, payment.ID)
		bill.CurrentPayment += amount
		if bill.CurrentPayment > bill.TotalAmount {
			return model.ErrPaymentExceedsTotal
		}
		bill.Status = model.DeriveStatus(bill.CurrentPayment, bill.TotalAmount)

		if err := tx.UpdateBillPayment(ctx, bill); err != nil {
			return err
		}

		updated = bill
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment added",
		zap.String("bill_id", billID.String()),
		zap.String("invoice", updated.InvoiceNumber),
		zap.Int64("amount", amount),
		zap.Int64("current_payment", updated.CurrentPayment),
		zap.String("status", string(updated.Status)),
		zap.String("caller", callerID.String()),
	)

	return updated, nil
}

// DeletePayment удаляет платёж и уменьшает сумму оплаты счёта в одной транзакции.
func (s *Service) DeletePayment(ctx context.Context, paymentID uuid.UUID, callerID uuid.UUID) (*model.Bill, error) {
	var (
		updated *model.Bill
		amount  int64
	)
	err := s.store.InTx(ctx, func(tx repository.LedgerTx) error {
		ref, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		// Счёт блокируется раньше платежа, как и в AddPayment и DeleteBill.
		bill, err := tx.LockBill(ctx, ref.BillID)
		if err != nil {
			if errors.Is(err, model.ErrBillNotFound) {
				return fmt.Errorf("payment %s references missing %w", paymentID, model.ErrBillNotFound)
			}
			return err
		}

		payment, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		bill.Payments = removeID(bill.Payments, payment.ID)
		bill.CurrentPayment -= payment.Amount
		if bill.CurrentPayment < 0 {
			return fmt.Errorf("bill %s: current payment would become negative", bill.ID)
		}
		bill.Status = model.DeriveStatus(bill.CurrentPayment, bill.TotalAmount)

		if err := tx.UpdateBillPayment(ctx, bill); err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, payment.ID); err != nil {
			return err
		}

		updated = bill
		amount = payment.Amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment deleted",
		zap.String("payment_id", paymentID.String()),
		zap.String("bill_id", updated.ID.String()),
		zap.Int64("amount", amount),
		zap.Int64("current_payment", updated.CurrentPayment),
		zap.String("status", string(updated.Status)),
		zap.String("caller", callerID.String()),
	)

	return updated, nil
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	res := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			res = append(res, v)
		}
	}
	return res
}

// DeleteBill удаляет счёт вместе с его платежами. Удалять может автор счёта или администратор.
func (s *Service) DeleteBill(ctx context.Context, billID uuid.UUID, caller model.Identity) error {
	var invoiceNumber string
	err := s.store.InTx(ctx, func(tx repository.LedgerTx) error {
		bill, err := tx.LockBill(ctx, billID)
		if err != nil {
			return err
		}

		if bill.CreatedBy != caller.UserID && !caller.IsAdmin() {
			return model.ErrNotBillOwner
		}

		invoiceNumber = bill.InvoiceNumber
		return tx.DeleteBill(ctx, billID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("bill deleted",
		zap.String("bill_id", billID.String()),
		zap.String("invoice", invoiceNumber),
		zap.String("caller", caller.UserID.String()),
	)
	return nil
}

// GetBill возвращает счёт с данными клиники, автора и историей платежей.
func (s *Service) GetBill(ctx context.Context, billID uuid.UUID) (*model.BillDetail, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	detail := &model.BillDetail{Bill: bill}

	shop, err := s.catalog.GetShop(ctx, bill.ShopID)
	switch {
	case err == nil:
		detail.Shop = shop
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}

	creator, err := s.store.GetUser(ctx, bill.CreatedBy)
	switch {
	case err == nil:
		detail.Creator = creator
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	detail.PaymentRecords = payments

	return detail, nil
}

// ListBills возвращает счета по фильтру, от новых к старым.
func (s *Service) ListBills(ctx context.Context, f model.BillFilter) ([]model.Bill, error) {
	f.Query = strings.TrimSpace(f.Query)
	return s.store.ListBills(ctx, f)
}

// SearchBills ищет счета по названию клиники, имени врача и номеру счёта.
// Пустой запрос возвращает пустой результат.
func (s *Service) SearchBills(ctx context.Context, query string) ([]model.Bill, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Bill{}, nil
	}
	return s.store.ListBills(ctx, model.BillFilter{Query: query})
}

// ListBillsByShopName возвращает счета, название клиники которых содержит name.
func (s *Service) ListBillsByShopName(ctx context.Context, name string) ([]model.Bill, error) {
	return s.store.ListBills(ctx, model.BillFilter{ShopName: strings.TrimSpace(name)})
}

// ListBillsByDoctorName возвращает счета, имя врача в которых содержит name.
func (s *Service) ListBillsByDoctorName(ctx context.Context, name string) ([]model.Bill, error) {
	return s.store.ListBills(ctx, model.BillFilter{DoctorName: strings.TrimSpace(name)})
}

// ListBillsByInvoiceNumber возвращает счета, номер которых содержит number.
func (s *Service) ListBillsByInvoiceNumber(ctx context.Context, number string) ([]model.Bill, error) {
	return s.store.ListBills(ctx, model.BillFilter{InvoiceNumber: strings.TrimSpace(number)})
}
