package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/vetbill/internal/invoice"
	"github.com/mmeshcher/vetbill/internal/model"
)

// LedgerTx описывает операции над счетами и платежами внутри одной единицы работы.
type LedgerTx interface {
	// NextInvoiceSeq атомарно увеличивает счётчик номеров счетов и возвращает новое значение.
	NextInvoiceSeq(ctx context.Context) (int64, error)
	InsertBill(ctx context.Context, b *model.Bill) error
	// LockBill читает счёт и блокирует его до конца транзакции.
	LockBill(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	// UpdateBillPayment сохраняет сумму платежей и статус, если версия счёта не изменилась.
	UpdateBillPayment(ctx context.Context, b *model.Bill) error
	InsertPayment(ctx context.Context, p *model.Payment) error
	// GetPayment читает платёж без блокировки.
	GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	LockPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	DeletePayment(ctx context.Context, id uuid.UUID) error
	// DeleteBill удаляет счёт вместе с его позициями и платежами.
	DeleteBill(ctx context.Context, id uuid.UUID) error
}

const billColumns = `b.id, b.invoice_number, b.shop_id, b.shop_name, b.doctor_name,
	b.total_amount, b.current_payment, b.status, b.created_by,
	b.date, b.created_at, b.updated_at, b.version,
	COALESCE((SELECT json_agg(json_build_object(
			'product_id', i.product_id, 'name', i.name, 'price', i.price, 'quantity', i.quantity
		) ORDER BY i.position) FROM bill_items i WHERE i.bill_id = b.id), '[]'::json),
	COALESCE((SELECT array_agg(p.id::text ORDER BY p.created_at, p.id)
		FROM payments p WHERE p.bill_id = b.id), '{}'::text[])`

type itemRow struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
}

func scanBill(row pgx.Row) (*model.Bill, error) {
	var (
		b          model.Bill
		status     string
		itemsJSON  []byte
		paymentIDs []string
	)

	err := row.Scan(
		&b.ID, &b.InvoiceNumber, &b.ShopID, &b.ShopName, &b.DoctorName,
		&b.TotalAmount, &b.CurrentPayment, &status, &b.CreatedBy,
		&b.Date, &b.CreatedAt, &b.UpdatedAt, &b.Version,
		&itemsJSON, &paymentIDs,
	)
	if err != nil {
		return nil, err
	}
	b.Status = model.BillStatus(status)

	var items []itemRow
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("decode bill items: %w", err)
	}
	b.Items = make([]model.LineItem, 0, len(items))
	for _, it := range items {
		b.Items = append(b.Items, model.LineItem(it))
	}

	b.Payments = make([]uuid.UUID, 0, len(paymentIDs))
	for _, s := range paymentIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("decode payment id: %w", err)
		}
		b.Payments = append(b.Payments, id)
	}

	return &b, nil
}

type pgLedgerTx struct {
	tx pgx.Tx
}

func (t *pgLedgerTx) NextInvoiceSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := t.tx.QueryRow(ctx,
		`UPDATE invoice_sequences SET value = value + 1 WHERE name = $1 RETURNING value`,
		invoice.SequenceName,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	return seq, nil
}

func (t *pgLedgerTx) InsertBill(ctx context.Context, b *model.Bill) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO bills (id, invoice_number, shop_id, shop_name, doctor_name, total_amount,
			current_payment, status, created_by, date, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		b.ID, b.InvoiceNumber, b.ShopID, b.ShopName, b.DoctorName, b.TotalAmount,
		b.CurrentPayment, string(b.Status), b.CreatedBy, b.Date, b.CreatedAt, b.UpdatedAt, b.Version,
	)
	if err != nil {
		if isUniqueViolation(err, "bills_invoice_number_key") {
			return fmt.Errorf("%w: %s", model.ErrInvoiceTaken, b.InvoiceNumber)
		}
		return fmt.Errorf("insert bill: %w", err)
	}

	batch := &pgx.Batch{}
	for i, it := range b.Items {
		batch.Queue(
			`INSERT INTO bill_items (bill_id, position, product_id, name, price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			b.ID, i, it.ProductID, it.Name, it.Price, it.Quantity,
		)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert bill items: %w", err)
	}

	return nil
}

func (t *pgLedgerTx) LockBill(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	b, err := scanBill(t.tx.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills b WHERE b.id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBillNotFound
		}
		return nil, fmt.Errorf("lock bill: %w", err)
	}
	return b, nil
}

func (t *pgLedgerTx) UpdateBillPayment(ctx context.Context, b *model.Bill) error {
	now := time.Now().UTC()
	cmdTag, err := t.tx.Exec(ctx,
		`UPDATE bills
		 SET current_payment = $2, status = $3, updated_at = $4, version = version + 1
		 WHERE id = $1 AND version = $5`,
		b.ID, b.CurrentPayment, string(b.Status), now, b.Version,
	)
	if err != nil {
		return fmt.Errorf("update bill payment: %w", err)
	}
	if cmdTag.RowsAffected() != 1 {
		return model.ErrConcurrentUpdate
	}

	b.Version++
	b.UpdatedAt = now
	return nil
}

func (t *pgLedgerTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO payments (id, bill_id, amount, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.BillID, p.Amount, p.CreatedBy, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (t *pgLedgerTx) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return t.selectPayment(ctx, id, "")
}

func (t *pgLedgerTx) LockPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return t.selectPayment(ctx, id, " FOR UPDATE")
}

func (t *pgLedgerTx) selectPayment(ctx context.Context, id uuid.UUID, lock string) (*model.Payment, error) {
	var p model.Payment
	err := t.tx.QueryRow(ctx,
		`SELECT id, bill_id, amount, created_by, created_at FROM payments WHERE id = $1`+lock,
		id,
	).Scan(&p.ID, &p.BillID, &p.Amount, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

func (t *pgLedgerTx) DeletePayment(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrPaymentNotFound
	}
	return nil
}

func (t *pgLedgerTx) DeleteBill(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE bill_id = $1`, id); err != nil {
		return fmt.Errorf("delete bill payments: %w", err)
	}

	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrBillNotFound
	}
	return nil
}
