package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/vetbill/internal/model"
)

// GetBill возвращает счёт по идентификатору.
func (r *PostgresRepository) GetBill(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills b WHERE b.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBillNotFound
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// ListBills возвращает счета, подходящие под фильтр, от новых к старым.
func (r *PostgresRepository) ListBills(ctx context.Context, f model.BillFilter) ([]model.Bill, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Status != nil {
		conds = append(conds, "b.status = "+arg(string(*f.Status)))
	}
	if f.ShopID != nil {
		conds = append(conds, "b.shop_id = "+arg(*f.ShopID))
	}
	if f.Query != "" {
		p := arg(likePattern(f.Query))
		conds = append(conds, fmt.Sprintf(
			`(b.shop_name ILIKE %[1]s OR b.doctor_name ILIKE %[1]s OR b.invoice_number ILIKE %[1]s)`, p,
		))
	}
	if f.ShopName != "" {
		conds = append(conds, "b.shop_name ILIKE "+arg(likePattern(f.ShopName)))
	}
	if f.DoctorName != "" {
		conds = append(conds, "b.doctor_name ILIKE "+arg(likePattern(f.DoctorName)))
	}
	if f.InvoiceNumber != "" {
		conds = append(conds, "b.invoice_number ILIKE "+arg(likePattern(f.InvoiceNumber)))
	}

	query := `SELECT ` + billColumns + ` FROM bills b`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.date DESC, b.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select bills: %w", err)
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return bills, nil
}

// ListPayments возвращает платежи по счёту в порядке внесения.
func (r *PostgresRepository) ListPayments(ctx context.Context, billID uuid.UUID) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, bill_id, amount, created_by, created_at
		 FROM payments
		 WHERE bill_id = $1
		 ORDER BY created_at, id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var res []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.BillID, &p.Amount, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// FindPaymentDrift возвращает счета, у которых сумма платежей расходится с current_payment.
func (r *PostgresRepository) FindPaymentDrift(ctx context.Context) ([]model.PaymentDrift, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.invoice_number, b.current_payment, COALESCE(SUM(p.amount), 0)::bigint
		 FROM bills b
		 LEFT JOIN payments p ON p.bill_id = b.id
		 GROUP BY b.id
		 HAVING b.current_payment <> COALESCE(SUM(p.amount), 0)
		 ORDER BY b.invoice_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("select payment drift: %w", err)
	}
	defer rows.Close()

	var res []model.PaymentDrift
	for rows.Next() {
		var d model.PaymentDrift
		if err := rows.Scan(&d.BillID, &d.InvoiceNumber, &d.CurrentPayment, &d.PaymentsSum); err != nil {
			return nil, fmt.Errorf("scan payment drift: %w", err)
		}
		res = append(res, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
