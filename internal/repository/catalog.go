package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/vetbill/internal/invoice"
	"github.com/mmeshcher/vetbill/internal/model"
)

// ErrUserExists возвращается при попытке создать пользователя с уже существующим email.
var ErrUserExists = errors.New("user already exists")

// GetShop возвращает клинику по идентификатору.
func (r *PostgresRepository) GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	var s model.Shop
	err := r.pool.QueryRow(ctx,
		`SELECT id, shop_name, doctor_name, location, contact_number, created_by, created_at
		 FROM shops WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.ShopName, &s.DoctorName, &s.Location, &s.ContactNumber, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrShopNotFound
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return &s, nil
}

// GetProduct возвращает позицию каталога по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, description, created_by, created_at FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ProductNotFound(id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetUser возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CreateUser создаёт пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		u.ID, u.Name, u.Email, string(u.Role),
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CreateShop создаёт клинику.
func (r *PostgresRepository) CreateShop(ctx context.Context, s *model.Shop) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO shops (id, shop_name, doctor_name, location, contact_number, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		s.ID, s.ShopName, s.DoctorName, s.Location, s.ContactNumber, s.CreatedBy,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create shop: %w", err)
	}
	return nil
}

// CreateProduct создаёт позицию каталога.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (id, name, price, description, created_by)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		p.ID, p.Name, p.Price, p.Description, p.CreatedBy,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// SeedBill сохраняет исторический счёт с заранее известным номером и его платежи,
// сдвигая счётчик номеров так, чтобы новые счета не пересекались с ним.
func (r *PostgresRepository) SeedBill(ctx context.Context, b *model.Bill, payments []model.Payment) error {
	seq, err := invoice.Parse(b.InvoiceNumber)
	if err != nil {
		return err
	}

	return r.InTx(ctx, func(tx LedgerTx) error {
		if err := tx.InsertBill(ctx, b); err != nil {
			return err
		}
		for i := range payments {
			if err := tx.InsertPayment(ctx, &payments[i]); err != nil {
				return err
			}
		}

		pt := tx.(*pgLedgerTx)
		_, err := pt.tx.Exec(ctx,
			`UPDATE invoice_sequences SET value = GREATEST(value, $2) WHERE name = $1`,
			invoice.SequenceName, seq,
		)
		if err != nil {
			return fmt.Errorf("advance invoice sequence: %w", err)
		}
		return nil
	})
}
