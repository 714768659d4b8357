// Package seed заполняет хранилище демонстрационными данными: два сотрудника,
// две клиники, три позиции каталога и два исторических счёта.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/vetbill/internal/model"
)

// Store описывает операции хранилища, нужные для заполнения.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	CreateShop(ctx context.Context, s *model.Shop) error
	CreateProduct(ctx context.Context, p *model.Product) error
	SeedBill(ctx context.Context, b *model.Bill, payments []model.Payment) error
}

// Result содержит созданные записи, на которые удобно ссылаться после заполнения.
type Result struct {
	Admin    model.User
	Employee model.User
	Shops    []model.Shop
	Products []model.Product
	Bills    []model.Bill
}

// ID возвращает стабильный идентификатор демонстрационной записи.
func ID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("vetbill:"+kind+":"+name))
}

func strptr(s string) *string { return &s }

// Run создаёт демонстрационные данные. Повторный запуск на заполненном хранилище
// завершается ошибкой создания пользователя.
func Run(ctx context.Context, store Store, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &Result{
		Admin: model.User{
			ID:    ID("user", "admin@example.com"),
			Name:  "Admin User",
			Email: "admin@example.com",
			Role:  model.RoleAdmin,
		},
		Employee: model.User{
			ID:    ID("user", "test@example.com"),
			Name:  "John Doe",
			Email: "test@example.com",
			Role:  model.RoleEmployee,
		},
	}

	for _, u := range []*model.User{&res.Admin, &res.Employee} {
		if err := store.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	logger.Info("users created")

	res.Shops = []model.Shop{
		{
			ID:            ID("shop", "PetCare Clinic"),
			ShopName:      "PetCare Clinic",
			DoctorName:    "Dr. Smith",
			Location:      "123 Main St, New York, NY",
			ContactNumber: "+1 (555) 123-4567",
			CreatedBy:     res.Admin.ID,
		},
		{
			ID:            ID("shop", "Animal Hospital"),
			ShopName:      "Animal Hospital",
			DoctorName:    "Dr. Johnson",
			Location:      "456 Park Ave, Boston, MA",
			ContactNumber: "+1 (555) 987-6543",
			CreatedBy:     res.Employee.ID,
		},
	}
	for i := range res.Shops {
		if err := store.CreateShop(ctx, &res.Shops[i]); err != nil {
			return nil, fmt.Errorf("seed shop %s: %w", res.Shops[i].ShopName, err)
		}
	}
	logger.Info("shops created")

	res.Products = []model.Product{
		{ID: ID("product", "Vaccination"), Name: "Vaccination", Price: 12000, Description: strptr("Standard vaccination package"), CreatedBy: res.Admin.ID},
		{ID: ID("product", "Consultation"), Name: "Consultation", Price: 8000, Description: strptr("General health consultation"), CreatedBy: res.Admin.ID},
		{ID: ID("product", "Medicine"), Name: "Medicine", Price: 5000, Description: strptr("General medication"), CreatedBy: res.Admin.ID},
	}
	for i := range res.Products {
		if err := store.CreateProduct(ctx, &res.Products[i]); err != nil {
			return nil, fmt.Errorf("seed product %s: %w", res.Products[i].Name, err)
		}
	}
	logger.Info("products created")

	vaccination, consultation, medicine := res.Products[0], res.Products[1], res.Products[2]

	first := newBill("INV-001", res.Shops[0], res.Admin.ID, time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
		line(vaccination, 1), line(consultation, 1))

	second := newBill("INV-002", res.Shops[1], res.Employee.ID, time.Date(2023, 5, 14, 0, 0, 0, 0, time.UTC),
		line(consultation, 1), line(medicine, 2))

	// Оплаченный счёт получает платёж на всю сумму, чтобы сумма оплаты совпадала с историей платежей.
	settlement := model.Payment{
		ID:        ID("payment", second.InvoiceNumber),
		BillID:    second.ID,
		Amount:    second.TotalAmount,
		CreatedBy: res.Employee.ID,
		CreatedAt: second.Date,
	}
	second.CurrentPayment = second.TotalAmount
	second.Status = model.BillStatusPaid

	if err := store.SeedBill(ctx, first, nil); err != nil {
		return nil, fmt.Errorf("seed bill %s: %w", first.InvoiceNumber, err)
	}
	if err := store.SeedBill(ctx, second, []model.Payment{settlement}); err != nil {
		return nil, fmt.Errorf("seed bill %s: %w", second.InvoiceNumber, err)
	}
	second.Payments = []uuid.UUID{settlement.ID}
	res.Bills = []model.Bill{*first, *second}
	logger.Info("bills created")

	return res, nil
}

func line(p model.Product, qty int) model.LineItem {
	return model.LineItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty}
}

func newBill(number string, shop model.Shop, createdBy uuid.UUID, date time.Time, items ...model.LineItem) *model.Bill {
	var total int64
	for _, it := range items {
		total += it.Total()
	}

	return &model.Bill{
		ID:            ID("bill", number),
		InvoiceNumber: number,
		ShopID:        shop.ID,
		ShopName:      shop.ShopName,
		DoctorName:    shop.DoctorName,
		Items:         items,
		TotalAmount:   total,
		Status:        model.BillStatusUnpaid,
		Payments:      []uuid.UUID{},
		CreatedBy:     createdBy,
		Date:          date,
		CreatedAt:     date,
		UpdatedAt:     date,
		Version:       1,
	}
}
