package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/vetbill/internal/invoice"
	"github.com/mmeshcher/vetbill/internal/model"
)

// MemoryRepository хранит данные в памяти процесса. Используется, когда база данных
// не настроена, и в тестах. Транзакции выполняются последовательно над копией
// состояния, которая заменяет текущее состояние только при успешном завершении.
type MemoryRepository struct {
	mu    sync.Mutex
	state *memState

	catalogMu sync.RWMutex
	shops     map[uuid.UUID]model.Shop
	products  map[uuid.UUID]model.Product
	users     map[uuid.UUID]model.User
}

type memState struct {
	seq      int64
	bills    map[uuid.UUID]*model.Bill
	payments map[uuid.UUID]model.Payment
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		state: &memState{
			bills:    make(map[uuid.UUID]*model.Bill),
			payments: make(map[uuid.UUID]model.Payment),
		},
		shops:    make(map[uuid.UUID]model.Shop),
		products: make(map[uuid.UUID]model.Product),
		users:    make(map[uuid.UUID]model.User),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:      s.seq,
		bills:    make(map[uuid.UUID]*model.Bill, len(s.bills)),
		payments: make(map[uuid.UUID]model.Payment, len(s.payments)),
	}
	for id, b := range s.bills {
		c.bills[id] = b.Clone()
	}
	for id, p := range s.payments {
		c.payments[id] = p
	}
	return c
}

func (s *memState) billPayments(billID uuid.UUID) []model.Payment {
	var res []model.Payment
	for _, p := range s.payments {
		if p.BillID == billID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].ID.String() < res[j].ID.String()
	})
	return res
}

func (s *memState) readBill(id uuid.UUID) (*model.Bill, bool) {
	b, ok := s.bills[id]
	if !ok {
		return nil, false
	}
	c := b.Clone()
	c.Payments = make([]uuid.UUID, 0)
	for _, p := range s.billPayments(id) {
		c.Payments = append(c.Payments, p.ID)
	}
	return c, true
}

// Close ничего не делает и нужен для совместимости с PostgresRepository.
func (r *MemoryRepository) Close() error {
	return nil
}

// InTx выполняет fn над копией состояния и применяет её только при успехе fn.
func (r *MemoryRepository) InTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	draft := r.state.clone()
	if err := fn(&memLedgerTx{st: draft}); err != nil {
		return err
	}

	r.state = draft
	return nil
}

type memLedgerTx struct {
	st *memState
}

func (t *memLedgerTx) NextInvoiceSeq(ctx context.Context) (int64, error) {
	t.st.seq++
	return t.st.seq, nil
}

func (t *memLedgerTx) InsertBill(ctx context.Context, b *model.Bill) error {
	for _, existing := range t.st.bills {
		if existing.InvoiceNumber == b.InvoiceNumber {
			return fmt.Errorf("%w: %s", model.ErrInvoiceTaken, b.InvoiceNumber)
		}
	}
	stored := b.Clone()
	stored.Payments = nil
	t.st.bills[b.ID] = stored
	return nil
}

func (t *memLedgerTx) LockBill(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	b, ok := t.st.readBill(id)
	if !ok {
		return nil, model.ErrBillNotFound
	}
	return b, nil
}

func (t *memLedgerTx) UpdateBillPayment(ctx context.Context, b *model.Bill) error {
	stored, ok := t.st.bills[b.ID]
	if !ok || stored.Version != b.Version {
		return model.ErrConcurrentUpdate
	}
	if b.CurrentPayment < 0 || b.CurrentPayment > stored.TotalAmount {
		return fmt.Errorf("update bill payment: current payment %d outside [0, %d]", b.CurrentPayment, stored.TotalAmount)
	}

	now := time.Now().UTC()
	stored.CurrentPayment = b.CurrentPayment
	stored.Status = b.Status
	stored.UpdatedAt = now
	stored.Version++

	b.Version = stored.Version
	b.UpdatedAt = now
	return nil
}

func (t *memLedgerTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	if _, ok := t.st.bills[p.BillID]; !ok {
		return fmt.Errorf("insert payment: %w", model.ErrBillNotFound)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("insert payment: amount %d must be positive", p.Amount)
	}
	t.st.payments[p.ID] = *p
	return nil
}

func (t *memLedgerTx) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return t.LockPayment(ctx, id)
}

func (t *memLedgerTx) LockPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := t.st.payments[id]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	return &p, nil
}

func (t *memLedgerTx) DeletePayment(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.st.payments[id]; !ok {
		return model.ErrPaymentNotFound
	}
	delete(t.st.payments, id)
	return nil
}

func (t *memLedgerTx) DeleteBill(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.st.bills[id]; !ok {
		return model.ErrBillNotFound
	}
	for pid, p := range t.st.payments {
		if p.BillID == id {
			delete(t.st.payments, pid)
		}
	}
	delete(t.st.bills, id)
	return nil
}

// GetBill возвращает счёт по идентификатору.
func (r *MemoryRepository) GetBill(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.state.readBill(id)
	if !ok {
		return nil, model.ErrBillNotFound
	}
	return b, nil
}

// ListBills возвращает счета, подходящие под фильтр, от новых к старым.
func (r *MemoryRepository) ListBills(ctx context.Context, f model.BillFilter) ([]model.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []model.Bill
	for id := range r.state.bills {
		b, _ := r.state.readBill(id)
		if matchesFilter(b, f) {
			res = append(res, *b)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.After(res[j].Date)
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})

	return res, nil
}

func matchesFilter(b *model.Bill, f model.BillFilter) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.ShopID != nil && b.ShopID != *f.ShopID {
		return false
	}
	if f.Query != "" &&
		!containsFold(b.ShopName, f.Query) &&
		!containsFold(b.DoctorName, f.Query) &&
		!containsFold(b.InvoiceNumber, f.Query) {
		return false
	}
	if f.ShopName != "" && !containsFold(b.ShopName, f.ShopName) {
		return false
	}
	if f.DoctorName != "" && !containsFold(b.DoctorName, f.DoctorName) {
		return false
	}
	if f.InvoiceNumber != "" && !containsFold(b.InvoiceNumber, f.InvoiceNumber) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ListPayments возвращает платежи по счёту в порядке внесения.
func (r *MemoryRepository) ListPayments(ctx context.Context, billID uuid.UUID) ([]model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state.billPayments(billID), nil
}

// FindPaymentDrift возвращает счета, у которых сумма платежей расходится с current_payment.
func (r *MemoryRepository) FindPaymentDrift(ctx context.Context) ([]model.PaymentDrift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []model.PaymentDrift
	for id, b := range r.state.bills {
		var sum int64
		for _, p := range r.state.billPayments(id) {
			sum += p.Amount
		}
		if sum != b.CurrentPayment {
			res = append(res, model.PaymentDrift{
				BillID:         id,
				InvoiceNumber:  b.InvoiceNumber,
				CurrentPayment: b.CurrentPayment,
				PaymentsSum:    sum,
			})
		}
	}

	sort.Slice(res, func(i, j int) bool { return res[i].InvoiceNumber < res[j].InvoiceNumber })
	return res, nil
}

// GetShop возвращает клинику по идентификатору.
func (r *MemoryRepository) GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	r.catalogMu.RLock()
	defer r.catalogMu.RUnlock()

	s, ok := r.shops[id]
	if !ok {
		return nil, model.ErrShopNotFound
	}
	return &s, nil
}

// GetProduct возвращает позицию каталога по идентификатору.
func (r *MemoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	r.catalogMu.RLock()
	defer r.catalogMu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, model.ProductNotFound(id)
	}
	return &p, nil
}

// GetUser возвращает пользователя по идентификатору.
func (r *MemoryRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.catalogMu.RLock()
	defer r.catalogMu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

// CreateUser создаёт пользователя.
func (r *MemoryRepository) CreateUser(ctx context.Context, u *model.User) error {
	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.users[u.ID] = *u
	return nil
}

// CreateShop создаёт клинику.
func (r *MemoryRepository) CreateShop(ctx context.Context, s *model.Shop) error {
	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.shops[s.ID] = *s
	return nil
}

// CreateProduct создаёт позицию каталога.
func (r *MemoryRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.products[p.ID] = *p
	return nil
}

// SeedBill сохраняет исторический счёт с заранее известным номером и его платежи.
func (r *MemoryRepository) SeedBill(ctx context.Context, b *model.Bill, payments []model.Payment) error {
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

		mt := tx.(*memLedgerTx)
		if mt.st.seq < seq {
			mt.st.seq = seq
		}
		return nil
	})
}
