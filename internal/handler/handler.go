// Package handler содержит HTTP-обработчики API сервиса учёта счетов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/vetbill/internal/middleware"
	"github.com/mmeshcher/vetbill/internal/model"
	"github.com/mmeshcher/vetbill/internal/service"
	"github.com/mmeshcher/vetbill/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateBill(ctx context.Context, shopID uuid.UUID, lines []service.LineRequest, callerID uuid.UUID) (*model.Bill, error)
	AddPayment(ctx context.Context, billID uuid.UUID, amount int64, callerID uuid.UUID) (*model.Bill, error)
	DeletePayment(ctx context.Context, paymentID uuid.UUID, callerID uuid.UUID) (*model.Bill, error)
	DeleteBill(ctx context.Context, billID uuid.UUID, caller model.Identity) error
	GetBill(ctx context.Context, billID uuid.UUID) (*model.BillDetail, error)
	ListBills(ctx context.Context, f model.BillFilter) ([]model.Bill, error)
	SearchBills(ctx context.Context, query string) ([]model.Bill, error)
	ListBillsByShopName(ctx context.Context, name string) ([]model.Bill, error)
	ListBillsByDoctorName(ctx context.Context, name string) ([]model.Bill, error)
	ListBillsByInvoiceNumber(ctx context.Context, number string) ([]model.Bill, error)
}

// Handler реализует HTTP-обработчики API сервиса учёта счетов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type lineRequest struct {
	Product   string `json:"product"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=2147483647"`
}

func (l lineRequest) ref() string {
	if l.Product != "" {
		return l.Product
	}
	return l.ProductID
}

type createBillRequest struct {
	ShopID   string        `json:"shopId" validate:"required"`
	Products []lineRequest `json:"products" validate:"dive"`
}

type addPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreateBill выставляет новый счёт клинике.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		h.writeError(w, err)
		return
	}

	shopID, err := validation.ParseID(req.ShopID, "shop")
	if err != nil {
		h.writeError(w, err)
		return
	}

	lines := make([]service.LineRequest, 0, len(req.Products))
	for _, p := range req.Products {
		productID, err := validation.ParseID(p.ref(), "product")
		if err != nil {
			h.writeError(w, err)
			return
		}
		lines = append(lines, service.LineRequest{ProductID: productID, Quantity: p.Quantity})
	}

	bill, err := h.service.CreateBill(r.Context(), shopID, lines, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusCreated, newBillResponse(bill))
}

// ListBills возвращает счета с фильтрами status, shopId и search.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	f, err := validation.BillFilterFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}

	bills, err := h.service.ListBills(r.Context(), f)
	h.writeBills(w, bills, err)
}

// SearchBills ищет счета по параметру query.
func (h *Handler) SearchBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.service.SearchBills(r.Context(), r.URL.Query().Get("query"))
	h.writeBills(w, bills, err)
}

// ListBillsByShopName возвращает счета по названию клиники.
func (h *Handler) ListBillsByShopName(w http.ResponseWriter, r *http.Request) {
	bills, err := h.service.ListBillsByShopName(r.Context(), chi.URLParam(r, "shopName"))
	h.writeBills(w, bills, err)
}

// ListBillsByDoctorName возвращает счета по имени врача.
func (h *Handler) ListBillsByDoctorName(w http.ResponseWriter, r *http.Request) {
	bills, err := h.service.ListBillsByDoctorName(r.Context(), chi.URLParam(r, "doctorName"))
	h.writeBills(w, bills, err)
}

// ListBillsByInvoiceNumber возвращает счета по номеру.
func (h *Handler) ListBillsByInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	bills, err := h.service.ListBillsByInvoiceNumber(r.Context(), chi.URLParam(r, "invoiceNumber"))
	h.writeBills(w, bills, err)
}

// GetBill возвращает счёт с клиникой, автором и историей платежей.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	billID, err := validation.ParseID(chi.URLParam(r, "billID"), "bill")
	if err != nil {
		h.writeError(w, err)
		return
	}

	detail, err := h.service.GetBill(r.Context(), billID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, newBillDetailResponse(detail))
}

// DeleteBill удаляет счёт. Доступно автору счёта и администратору.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	billID, err := validation.ParseID(chi.URLParam(r, "billID"), "bill")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.service.DeleteBill(r.Context(), billID, identity); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, struct{}{})
}

// AddPayment вносит платёж по счёту.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	billID, err := validation.ParseID(chi.URLParam(r, "billID"), "bill")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.ErrAmountRequired)
		return
	}

	amount, err := validation.AmountToCents(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	bill, err := h.service.AddPayment(r.Context(), billID, amount, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, newBillResponse(bill))
}

// DeletePayment удаляет платёж и возвращает обновлённый счёт.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	paymentID, err := validation.ParseID(chi.URLParam(r, "paymentID"), "payment")
	if err != nil {
		h.writeError(w, err)
		return
	}

	bill, err := h.service.DeletePayment(r.Context(), paymentID, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, newBillResponse(bill))
}

// Healthz сообщает, что сервис запущен.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		h.writeMessage(w, http.StatusUnauthorized, "Authentication invalid")
		return model.Identity{}, false
	}
	return identity, true
}

type envelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data any) {
	h.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, envelope{Success: false, Message: message})
}

func (h *Handler) writeBills(w http.ResponseWriter, bills []model.Bill, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}

	res := make([]billResponse, 0, len(bills))
	for i := range bills {
		res = append(res, newBillResponse(&bills[i]))
	}
	count := len(res)

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: res})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		h.writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthenticated):
		h.writeMessage(w, http.StatusUnauthorized, "Authentication invalid")
	case errors.Is(err, model.ErrForbidden):
		h.writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		h.writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict):
		h.writeMessage(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
