package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/vetbill/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса учёта счетов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/healthz", h.Healthz)

	r.Route("/api/bills", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Post("/", h.CreateBill)
		r.Get("/", h.ListBills)

		r.Get("/search", h.SearchBills)
		r.Get("/byshop/{shopName}", h.ListBillsByShopName)
		r.Get("/bydoctor/{doctorName}", h.ListBillsByDoctorName)
		r.Get("/byinvoice/{invoiceNumber}", h.ListBillsByInvoiceNumber)

		r.Post("/addpayment/{billID}", h.AddPayment)
		r.Delete("/deletepayment/{paymentID}", h.DeletePayment)

		r.Get("/{billID}", h.GetBill)
		r.Delete("/{billID}", h.DeleteBill)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
