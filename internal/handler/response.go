package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/vetbill/internal/model"
	"github.com/mmeshcher/vetbill/internal/validation"
)

func money(cents int64) float64 {
	return validation.CentsToAmount(cents).InexactFloat64()
}

type lineItemResponse struct {
	Product  uuid.UUID `json:"product"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
}

type billResponse struct {
	ID             uuid.UUID          `json:"_id"`
	InvoiceNumber  string             `json:"invoiceNumber"`
	Shop           uuid.UUID          `json:"shop"`
	ShopName       string             `json:"shopName"`
	DoctorName     string             `json:"doctorName"`
	Products       []lineItemResponse `json:"products"`
	TotalAmount    float64            `json:"totalAmount"`
	CurrentPayment float64            `json:"currentPayment"`
	Status         model.BillStatus   `json:"status"`
	Payments       []uuid.UUID        `json:"payments"`
	CreatedBy      uuid.UUID          `json:"createdBy"`
	Date           time.Time          `json:"date"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func newBillResponse(b *model.Bill) billResponse {
	items := make([]lineItemResponse, 0, len(b.Items))
	for _, it := range b.Items {
		items = append(items, lineItemResponse{
			Product:  it.ProductID,
			Name:     it.Name,
			Price:    money(it.Price),
			Quantity: it.Quantity,
		})
	}

	payments := b.Payments
	if payments == nil {
		payments = []uuid.UUID{}
	}

	return billResponse{
		ID:             b.ID,
		InvoiceNumber:  b.InvoiceNumber,
		Shop:           b.ShopID,
		ShopName:       b.ShopName,
		DoctorName:     b.DoctorName,
		Products:       items,
		TotalAmount:    money(b.TotalAmount),
		CurrentPayment: money(b.CurrentPayment),
		Status:         b.Status,
		Payments:       payments,
		CreatedBy:      b.CreatedBy,
		Date:           b.Date,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

type shopResponse struct {
	ID            uuid.UUID `json:"_id"`
	ShopName      string    `json:"shopName"`
	DoctorName    string    `json:"doctorName"`
	Location      string    `json:"location,omitempty"`
	ContactNumber string    `json:"contactNumber,omitempty"`
}

type creatorResponse struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name,omitempty"`
}

type paymentResponse struct {
	ID        uuid.UUID `json:"_id"`
	Amount    float64   `json:"amount"`
	CreatedBy uuid.UUID `json:"createdBy"`
	Date      time.Time `json:"date"`
}

type billDetailResponse struct {
	billResponse
	Shop           shopResponse      `json:"shop"`
	CreatedBy      creatorResponse   `json:"createdBy"`
	PaymentRecords []paymentResponse `json:"paymentRecords"`
}

func newBillDetailResponse(d *model.BillDetail) billDetailResponse {
	res := billDetailResponse{
		billResponse:   newBillResponse(d.Bill),
		PaymentRecords: make([]paymentResponse, 0, len(d.PaymentRecords)),
	}

	// Без записи в каталоге остаются идентификаторы и снимок клиники из счёта.
	res.Shop = shopResponse{
		ID:         d.Bill.ShopID,
		ShopName:   d.Bill.ShopName,
		DoctorName: d.Bill.DoctorName,
	}
	if d.Shop != nil {
		res.Shop = shopResponse{
			ID:            d.Shop.ID,
			ShopName:      d.Shop.ShopName,
			DoctorName:    d.Shop.DoctorName,
			Location:      d.Shop.Location,
			ContactNumber: d.Shop.ContactNumber,
		}
	}

	res.CreatedBy = creatorResponse{ID: d.Bill.CreatedBy}
	if d.Creator != nil {
		res.CreatedBy = creatorResponse{ID: d.Creator.ID, Name: d.Creator.Name}
	}

	for _, p := range d.PaymentRecords {
		res.PaymentRecords = append(res.PaymentRecords, paymentResponse{
			ID:        p.ID,
			Amount:    money(p.Amount),
			CreatedBy: p.CreatedBy,
			Date:      p.CreatedAt,
		})
	}

	return res
}
