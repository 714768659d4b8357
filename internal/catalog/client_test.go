package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/vetbill/internal/model"
)

func TestGetShop_OK(t *testing.T) {
	id := uuid.New()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/shops/"+id.String() {
			t.Fatalf("path = %s, want /api/shops/%s", r.URL.Path, id)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer service-token" {
			t.Fatalf("authorization = %q, want bearer token", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"` + id.String() + `",
			"shopName":"PetCare Clinic","doctorName":"Dr. Smith",
			"location":"123 Main St, New York, NY","contactNumber":"+1 (555) 123-4567"}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "service-token")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	shop, err := client.GetShop(ctx, id)
	if err != nil {
		t.Fatalf("GetShop error: %v", err)
	}
	if shop.ID != id || shop.ShopName != "PetCare Clinic" || shop.DoctorName != "Dr. Smith" {
		t.Fatalf("unexpected shop: %+v", shop)
	}
}

func TestGetShop_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	_, err := client.GetShop(context.Background(), uuid.New())
	if !errors.Is(err, model.ErrShopNotFound) {
		t.Fatalf("error = %v, want ErrShopNotFound", err)
	}
}

func TestGetProduct_ConvertsPriceToCents(t *testing.T) {
	id := uuid.New()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"` + id.String() + `",
			"name":"Consultation","price":80.5,"description":"General health consultation"}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	p, err := client.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProduct error: %v", err)
	}
	if p.Price != 8050 {
		t.Fatalf("price = %d, want 8050", p.Price)
	}
	if p.Description == nil || *p.Description != "General health consultation" {
		t.Fatalf("unexpected description: %v", p.Description)
	}
}

func TestGetProduct_NotFoundNamesProduct(t *testing.T) {
	id := uuid.New()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "").GetProduct(context.Background(), id)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if err.Error() != "product "+id.String()+" not found" {
		t.Fatalf("error message = %q", err.Error())
	}
}

func TestGetProduct_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "").GetProduct(context.Background(), uuid.New())
	if err == nil {
		t.Fatalf("expected error for 502")
	}
	if errors.Is(err, model.ErrNotFound) {
		t.Fatalf("502 must not be reported as not found")
	}
}

func TestGetProduct_RejectsUnrepresentablePrice(t *testing.T) {
	for _, price := range []string{"-1", "80.505", "184467440737095517.16"} {
		t.Run(price, func(t *testing.T) {
			id := uuid.New()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"` + id.String() + `","name":"Medicine","price":` + price + `}}`))
			}))
			defer ts.Close()

			p, err := NewClient(ts.URL, "").GetProduct(context.Background(), id)
			if err == nil {
				t.Fatalf("expected error for price %s, got %d cents", price, p.Price)
			}
			if errors.Is(err, model.ErrInvalidInput) || errors.Is(err, model.ErrNotFound) {
				t.Fatalf("bad catalog price must surface as an internal error, got %v", err)
			}
		})
	}
}
