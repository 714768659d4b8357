package model

import (
	"math"
	"testing"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		total   int64
		want    BillStatus
	}{
		{name: "nothing paid", current: 0, total: 25000, want: BillStatusUnpaid},
		{name: "partially paid", current: 15000, total: 25000, want: BillStatusUnpaid},
		{name: "fully paid", current: 25000, total: 25000, want: BillStatusPaid},
		{name: "zero total", current: 0, total: 0, want: BillStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.current, tt.total); got != tt.want {
				t.Fatalf("DeriveStatus(%d, %d) = %s, want %s", tt.current, tt.total, got, tt.want)
			}
		})
	}
}

func TestParseBillStatus(t *testing.T) {
	for _, s := range []string{"Paid", "Unpaid"} {
		if _, ok := ParseBillStatus(s); !ok {
			t.Fatalf("ParseBillStatus(%q) rejected a valid status", s)
		}
	}
	for _, s := range []string{"", "paid", "UNPAID", "Pending"} {
		if _, ok := ParseBillStatus(s); ok {
			t.Fatalf("ParseBillStatus(%q) accepted an invalid status", s)
		}
	}
}

func TestBillCloneIsDeep(t *testing.T) {
	b := &Bill{Items: []LineItem{{Name: "Vaccination", Price: 12000, Quantity: 1}}}
	c := b.Clone()
	c.Items[0].Quantity = 5

	if b.Items[0].Quantity != 1 {
		t.Fatalf("Clone shares line items with the original")
	}
}

func TestLineItemCheckedTotal(t *testing.T) {
	tests := []struct {
		name   string
		item   LineItem
		want   int64
		wantOK bool
	}{
		{name: "regular", item: LineItem{Price: 12000, Quantity: 2}, want: 24000, wantOK: true},
		{name: "free", item: LineItem{Price: 0, Quantity: MaxQuantity}, want: 0, wantOK: true},
		{name: "largest exact", item: LineItem{Price: math.MaxInt64, Quantity: 1}, want: math.MaxInt64, wantOK: true},
		{name: "overflow", item: LineItem{Price: 10000, Quantity: math.MaxInt64 / 1000}},
		{name: "negative quantity", item: LineItem{Price: 10000, Quantity: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.item.CheckedTotal()
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("CheckedTotal() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
