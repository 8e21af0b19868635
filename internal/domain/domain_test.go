package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/enum"
)

func TestOrderUnmarshal_Row(t *testing.T) {
	raw := `[7, 3, "2026-10-15 12:30:00", "[{\"name\": \"Burger\", \"qty\": 2}]", "Ready", null]`

	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.ID != 7 || o.TableID != 3 {
		t.Errorf("ids: got %d/%d, want 7/3", o.ID, o.TableID)
	}
	if o.OrderDate != "2026-10-15 12:30:00" {
		t.Errorf("order date: got %q", o.OrderDate)
	}
	if o.Items != `[{"name": "Burger", "qty": 2}]` {
		t.Errorf("items: got %q", o.Items)
	}
	if o.Status != enum.OrderStatusReady {
		t.Errorf("status: got %q", o.Status)
	}
	if o.Notes != "" {
		t.Errorf("notes: got %q, want empty for null", o.Notes)
	}
}

func TestOrderUnmarshal_NonStringItemsKeptRaw(t *testing.T) {
	raw := `[1, 2, "d", ["Fries", "Fries"], "Pending", ""]`

	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Items != `["Fries", "Fries"]` {
		t.Errorf("items: got %q", o.Items)
	}
}

func TestOrderUnmarshal_WrongShape(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(`[1, 2, "d"]`), &o); err == nil {
		t.Fatal("expected error for short row")
	}
	if err := json.Unmarshal([]byte(`{"id": 1}`), &o); err == nil {
		t.Fatal("expected error for object row")
	}
}

func TestOrderMarshal_RoundTripsPositions(t *testing.T) {
	o := Order{ID: 9, TableID: 4, OrderDate: "x", Items: `["Cola"]`, Status: enum.OrderStatusPending, Notes: "no ice", Archived: true}
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[9,4,"x","[\"Cola\"]","Pending","no ice"]`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestMenuItemUnmarshal(t *testing.T) {
	raw := `[[1, "Adana Kebap", 50.5, "/img/adana.jpg", "spicy"], [2, "Ayran", "20", null, null]]`

	var items []MenuItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].UnitPrice.Equal(decimal.RequireFromString("50.5")) {
		t.Errorf("price: got %s", items[0].UnitPrice)
	}
	if items[1].Name != "Ayran" || !items[1].UnitPrice.Equal(decimal.NewFromInt(20)) {
		t.Errorf("second item: got %+v", items[1])
	}
	if items[1].ImageURL != "" || items[1].Description != "" {
		t.Errorf("null cells should decode as empty: %+v", items[1])
	}
}

func TestMenuItemMarshal_PriceIsNumber(t *testing.T) {
	m := MenuItem{ID: 3, Name: "Lahmacun", UnitPrice: decimal.RequireFromString("35.00"), ImageURL: "u", Description: "d"}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `[3,"Lahmacun",35,"u","d"]` {
		t.Errorf("got %s", b)
	}
}
