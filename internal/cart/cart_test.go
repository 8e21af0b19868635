package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/domain"
)

// --- Mock Placer ---

type mockPlacer struct {
	calls   int
	got     domain.PlaceOrderRequest
	placeFn func(ctx context.Context, req domain.PlaceOrderRequest) (string, error)
}

func (m *mockPlacer) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (string, error) {
	m.calls++
	m.got = req
	if m.placeFn != nil {
		return m.placeFn(ctx, req)
	}
	return "ok", nil
}

// --- Test helpers ---

func testMenu() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: 1, Name: "Burger", UnitPrice: decimal.NewFromInt(50)},
		{ID: 2, Name: "Cola", UnitPrice: decimal.NewFromInt(20)},
		{ID: 3, Name: "Baklava", UnitPrice: decimal.RequireFromString("0.10")},
	}
}

func TestSnapshot_TotalOverActiveEntries(t *testing.T) {
	c := New(testMenu())
	if err := c.SetQty(1, 2); err != nil {
		t.Fatalf("set burger: %v", err)
	}
	if err := c.Increment(2); err != nil {
		t.Fatalf("increment cola: %v", err)
	}

	snap := c.Snapshot()
	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 active entries, got %d", len(snap.Entries))
	}
	if snap.TotalDisplay() != "120.00" {
		t.Errorf("total: got %s, want 120.00", snap.TotalDisplay())
	}
	if !snap.Present() {
		t.Error("cart with items should be present")
	}
	if snap.Entries[0].Name != "Burger" || snap.Entries[1].Name != "Cola" {
		t.Errorf("entries out of menu order: %+v", snap.Entries)
	}
}

func TestSnapshot_NoRoundingDrift(t *testing.T) {
	c := New(testMenu())
	for i := 0; i < 3; i++ {
		if err := c.Increment(3); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	snap := c.Snapshot()
	if !snap.Total.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("total: got %s, want 0.3", snap.Total)
	}
	if got := snap.Entries[0].LineDisplay(); got != "3× Baklava — ₺0.30" {
		t.Errorf("line display: got %q", got)
	}
}

func TestDecrement_FloorsAtZero(t *testing.T) {
	c := New(testMenu())
	if err := c.Decrement(1); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := c.Increment(1); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := c.Decrement(1); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := c.Decrement(1); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	snap := c.Snapshot()
	if snap.Present() {
		t.Errorf("cart should be empty, got %+v", snap.Entries)
	}
	if !snap.Total.IsZero() {
		t.Errorf("total: got %s, want 0", snap.Total)
	}
}

func TestSetQty_Errors(t *testing.T) {
	c := New(testMenu())
	if err := c.SetQty(99, 1); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown item: got %v", err)
	}
	if err := c.SetQty(1, -1); !errors.Is(err, ErrNegativeQty) {
		t.Errorf("negative qty: got %v", err)
	}
	if err := c.Increment(42); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("increment unknown: got %v", err)
	}
}

func TestSnapshot_ReflectsMutationsImmediately(t *testing.T) {
	c := New(testMenu())
	before := c.Snapshot()
	_ = c.SetQty(2, 5)
	after := c.Snapshot()
	if before.Present() {
		t.Error("first snapshot should be empty")
	}
	if len(after.Entries) != 1 || after.Entries[0].Qty != 5 {
		t.Errorf("second snapshot: got %+v", after.Entries)
	}
	c.Clear()
	if c.Snapshot().Present() {
		t.Error("cart should be empty after Clear")
	}
}

func TestToPayload(t *testing.T) {
	c := New(testMenu())
	if _, err := c.ToPayload(4, ""); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart: got %v, want ErrEmptyCart", err)
	}

	_ = c.SetQty(2, 1)
	_ = c.SetQty(1, 2)
	p, err := c.ToPayload(4, "acısız")
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.TableID != 4 || p.SpecialNotes != "acısız" {
		t.Errorf("payload header: %+v", p)
	}
	want := []domain.OrderLine{{Name: "Burger", Qty: 2}, {Name: "Cola", Qty: 1}}
	if len(p.Items) != len(want) {
		t.Fatalf("items: got %+v", p.Items)
	}
	for i := range want {
		if p.Items[i] != want[i] {
			t.Errorf("item %d: got %+v, want %+v", i, p.Items[i], want[i])
		}
	}
}

func TestSubmit_EmptyCartSendsNothing(t *testing.T) {
	c := New(testMenu())
	p := &mockPlacer{}
	_, err := c.Submit(context.Background(), p, 1, "")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("got %v, want ErrEmptyCart", err)
	}
	if p.calls != 0 {
		t.Errorf("expected no request, got %d", p.calls)
	}
}

func TestSubmit_ClearsOnSuccess(t *testing.T) {
	c := New(testMenu())
	_ = c.SetQty(1, 1)
	p := &mockPlacer{placeFn: func(ctx context.Context, req domain.PlaceOrderRequest) (string, error) {
		return "Sipariş başarıyla alındı!", nil
	}}

	msg, err := c.Submit(context.Background(), p, 7, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if msg != "Sipariş başarıyla alındı!" {
		t.Errorf("message: got %q", msg)
	}
	if p.got.TableID != 7 {
		t.Errorf("table: got %d", p.got.TableID)
	}
	if c.Snapshot().Present() {
		t.Error("cart should be cleared after successful submission")
	}
}

func TestSubmit_KeepsCartOnFailure(t *testing.T) {
	c := New(testMenu())
	_ = c.SetQty(1, 1)
	p := &mockPlacer{placeFn: func(ctx context.Context, req domain.PlaceOrderRequest) (string, error) {
		return "", errors.New("boom")
	}}

	if _, err := c.Submit(context.Background(), p, 7, ""); err == nil {
		t.Fatal("expected error")
	}
	if !c.Snapshot().Present() {
		t.Error("cart should keep its items when submission fails")
	}
}
