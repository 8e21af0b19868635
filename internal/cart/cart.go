// Package cart tracks what a table has selected from the menu before the
// order is sent.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/domain"
)

// Errors returned by the cart.
var (
	ErrEmptyCart   = errors.New("cart has no items")
	ErrUnknownItem = errors.New("menu item not in cart")
	ErrNegativeQty = errors.New("quantity must be >= 0")
)

// Entry is the selected quantity of one menu item.
type Entry struct {
	MenuItemID int64
	Name       string
	UnitPrice  decimal.Decimal
	Qty        int
}

// Active reports whether the entry takes part in the order.
func (e Entry) Active() bool { return e.Qty > 0 }

// LineTotal is UnitPrice × Qty, unrounded.
func (e Entry) LineTotal() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Qty)))
}

// LineDisplay renders the entry as "2× Adana — ₺101.00".
func (e Entry) LineDisplay() string {
	return fmt.Sprintf("%d× %s — ₺%s", e.Qty, e.Name, e.LineTotal().StringFixed(2))
}

// Snapshot is the state of the cart at one instant.
type Snapshot struct {
	Entries []Entry // active entries only, menu order
	Total   decimal.Decimal
}

// Present reports whether the cart should be shown at all.
func (s Snapshot) Present() bool { return len(s.Entries) > 0 }

// TotalDisplay renders the total rounded to two fraction digits.
func (s Snapshot) TotalDisplay() string { return s.Total.StringFixed(2) }

// Placer sends an order to the server.
// Satisfied by *client.Client.
type Placer interface {
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (string, error)
}

// Cart holds one entry per menu item.
type Cart struct {
	mu      sync.Mutex
	order   []int64
	entries map[int64]*Entry
}

// New creates a cart with a zero entry for every menu item.
func New(menu []domain.MenuItem) *Cart {
	c := &Cart{entries: make(map[int64]*Entry, len(menu))}
	for _, m := range menu {
		if _, dup := c.entries[m.ID]; dup {
			continue
		}
		c.order = append(c.order, m.ID)
		c.entries[m.ID] = &Entry{MenuItemID: m.ID, Name: m.Name, UnitPrice: m.UnitPrice}
	}
	return c
}

// SetQty sets the quantity of a menu item.
func (c *Cart) SetQty(id int64, qty int) error {
	if qty < 0 {
		return ErrNegativeQty
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return fmt.Errorf("item %d: %w", id, ErrUnknownItem)
	}
	e.Qty = qty
	return nil
}

// Increment adds one of a menu item.
func (c *Cart) Increment(id int64) error {
	return c.adjust(id, 1)
}

// Decrement removes one of a menu item, stopping at zero.
func (c *Cart) Decrement(id int64) error {
	return c.adjust(id, -1)
}

func (c *Cart) adjust(id int64, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return fmt.Errorf("item %d: %w", id, ErrUnknownItem)
	}
	e.Qty = max(0, e.Qty+delta)
	return nil
}

// Clear resets every quantity to zero.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.Qty = 0
	}
}

// Snapshot returns the active entries and their total.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{Total: decimal.Zero}
	for _, id := range c.order {
		e := c.entries[id]
		if !e.Active() {
			continue
		}
		s.Entries = append(s.Entries, *e)
		s.Total = s.Total.Add(e.LineTotal())
	}
	return s
}

// ToPayload builds the POST /order body. It fails with ErrEmptyCart when no
// entry is active.
func (c *Cart) ToPayload(tableID int64, notes string) (*domain.PlaceOrderRequest, error) {
	snap := c.Snapshot()
	if !snap.Present() {
		return nil, ErrEmptyCart
	}
	lines := make([]domain.OrderLine, len(snap.Entries))
	for i, e := range snap.Entries {
		lines[i] = domain.OrderLine{Name: e.Name, Qty: e.Qty}
	}
	return &domain.PlaceOrderRequest{
		TableID:      tableID,
		Items:        lines,
		SpecialNotes: notes,
	}, nil
}

// Submit places the cart as an order for tableID. An empty cart is rejected
// before anything is sent. On success the cart is cleared and the server's
// confirmation message is returned.
func (c *Cart) Submit(ctx context.Context, p Placer, tableID int64, notes string) (string, error) {
	payload, err := c.ToPayload(tableID, notes)
	if err != nil {
		return "", err
	}
	msg, err := p.PlaceOrder(ctx, *payload)
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	c.Clear()
	return msg, nil
}
