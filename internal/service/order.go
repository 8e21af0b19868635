package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
	"github.com/tableside/tableside/internal/store"
)

// Errors returned by the order service.
var (
	ErrTableAndItems  = errors.New("table and items required")
	ErrStatusRequired = errors.New("status required")
	ErrInvalidStatus  = errors.New("invalid status")
)

// OrderStore defines the store methods needed by the order service.
// Satisfied by *store.Postgres and *store.Memory.
type OrderStore interface {
	CreateOrder(ctx context.Context, o store.NewOrder) (domain.Order, error)
	SetStatus(ctx context.Context, id int64, status enum.OrderStatus, archive bool) (domain.Order, error)
	Archive(ctx context.Context, id int64) error
	ArchiveByStatus(ctx context.Context, status enum.OrderStatus) (int64, error)
}

// PlaceOrderRequest is a table's order as received over the wire. Items are
// kept raw so whatever the table sent is stored as-is.
type PlaceOrderRequest struct {
	TableID      *int64            `json:"table_id"`
	Items        []json.RawMessage `json:"items"`
	SpecialNotes string            `json:"special_notes"`
}

// OrderService handles order business logic.
type OrderService struct {
	store OrderStore
	now   func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store, now: time.Now}
}

// PlaceOrder stores a new Pending order stamped with the server's local time.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (domain.Order, error) {
	if req.TableID == nil || len(req.Items) == 0 {
		return domain.Order{}, ErrTableAndItems
	}

	blob, err := json.Marshal(req.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("encode items: %w", err)
	}

	order, err := s.store.CreateOrder(ctx, store.NewOrder{
		TableID:   *req.TableID,
		OrderDate: s.now().Format(domain.OrderDateLayout),
		Items:     string(blob),
		Notes:     req.SpecialNotes,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// UpdateStatus sets an order's status. Completed orders leave the active
// list in the same write.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	if status == "" {
		return domain.Order{}, ErrStatusRequired
	}
	st, ok := enum.ParseOrderStatus(status)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.store.SetStatus(ctx, id, st, st == enum.OrderStatusCompleted)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	return order, nil
}

// Archive moves one order to the archive, whatever its status.
func (s *OrderService) Archive(ctx context.Context, id int64) error {
	return s.store.Archive(ctx, id)
}

// ArchiveCompleted archives every active Completed order and returns the
// count.
func (s *OrderService) ArchiveCompleted(ctx context.Context) (int64, error) {
	n, err := s.store.ArchiveByStatus(ctx, enum.OrderStatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("archive completed: %w", err)
	}
	return n, nil
}
