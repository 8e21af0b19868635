// Package store persists the menu, orders and admin users.
package store

import (
	"context"
	"errors"

	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// NewOrder is an order as accepted from a table, before it has an id.
type NewOrder struct {
	TableID   int64
	OrderDate string
	Items     string // serialized JSON list
	Notes     string
}

// Store is everything the reference backend reads and writes.
// Satisfied by *Postgres and *Memory.
type Store interface {
	ListMenu(ctx context.Context) ([]domain.MenuItem, error)
	AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)

	CreateOrder(ctx context.Context, o NewOrder) (domain.Order, error)
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	// ListOrders returns active or archived orders by ascending id.
	ListOrders(ctx context.Context, archived bool) ([]domain.Order, error)
	// ListTableOrders returns a table's active orders, newest first.
	ListTableOrders(ctx context.Context, tableID int64) ([]domain.Order, error)
	// SetStatus updates the status and, when archive is set, archives the
	// order in the same write.
	SetStatus(ctx context.Context, id int64, status enum.OrderStatus, archive bool) (domain.Order, error)
	Archive(ctx context.Context, id int64) error
	// ArchiveByStatus archives every active order in status and returns how
	// many were moved.
	ArchiveByStatus(ctx context.Context, status enum.OrderStatus) (int64, error)

	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (domain.User, error)
}
