package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
)

// Memory is a Store held in process memory, for development and tests.
type Memory struct {
	mu      sync.RWMutex
	menu    []domain.MenuItem
	orders  map[int64]domain.Order
	users   map[string]domain.User
	nextID  int64
	nextMID int64
	nextUID int64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		orders: make(map[int64]domain.Order),
		users:  make(map[string]domain.User),
	}
}

func (m *Memory) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.menu), nil
}

func (m *Memory) AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMID++
	item.ID = m.nextMID
	m.menu = append(m.menu, item)
	return item, nil
}

func (m *Memory) CreateOrder(ctx context.Context, o NewOrder) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order := domain.Order{
		ID:        m.nextID,
		TableID:   o.TableID,
		OrderDate: o.OrderDate,
		Items:     o.Items,
		Status:    enum.OrderStatusPending,
		Notes:     o.Notes,
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *Memory) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *Memory) ListOrders(ctx context.Context, archived bool) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range m.orders {
		if o.Archived == archived {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *Memory) ListTableOrders(ctx context.Context, tableID int64) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range m.orders {
		if o.TableID == tableID && !o.Archived {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int {
		return cmp.Or(cmp.Compare(b.OrderDate, a.OrderDate), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (m *Memory) SetStatus(ctx context.Context, id int64, status enum.OrderStatus, archive bool) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	o.Status = status
	if archive {
		o.Archived = true
	}
	m.orders[id] = o
	return o, nil
}

func (m *Memory) Archive(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Archived = true
	m.orders[id] = o
	return nil
}

func (m *Memory) ArchiveByStatus(ctx context.Context, status enum.OrderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, o := range m.orders {
		if o.Status == status && !o.Archived {
			o.Archived = true
			m.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) CreateUser(ctx context.Context, username, passwordHash string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return domain.User{}, ErrDuplicateKey
	}
	m.nextUID++
	u := domain.User{ID: m.nextUID, Username: username, PasswordHash: passwordHash}
	m.users[username] = u
	return u, nil
}
