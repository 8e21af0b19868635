// Package poller keeps a rendered order list in step with the server by
// re-fetching it, either on a fixed interval or when asked to.
//
// Every refresh throws away the previous rows and rebuilds them from the
// fetched set. Responses can arrive out of order; each refresh takes a
// sequence number when it is issued and a response older than the last one
// rendered is dropped.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
	"github.com/tableside/tableside/internal/items"
	"github.com/tableside/tableside/internal/lifecycle"
	"github.com/tableside/tableside/internal/view"
)

// DefaultInterval is the table view's poll period.
const DefaultInterval = 10 * time.Second

// ErrUnknownRow is returned when selecting a status for a row that is not
// currently rendered.
var ErrUnknownRow = errors.New("order not in current view")

// ScopeKind is the dimension a controller polls over.
type ScopeKind int

const (
	ScopeTable ScopeKind = iota
	ScopeActive
	ScopeArchived
)

// Scope names the order set a controller shows.
type Scope struct {
	Kind    ScopeKind
	TableID int64
}

// TableScope is one table's active orders.
func TableScope(id int64) Scope { return Scope{Kind: ScopeTable, TableID: id} }

// ActiveScope is every active order.
func ActiveScope() Scope { return Scope{Kind: ScopeActive} }

// ArchivedScope is every archived order.
func ArchivedScope() Scope { return Scope{Kind: ScopeArchived} }

func (s Scope) String() string {
	switch s.Kind {
	case ScopeTable:
		return fmt.Sprintf("table:%d", s.TableID)
	case ScopeActive:
		return "active"
	case ScopeArchived:
		return "archived"
	}
	return fmt.Sprintf("scope(%d)", int(s.Kind))
}

// Fetcher reads order sets from the server.
// Satisfied by *client.Client.
type Fetcher interface {
	ListActiveOrders(ctx context.Context) ([]domain.Order, error)
	ListTableOrders(ctx context.Context, tableID int64) ([]domain.Order, error)
	ListArchivedOrders(ctx context.Context) ([]domain.Order, error)
}

// Config tunes a Controller.
type Config struct {
	Scope    Scope
	Mode     items.Mode       // how item blobs of this scope are summarized
	Interval time.Duration    // Run period; DefaultInterval when zero
	Now      func() time.Time // render timestamp; time.Now when nil
}

// Controller owns one rendered order list.
type Controller struct {
	scope    Scope
	fetch    Fetcher
	render   view.Renderer
	mode     items.Mode
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	issued atomic.Uint64

	mu       sync.Mutex
	rendered uint64
	state    view.State
	rows     []view.Row
}

// New creates a Controller. Nothing is fetched until Refresh or Run.
func New(fetch Fetcher, render view.Renderer, cfg Config, log zerolog.Logger) *Controller {
	c := &Controller{
		scope:    cfg.Scope,
		fetch:    fetch,
		render:   render,
		mode:     cfg.Mode,
		interval: cfg.Interval,
		now:      cfg.Now,
		log:      log.With().Str("scope", cfg.Scope.String()).Logger(),
		state:    view.NewState(),
	}
	if c.interval <= 0 {
		c.interval = DefaultInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Scope returns the controller's scope.
func (c *Controller) Scope() Scope { return c.scope }

// Refresh fetches the scope's orders and re-renders them. A failed fetch
// leaves the last rendered view in place. A response overtaken by a newer
// one is dropped without rendering.
func (c *Controller) Refresh(ctx context.Context) error {
	seq := c.issued.Add(1)

	orders, err := c.fetchScope(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", c.scope, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.rendered {
		c.log.Debug().Uint64("seq", seq).Uint64("rendered", c.rendered).Msg("dropping stale response")
		return nil
	}
	c.rendered = seq
	c.state = c.state.WithoutSelections()
	c.rows = c.buildRows(orders)
	return c.draw()
}

// SetFilter changes the status filter and refreshes.
func (c *Controller) SetFilter(ctx context.Context, f enum.StatusFilter) error {
	c.mu.Lock()
	c.state = c.state.WithFilter(f)
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Select records a target status for a rendered row and redraws. The choice
// is kept only until the next refresh.
func (c *Controller) Select(id int64, status enum.OrderStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, r := range c.rows {
		if r.Order.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("order %d: %w", id, ErrUnknownRow)
	}
	c.state = c.state.WithSelection(id, status)
	c.rows[idx].Selected = status
	return c.draw()
}

// State returns the current view state.
func (c *Controller) State() view.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rows returns a copy of the rendered rows.
func (c *Controller) Rows() []view.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]view.Row(nil), c.rows...)
}

// Changes returns one status change per rendered row, targeting the row's
// selected status. This is the input of a bulk update.
func (c *Controller) Changes() []lifecycle.Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]lifecycle.Change, len(c.rows))
	for i, r := range c.rows {
		out[i] = lifecycle.Change{OrderID: r.Order.ID, Target: r.Selected}
	}
	return out
}

// Run refreshes at once and then every interval until ctx is done. Ticks do
// not wait for the previous refresh; the sequence guard sorts out late
// responses. Failures are logged and the next tick tries again.
func (c *Controller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("poll failed")
			}
		}()
	}

	tick()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

func (c *Controller) fetchScope(ctx context.Context) ([]domain.Order, error) {
	switch c.scope.Kind {
	case ScopeTable:
		return c.fetch.ListTableOrders(ctx, c.scope.TableID)
	case ScopeActive:
		return c.fetch.ListActiveOrders(ctx)
	case ScopeArchived:
		return c.fetch.ListArchivedOrders(ctx)
	}
	return nil, fmt.Errorf("unknown scope %s", c.scope)
}

// buildRows applies the filter and summarizes items. Caller holds mu.
func (c *Controller) buildRows(orders []domain.Order) []view.Row {
	filter := c.state.Filter()
	rows := make([]view.Row, 0, len(orders))
	for _, o := range orders {
		if !filter.Match(o.Status) {
			continue
		}
		rows = append(rows, view.Row{
			Order:    o,
			Summary:  items.Summarize(o.Items, c.mode),
			Selected: c.state.Selection(o.ID, o.Status),
		})
	}
	return rows
}

// draw renders the current rows. Caller holds mu.
func (c *Controller) draw() error {
	if c.render == nil {
		return nil
	}
	err := c.render.Render(view.Frame{
		Scope: c.scope.String(),
		Rows:  append([]view.Row(nil), c.rows...),
		State: c.state,
		At:    c.now(),
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", c.scope, err)
	}
	return nil
}
