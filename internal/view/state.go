// Package view holds what the table, admin and archive screens show: an
// immutable view state, the rows of one render pass, and text renderers.
package view

import (
	"maps"
	"time"

	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
)

// State is the user-controlled part of a screen. It is a value: setters
// return a modified copy and never touch the receiver.
type State struct {
	filter   enum.StatusFilter
	selected map[int64]enum.OrderStatus
}

// NewState returns a state showing every status with no row selections.
func NewState() State {
	return State{filter: enum.FilterAll}
}

// Filter returns the active status filter.
func (s State) Filter() enum.StatusFilter {
	if s.filter == "" {
		return enum.FilterAll
	}
	return s.filter
}

// WithFilter returns a copy filtered to f.
func (s State) WithFilter(f enum.StatusFilter) State {
	s.filter = f
	s.selected = maps.Clone(s.selected)
	return s
}

// WithSelection returns a copy where row id targets status.
func (s State) WithSelection(id int64, status enum.OrderStatus) State {
	sel := make(map[int64]enum.OrderStatus, len(s.selected)+1)
	maps.Copy(sel, s.selected)
	sel[id] = status
	s.selected = sel
	return s
}

// WithoutSelections returns a copy with every row selection dropped. A
// refresh rebuilds the rows from scratch, so unsent selections go with it.
func (s State) WithoutSelections() State {
	s.selected = nil
	return s
}

// Selection returns the target status chosen for row id, or current when the
// row has no selection.
func (s State) Selection(id int64, current enum.OrderStatus) enum.OrderStatus {
	if st, ok := s.selected[id]; ok {
		return st
	}
	return current
}

// Row is one rendered order.
type Row struct {
	Order    domain.Order
	Summary  string
	Selected enum.OrderStatus
}

// Frame is everything one render pass needs.
type Frame struct {
	Scope string
	Rows  []Row
	State State
	At    time.Time
}
