package enum

import "strings"

// OrderStatus is the kitchen status of an order. The values are the exact
// strings the server stores and returns in row index 4.
type OrderStatus string

// ── Order lifecycle ──

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusCompleted OrderStatus = "Completed"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
}

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted:
		return true
	}
	return false
}

// Label returns the Turkish label shown to guests and staff.
// Unknown statuses are returned unchanged.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

var statusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Beklemede",
	OrderStatusPreparing: "Hazırlanıyor",
	OrderStatusReady:     "Hazır",
	OrderStatusCompleted: "Tamamlandı",
}

// ParseOrderStatus accepts a status in any letter case.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// ── View filter ──

// StatusFilter narrows a rendered order list to one status, or keeps all.
type StatusFilter string

const FilterAll StatusFilter = "All"

// ParseStatusFilter accepts "All" or any order status, case-insensitively.
// An empty string means All.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	if s == "" || strings.EqualFold(s, string(FilterAll)) {
		return FilterAll, true
	}
	st, ok := ParseOrderStatus(s)
	if !ok {
		return "", false
	}
	return StatusFilter(st), true
}

// Match reports whether an order with status s passes the filter.
func (f StatusFilter) Match(s OrderStatus) bool {
	return f == "" || f == FilterAll || OrderStatus(f) == s
}
