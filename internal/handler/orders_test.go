package handler_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
	"github.com/tableside/tableside/internal/handler"
	"github.com/tableside/tableside/internal/service"
	"github.com/tableside/tableside/internal/store"
)

// --- Mock OrderServicer ---

type mockOrderService struct {
	placeFn            func(ctx context.Context, req service.PlaceOrderRequest) (domain.Order, error)
	updateStatusFn     func(ctx context.Context, id int64, status string) (domain.Order, error)
	archiveFn          func(ctx context.Context, id int64) error
	archiveCompletedFn func(ctx context.Context) (int64, error)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (domain.Order, error) {
	return m.placeFn(ctx, req)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	return m.updateStatusFn(ctx, id, status)
}

func (m *mockOrderService) Archive(ctx context.Context, id int64) error {
	return m.archiveFn(ctx, id)
}

func (m *mockOrderService) ArchiveCompleted(ctx context.Context) (int64, error) {
	return m.archiveCompletedFn(ctx)
}

// --- Mock OrderStore ---

type mockOrderStore struct {
	getOrderFn        func(ctx context.Context, id int64) (domain.Order, error)
	listOrdersFn      func(ctx context.Context, archived bool) ([]domain.Order, error)
	listTableOrdersFn func(ctx context.Context, tableID int64) ([]domain.Order, error)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return domain.Order{}, store.ErrNotFound
}

func (m *mockOrderStore) ListOrders(ctx context.Context, archived bool) ([]domain.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, archived)
	}
	return nil, nil
}

func (m *mockOrderStore) ListTableOrders(ctx context.Context, tableID int64) ([]domain.Order, error) {
	if m.listTableOrdersFn != nil {
		return m.listTableOrdersFn(ctx, tableID)
	}
	return nil, nil
}

// --- Helpers ---

func setupOrderRouter(svc handler.OrderServicer, st handler.OrderStore) *chi.Mux {
	h := handler.NewOrderHandler(svc, st)
	r := chi.NewRouter()
	r.Post("/order", h.Place)
	h.RegisterPublicRoutes(r)
	h.RegisterAdminRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp[key]
}

func sampleOrders() []domain.Order {
	return []domain.Order{
		{ID: 1, TableID: 3, OrderDate: "2026-10-15 12:00:00", Items: `[{"name":"Burger","qty":2}]`, Status: enum.OrderStatusPending, Notes: "soğansız"},
		{ID: 2, TableID: 4, OrderDate: "2026-10-15 12:01:00", Items: `["Cola"]`, Status: enum.OrderStatusReady},
	}
}

// =====================
// Place
// =====================

func TestPlace_Created(t *testing.T) {
	var got service.PlaceOrderRequest
	svc := &mockOrderService{placeFn: func(ctx context.Context, req service.PlaceOrderRequest) (domain.Order, error) {
		got = req
		return domain.Order{ID: 1, TableID: *req.TableID}, nil
	}}
	r := setupOrderRouter(svc, &mockOrderStore{})

	rr := do(t, r, "POST", "/order", `{"table_id":3,"items":[{"name":"Burger","qty":2}],"special_notes":"x"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	if msg := decodeMessage(t, rr, "message"); msg != "Sipariş başarıyla alındı!" {
		t.Errorf("message: got %q", msg)
	}
	if got.TableID == nil || *got.TableID != 3 || len(got.Items) != 1 || got.SpecialNotes != "x" {
		t.Errorf("request: %+v", got)
	}
}

func TestPlace_MissingFields(t *testing.T) {
	svc := &mockOrderService{placeFn: func(ctx context.Context, req service.PlaceOrderRequest) (domain.Order, error) {
		return domain.Order{}, service.ErrTableAndItems
	}}
	r := setupOrderRouter(svc, &mockOrderStore{})

	rr := do(t, r, "POST", "/order", `{"items":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if msg := decodeMessage(t, rr, "error"); msg != "Table and items required" {
		t.Errorf("error: got %q", msg)
	}
}

func TestPlace_InvalidBody(t *testing.T) {
	r := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	if rr := do(t, r, "POST", "/order", `not json`); rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

// =====================
// Lists
// =====================

func TestListActive_PositionalRows(t *testing.T) {
	st := &mockOrderStore{listOrdersFn: func(ctx context.Context, archived bool) ([]domain.Order, error) {
		if archived {
			t.Error("expected active list")
		}
		return sampleOrders(), nil
	}}
	r := setupOrderRouter(&mockOrderService{}, st)

	rr := do(t, r, "GET", "/orders", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var rows [][]any
	if err := json.NewDecoder(rr.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || len(rows[0]) != 6 {
		t.Fatalf("rows: %v", rows)
	}
	if rows[0][3] != `[{"name":"Burger","qty":2}]` || rows[0][4] != "Pending" || rows[0][5] != "soğansız" {
		t.Errorf("row 0: %v", rows[0])
	}
}

func TestListArchived_EmptyIsArray(t *testing.T) {
	r := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	rr := do(t, r, "GET", "/archived/data", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("body: got %q", rr.Body.String())
	}
}

func TestListTable(t *testing.T) {
	var gotTable int64
	st := &mockOrderStore{listTableOrdersFn: func(ctx context.Context, tableID int64) ([]domain.Order, error) {
		gotTable = tableID
		return sampleOrders()[:1], nil
	}}
	r := setupOrderRouter(&mockOrderService{}, st)

	if rr := do(t, r, "GET", "/orders/table/3", ""); rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if gotTable != 3 {
		t.Errorf("table: got %d", gotTable)
	}
	if rr := do(t, r, "GET", "/orders/table/abc", ""); rr.Code != http.StatusNotFound {
		t.Errorf("bad id status: got %d, want 404", rr.Code)
	}
}

// =====================
// UpdateStatus / Archive
// =====================

func TestGetOrder(t *testing.T) {
	st := &mockOrderStore{getOrderFn: func(ctx context.Context, id int64) (domain.Order, error) {
		if id == 2 {
			return sampleOrders()[1], nil
		}
		return domain.Order{}, store.ErrNotFound
	}}
	r := setupOrderRouter(&mockOrderService{}, st)

	rr := do(t, r, "GET", "/order/2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var o domain.Order
	if err := json.NewDecoder(rr.Body).Decode(&o); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if o.ID != 2 || o.Status != enum.OrderStatusReady || o.Items != `["Cola"]` {
		t.Errorf("order: %+v", o)
	}

	if rr := do(t, r, "GET", "/order/8", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing order: got %d, want 404", rr.Code)
	}
	if rr := do(t, r, "GET", "/order/x", ""); rr.Code != http.StatusNotFound {
		t.Errorf("bad id: got %d, want 404", rr.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"ok", `{"status":"Ready"}`, nil, http.StatusOK},
		{"missing status", `{}`, service.ErrStatusRequired, http.StatusBadRequest},
		{"unknown status", `{"status":"Lost"}`, service.ErrInvalidStatus, http.StatusBadRequest},
		{"missing order", `{"status":"Ready"}`, store.ErrNotFound, http.StatusNotFound},
		{"store failure", `{"status":"Ready"}`, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{updateStatusFn: func(ctx context.Context, id int64, status string) (domain.Order, error) {
				if tt.err != nil {
					return domain.Order{}, tt.err
				}
				return domain.Order{ID: id, Status: enum.OrderStatus(status)}, nil
			}}
			r := setupOrderRouter(svc, &mockOrderStore{})

			rr := do(t, r, "PATCH", "/order/update/12", tt.body)
			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				if msg := decodeMessage(t, rr, "message"); msg != "Order 12 updated" {
					t.Errorf("message: got %q", msg)
				}
			}
		})
	}
}

func TestArchive(t *testing.T) {
	svc := &mockOrderService{archiveFn: func(ctx context.Context, id int64) error {
		if id == 404 {
			return store.ErrNotFound
		}
		return nil
	}}
	r := setupOrderRouter(svc, &mockOrderStore{})

	rr := do(t, r, "PATCH", "/order/archive/5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if msg := decodeMessage(t, rr, "message"); msg != "Order 5 archived" {
		t.Errorf("message: got %q", msg)
	}
	if rr := do(t, r, "PATCH", "/order/archive/404", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing order: got %d", rr.Code)
	}
}

func TestArchiveCompleted(t *testing.T) {
	svc := &mockOrderService{archiveCompletedFn: func(ctx context.Context) (int64, error) { return 3, nil }}
	r := setupOrderRouter(svc, &mockOrderStore{})

	rr := do(t, r, "POST", "/archive", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if msg := decodeMessage(t, rr, "message"); msg != "3 sipariş arşivlendi." {
		t.Errorf("message: got %q", msg)
	}
}

// =====================
// Export
// =====================

func TestExport(t *testing.T) {
	st := &mockOrderStore{listOrdersFn: func(ctx context.Context, archived bool) ([]domain.Order, error) {
		if archived {
			return sampleOrders()[1:], nil
		}
		return sampleOrders(), nil
	}}
	r := setupOrderRouter(&mockOrderService{}, st)

	tests := []struct {
		path     string
		filename string
		rows     int
	}{
		{"/orders/export", "orders.csv", 3},
		{"/archived/export", "archived_orders.csv", 2},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := do(t, r, "GET", tt.path, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
				t.Errorf("content type: got %q", ct)
			}
			if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.filename) {
				t.Errorf("disposition: got %q", cd)
			}
			recs, err := csv.NewReader(rr.Body).ReadAll()
			if err != nil {
				t.Fatalf("read csv: %v", err)
			}
			if len(recs) != tt.rows {
				t.Fatalf("records: got %d, want %d", len(recs), tt.rows)
			}
			if strings.Join(recs[0], ",") != "ID,Table,Order Date,Items,Status,Notes" {
				t.Errorf("header: %v", recs[0])
			}
		})
	}
}
