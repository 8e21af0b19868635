package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/tableside/tableside/internal/config"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
	"github.com/tableside/tableside/internal/router"
	"github.com/tableside/tableside/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Server {
	return &config.Server{
		JWTSecret:      "secret",
		CSRFToken:      "csrf",
		OrderRateLimit: 100,
		OrderBurst:     100,
		AllowedOrigins: []string{"*"},
	}
}

func newServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := st.CreateUser(context.Background(), "admin", string(hash)); err != nil {
		t.Fatalf("create user: %v", err)
	}
	srv := httptest.NewServer(router.New(testConfig(), st, st))
	t.Cleanup(srv.Close)
	return srv, st
}

func request(t *testing.T, method, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_Health(t *testing.T) {
	srv, _ := newServer(t)
	if resp := request(t, "GET", srv.URL+"/health", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d", resp.StatusCode)
	}
}

func TestRouter_PlaceOrderNeedsCSRF(t *testing.T) {
	srv, st := newServer(t)
	body := `{"table_id":2,"items":["Cola"]}`

	if resp := request(t, "POST", srv.URL+"/order", body, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("without token: got %d, want 403", resp.StatusCode)
	}
	if resp := request(t, "POST", srv.URL+"/order", body, map[string]string{"X-CSRFToken": "csrf"}); resp.StatusCode != http.StatusCreated {
		t.Errorf("with token: got %d, want 201", resp.StatusCode)
	}

	orders, _ := st.ListTableOrders(context.Background(), 2)
	if len(orders) != 1 {
		t.Errorf("stored orders: %d", len(orders))
	}
}

func TestRouter_AdminFlow(t *testing.T) {
	srv, st := newServer(t)
	ctx := context.Background()
	o, _ := st.CreateOrder(ctx, store.NewOrder{TableID: 1, OrderDate: "2026-10-15 10:00:00", Items: `["Çay"]`})

	if resp := request(t, "GET", srv.URL+"/orders", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous list: got %d, want 401", resp.StatusCode)
	}

	resp := request(t, "POST", srv.URL+"/login", `{"username":"admin","password":"pw"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got %d", resp.StatusCode)
	}
	var login struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	hdr := map[string]string{"Authorization": "Bearer " + login.Token, "X-CSRFToken": login.CSRFToken}

	if resp := request(t, "GET", srv.URL+"/orders", "", hdr); resp.StatusCode != http.StatusOK {
		t.Fatalf("list: got %d", resp.StatusCode)
	}

	path := srv.URL + "/order/update/" + strconv.FormatInt(o.ID, 10)
	if resp := request(t, "PATCH", path, `{"status":"Completed"}`, hdr); resp.StatusCode != http.StatusOK {
		t.Fatalf("update: got %d", resp.StatusCode)
	}

	got, _ := st.GetOrder(ctx, o.ID)
	if got.Status != enum.OrderStatusCompleted || !got.Archived {
		t.Errorf("completed order should be archived: %+v", got)
	}

	resp = request(t, "GET", srv.URL+"/archived/data", "", hdr)
	var rows []domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode archived: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != o.ID {
		t.Errorf("archived rows: %+v", rows)
	}
}

func loginHeaders(t *testing.T, srv *httptest.Server) map[string]string {
	t.Helper()
	resp := request(t, "POST", srv.URL+"/login", `{"username":"admin","password":"pw"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got %d", resp.StatusCode)
	}
	var login struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + login.Token, "X-CSRFToken": login.CSRFToken}
}

func TestRouter_CORSWithoutCredentials(t *testing.T) {
	srv, _ := newServer(t)
	resp := request(t, "GET", srv.URL+"/health", "", map[string]string{"Origin": "http://evil.test"})

	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("credentials allowed for any origin: %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("expected an Access-Control-Allow-Origin header")
	}
}

func TestRouter_AdminAddsMenuItem(t *testing.T) {
	srv, st := newServer(t)
	body := `{"name":"Sütlaç","price":"95"}`

	if resp := request(t, "POST", srv.URL+"/menu", body, map[string]string{"X-CSRFToken": "csrf"}); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous add: got %d, want 401", resp.StatusCode)
	}
	if resp := request(t, "POST", srv.URL+"/menu", body, loginHeaders(t, srv)); resp.StatusCode != http.StatusCreated {
		t.Fatalf("add: got %d", resp.StatusCode)
	}

	resp := request(t, "GET", srv.URL+"/menu", "", nil)
	var menu []domain.MenuItem
	if err := json.NewDecoder(resp.Body).Decode(&menu); err != nil {
		t.Fatalf("decode menu: %v", err)
	}
	if len(menu) != 1 || menu[0].Name != "Sütlaç" {
		t.Errorf("menu: %+v", menu)
	}
	if stored, _ := st.ListMenu(context.Background()); len(stored) != 1 {
		t.Errorf("stored menu: %+v", stored)
	}
}

func TestRouter_QRCodeIsStaffOnly(t *testing.T) {
	srv, _ := newServer(t)

	if resp := request(t, "GET", srv.URL+"/qr_code/5", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous qr: got %d, want 401", resp.StatusCode)
	}
	resp := request(t, "GET", srv.URL+"/qr_code/5", "", loginHeaders(t, srv))
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("qr: got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}
