// Package client talks to the order server over its JSON/HTTP contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/enum"
)

// Errors returned by the client. Every failed call wraps exactly one of them.
var (
	ErrNetwork = errors.New("network failure")
	ErrServer  = errors.New("server failure")
)

// CSRFHeader carries the anti-forgery token on mutating requests.
const CSRFHeader = "X-CSRFToken"

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// StatusError is a non-2xx response. It matches ErrServer with errors.Is.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s: status %d: %s", e.Method, e.Path, ErrServer, e.Code, strings.TrimSpace(e.Body))
}

// Is makes errors.Is(err, ErrServer) hold.
func (e *StatusError) Is(target error) bool { return target == ErrServer }

// TokenSource yields the current anti-forgery token. An empty token means
// the header is omitted.
type TokenSource func() string

// StaticToken returns a TokenSource that always yields tok.
func StaticToken(tok string) TokenSource {
	return func() string { return tok }
}

// ExportKind selects which CSV export to download.
type ExportKind int

const (
	ExportActive ExportKind = iota
	ExportArchived
)

func (k ExportKind) path() string {
	if k == ExportArchived {
		return "/archived/export"
	}
	return "/orders/export"
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithCSRFToken sets where mutating requests get their anti-forgery token.
func WithCSRFToken(src TokenSource) Option {
	return func(c *Client) { c.csrf = src }
}

// WithAuthToken sets a bearer token obtained earlier.
func WithAuthToken(tok string) Option {
	return func(c *Client) { c.authToken = tok }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	hc      *http.Client

	mu        sync.RWMutex
	csrf      TokenSource
	authToken string

	log zerolog.Logger
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      http.DefaultClient,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAuthToken replaces the bearer token used for admin calls.
func (c *Client) SetAuthToken(tok string) {
	c.mu.Lock()
	c.authToken = tok
	c.mu.Unlock()
}

func (c *Client) csrfToken() string {
	c.mu.RLock()
	src := c.csrf
	c.mu.RUnlock()
	if src == nil {
		return ""
	}
	return src()
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status enum.OrderStatus `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type addMenuItemRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	Description string          `json:"description,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful admin login.
type LoginResult struct {
	Token     string `json:"token"`
	CSRFToken string `json:"csrf_token"`
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// --- Menu & orders ---

// FetchMenu handles GET /menu.
func (c *Client) FetchMenu(ctx context.Context) ([]domain.MenuItem, error) {
	var menu []domain.MenuItem
	if err := c.doJSON(ctx, http.MethodGet, "/menu", nil, &menu); err != nil {
		return nil, err
	}
	return menu, nil
}

// ListActiveOrders handles GET /orders.
func (c *Client) ListActiveOrders(ctx context.Context) ([]domain.Order, error) {
	return c.listOrders(ctx, "/orders")
}

// ListTableOrders handles GET /orders/table/{id}.
func (c *Client) ListTableOrders(ctx context.Context, tableID int64) ([]domain.Order, error) {
	return c.listOrders(ctx, fmt.Sprintf("/orders/table/%d", tableID))
}

// ListArchivedOrders handles GET /archived/data.
func (c *Client) ListArchivedOrders(ctx context.Context) ([]domain.Order, error) {
	return c.listOrders(ctx, "/archived/data")
}

func (c *Client) listOrders(ctx context.Context, path string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus handles PATCH /order/update/{id}.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status enum.OrderStatus) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/order/update/%d", id), updateStatusRequest{Status: status}, nil)
}

// ArchiveOrder handles PATCH /order/archive/{id}.
func (c *Client) ArchiveOrder(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/order/archive/%d", id), nil, nil)
}

// ArchiveCompleted handles POST /archive and returns the server's message.
func (c *Client) ArchiveCompleted(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/archive", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// PlaceOrder handles POST /order and returns the server's confirmation.
func (c *Client) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (string, error) {
	var resp messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/order", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Export streams a CSV export into w and returns the number of bytes copied.
func (c *Client) Export(ctx context.Context, kind ExportKind, w io.Writer) (int64, error) {
	return c.download(ctx, kind.path(), w)
}

// GetOrder handles GET /order/{id}.
func (c *Client) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/order/%d", id), nil, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// AddMenuItem handles POST /menu and returns the stored item.
func (c *Client) AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	req := addMenuItemRequest{
		Name:        item.Name,
		Price:       item.UnitPrice,
		ImageURL:    item.ImageURL,
		Description: item.Description,
	}
	var out domain.MenuItem
	if err := c.doJSON(ctx, http.MethodPost, "/menu", req, &out); err != nil {
		return domain.MenuItem{}, err
	}
	return out, nil
}

// QRCode streams the PNG QR code of a table into w.
func (c *Client) QRCode(ctx context.Context, tableID int64, w io.Writer) (int64, error) {
	return c.download(ctx, fmt.Sprintf("/qr_code/%d", tableID), w)
}

// QRSheet streams one printable PDF page of table QR codes into w.
func (c *Client) QRSheet(ctx context.Context, page int, w io.Writer) (int64, error) {
	return c.download(ctx, fmt.Sprintf("/qrcodes/pdf?page=%d", page), w)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("GET %s: %w: %w", path, ErrNetwork, err)
	}
	return n, nil
}

// --- Session ---

// Login handles POST /login. The returned bearer token is kept for later
// calls, and the CSRF token becomes the token source when none was set.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/login", loginRequest{Username: username, Password: password}, &res); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.authToken = res.Token
	if c.csrf == nil && res.CSRFToken != "" {
		c.csrf = StaticToken(res.CSRFToken)
	}
	c.mu.Unlock()
	return &res, nil
}

// FetchCSRFToken handles GET /csrf.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	var resp csrfResponse
	if err := c.doJSON(ctx, http.MethodGet, "/csrf", nil, &resp); err != nil {
		return "", err
	}
	return resp.CSRFToken, nil
}

// --- Helpers ---

// doJSON sends body as JSON and decodes a 2xx response into out when out is
// not nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: decode response: %w", method, path, ErrServer, err)
	}
	return nil
}

// send issues the request and returns the response only when it is 2xx.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
		if tok := c.csrfToken(); tok != "" {
			req.Header.Set(CSRFHeader, tok)
		}
	}
	c.mu.RLock()
	auth := c.authToken
	c.mu.RUnlock()
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	c.log.Debug().Str("method", method).Str("path", path).Str("request_id", reqID).Msg("request")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}
