// Package domain holds the records exchanged between the table/admin clients
// and the order server, together with their positional wire encoding.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/enum"
)

// OrderDateLayout is the server's order_date format.
const OrderDateLayout = "2006-01-02 15:04:05"

var errTupleShape = errors.New("unexpected row shape")

// MenuItem is a dish offered on the menu.
// Wire form: [id, name, price, imageUrl, description].
type MenuItem struct {
	ID          int64
	Name        string
	UnitPrice   decimal.Decimal
	ImageURL    string
	Description string
}

// Order is the server's view of a placed order.
// Wire form: [id, table, orderDate, items, status, notes].
type Order struct {
	ID        int64
	TableID   int64
	OrderDate string
	Items     string // raw serialized line items, see package items
	Status    enum.OrderStatus
	Notes     string
	Archived  bool // server-side only, never on the wire
}

// OrderLine is one {name, qty} record of a placed order.
type OrderLine struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// PlaceOrderRequest is the body of POST /order.
type PlaceOrderRequest struct {
	TableID      int64       `json:"table_id"`
	Items        []OrderLine `json:"items"`
	SpecialNotes string      `json:"special_notes"`
}

// User is an admin account of the back office.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// MarshalJSON encodes the menu item as a positional row.
func (m MenuItem) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		m.ID,
		m.Name,
		json.RawMessage(m.UnitPrice.String()),
		m.ImageURL,
		m.Description,
	})
}

// UnmarshalJSON decodes a positional menu row.
func (m *MenuItem) UnmarshalJSON(b []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(b, &row); err != nil {
		return fmt.Errorf("menu row: %w", err)
	}
	if len(row) != 5 {
		return fmt.Errorf("menu row: %w: %d fields", errTupleShape, len(row))
	}

	var out MenuItem
	if err := json.Unmarshal(row[0], &out.ID); err != nil {
		return fmt.Errorf("menu row id: %w", err)
	}
	if err := decodeString(row[1], &out.Name); err != nil {
		return fmt.Errorf("menu row name: %w", err)
	}
	price, err := decodeDecimal(row[2])
	if err != nil {
		return fmt.Errorf("menu row price: %w", err)
	}
	out.UnitPrice = price
	if err := decodeString(row[3], &out.ImageURL); err != nil {
		return fmt.Errorf("menu row image: %w", err)
	}
	if err := decodeString(row[4], &out.Description); err != nil {
		return fmt.Errorf("menu row description: %w", err)
	}

	*m = out
	return nil
}

// MarshalJSON encodes the order as a positional row.
func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{o.ID, o.TableID, o.OrderDate, o.Items, string(o.Status), o.Notes})
}

// UnmarshalJSON decodes a positional order row. An items cell that is not a
// JSON string is kept as its raw JSON text so the aggregator can still read it.
func (o *Order) UnmarshalJSON(b []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(b, &row); err != nil {
		return fmt.Errorf("order row: %w", err)
	}
	if len(row) != 6 {
		return fmt.Errorf("order row: %w: %d fields", errTupleShape, len(row))
	}

	var out Order
	if err := json.Unmarshal(row[0], &out.ID); err != nil {
		return fmt.Errorf("order row id: %w", err)
	}
	if err := json.Unmarshal(row[1], &out.TableID); err != nil {
		return fmt.Errorf("order row table: %w", err)
	}
	if err := decodeString(row[2], &out.OrderDate); err != nil {
		return fmt.Errorf("order row date: %w", err)
	}
	if err := decodeString(row[3], &out.Items); err != nil {
		out.Items = string(bytes.TrimSpace(row[3]))
	}
	var status string
	if err := decodeString(row[4], &status); err != nil {
		return fmt.Errorf("order row status: %w", err)
	}
	out.Status = enum.OrderStatus(status)
	if err := decodeString(row[5], &out.Notes); err != nil {
		return fmt.Errorf("order row notes: %w", err)
	}

	*o = out
	return nil
}

// decodeString reads a JSON string, treating null as empty.
func decodeString(raw json.RawMessage, dst *string) error {
	if isNull(raw) {
		*dst = ""
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func decodeDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	if isNull(raw) {
		return decimal.Zero, nil
	}
	s := string(bytes.TrimSpace(raw))
	if len(s) > 0 && s[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, err
		}
	}
	return decimal.NewFromString(s)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
