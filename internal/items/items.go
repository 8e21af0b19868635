// Package items turns the raw line items stored with an order into a
// quantity-by-name summary.
//
// Orders have carried two item shapes over time: bare names ("Fries") and
// {name, qty} records. Older rows were also written with single-quoted
// strings. Every reader of an order goes through this package so the shapes
// are resolved the same way everywhere.
package items

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrParse is returned when an items blob cannot be decoded.
var ErrParse = errors.New("malformed items payload")

// Mode selects how a call site reacts to a blob that does not decode.
type Mode int

const (
	// Strict accepts JSON only and falls back to the raw text.
	Strict Mode = iota
	// Lenient retries with single quotes normalized and falls back to an
	// empty summary.
	Lenient
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode reads "strict" or "lenient".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return 0, fmt.Errorf("unknown items mode %q", s)
}

// Line is one aggregated entry.
type Line struct {
	Name string
	Qty  int
}

// Summary is the aggregated quantity per name, in first-seen order.
type Summary []Line

// Qty returns the total quantity for name, or 0.
func (s Summary) Qty(name string) int {
	for _, l := range s {
		if l.Name == name {
			return l.Qty
		}
	}
	return 0
}

// String renders the summary as "2× Burger, 1× Cola".
func (s Summary) String() string {
	parts := make([]string, len(s))
	for i, l := range s {
		parts[i] = strconv.Itoa(l.Qty) + "× " + l.Name
	}
	return strings.Join(parts, ", ")
}

// Aggregate collapses raw entries into a Summary. Raw entries are the values
// produced by Decode: strings, json.Number, bools, nil, or
// map[string]any records.
func Aggregate(raw []any) Summary {
	var out Summary
	index := make(map[string]int)
	for _, entry := range raw {
		name, qty := resolve(entry)
		if i, ok := index[name]; ok {
			out[i].Qty += qty
			continue
		}
		index[name] = len(out)
		out = append(out, Line{Name: name, Qty: qty})
	}
	return out
}

// resolve maps one raw entry to its (name, qty) contribution.
func resolve(entry any) (string, int) {
	rec, ok := entry.(map[string]any)
	if !ok {
		return scalarText(entry), 1
	}
	nameVal, hasName := rec["name"]
	if !hasName || nameVal == nil {
		return scalarText(rec), 1
	}
	name := scalarText(nameVal)
	if name == "" {
		return scalarText(rec), 1
	}
	if qty, ok := positiveInt(rec["qty"]); ok {
		return name, qty
	}
	return name, 1
}

// positiveInt accepts integral JSON numbers and numeric strings above zero.
func positiveInt(v any) (int, bool) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return t, t > 0
	case string:
		s = strings.TrimSpace(t)
	default:
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Decode parses a serialized items list. In Lenient mode a failed decode is
// retried once with every single quote turned into a double quote.
// A top-level value that is not a list is a parse error.
func Decode(text string, mode Mode) ([]any, error) {
	raw, err := decodeList(text)
	if err == nil {
		return raw, nil
	}
	if mode == Lenient && strings.Contains(text, "'") {
		if raw, lerr := decodeList(strings.ReplaceAll(text, "'", `"`)); lerr == nil {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrParse, err)
}

func decodeList(text string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after items list")
	}
	if raw == nil {
		// "null" decodes without error
		return nil, errors.New("items list is null")
	}
	return raw, nil
}

// Summarize decodes, aggregates and renders a blob, applying the fallback of
// mode when it does not decode: the raw text for Strict, "" for Lenient.
func Summarize(text string, mode Mode) string {
	s, err := SummaryOf(text, mode)
	if err != nil {
		if mode == Strict {
			return text
		}
		return ""
	}
	return s.String()
}

// SummaryOf decodes and aggregates a blob.
func SummaryOf(text string, mode Mode) (Summary, error) {
	raw, err := Decode(text, mode)
	if err != nil {
		return nil, err
	}
	return Aggregate(raw), nil
}

// ParseRendered reads a string produced by Summary.String back into a
// Summary, so ParseRendered(s.String()) renders as s for any aggregated s.
//
// Names may themselves contain ", " or "× ". Parts are only cut at a ", "
// followed by a quantity, and the first cut sequence that yields distinct
// names wins; an aggregated summary always has one.
func ParseRendered(s string) (Summary, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	lines, ok := segment(s, make(map[string]bool))
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a rendered summary", ErrParse, s)
	}
	return lines, nil
}

// segment splits s into "N× name" parts whose names are not in seen.
// Earlier cuts are tried first.
func segment(s string, seen map[string]bool) (Summary, bool) {
	qty, rest, ok := leadingQty(s)
	if !ok {
		return nil, false
	}
	for from := 0; ; {
		j := strings.Index(rest[from:], ", ")
		if j < 0 {
			break
		}
		cut := from + j
		from = cut + 1
		if _, _, ok := leadingQty(rest[cut+2:]); !ok {
			continue
		}
		name := rest[:cut]
		if seen[name] {
			continue
		}
		seen[name] = true
		if tail, ok := segment(rest[cut+2:], seen); ok {
			return append(Summary{{Name: name, Qty: qty}}, tail...), true
		}
		delete(seen, name)
	}
	if seen[rest] {
		return nil, false
	}
	seen[rest] = true
	return Summary{{Name: rest, Qty: qty}}, true
}

// leadingQty reads the "N× " prefix of a part.
func leadingQty(s string) (int, string, bool) {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 || !strings.HasPrefix(s[n:], "× ") {
		return 0, "", false
	}
	qty, err := strconv.Atoi(s[:n])
	if err != nil || qty < 1 {
		return 0, "", false
	}
	return qty, s[n+len("× "):], true
}
