package enum

import "testing"

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"Pending", OrderStatusPending, true},
		{" preparing ", OrderStatusPreparing, true},
		{"READY", OrderStatusReady, true},
		{"completed", OrderStatusCompleted, true},
		{"Served", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseOrderStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseOrderStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := OrderStatusReady.Label(); got != "Hazır" {
		t.Errorf("got %q", got)
	}
	if got := OrderStatus("Lost").Label(); got != "Lost" {
		t.Errorf("unknown status label: got %q", got)
	}
}

func TestStatusFilter(t *testing.T) {
	f, ok := ParseStatusFilter("")
	if !ok || f != FilterAll {
		t.Fatalf("empty filter: got %q, %v", f, ok)
	}
	if !f.Match(OrderStatusCompleted) {
		t.Error("All should match every status")
	}

	f, ok = ParseStatusFilter("ready")
	if !ok || !f.Match(OrderStatusReady) || f.Match(OrderStatusPending) {
		t.Errorf("ready filter: got %q, %v", f, ok)
	}

	if _, ok := ParseStatusFilter("Archived"); ok {
		t.Error("expected unknown filter to be rejected")
	}
}
