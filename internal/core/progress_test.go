package core_test

import (
	"testing"
	"time"

	"garage-portal/internal/core"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name      string
		ordered   int
		received  *int
		remaining int
		percent   int
		bar       float64
		label     string
	}{
		{name: "nothing received yet", ordered: 50, received: nil, remaining: 50, percent: 0, bar: 0, label: "Remaining: 50"},
		{name: "partial", ordered: 50, received: intPtr(20), remaining: 30, percent: 40, bar: 40, label: "Remaining: 30"},
		{name: "rounds half up", ordered: 8, received: intPtr(5), remaining: 3, percent: 63, bar: 62.5, label: "Remaining: 3"},
		{name: "exact match", ordered: 100, received: intPtr(100), remaining: 0, percent: 100, bar: 100, label: "Remaining: 0"},
		{name: "over-delivered caps bar", ordered: 100, received: intPtr(101), remaining: -1, percent: 101, bar: 100, label: "Extra Received: 1"},
		{name: "heavily over-delivered", ordered: 10, received: intPtr(25), remaining: -15, percent: 250, bar: 100, label: "Extra Received: 15"},
		{name: "zero ordered", ordered: 0, received: intPtr(0), remaining: 0, percent: 0, bar: 0, label: "Remaining: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := core.ComputeProgress(&core.PurchaseOrder{QuantityOrdered: tt.ordered, QuantityReceived: tt.received})
			if p.Remaining != tt.remaining {
				t.Errorf("Remaining = %d, want %d", p.Remaining, tt.remaining)
			}
			if p.Percent != tt.percent {
				t.Errorf("Percent = %d, want %d", p.Percent, tt.percent)
			}
			if p.BarWidth != tt.bar {
				t.Errorf("BarWidth = %v, want %v", p.BarWidth, tt.bar)
			}
			if p.BarWidth > 100 {
				t.Errorf("BarWidth must never exceed 100, got %v", p.BarWidth)
			}
			if got := p.RemainingLabel(); got != tt.label {
				t.Errorf("RemainingLabel() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestClassifyDelivery(t *testing.T) {
	now := time.Date(2025, 6, 20, 23, 59, 0, 0, time.UTC)
	tests := []struct {
		name        string
		expected    *string
		precomputed string
		want        core.DeliveryStatus
	}{
		{name: "unset", expected: nil, want: core.DeliveryNotSpecified},
		{name: "empty", expected: strPtr(""), want: core.DeliveryNotSpecified},
		{name: "garbage", expected: strPtr("next week"), want: core.DeliveryNotSpecified},
		{name: "yesterday", expected: strPtr("2025-06-19"), want: core.DeliveryOverdue},
		{name: "today", expected: strPtr("2025-06-20"), want: core.DeliveryToday},
		{name: "tomorrow", expected: strPtr("2025-06-21"), want: core.DeliveryTomorrow},
		{name: "later", expected: strPtr("2025-06-22"), want: core.DeliveryFuture},
		{name: "timestamp reduced to date", expected: strPtr("2025-06-21T08:00:00Z"), want: core.DeliveryTomorrow},
		{name: "server label wins", expected: strPtr("2025-06-19"), precomputed: "Today", want: core.DeliveryToday},
		{name: "unknown server label ignored", expected: strPtr("2025-06-19"), precomputed: "Late-ish", want: core.DeliveryOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.ClassifyDelivery(tt.expected, tt.precomputed, now); got != tt.want {
				t.Errorf("ClassifyDelivery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeliveryStatus_Tone(t *testing.T) {
	if core.DeliveryOverdue.Tone() != core.ToneDanger {
		t.Errorf("overdue should render as danger")
	}
	if core.DeliveryNotSpecified.Tone() != core.ToneMuted {
		t.Errorf("not specified should render muted")
	}
}
