package core

import (
	"fmt"
	"math"
)

// Progress is the derived receiving progress of an order.
type Progress struct {
	Ordered   int     `json:"ordered"`
	Received  int     `json:"received"`
	Remaining int     `json:"remaining"` // negative when more was received than ordered
	Percent   int     `json:"percent"`   // received/ordered*100, rounded
	BarWidth  float64 `json:"bar_width"` // percent fill of a progress bar, capped at 100
}

// ComputeProgress derives Progress from the order's quantities.
func ComputeProgress(o *PurchaseOrder) Progress {
	p := Progress{
		Ordered:  o.QuantityOrdered,
		Received: o.ReceivedQty(),
	}
	p.Remaining = p.Ordered - p.Received
	if p.Ordered <= 0 {
		return p
	}
	raw := float64(p.Received) / float64(p.Ordered) * 100
	p.Percent = int(math.Round(raw))
	p.BarWidth = math.Min(raw, 100)
	return p
}

// ExtraReceived returns how many units were received beyond the order, or zero.
func (p Progress) ExtraReceived() int {
	if p.Remaining >= 0 {
		return 0
	}
	return -p.Remaining
}

// RemainingLabel renders the remaining quantity. Over-delivery is shown as
// "Extra Received" with the absolute value rather than clamped to zero.
func (p Progress) RemainingLabel() string {
	if p.Remaining < 0 {
		return fmt.Sprintf("Extra Received: %d", -p.Remaining)
	}
	return fmt.Sprintf("Remaining: %d", p.Remaining)
}
