package core

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and input format for calendar dates.
const DateLayout = "2006-01-02"

// Normalize trims whitespace from the free-text inputs.
func (f *ReceiptForm) Normalize() {
	f.Quantity = strings.TrimSpace(f.Quantity)
	f.Notes = strings.TrimSpace(f.Notes)
	f.NextDeliveryDate = strings.TrimSpace(f.NextDeliveryDate)
}

// Validate checks the form shape and builds the first-attempt payload.
// It never decides whether the quantity exceeds the order: the server owns that rule.
// now supplies the current calendar day for the next-delivery-date lower bound.
func (f ReceiptForm) Validate(now time.Time) (ReceiptPayload, error) {
	f.Normalize()

	qty, err := strconv.Atoi(f.Quantity)
	if err != nil || qty <= 0 {
		return ReceiptPayload{}, &ValidationError{Field: "quantity_received", Value: f.Quantity, Err: ErrInvalidQuantity}
	}

	p := ReceiptPayload{
		QuantityReceived: qty,
		FullyDelivered:   f.FullyDelivered,
		Notes:            f.Notes,
	}
	if f.FullyDelivered {
		return p, nil
	}

	if f.NextDeliveryDate == "" {
		return ReceiptPayload{}, &ValidationError{Field: "next_delivery_date", Value: "", Err: ErrMissingNextDeliveryDate}
	}
	next, err := time.ParseInLocation(DateLayout, f.NextDeliveryDate, now.Location())
	if err != nil || next.Before(startOfDay(now)) {
		return ReceiptPayload{}, &ValidationError{Field: "next_delivery_date", Value: f.NextDeliveryDate, Err: ErrMissingNextDeliveryDate}
	}
	date := next.Format(DateLayout)
	p.NextDeliveryDate = &date
	return p, nil
}

// Validate enforces the field rules for a general order update.
// It does not compare QuantityOrdered with what has already been received.
func (u OrderUpdate) Validate() error {
	if !u.UnitCost.IsPositive() {
		return &ValidationError{Field: "unit_cost", Value: u.UnitCost.String(), Err: ErrInvalidUnitCost}
	}
	if u.QuantityOrdered < 1 {
		return &ValidationError{Field: "quantity_ordered", Value: u.QuantityOrdered, Err: ErrInvalidQuantity}
	}
	if _, err := ParseStatus(string(u.Status)); err != nil {
		return err
	}
	if u.ExpectedDeliveryDate != nil && *u.ExpectedDeliveryDate != "" {
		if _, err := time.Parse(DateLayout, *u.ExpectedDeliveryDate); err != nil {
			return &ValidationError{Field: "expected_delivery_date", Value: *u.ExpectedDeliveryDate, Err: ErrInvalidDate}
		}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
