package app

import (
	"strconv"
	"strings"

	"garage-portal/internal/core"

	"github.com/shopspring/decimal"
)

// UpdateOrderRequest carries the general order fields as entered by the operator.
type UpdateOrderRequest struct {
	ExpectedDeliveryDate string `json:"expected_delivery_date"` // empty clears the date
	UnitCost             string `json:"unit_cost"`
	QuantityOrdered      string `json:"quantity_ordered"`
	Status               string `json:"status"`
}

// ToUpdate parses and validates the request.
func (r UpdateOrderRequest) ToUpdate() (core.OrderUpdate, error) {
	cost, err := decimal.NewFromString(strings.TrimSpace(r.UnitCost))
	if err != nil {
		return core.OrderUpdate{}, &core.ValidationError{Field: "unit_cost", Value: r.UnitCost, Err: core.ErrInvalidUnitCost}
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.QuantityOrdered))
	if err != nil {
		return core.OrderUpdate{}, &core.ValidationError{Field: "quantity_ordered", Value: r.QuantityOrdered, Err: core.ErrInvalidQuantity}
	}

	u := core.OrderUpdate{
		UnitCost:        cost,
		QuantityOrdered: qty,
		Status:          core.OrderStatus(strings.TrimSpace(r.Status)),
	}
	if d := strings.TrimSpace(r.ExpectedDeliveryDate); d != "" {
		u.ExpectedDeliveryDate = &d
	}
	if err := u.Validate(); err != nil {
		return core.OrderUpdate{}, err
	}
	return u, nil
}
