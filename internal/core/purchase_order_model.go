package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a purchase order as reported by the order API.
type OrderStatus string

const (
	StatusPending           OrderStatus = "Pending"
	StatusPartiallyReceived OrderStatus = "Partially Received"
	StatusReceived          OrderStatus = "Received"
	StatusCancelled         OrderStatus = "Cancelled"
)

// ParseStatus maps a user-supplied label to an OrderStatus. Matching is exact.
func ParseStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusPartiallyReceived, StatusReceived, StatusCancelled:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Value: s, Err: ErrInvalidStatus}
}

// PurchaseOrder is the order record owned by the external order-management API.
// Dates are YYYY-MM-DD strings; nil means not set.
type PurchaseOrder struct {
	OrderID              int             `json:"order_id"`
	PartName             string          `json:"part_name,omitempty"`
	Supplier             string          `json:"supplier,omitempty"`
	QuantityOrdered      int             `json:"quantity_ordered"`
	QuantityReceived     *int            `json:"quantity_received"`
	UnitCost             decimal.Decimal `json:"unit_cost"`
	Status               OrderStatus     `json:"status"`
	ExpectedDeliveryDate *string         `json:"expected_delivery_date"`
	NextDeliveryDate     *string         `json:"next_delivery_date"`
	DeliveryStatus       string          `json:"delivery_status,omitempty"`
	Remaining            *int            `json:"remaining,omitempty"`
}

// ReceivedQty returns quantity_received, treating a missing value as zero.
func (o *PurchaseOrder) ReceivedQty() int {
	if o.QuantityReceived == nil {
		return 0
	}
	return *o.QuantityReceived
}

// CanReceive reports whether the receiving form exists for this order.
// Cancelled and fully Received orders are closed to further deliveries.
func (o *PurchaseOrder) CanReceive() bool {
	return o.Status != StatusCancelled && o.Status != StatusReceived
}

// OrderValue returns unit_cost × quantity_ordered.
func (o *PurchaseOrder) OrderValue() decimal.Decimal {
	return o.UnitCost.Mul(decimal.NewFromInt(int64(o.QuantityOrdered)))
}

// String implements fmt.Stringer for log lines.
func (o *PurchaseOrder) String() string {
	return fmt.Sprintf("PO %d (%s, %d/%d)", o.OrderID, o.Status, o.ReceivedQty(), o.QuantityOrdered)
}

// DeliveryRecord is one receiving event recorded during the current session.
type DeliveryRecord struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// ReceiptForm holds the receiving inputs exactly as the operator typed them.
type ReceiptForm struct {
	Quantity         string
	FullyDelivered   bool
	Notes            string
	NextDeliveryDate string // YYYY-MM-DD, required unless FullyDelivered
}

// ReceiptPayload is the body of POST /purchase_orders/{id}/receive.
type ReceiptPayload struct {
	QuantityReceived     int     `json:"quantity_received"`
	FullyDelivered       bool    `json:"fully_delivered"`
	Notes                string  `json:"notes"`
	NextDeliveryDate     *string `json:"next_delivery_date"`
	ConfirmExtraQuantity bool    `json:"confirm_extra_quantity"`
}

// OrderUpdate holds the general order fields editable outside the receiving flow.
type OrderUpdate struct {
	ExpectedDeliveryDate *string
	UnitCost             decimal.Decimal
	QuantityOrdered      int
	Status               OrderStatus
}
