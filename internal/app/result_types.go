package app

import (
	"fmt"

	"garage-portal/internal/core"
)

// ReceivingView is everything the receiving screen renders for one order.
type ReceivingView struct {
	Order                   *core.PurchaseOrder   `json:"order"`
	Progress                core.Progress         `json:"progress"`
	RemainingLabel          string                `json:"remaining_label"`
	DeliveryStatus          core.DeliveryStatus   `json:"delivery_status"`
	DeliveryTone            string                `json:"delivery_tone"`
	ReceivingFormVisible    bool                  `json:"receiving_form_visible"`
	NextDeliveryDateVisible bool                  `json:"next_delivery_date_visible"`
	Deliveries              []core.DeliveryRecord `json:"deliveries"`
	Form                    FormView              `json:"form"`
	Submitting              bool                  `json:"submitting"`
	Pending                 *PendingConfirmation  `json:"pending_confirmation,omitempty"`
}

// FormView mirrors the receiving form inputs.
type FormView struct {
	Quantity         string `json:"quantity"`
	FullyDelivered   bool   `json:"fully_delivered"`
	Notes            string `json:"notes"`
	NextDeliveryDate string `json:"next_delivery_date"`
}

// PendingConfirmation is an over-delivery awaiting the operator's answer.
type PendingConfirmation struct {
	Ordered         int    `json:"ordered"`
	WouldBeReceived int    `json:"would_be_received"`
	Message         string `json:"message"`
}

// ReceiptResult is returned after a receipt was recorded by the server.
type ReceiptResult struct {
	Message   string              `json:"message"`
	Delivery  core.DeliveryRecord `json:"delivery"`
	Confirmed bool                `json:"confirmed_extra_quantity"`
	View      ReceivingView       `json:"view"`
	// RefreshErr is set when the receipt was recorded but re-fetching the order failed;
	// View then shows the last known order.
	RefreshErr error `json:"-"`
}

// LoadError reports a failed fetch of an order. Callers offer a manual retry.
type LoadError struct {
	OrderID int
	Err     error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("could not load purchase order %d: %v", e.OrderID, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
