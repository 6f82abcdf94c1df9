package app

import (
	"context"
	"errors"

	"garage-portal/internal/core"
	"garage-portal/internal/session"
)

var (
	// ErrSubmitInProgress is returned while another request from the same screen is outstanding.
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	// ErrConfirmationPending is returned when a new receipt is submitted before
	// the pending extra-quantity confirmation is answered.
	ErrConfirmationPending = errors.New("an extra-quantity confirmation is pending")
	// ErrNoPendingConfirmation is returned by ConfirmExtra when nothing awaits confirmation.
	ErrNoPendingConfirmation = errors.New("no extra-quantity confirmation is pending")
	// ErrExtraDeclined is returned when the operator declines an over-delivery.
	ErrExtraDeclined = errors.New("extra quantity not confirmed; nothing was recorded")
	// ErrNotLoaded is returned when a screen is used before its order was fetched.
	ErrNotLoaded = errors.New("purchase order not loaded")
)

// OrderAPI is the part of the order-management API the application layer calls.
// *orderapi.Client implements it.
type OrderAPI interface {
	GetPurchaseOrder(ctx context.Context, token string, orderID int) (*core.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, token string, orderID int, u core.OrderUpdate) (*core.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, token string, orderID int, p core.ReceiptPayload) (string, error)
}

// Confirmer asks the operator whether an over-delivery should be recorded.
// It is shown the server's counts and message unchanged.
type Confirmer interface {
	ConfirmExtraQuantity(ctx context.Context, extra *core.ExtraQuantityError) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, extra *core.ExtraQuantityError) (bool, error)

// ConfirmExtraQuantity calls f.
func (f ConfirmFunc) ConfirmExtraQuantity(ctx context.Context, extra *core.ExtraQuantityError) (bool, error) {
	return f(ctx, extra)
}

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// Implementations contain no display logic.
type ApplicationService interface {
	// OpenScreen fetches an order and returns a receiving screen bound to sess.
	// A failed fetch is reported as *LoadError.
	OpenScreen(ctx context.Context, sess *session.Session, orderID int) (*ReceivingScreen, error)

	// GetPurchaseOrder returns the receiving view of an order without keeping any screen state.
	GetPurchaseOrder(ctx context.Context, sess *session.Session, orderID int) (*ReceivingView, error)

	// SubmitReceipt validates form, submits it and, when the server reports an
	// over-delivery, asks confirmer before resubmitting with confirmation.
	// A nil confirmer returns the *core.ExtraQuantityError to the caller unanswered.
	SubmitReceipt(ctx context.Context, sess *session.Session, orderID int, form core.ReceiptForm, confirmer Confirmer) (*ReceiptResult, error)

	// UpdatePurchaseOrder validates and applies a general order update.
	UpdatePurchaseOrder(ctx context.Context, sess *session.Session, orderID int, req UpdateOrderRequest) (*ReceivingView, error)
}
