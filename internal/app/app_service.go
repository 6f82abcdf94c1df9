package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"garage-portal/internal/core"
	"garage-portal/internal/session"
)

type appService struct {
	api OrderAPI
	now func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// A nil now defaults to time.Now.
func NewAppService(api OrderAPI, now func() time.Time) ApplicationService {
	if now == nil {
		now = time.Now
	}
	return &appService{api: api, now: now}
}

// OpenScreen fetches the order and returns a fresh receiving screen for it.
func (s *appService) OpenScreen(ctx context.Context, sess *session.Session, orderID int) (*ReceivingScreen, error) {
	if sess == nil {
		return nil, session.ErrMissingToken
	}
	if orderID <= 0 {
		return nil, fmt.Errorf("invalid purchase order id %d", orderID)
	}
	screen := newScreen(s.api, sess, orderID, s.now)
	if err := screen.Reload(ctx); err != nil {
		return nil, err
	}
	return screen, nil
}

// GetPurchaseOrder returns the receiving view of an order.
func (s *appService) GetPurchaseOrder(ctx context.Context, sess *session.Session, orderID int) (*ReceivingView, error) {
	screen, err := s.OpenScreen(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	v := screen.View()
	return &v, nil
}

// SubmitReceipt records one delivery against an order, asking confirmer when
// the server reports an over-delivery.
func (s *appService) SubmitReceipt(ctx context.Context, sess *session.Session, orderID int, form core.ReceiptForm, confirmer Confirmer) (*ReceiptResult, error) {
	screen, err := s.OpenScreen(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	screen.SetForm(form)

	result, err := screen.Submit(ctx)
	var extra *core.ExtraQuantityError
	if !errors.As(err, &extra) || confirmer == nil {
		return result, err
	}

	ok, err := confirmer.ConfirmExtraQuantity(ctx, extra)
	if err != nil {
		screen.CancelExtra()
		return nil, fmt.Errorf("confirm extra quantity: %w", err)
	}
	if !ok {
		screen.CancelExtra()
		return nil, ErrExtraDeclined
	}
	return screen.ConfirmExtra(ctx)
}

// UpdatePurchaseOrder parses req and applies it to the order.
func (s *appService) UpdatePurchaseOrder(ctx context.Context, sess *session.Session, orderID int, req UpdateOrderRequest) (*ReceivingView, error) {
	u, err := req.ToUpdate()
	if err != nil {
		return nil, err
	}
	screen, err := s.OpenScreen(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	v, err := screen.Update(ctx, u)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
