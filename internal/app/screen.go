package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"garage-portal/internal/core"
	"garage-portal/internal/logger"
	"garage-portal/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReceivingScreen is the state of one operator working on one order: the last
// fetched order, the deliveries recorded during this session, the form inputs,
// the submitting flag and any over-delivery awaiting confirmation.
//
// At most one request per screen is in flight. Calls made while one is
// outstanding fail fast with ErrSubmitInProgress; nothing is queued.
type ReceivingScreen struct {
	ID string

	api     OrderAPI
	sess    *session.Session
	orderID int
	now     func() time.Time
	log     zerolog.Logger

	mu         sync.Mutex
	order      *core.PurchaseOrder
	deliveries []core.DeliveryRecord
	form       core.ReceiptForm
	submitting bool
	pending    *pendingReceipt
	touched    time.Time
}

// pendingReceipt keeps the exact payload of a rejected attempt so the
// confirmed resubmission is identical apart from confirm_extra_quantity.
type pendingReceipt struct {
	payload core.ReceiptPayload
	extra   *core.ExtraQuantityError
}

func newScreen(api OrderAPI, sess *session.Session, orderID int, now func() time.Time) *ReceivingScreen {
	id := uuid.NewString()
	return &ReceivingScreen{
		ID:      id,
		api:     api,
		sess:    sess,
		orderID: orderID,
		now:     now,
		log:     logger.WithComponent("receiving").With().Str("screen", id).Int("order_id", orderID).Logger(),
		touched: now(),
	}
}

// OrderID returns the order this screen works on.
func (s *ReceivingScreen) OrderID() int {
	return s.orderID
}

// Session returns the operator session the screen acts for.
func (s *ReceivingScreen) Session() *session.Session {
	return s.sess
}

// LastUsed returns when the screen was last touched.
func (s *ReceivingScreen) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Reload re-fetches the order from the API. Failures are returned as *LoadError
// and leave the previously loaded order in place.
func (s *ReceivingScreen) Reload(ctx context.Context) error {
	if err := s.sess.Check(s.now()); err != nil {
		return err
	}
	order, err := s.api.GetPurchaseOrder(ctx, s.sess.Token, s.orderID)
	if err != nil {
		return &LoadError{OrderID: s.orderID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.touched = s.now()
	return nil
}

// SetForm replaces the receiving form inputs.
func (s *ReceivingScreen) SetForm(f core.ReceiptForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
	s.touched = s.now()
}

// View returns a snapshot of everything the screen renders.
func (s *ReceivingScreen) View() ReceivingView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *ReceivingScreen) viewLocked() ReceivingView {
	v := buildView(s.order, s.now())
	v.Deliveries = append([]core.DeliveryRecord{}, s.deliveries...)
	v.Form = FormView{
		Quantity:         s.form.Quantity,
		FullyDelivered:   s.form.FullyDelivered,
		Notes:            s.form.Notes,
		NextDeliveryDate: s.form.NextDeliveryDate,
	}
	v.Submitting = s.submitting
	if s.pending != nil {
		v.Pending = &PendingConfirmation{
			Ordered:         s.pending.extra.Ordered,
			WouldBeReceived: s.pending.extra.WouldBeReceived,
			Message:         s.pending.extra.Message,
		}
	}
	return v
}

// buildView derives the display fields of an order. A nil order yields an empty view.
func buildView(order *core.PurchaseOrder, now time.Time) ReceivingView {
	v := ReceivingView{Order: order, Deliveries: []core.DeliveryRecord{}}
	if order == nil {
		return v
	}
	v.Progress = core.ComputeProgress(order)
	v.RemainingLabel = v.Progress.RemainingLabel()
	v.DeliveryStatus = core.ClassifyDelivery(order.ExpectedDeliveryDate, order.DeliveryStatus, now)
	v.DeliveryTone = v.DeliveryStatus.Tone()
	v.ReceivingFormVisible = order.CanReceive()
	v.NextDeliveryDateVisible = order.Status == core.StatusPartiallyReceived &&
		order.NextDeliveryDate != nil && *order.NextDeliveryDate != ""
	return v
}

// beginLocked marks the screen as submitting. s.mu must be held.
func (s *ReceivingScreen) beginLocked() error {
	if s.submitting {
		return ErrSubmitInProgress
	}
	if err := s.sess.Check(s.now()); err != nil {
		return err
	}
	s.submitting = true
	s.touched = s.now()
	return nil
}

// Submit validates the form and sends the first receiving attempt.
// Validation failures return *core.ValidationError without any request.
// An over-delivery returns *core.ExtraQuantityError and leaves the attempt
// pending until ConfirmExtra or CancelExtra; delivery history is untouched.
func (s *ReceivingScreen) Submit(ctx context.Context) (*ReceiptResult, error) {
	s.mu.Lock()
	if s.order == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if !s.order.CanReceive() {
		s.mu.Unlock()
		return nil, core.ErrReceivingClosed
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if s.pending != nil {
		s.mu.Unlock()
		return nil, ErrConfirmationPending
	}
	payload, err := s.form.Validate(s.now())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.beginLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	return s.send(ctx, payload)
}

// ConfirmExtra resubmits the pending attempt with confirm_extra_quantity set.
func (s *ReceivingScreen) ConfirmExtra(ctx context.Context) (*ReceiptResult, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if s.pending == nil {
		s.mu.Unlock()
		return nil, ErrNoPendingConfirmation
	}
	payload := s.pending.payload
	payload.ConfirmExtraQuantity = true
	if err := s.beginLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	return s.send(ctx, payload)
}

// CancelExtra drops the pending attempt. The form keeps its inputs.
func (s *ReceivingScreen) CancelExtra() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.log.Info().Int("would_be_received", s.pending.extra.WouldBeReceived).Msg("extra quantity declined")
	}
	s.pending = nil
	s.touched = s.now()
}

func (s *ReceivingScreen) send(ctx context.Context, payload core.ReceiptPayload) (*ReceiptResult, error) {
	msg, err := s.api.ReceivePurchaseOrder(ctx, s.sess.Token, s.orderID, payload)

	s.mu.Lock()
	s.submitting = false

	var extra *core.ExtraQuantityError
	if errors.As(err, &extra) {
		if payload.ConfirmExtraQuantity {
			// A confirmed resubmission cannot be confirmed again.
			s.pending = nil
			s.mu.Unlock()
			s.log.Warn().Int("would_be_received", extra.WouldBeReceived).Msg("extra quantity rejected after confirmation")
			return nil, &core.APIError{Status: http.StatusConflict, Message: extra.Error()}
		}
		s.pending = &pendingReceipt{payload: payload, extra: extra}
		s.mu.Unlock()
		s.log.Info().Int("ordered", extra.Ordered).Int("would_be_received", extra.WouldBeReceived).Msg("extra quantity needs confirmation")
		return nil, extra
	}
	if err != nil {
		s.pending = nil
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("receipt rejected")
		return nil, err
	}

	record := core.DeliveryRecord{
		Date:     s.now().Format(core.DateLayout),
		Quantity: payload.QuantityReceived,
		Notes:    payload.Notes,
	}
	s.deliveries = append(s.deliveries, record)
	s.pending = nil
	s.form.Quantity = ""
	s.form.Notes = ""
	s.form.NextDeliveryDate = ""
	s.mu.Unlock()

	s.log.Info().
		Int("quantity", payload.QuantityReceived).
		Bool("fully_delivered", payload.FullyDelivered).
		Bool("confirmed_extra", payload.ConfirmExtraQuantity).
		Msg("delivery recorded")

	result := &ReceiptResult{
		Message:   msg,
		Delivery:  record,
		Confirmed: payload.ConfirmExtraQuantity,
	}
	if err := s.Reload(ctx); err != nil {
		s.log.Warn().Err(err).Msg("refresh after receipt failed")
		result.RefreshErr = err
	}
	result.View = s.View()
	return result, nil
}

// Update validates u and applies it to the order. Quantities already received
// are not reconciled against a lowered quantity_ordered.
func (s *ReceivingScreen) Update(ctx context.Context, u core.OrderUpdate) (ReceivingView, error) {
	if err := u.Validate(); err != nil {
		return ReceivingView{}, err
	}

	s.mu.Lock()
	if err := s.beginLocked(); err != nil {
		s.mu.Unlock()
		return ReceivingView{}, err
	}
	s.mu.Unlock()

	order, err := s.api.UpdatePurchaseOrder(ctx, s.sess.Token, s.orderID, u)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		return ReceivingView{}, err
	}
	s.order = order
	s.log.Info().Str("status", string(order.Status)).Int("quantity_ordered", order.QuantityOrdered).Msg("order updated")
	return s.viewLocked(), nil
}
