package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"garage-portal/internal/app"
	"garage-portal/internal/core"
	"garage-portal/internal/session"
)

// receiptRequest is the receiving form as posted by the browser.
type receiptRequest struct {
	QuantityReceived formText `json:"quantity_received"`
	FullyDelivered   bool     `json:"fully_delivered"`
	Notes            string   `json:"notes"`
	NextDeliveryDate string   `json:"next_delivery_date"`
}

// formText holds an input field posted either as a JSON string or a bare
// number. The text is kept verbatim so core validation decides what is numeric.
type formText string

func (t *formText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = formText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = formText(n.String())
	return nil
}

type confirmRequest struct {
	Action string `json:"action"` // "confirm" or "cancel"
}

// screen returns the operator's receiving screen for the {id} order, opening
// (and fetching) a new one when none is stored or the token changed.
func (h *Handler) screen(w http.ResponseWriter, r *http.Request, reload bool) (*app.ReceivingScreen, bool) {
	id, ok := orderID(w, r)
	if !ok {
		return nil, false
	}
	sess := session.FromContext(r.Context())

	if sc, found := h.screens.get(sess.Subject(), id); found && sc.Session().Token == sess.Token {
		if reload {
			if err := sc.Reload(r.Context()); err != nil {
				writeServiceError(w, r, err)
				return nil, false
			}
		}
		return sc, true
	}

	sc, err := h.svc.OpenScreen(r.Context(), sess, id)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	h.screens.put(sess.Subject(), sc)
	return sc, true
}

// apiGetPurchaseOrder handles GET /api/purchase-orders/{id}.
// A stored screen is re-fetched so its delivery history and pending confirmation survive.
func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.screen(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, sc.View())
}

// apiUpdatePurchaseOrder handles PUT /api/purchase-orders/{id}.
func (h *Handler) apiUpdatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := req.ToUpdate()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	sc, ok := h.screen(w, r, false)
	if !ok {
		return
	}
	view, err := sc.Update(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// apiReceivePurchaseOrder handles POST /api/purchase-orders/{id}/receive.
//
//	200  ReceiptResult
//	409  CONFIRMATION_REQUIRED with the server's ordered / would_be_received / message
//	422  VALIDATION_FAILED, nothing was sent to the order API
func (h *Handler) apiReceivePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sc, ok := h.screen(w, r, false)
	if !ok {
		return
	}

	sc.SetForm(core.ReceiptForm{
		Quantity:         string(req.QuantityReceived),
		FullyDelivered:   req.FullyDelivered,
		Notes:            req.Notes,
		NextDeliveryDate: req.NextDeliveryDate,
	})
	result, err := sc.Submit(r.Context())
	h.writeReceipt(w, r, sc, result, err)
}

// apiConfirmReceipt handles POST /api/purchase-orders/{id}/receive/confirm.
func (h *Handler) apiConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Action != "confirm" && req.Action != "cancel" {
		writeError(w, r, `action must be "confirm" or "cancel"`, "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	id, ok := orderID(w, r)
	if !ok {
		return
	}
	sess := session.FromContext(r.Context())
	sc, found := h.screens.get(sess.Subject(), id)
	if !found || sc.Session().Token != sess.Token {
		writeServiceError(w, r, app.ErrNoPendingConfirmation)
		return
	}

	if req.Action == "cancel" {
		sc.CancelExtra()
		writeJSON(w, sc.View())
		return
	}
	result, err := sc.ConfirmExtra(r.Context())
	h.writeReceipt(w, r, sc, result, err)
}

func (h *Handler) writeReceipt(w http.ResponseWriter, r *http.Request, sc *app.ReceivingScreen, result *app.ReceiptResult, err error) {
	var extra *core.ExtraQuantityError
	if errors.As(err, &extra) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(confirmationResponse{
			Error:           extra.Error(),
			Code:            "CONFIRMATION_REQUIRED",
			Ordered:         extra.Ordered,
			WouldBeReceived: extra.WouldBeReceived,
			Message:         extra.Message,
			View:            sc.View(),
			RequestID:       requestIDFromContext(r.Context()),
		})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		*app.ReceiptResult
		RefreshError string `json:"refresh_error,omitempty"`
	}
	resp := response{ReceiptResult: result}
	if result.RefreshErr != nil {
		resp.RefreshError = result.RefreshErr.Error()
	}
	writeJSON(w, resp)
}
