package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"garage-portal/internal/adapters/web"
	"garage-portal/internal/app"
	"garage-portal/internal/core"
	"garage-portal/internal/orderapi"
	"garage-portal/internal/session"
	"garage-portal/internal/testutil"
)

const secret = "bff-test-secret"

type harness struct {
	handler http.Handler
	fake    *testutil.FakeAPI
	token   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fake := testutil.NewFakeAPI(t)
	svc := app.NewAppService(orderapi.NewClient(fake.URL, 5*time.Second), nil)
	return &harness{
		handler: web.NewHandler(ctx, svc, session.NewParser(secret), ""),
		fake:    fake,
		token:   testutil.Token(t, secret, 42, time.Hour),
	}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: h.token})
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type errorBody struct {
	Error           string `json:"error"`
	Code            string `json:"code"`
	Field           string `json:"field"`
	Retryable       bool   `json:"retryable"`
	RequestID       string `json:"request_id"`
	Ordered         int    `json:"ordered"`
	WouldBeReceived int    `json:"would_be_received"`
	Message         string `json:"message"`
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	h.token = ""
	rec := h.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected a generated X-Request-ID")
	}
}

func TestRequireAuth(t *testing.T) {
	h := newHarness(t)
	h.fake.NewOrder(1, 10, 0)

	h.token = ""
	rec := h.do(t, http.MethodGet, "/api/purchase-orders/1", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	h.token = testutil.Token(t, secret, 42, -time.Minute)
	rec = h.do(t, http.MethodGet, "/api/purchase-orders/1", nil)
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusUnauthorized || body.Code != "SESSION_EXPIRED" {
		t.Fatalf("expected 401 SESSION_EXPIRED, got %d %s", rec.Code, body.Code)
	}

	h.token = testutil.Token(t, "someone-else", 42, time.Hour)
	if rec := h.do(t, http.MethodGet, "/api/purchase-orders/1", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a foreign signature, got %d", rec.Code)
	}
}

func TestSession(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		UserID   int    `json:"user_id"`
		Username string `json:"username"`
	}
	decode(t, rec, &body)
	if body.UserID != 42 || body.Username != "operator-42" {
		t.Errorf("unexpected session %+v", body)
	}
}

func TestGetPurchaseOrder(t *testing.T) {
	h := newHarness(t)
	h.fake.NewOrder(5, 8, 5)

	rec := h.do(t, http.MethodGet, "/api/purchase-orders/5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var view app.ReceivingView
	decode(t, rec, &view)
	if view.Progress.Percent != 63 || view.RemainingLabel != "Remaining: 3" {
		t.Errorf("unexpected progress %+v / %q", view.Progress, view.RemainingLabel)
	}
	if !view.ReceivingFormVisible {
		t.Errorf("partially received order should show the receiving form")
	}

	if rec := h.do(t, http.MethodGet, "/api/purchase-orders/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad id, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/purchase-orders/77", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a missing order, got %d", rec.Code)
	}
}

func TestGetPurchaseOrder_LoadFailed(t *testing.T) {
	h := newHarness(t)
	h.fake.FailNext(http.MethodGet, http.StatusServiceUnavailable, "maintenance")

	rec := h.do(t, http.MethodGet, "/api/purchase-orders/1", nil)
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusBadGateway || body.Code != "LOAD_FAILED" || !body.Retryable {
		t.Fatalf("expected retryable 502 LOAD_FAILED, got %d %+v", rec.Code, body)
	}
}

func TestReceive_Validation(t *testing.T) {
	h := newHarness(t)
	h.fake.NewOrder(3, 10, 0)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{name: "partial without next date", body: map[string]any{"quantity_received": 4}, field: "next_delivery_date"},
		{name: "zero as string", body: map[string]any{"quantity_received": "0", "fully_delivered": true}, field: "quantity_received"},
		{name: "non-numeric", body: map[string]any{"quantity_received": "abc", "fully_delivered": true}, field: "quantity_received"},
		{name: "cleared input", body: map[string]any{"quantity_received": "", "fully_delivered": true}, field: "quantity_received"},
		{name: "trailing garbage", body: map[string]any{"quantity_received": "12x", "fully_delivered": true}, field: "quantity_received"},
		{name: "fractional", body: map[string]any{"quantity_received": 2.5, "fully_delivered": true}, field: "quantity_received"},
		{name: "null", body: map[string]any{"quantity_received": nil, "fully_delivered": true}, field: "quantity_received"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/purchase-orders/3/receive", tt.body)
			var body errorBody
			decode(t, rec, &body)
			if rec.Code != http.StatusUnprocessableEntity || body.Code != "VALIDATION_FAILED" || body.Field != tt.field {
				t.Fatalf("expected 422 VALIDATION_FAILED on %s, got %d %+v", tt.field, rec.Code, body)
			}
		})
	}
	if n := len(h.fake.Receipts()); n != 0 {
		t.Errorf("validation failures must not reach the API, got %d calls", n)
	}
}

func TestReceive_QuantityAsString(t *testing.T) {
	h := newHarness(t)
	h.fake.NewOrder(8, 10, 0)

	rec := h.do(t, http.MethodPost, "/api/purchase-orders/8/receive", map[string]any{"quantity_received": " 10 ", "fully_delivered": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if receipts := h.fake.Receipts(); len(receipts) != 1 || receipts[0].QuantityReceived != 10 {
		t.Errorf("unexpected receipts %+v", receipts)
	}
}

func TestReceive_Partial(t *testing.T) {
	h := newHarness(t)
	h.fake.NewOrder(7, 50, 0)

	rec := h.do(t, http.MethodPost, "/api/purchase-orders/7/receive", map[string]any{
		"quantity_received":  20,
		"next_delivery_date": "2099-07-01",
		"notes":              "first pallet",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var result app.ReceiptResult
	decode(t, rec, &result)
	if result.View.Progress.Remaining != 30 || result.View.Order.Status != core.StatusPartiallyReceived {
		t.Errorf("unexpected view after receipt: %+v", result.View.Progress)
	}
	if len(result.View.Deliveries) != 1 || result.View.Deliveries[0].Notes != "first pallet" {
		t.Errorf("unexpected delivery history %+v", result.View.Deliveries)
	}

	// The stored screen keeps its history across page loads.
	rec = h.do(t, http.MethodGet, "/api/purchase-orders/7", nil)
	var view app.ReceivingView
	decode(t, rec, &view)
	if len(view.Deliveries) != 1 {
		t.Errorf("history should survive a reload, got %+v", view.Deliveries)
	}
}

func TestReceive_ExtraQuantityConfirm(t *testing.T) {
	h := newHarness(t)
	o := h.fake.NewOrder(9, 100, 100)
	o.Status = core.StatusPartiallyReceived
	h.fake.Seed(o)

	rec := h.do(t, http.MethodPost, "/api/purchase-orders/9/receive", map[string]any{"quantity_received": 1, "fully_delivered": true})
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusConflict || body.Code != "CONFIRMATION_REQUIRED" {
		t.Fatalf("expected 409 CONFIRMATION_REQUIRED, got %d %+v", rec.Code, body)
	}
	if body.Ordered != 100 || body.WouldBeReceived != 101 || body.Message == "" {
		t.Errorf("server counts must be passed through, got %+v", body)
	}

	rec = h.do(t, http.MethodPost, "/api/purchase-orders/9/receive/confirm", map[string]string{"action": "confirm"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after confirm, got %d: %s", rec.Code, rec.Body)
	}
	var result app.ReceiptResult
	decode(t, rec, &result)
	if !result.Confirmed || result.View.RemainingLabel != "Extra Received: 1" {
		t.Errorf("unexpected result %+v", result)
	}

	receipts := h.fake.Receipts()
	if len(receipts) != 2 || receipts[0].ConfirmExtraQuantity || !receipts[1].ConfirmExtraQuantity {
		t.Errorf("expected an unconfirmed then a confirmed attempt, got %+v", receipts)
	}
}

func TestReceive_ExtraQuantityCancel(t *testing.T) {
	h := newHarness(t)
	o := h.fake.NewOrder(9, 100, 100)
	o.Status = core.StatusPartiallyReceived
	h.fake.Seed(o)

	h.do(t, http.MethodPost, "/api/purchase-orders/9/receive", map[string]any{"quantity_received": 3, "fully_delivered": true})
	rec := h.do(t, http.MethodPost, "/api/purchase-orders/9/receive/confirm", map[string]string{"action": "cancel"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on cancel, got %d", rec.Code)
	}
	var view app.ReceivingView
	decode(t, rec, &view)
	if view.Pending != nil || len(view.Deliveries) != 0 {
		t.Errorf("cancel must leave no pending confirmation and no history, got %+v", view)
	}

	rec = h.do(t, http.MethodPost, "/api/purchase-orders/9/receive/confirm", map[string]string{"action": "confirm"})
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusConflict || body.Code != "NO_PENDING_CONFIRMATION" {
		t.Errorf("expected 409 NO_PENDING_CONFIRMATION, got %d %+v", rec.Code, body)
	}
	if n := len(h.fake.Receipts()); n != 1 {
		t.Errorf("expected a single receive attempt, got %d", n)
	}
}

func TestReceive_ConfirmWithRotatedToken(t *testing.T) {
	h := newHarness(t)
	o := h.fake.NewOrder(9, 100, 100)
	o.Status = core.StatusPartiallyReceived
	h.fake.Seed(o)

	rec := h.do(t, http.MethodPost, "/api/purchase-orders/9/receive", map[string]any{"quantity_received": 1, "fully_delivered": true})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body)
	}

	h.token = testutil.Token(t, secret, 42, 2*time.Hour)
	rec = h.do(t, http.MethodPost, "/api/purchase-orders/9/receive/confirm", map[string]string{"action": "confirm"})
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusConflict || body.Code != "NO_PENDING_CONFIRMATION" {
		t.Errorf("expected 409 NO_PENDING_CONFIRMATION, got %d %+v", rec.Code, body)
	}
	if n := len(h.fake.Receipts()); n != 1 {
		t.Errorf("a new token must not resubmit the old screen's attempt, got %d calls", n)
	}
}

func TestReceive_ClosedOrder(t *testing.T) {
	h := newHarness(t)
	o := h.fake.NewOrder(2, 10, 0)
	o.Status = core.StatusCancelled
	h.fake.Seed(o)

	rec := h.do(t, http.MethodPost, "/api/purchase-orders/2/receive", map[string]any{"quantity_received": 1, "fully_delivered": true})
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusConflict || body.Code != "RECEIVING_CLOSED" {
		t.Errorf("expected 409 RECEIVING_CLOSED, got %d %+v", rec.Code, body)
	}
}

func TestUpdatePurchaseOrder(t *testing.T) {
	h := newHarness(t)
	h.fake.NewOrder(4, 10, 0)

	rec := h.do(t, http.MethodPut, "/api/purchase-orders/4", map[string]string{
		"unit_cost":        "19.95",
		"quantity_ordered": "15",
		"status":           "Pending",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	stored, _ := h.fake.Order(4)
	if stored.QuantityOrdered != 15 || stored.UnitCost.String() != "19.95" {
		t.Errorf("update not applied: %+v", stored)
	}

	rec = h.do(t, http.MethodPut, "/api/purchase-orders/4", map[string]string{
		"unit_cost":        "19.95",
		"quantity_ordered": "15",
		"status":           "Lost",
	})
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusUnprocessableEntity || body.Field != "status" {
		t.Errorf("expected 422 on status, got %d %+v", rec.Code, body)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected caller request id to be kept, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces")
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got == "bad id with spaces" || got == "" {
		t.Errorf("expected unsafe request id to be replaced, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	fake := testutil.NewFakeAPI(t)
	svc := app.NewAppService(orderapi.NewClient(fake.URL, 5*time.Second), nil)
	handler := web.NewHandler(ctx, svc, session.NewParser(secret), "https://garage.local, https://yard.local")

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://yard.local", want: "https://yard.local"},
		{origin: "https://evil.local", want: ""},
		{origin: "", want: ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/purchase-orders/1/receive", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("origin %q: expected 204 preflight, got %d", tt.origin, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: allow-origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestRecoverer(t *testing.T) {
	handler := web.RequestID(web.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("screen store corrupted")
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/purchase-orders/1", nil))

	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusInternalServerError || body.Code != "INTERNAL_ERROR" || body.RequestID == "" {
		t.Errorf("expected 500 INTERNAL_ERROR with a request id, got %d %+v", rec.Code, body)
	}
}
