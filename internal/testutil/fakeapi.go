// Package testutil provides an in-memory stand-in for the order-management API
// and token helpers for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"garage-portal/internal/core"
	"garage-portal/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

// FakeAPI mimics the receiving rules of the order API: over-delivery needs
// confirm_extra_quantity, and a receipt that completes the order (or is marked
// fully delivered) moves it to Received and clears the next delivery date.
type FakeAPI struct {
	URL string

	mu       sync.Mutex
	orders   map[int]*core.PurchaseOrder
	receipts []core.ReceiptPayload
	gets     int
	failures map[string]failure
}

type failure struct {
	status  int
	message string
}

// NewFakeAPI starts the fake on an httptest server that is closed with the test.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		orders:   make(map[int]*core.PurchaseOrder),
		failures: make(map[string]failure),
	}

	r := chi.NewRouter()
	r.Use(f.requireBearer)
	r.Get("/purchase_orders/{id}", f.getOrder)
	r.Put("/purchase_orders/{id}", f.updateOrder)
	r.Post("/purchase_orders/{id}/receive", f.receive)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	f.URL = srv.URL
	return f
}

// Seed stores a copy of o.
func (f *FakeAPI) Seed(o core.PurchaseOrder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := o
	f.orders[o.OrderID] = &cp
}

// NewOrder seeds a Pending order with the given quantities and returns it.
func (f *FakeAPI) NewOrder(id, ordered, received int) core.PurchaseOrder {
	o := core.PurchaseOrder{
		OrderID:         id,
		PartName:        "Brake pads (front)",
		Supplier:        "Acme Parts",
		QuantityOrdered: ordered,
		UnitCost:        decimal.RequireFromString("24.90"),
		Status:          core.StatusPending,
	}
	if received > 0 {
		o.QuantityReceived = &received
		o.Status = core.StatusPartiallyReceived
		if received >= ordered {
			o.Status = core.StatusReceived
		}
	}
	f.Seed(o)
	return o
}

// Order returns a copy of the stored order.
func (f *FakeAPI) Order(id int) (core.PurchaseOrder, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return core.PurchaseOrder{}, false
	}
	return *o, true
}

// Receipts returns every receive payload the fake has seen, in order.
func (f *FakeAPI) Receipts() []core.ReceiptPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.ReceiptPayload(nil), f.receipts...)
}

// Gets returns how many GET requests were served.
func (f *FakeAPI) Gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

// FailNext makes the next request with the given method ("GET", "PUT", "POST")
// answer with status and {"error": message}.
func (f *FakeAPI) FailNext(method string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = failure{status: status, message: message}
}

func (f *FakeAPI) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		f.mu.Lock()
		fail, ok := f.failures[r.Method]
		delete(f.failures, r.Method)
		f.mu.Unlock()
		if ok {
			writeJSON(w, fail.status, map[string]any{"error": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) lookup(w http.ResponseWriter, r *http.Request) (*core.PurchaseOrder, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid order id"})
		return nil, false
	}
	o, ok := f.orders[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Purchase order not found"})
		return nil, false
	}
	return o, true
}

func (f *FakeAPI) getOrder(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	o, ok := f.lookup(w, r)
	if !ok {
		return
	}
	out := *o
	remaining := out.QuantityOrdered - out.ReceivedQty()
	out.Remaining = &remaining
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) updateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExpectedDeliveryDate *string          `json:"expected_delivery_date"`
		UnitCost             decimal.Decimal  `json:"unit_cost"`
		QuantityOrdered      int              `json:"quantity_ordered"`
		Status               core.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.lookup(w, r)
	if !ok {
		return
	}
	o.ExpectedDeliveryDate = body.ExpectedDeliveryDate
	o.UnitCost = body.UnitCost
	o.QuantityOrdered = body.QuantityOrdered
	o.Status = body.Status
	writeJSON(w, http.StatusOK, o)
}

func (f *FakeAPI) receive(w http.ResponseWriter, r *http.Request) {
	var p core.ReceiptPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, p)
	o, ok := f.lookup(w, r)
	if !ok {
		return
	}
	if !o.CanReceive() {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("Order is %s", o.Status)})
		return
	}
	if p.QuantityReceived <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Quantity received must be positive"})
		return
	}

	total := o.ReceivedQty() + p.QuantityReceived
	if total > o.QuantityOrdered && !p.ConfirmExtraQuantity {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "extra_quantity",
			"ordered":           o.QuantityOrdered,
			"would_be_received": total,
			"message":           fmt.Sprintf("Receiving %d would bring the total to %d, more than the %d ordered. Confirm to continue.", p.QuantityReceived, total, o.QuantityOrdered),
		})
		return
	}

	o.QuantityReceived = &total
	if p.FullyDelivered || total >= o.QuantityOrdered {
		o.Status = core.StatusReceived
		o.NextDeliveryDate = nil
	} else {
		o.Status = core.StatusPartiallyReceived
		o.NextDeliveryDate = p.NextDeliveryDate
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Delivery recorded successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Token signs an HS256 operator token that expires after ttl.
func Token(t *testing.T, secret string, userID int, ttl time.Duration) string {
	t.Helper()
	claims := session.Claims{
		UserID:   userID,
		Username: fmt.Sprintf("operator-%d", userID),
		Role:     "storekeeper",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Session returns a parsed session for a fresh token.
func Session(t *testing.T, userID int) *session.Session {
	t.Helper()
	s, err := session.NewParser("").Parse(Token(t, "test-secret", userID, time.Hour))
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	return s
}
