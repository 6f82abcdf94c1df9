package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"garage-portal/internal/adapters/cli"
	"garage-portal/internal/app"
	"garage-portal/internal/core"
	"garage-portal/internal/orderapi"
	"garage-portal/internal/testutil"

	"github.com/spf13/cobra"
)

func execute(t *testing.T, fake *testutil.FakeAPI, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	deps := &cli.Deps{
		Service: app.NewAppService(orderapi.NewClient(fake.URL, 5*time.Second), nil),
		Session: testutil.Session(t, 1),
		In:      strings.NewReader(stdin),
		Out:     &out,
	}
	root := cli.NewRootCommand(func(*cobra.Command) (*cli.Deps, error) { return deps, nil })
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShow(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.NewOrder(12, 40, 10)

	out, err := execute(t, fake, "", "show", "12")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "PURCHASE ORDER #12") || !strings.Contains(out, "Remaining: 30") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = execute(t, fake, "", "show", "12", "--json")
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	var view app.ReceivingView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, out)
	}
	if view.Progress.Percent != 25 {
		t.Errorf("expected 25%%, got %d", view.Progress.Percent)
	}
}

func TestReceive_YesConfirmsExtra(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	o := fake.NewOrder(9, 100, 100)
	o.Status = core.StatusPartiallyReceived
	fake.Seed(o)

	out, err := execute(t, fake, "", "receive", "9", "--qty", "1", "--full", "--yes")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !strings.Contains(out, "Confirmed by --yes.") || !strings.Contains(out, "Extra Received: 1") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if n := len(fake.Receipts()); n != 2 {
		t.Errorf("expected an unconfirmed and a confirmed attempt, got %d", n)
	}
}

func TestReceive_PromptDeclines(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	o := fake.NewOrder(9, 100, 100)
	o.Status = core.StatusPartiallyReceived
	fake.Seed(o)

	out, err := execute(t, fake, "n\n", "receive", "9", "--qty", "5", "--full")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !strings.Contains(out, "Extra quantity not recorded.") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if stored, _ := fake.Order(9); stored.ReceivedQty() != 100 {
		t.Errorf("declined receipt must not change the order, got %d received", stored.ReceivedQty())
	}
}

func TestReceive_ValidationError(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.NewOrder(3, 10, 0)

	_, err := execute(t, fake, "", "receive", "3", "--qty", "4")
	if !errors.Is(err, core.ErrMissingNextDeliveryDate) {
		t.Fatalf("expected ErrMissingNextDeliveryDate, got %v", err)
	}
	if n := len(fake.Receipts()); n != 0 {
		t.Errorf("expected no receive request, got %d", n)
	}
}

func TestUpdate_KeepsUnsetFields(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.NewOrder(4, 10, 0)

	if _, err := execute(t, fake, "", "update", "4", "--unit-cost", "30"); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := fake.Order(4)
	if stored.QuantityOrdered != 10 || stored.Status != core.StatusPending || stored.UnitCost.String() != "30" {
		t.Errorf("unexpected order after update: %+v", stored)
	}
}

func TestBadOrderID(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	if _, err := execute(t, fake, "", "show", "abc"); err == nil {
		t.Fatal("expected an error for a non-numeric id")
	}
}
