package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"garage-portal/internal/app"
	"garage-portal/internal/core"
)

// PromptConfirmer asks extra-quantity questions on a line-oriented terminal.
type PromptConfirmer struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPromptConfirmer returns a Confirmer that reads answers from reader.
func NewPromptConfirmer(reader *bufio.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{reader: reader, out: out}
}

// ConfirmExtraQuantity shows the server's message and counts and asks for a y/N answer.
func (c *PromptConfirmer) ConfirmExtraQuantity(_ context.Context, extra *core.ExtraQuantityError) (bool, error) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, extra.Message)
	fmt.Fprintf(c.out, "  Ordered: %d   Would be received: %d   Extra: %d\n", extra.Ordered, extra.WouldBeReceived, extra.Extra())
	return askYesNo(c.reader, c.out, "Record the extra quantity?", false), nil
}

func prompt(reader *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	raw, _ := reader.ReadString('\n')
	return strings.TrimSpace(raw)
}

// handleReceive runs the receiving form for the open order.
func handleReceive(ctx context.Context, reader *bufio.Reader, out io.Writer, screen *app.ReceivingScreen, confirmer app.Confirmer) error {
	v := screen.View()
	if !v.ReceivingFormVisible {
		fmt.Fprintf(out, "Order #%d is %s; receiving is closed.\n", screen.OrderID(), v.Order.Status)
		return nil
	}

	var form core.ReceiptForm
	form.Quantity = prompt(reader, out, "  Quantity received: ")
	form.FullyDelivered = askYesNo(reader, out, "  Fully delivered?", false)
	form.Notes = prompt(reader, out, "  Notes (optional): ")
	if !form.FullyDelivered {
		form.NextDeliveryDate = prompt(reader, out, "  Next delivery date (YYYY-MM-DD): ")
	}
	screen.SetForm(form)

	result, err := screen.Submit(ctx)
	var extra *core.ExtraQuantityError
	if errors.As(err, &extra) {
		ok, cerr := confirmer.ConfirmExtraQuantity(ctx, extra)
		if cerr != nil || !ok {
			screen.CancelExtra()
			if cerr != nil {
				return cerr
			}
			fmt.Fprintln(out, "Extra quantity not recorded.")
			return nil
		}
		result, err = screen.ConfirmExtra(ctx)
	}
	if err != nil {
		return err
	}

	PrintReceipt(out, result)
	return nil
}

// handleUpdate edits the general order fields. Empty input keeps the current value.
func handleUpdate(ctx context.Context, reader *bufio.Reader, out io.Writer, screen *app.ReceivingScreen) error {
	o := screen.View().Order
	if o == nil {
		return app.ErrNotLoaded
	}

	expected := ""
	if o.ExpectedDeliveryDate != nil {
		expected = core.DateOnly(*o.ExpectedDeliveryDate)
	}
	keep := func(label, current string) string {
		if v := prompt(reader, out, fmt.Sprintf("  %s [%s]: ", label, current)); v != "" {
			return v
		}
		return current
	}

	req := app.UpdateOrderRequest{
		ExpectedDeliveryDate: keep("Expected delivery date", expected),
		UnitCost:             keep("Unit cost", o.UnitCost.StringFixed(2)),
		QuantityOrdered:      keep("Quantity ordered", strconv.Itoa(o.QuantityOrdered)),
		Status:               keep("Status", string(o.Status)),
	}
	if req.ExpectedDeliveryDate == "-" {
		req.ExpectedDeliveryDate = ""
	}

	u, err := req.ToUpdate()
	if err != nil {
		return err
	}
	view, err := screen.Update(ctx, u)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Purchase order updated.")
	PrintView(out, view)
	return nil
}
