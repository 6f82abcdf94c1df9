package repl

import (
	"fmt"
	"io"
	"strings"

	"garage-portal/internal/adapters/tui"
	"garage-portal/internal/app"
	"garage-portal/internal/core"
)

// PrintView renders a receiving screen as a fixed-width table.
func PrintView(out io.Writer, v app.ReceivingView) {
	o := v.Order
	if o == nil {
		fmt.Fprintln(out, "No order loaded.")
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %s\n", tui.Title(fmt.Sprintf("PURCHASE ORDER #%d  %s", o.OrderID, o.PartName)))
	fmt.Fprintf(out, "  Supplier    : %s\n", o.Supplier)
	fmt.Fprintf(out, "  Status      : %s\n", o.Status)

	expected := "-"
	if o.ExpectedDeliveryDate != nil && *o.ExpectedDeliveryDate != "" {
		expected = *o.ExpectedDeliveryDate
	}
	fmt.Fprintf(out, "  Expected    : %s (%s)\n", expected, tui.Tone(v.DeliveryTone, string(v.DeliveryStatus)))
	if v.NextDeliveryDateVisible {
		fmt.Fprintf(out, "  Next deliv. : %s\n", *o.NextDeliveryDate)
	}
	fmt.Fprintf(out, "  Unit cost   : %s    Order value: %s\n", o.UnitCost.StringFixed(2), o.OrderValue().StringFixed(2))
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  Ordered %-6d Received %-6d %s\n", v.Progress.Ordered, v.Progress.Received, v.RemainingLabel)
	fmt.Fprintf(out, "  %s\n", tui.ProgressBar(v.Progress, 40))

	if len(v.Deliveries) > 0 {
		fmt.Fprintln(out, strings.Repeat("-", 62))
		fmt.Fprintf(out, "  %-12s %6s  %s\n", "DATE", "QTY", "NOTES")
		for _, d := range v.Deliveries {
			fmt.Fprintf(out, "  %-12s %6d  %s\n", d.Date, d.Quantity, d.Notes)
		}
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))

	if !v.ReceivingFormVisible {
		fmt.Fprintln(out, tui.Muted(fmt.Sprintf("  Receiving is closed for %s orders.", o.Status)))
	}
	if v.Pending != nil {
		fmt.Fprintln(out, tui.Tone(core.ToneWarning, fmt.Sprintf("  Awaiting confirmation: %s", v.Pending.Message)))
	}
}

// PrintReceipt reports a recorded delivery and the refreshed order.
func PrintReceipt(out io.Writer, r *app.ReceiptResult) {
	fmt.Fprintf(out, "\n%s\n", r.Message)
	fmt.Fprintf(out, "Recorded %d on %s", r.Delivery.Quantity, r.Delivery.Date)
	if r.Confirmed {
		fmt.Fprint(out, " (extra quantity confirmed)")
	}
	fmt.Fprintln(out)
	if r.RefreshErr != nil {
		fmt.Fprintf(out, "Warning: the order could not be refreshed (%v). Use /reload.\n", r.RefreshErr)
	}
	PrintView(out, r.View)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Commands:
  <order-id>        Open a purchase order (same as /open)
  /open <order-id>  Open a purchase order
  /show             Show the open order
  /reload           Re-fetch the open order
  /receive          Record a delivery against the open order
  /update           Edit expected date, unit cost, quantity and status
  /help             Show this help
  /quit             Exit`)
}
