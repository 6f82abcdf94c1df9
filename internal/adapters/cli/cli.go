package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"garage-portal/internal/adapters/repl"
	"garage-portal/internal/adapters/tui"
	"garage-portal/internal/app"
	"garage-portal/internal/core"
	"garage-portal/internal/logger"
	"garage-portal/internal/session"

	"github.com/spf13/cobra"
)

// Deps is what the commands need at run time.
type Deps struct {
	Service app.ApplicationService
	Session *session.Session
	In      io.Reader
	Out     io.Writer
}

// Loader builds Deps once flags are parsed, so --help works without configuration.
type Loader func(cmd *cobra.Command) (*Deps, error)

// NewRootCommand returns the operator CLI. Without a subcommand it starts the
// interactive receiving session.
func NewRootCommand(load Loader) *cobra.Command {
	root := &cobra.Command{
		Use:   "garage",
		Short: "Purchase order receiving for the garage back office",
		Long: `Record deliveries against purchase orders and keep order details current.

Run without a subcommand for an interactive session.

Required configuration (environment or garage.yaml):
  API_BASE_URL - base URL of the order-management API
  API_TOKEN    - operator session token`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := load(cmd)
			if err != nil {
				return err
			}
			repl.Run(cmd.Context(), d.Service, d.Session, bufio.NewReader(d.In), d.Out, nil)
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file (default: ./garage.yaml if present)")

	root.AddCommand(newShowCommand(load), newReceiveCommand(load), newUpdateCommand(load))
	return root
}

func parseOrderID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid purchase order id %q", arg)
	}
	return id, nil
}

func newShowCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show a purchase order with its receiving progress",
		Example: `  garage show 42
  garage show 42 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			d, err := load(cmd)
			if err != nil {
				return err
			}
			view, err := d.Service.GetPurchaseOrder(cmd.Context(), d.Session, id)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(d.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			repl.PrintView(d.Out, *view)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the receiving view as JSON")
	return cmd
}

func newReceiveCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive <order-id>",
		Short: "Record a delivery against a purchase order",
		Long: `Record a delivery against a purchase order.

A partial delivery needs --next-date. When the delivery would take the order
past its ordered quantity you are asked to confirm; --yes confirms up front and
--tui asks in a full-screen dialog.`,
		Example: `  garage receive 42 --qty 20 --next-date 2025-07-01
  garage receive 42 --qty 30 --full --notes "last pallet"
  garage receive 42 --qty 1 --full --yes`,
		Args: cobra.ExactArgs(1),
		RunE: runReceive(load),
	}
	cmd.Flags().String("qty", "", "Quantity received in this delivery")
	cmd.Flags().Bool("full", false, "The order is fully delivered")
	cmd.Flags().String("notes", "", "Delivery notes")
	cmd.Flags().String("next-date", "", "Promised date for the remaining quantity (YYYY-MM-DD)")
	cmd.Flags().BoolP("yes", "y", false, "Confirm an extra quantity without asking")
	cmd.Flags().Bool("tui", false, "Ask for extra-quantity confirmation in a terminal dialog")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func runReceive(load Loader) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("cli")

		id, err := parseOrderID(args[0])
		if err != nil {
			return err
		}
		qty, _ := cmd.Flags().GetString("qty")
		full, _ := cmd.Flags().GetBool("full")
		notes, _ := cmd.Flags().GetString("notes")
		nextDate, _ := cmd.Flags().GetString("next-date")
		yes, _ := cmd.Flags().GetBool("yes")
		useTUI, _ := cmd.Flags().GetBool("tui")

		d, err := load(cmd)
		if err != nil {
			return err
		}

		var confirmer app.Confirmer
		switch {
		case yes:
			confirmer = app.ConfirmFunc(func(_ context.Context, extra *core.ExtraQuantityError) (bool, error) {
				fmt.Fprintf(d.Out, "%s\nConfirmed by --yes.\n", extra.Message)
				return true, nil
			})
		case useTUI:
			confirmer = tui.Confirmer{In: d.In, Out: d.Out}
		default:
			confirmer = repl.NewPromptConfirmer(bufio.NewReader(d.In), d.Out)
		}

		form := core.ReceiptForm{Quantity: qty, FullyDelivered: full, Notes: notes, NextDeliveryDate: nextDate}
		result, err := d.Service.SubmitReceipt(cmd.Context(), d.Session, id, form, confirmer)
		if errors.Is(err, app.ErrExtraDeclined) {
			fmt.Fprintln(d.Out, "Extra quantity not recorded.")
			return nil
		}
		if err != nil {
			return err
		}

		log.Info().
			Int("order_id", id).
			Int("quantity", result.Delivery.Quantity).
			Bool("confirmed_extra", result.Confirmed).
			Msg("receipt submitted")
		repl.PrintReceipt(d.Out, result)
		return nil
	}
}

func newUpdateCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <order-id>",
		Short: "Edit expected delivery date, unit cost, quantity ordered or status",
		Long: `Edit the general fields of a purchase order. Flags that are not given keep
their current value. Pass --expected-date "" to clear the expected date.`,
		Example: `  garage update 42 --unit-cost 31.25
  garage update 42 --status Cancelled`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			d, err := load(cmd)
			if err != nil {
				return err
			}

			current, err := d.Service.GetPurchaseOrder(cmd.Context(), d.Session, id)
			if err != nil {
				return err
			}
			req := currentRequest(current.Order)
			flags := cmd.Flags()
			if flags.Changed("expected-date") {
				req.ExpectedDeliveryDate, _ = flags.GetString("expected-date")
			}
			if flags.Changed("unit-cost") {
				req.UnitCost, _ = flags.GetString("unit-cost")
			}
			if flags.Changed("qty") {
				req.QuantityOrdered, _ = flags.GetString("qty")
			}
			if flags.Changed("status") {
				req.Status, _ = flags.GetString("status")
			}

			view, err := d.Service.UpdatePurchaseOrder(cmd.Context(), d.Session, id, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(d.Out, "Purchase order updated.")
			repl.PrintView(d.Out, *view)
			return nil
		},
	}
	cmd.Flags().String("expected-date", "", "Expected delivery date (YYYY-MM-DD)")
	cmd.Flags().String("unit-cost", "", "Unit cost, greater than zero")
	cmd.Flags().String("qty", "", "Quantity ordered, at least 1")
	cmd.Flags().String("status", "", "Pending, Partially Received, Received or Cancelled")
	return cmd
}

func currentRequest(o *core.PurchaseOrder) app.UpdateOrderRequest {
	req := app.UpdateOrderRequest{
		UnitCost:        o.UnitCost.String(),
		QuantityOrdered: strconv.Itoa(o.QuantityOrdered),
		Status:          string(o.Status),
	}
	if o.ExpectedDeliveryDate != nil {
		req.ExpectedDeliveryDate = core.DateOnly(*o.ExpectedDeliveryDate)
	}
	return req
}
