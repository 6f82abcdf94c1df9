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
	"garage-portal/internal/session"
)

// Run starts the interactive receiving session.
// It reads commands from reader and writes everything to out. A nil confirmer
// asks extra-quantity questions on the same reader.
func Run(ctx context.Context, svc app.ApplicationService, sess *session.Session, reader *bufio.Reader, out io.Writer, confirmer app.Confirmer) {
	if confirmer == nil {
		confirmer = NewPromptConfirmer(reader, out)
	}

	fmt.Fprintln(out, "Purchase Order Receiving")
	fmt.Fprintf(out, "Operator: %s (%s)\n", sess.Claims.Username, sess.Claims.Role)
	fmt.Fprintln(out, "Enter an order number to open it, or use /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	errExit := errors.New("exit")
	var screen *app.ReceivingScreen

	open := func(arg string) error {
		id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
		if err != nil || id <= 0 {
			fmt.Fprintf(out, "Invalid order number: %s\n", arg)
			return nil
		}
		sc, err := openWithRetry(ctx, svc, sess, id, reader, out)
		if err != nil {
			return err
		}
		if sc != nil {
			screen = sc
			PrintView(out, screen.View())
		}
		return nil
	}

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "open", "o":
			if len(args) < 1 {
				fmt.Fprintln(out, "Usage: /open <order-id>")
				return nil
			}
			return open(args[0])

		case "show", "s":
			if screen == nil {
				fmt.Fprintln(out, "No order open. Use /open <order-id>.")
				return nil
			}
			PrintView(out, screen.View())

		case "reload", "r":
			if screen == nil {
				fmt.Fprintln(out, "No order open. Use /open <order-id>.")
				return nil
			}
			if ok, err := reloadWithRetry(ctx, screen, reader, out); err != nil || !ok {
				return err
			}
			PrintView(out, screen.View())

		case "receive", "rcv":
			if screen == nil {
				fmt.Fprintln(out, "No order open. Use /open <order-id>.")
				return nil
			}
			return handleReceive(ctx, reader, out, screen, confirmer)

		case "update", "u":
			if screen == nil {
				fmt.Fprintln(out, "No order open. Use /open <order-id>.")
				return nil
			}
			return handleUpdate(ctx, reader, out, screen)

		case "help", "h":
			printHelp(out)

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Fprintf(out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			continue
		}

		var dispErr error
		if strings.HasPrefix(input, "/") {
			dispErr = dispatchSlash(input)
		} else {
			dispErr = open(input)
		}
		if dispErr != nil {
			if dispErr == errExit {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error: %s\n", describe(dispErr))
		}
		if err != nil {
			fmt.Fprintln(out, "\nGoodbye!")
			return
		}
	}
}

// openWithRetry opens an order, offering a manual retry when the fetch fails.
// It returns a nil screen when the operator gives up or the order does not exist.
func openWithRetry(ctx context.Context, svc app.ApplicationService, sess *session.Session, id int, reader *bufio.Reader, out io.Writer) (*app.ReceivingScreen, error) {
	for {
		sc, err := svc.OpenScreen(ctx, sess, id)
		if err == nil {
			return sc, nil
		}
		var le *app.LoadError
		if !errors.As(err, &le) {
			return nil, err
		}
		var apiErr *core.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			fmt.Fprintf(out, "Purchase order %d not found.\n", id)
			return nil, nil
		}
		fmt.Fprintf(out, "Error: %v\n", le)
		if !askYesNo(reader, out, "Try again?", true) {
			return nil, nil
		}
	}
}

// reloadWithRetry re-fetches the open order, offering a manual retry on failure.
func reloadWithRetry(ctx context.Context, screen *app.ReceivingScreen, reader *bufio.Reader, out io.Writer) (bool, error) {
	for {
		err := screen.Reload(ctx)
		if err == nil {
			return true, nil
		}
		var le *app.LoadError
		if !errors.As(err, &le) {
			return false, err
		}
		fmt.Fprintf(out, "Error: %v\n", le)
		if !askYesNo(reader, out, "Try again?", true) {
			return false, nil
		}
	}
}

// describe renders an error for the operator. Server messages are shown as sent.
func describe(err error) string {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve.Err.Error()
	}
	if errors.Is(err, session.ErrExpired) {
		return "your session has expired; sign in again"
	}
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// askYesNo prompts until it reads an answer. Empty input and EOF take the default.
func askYesNo(reader *bufio.Reader, out io.Writer, question string, def bool) bool {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(out, "%s %s: ", question, hint)
		raw, err := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		case "":
			return def
		}
		if err != nil {
			return def
		}
		fmt.Fprintln(out, "Please answer y or n.")
	}
}
