package tui

import (
	"context"
	"fmt"
	"io"

	"garage-portal/internal/core"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmKeys struct {
	Confirm key.Binding
	Cancel  key.Binding
}

var defaultConfirmKeys = confirmKeys{
	Confirm: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "record anyway")),
	Cancel:  key.NewBinding(key.WithKeys("n", "N", "esc", "q", "ctrl+c"), key.WithHelp("n/esc", "cancel")),
}

// confirmModel asks whether an over-delivery should be recorded.
// The server's counts and message are shown verbatim.
type confirmModel struct {
	extra     *core.ExtraQuantityError
	keys      confirmKeys
	answered  bool
	confirmed bool
}

func newConfirmModel(extra *core.ExtraQuantityError) confirmModel {
	return confirmModel{extra: extra, keys: defaultConfirmKeys}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.answered, m.confirmed = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Cancel):
		m.answered, m.confirmed = true, false
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	head := toneStyles[core.ToneWarning].Render("Extra quantity")
	counts := fmt.Sprintf("Ordered: %d    Would be received: %d    Extra: %d",
		m.extra.Ordered, m.extra.WouldBeReceived, m.extra.Extra())
	help := mutedStyle.Render(fmt.Sprintf("%s %s  •  %s %s",
		m.keys.Confirm.Help().Key, m.keys.Confirm.Help().Desc,
		m.keys.Cancel.Help().Key, m.keys.Cancel.Help().Desc))
	body := lipgloss.JoinVertical(lipgloss.Left, head, "", m.extra.Message, "", counts)
	return lipgloss.JoinVertical(lipgloss.Left, boxStyle.Render(body), help) + "\n"
}

// Confirmer shows the confirmation dialog as a bubbletea program.
type Confirmer struct {
	In  io.Reader
	Out io.Writer
}

// ConfirmExtraQuantity runs the dialog until the operator answers.
// An interrupted dialog counts as a decline.
func (c Confirmer) ConfirmExtraQuantity(ctx context.Context, extra *core.ExtraQuantityError) (bool, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.In != nil {
		opts = append(opts, tea.WithInput(c.In))
	}
	if c.Out != nil {
		opts = append(opts, tea.WithOutput(c.Out))
	}

	final, err := tea.NewProgram(newConfirmModel(extra), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation dialog: %w", err)
	}
	m, ok := final.(confirmModel)
	return ok && m.confirmed, nil
}
