// Package tui implements the terminal configuration form.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// TerminalConfigUI implements domain.ConfigUI with a Bubble Tea program.
type TerminalConfigUI struct {
	lister   domain.DeviceLister
	fsm      domain.FileSystemManager
	in       *os.File
	out      *os.File
	terminal func(fd int) bool
	run      func(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error)
}

// NewTerminalConfigUI creates a form bound to the process's stdin and stdout.
func NewTerminalConfigUI(lister domain.DeviceLister, fsm domain.FileSystemManager) *TerminalConfigUI {
	return &TerminalConfigUI{
		lister:   lister,
		fsm:      fsm,
		in:       os.Stdin,
		out:      os.Stdout,
		terminal: term.IsTerminal,
		run:      runProgram,
	}
}

// Present implements domain.ConfigUI.
func (u *TerminalConfigUI) Present(ctx context.Context, existing *domain.AgentConfiguration) (domain.UIOutcome, *domain.AgentConfiguration, error) {
	if !u.terminal(int(u.in.Fd())) || !u.terminal(int(u.out.Fd())) {
		return domain.UICancelled, nil, fmt.Errorf("%w: run ebagent from a terminal", domain.ErrNoTerminal)
	}

	final, err := u.run(NewModel(ctx, u.lister, u.fsm, existing),
		tea.WithContext(ctx),
		tea.WithInput(io.Reader(u.in)),
		tea.WithOutput(io.Writer(u.out)),
		tea.WithAltScreen(),
	)
	if err != nil {
		return domain.UICancelled, nil, fmt.Errorf("run configuration form: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return domain.UICancelled, nil, errNotModel
	}
	outcome, cfg := m.Outcome()
	return outcome, cfg, nil
}

func runProgram(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	return tea.NewProgram(m, opts...).Run()
}

// Ensure TerminalConfigUI implements domain.ConfigUI.
var _ domain.ConfigUI = (*TerminalConfigUI)(nil)
