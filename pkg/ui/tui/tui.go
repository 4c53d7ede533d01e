package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"pinscraper/pkg/models"
)

// TUI represents the terminal user interface
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a TUI driving svc. Runs started from it use maxScrolls as
// their scroll ceiling. opts are passed to the bubbletea program after the
// alternate screen option.
func NewTUI(svc Service, defaults models.FormDefaults, maxScrolls int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(svc, defaults, maxScrolls)
	program := tea.NewProgram(&model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the TUI until the user quits or Stop is called. A run still in
// progress is asked to stop on the way out.
func (t *TUI) Start() error {
	_, err := t.program.Run()
	t.model.stopRun()
	return err
}

// Stop makes Start return. Safe to call from any goroutine.
func (t *TUI) Stop() {
	t.program.Quit()
}
