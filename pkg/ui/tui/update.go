package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"pinscraper/pkg/errors"
	runprogress "pinscraper/pkg/progress"
	"pinscraper/pkg/storage"
)

// Message types for the TUI

// SnapshotMsg carries a progress update of the current run
type SnapshotMsg runprogress.Snapshot

// updatesClosedMsg is sent when the progress subscription ends
type updatesClosedMsg struct{}

// ResultsMsg carries the listing of the run's destination folder
type ResultsMsg struct {
	Files []storage.FileInfo
	Err   error
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(60, max(20, msg.Width-20))
		return m, nil

	case spinner.TickMsg:
		if m.screen != screenRun {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		return m.handleSnapshot(runprogress.Snapshot(msg))

	case updatesClosedMsg:
		m.updates = nil
		return m, nil

	case ResultsMsg:
		m.results = msg.Files
		m.resultsErr = ""
		if msg.Err != nil {
			m.resultsErr = msg.Err.Error()
		}
		return m, nil

	}

	if m.screen == screenForm {
		return m.updateInputs(msg)
	}
	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.stopRun()
		return m, tea.Quit
	}

	switch m.screen {
	case screenForm:
		return m.handleFormKey(msg)
	case screenRun:
		switch msg.String() {
		case "s", "S":
			m.stopRun()
		case "?":
			m.showHelp = !m.showHelp
		case "ctrl+l":
			m.logMessages = nil
		}
		return m, nil
	default:
		switch msg.String() {
		case "q", "Q", "esc":
			return m, tea.Quit
		case "n", "N", "enter":
			m.screen = screenForm
			m.formErr = ""
			m.setFocus(fieldQuery)
			return m, textinput.Blink
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil
	}
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil
	case "enter":
		return m.submit()
	}

	switch m.focus {
	case fieldQuality:
		switch msg.String() {
		case "left", "h":
			m.cycleQuality(-1)
		case "right", "l", " ":
			m.cycleQuality(1)
		}
		return m, nil
	case fieldHeadless:
		switch msg.String() {
		case " ", "left", "right", "h", "l":
			m.headless = !m.headless
		}
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

// submit validates the form and starts a run
func (m *Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.form().Resolve(m.defaults)
	if err != nil {
		m.formErr = errors.Reason(err)
		return m, nil
	}
	if m.maxScrolls > 0 {
		req.MaxScrolls = m.maxScrolls
	}

	runID, err := m.svc.Start(req)
	if err != nil {
		m.formErr = errors.Reason(err)
		return m, nil
	}

	m.formErr = ""
	m.runID = runID
	m.destination = req.Destination
	m.snap = runprogress.Snapshot{Status: runprogress.StatusStarting, Query: req.Query, Total: req.TargetCount}
	m.results = nil
	m.resultsErr = ""
	m.logMessages = nil
	m.startTime = time.Now()
	m.screen = screenRun
	m.AddLogMessage("INFO", fmt.Sprintf("Started run %s for '%s'", shortID(runID), req.Query))

	m.updates, m.unsubscribe = m.svc.Subscribe()
	return m, tea.Batch(m.spinner.Tick, waitForSnapshot(m.updates))
}

// handleSnapshot applies a progress update and keeps listening until the
// run ends
func (m *Model) handleSnapshot(snap runprogress.Snapshot) (tea.Model, tea.Cmd) {
	if m.screen != screenRun || (m.runID != "" && snap.RunID != "" && snap.RunID != m.runID) {
		return m, waitForSnapshot(m.updates)
	}

	if snap.Message != "" && snap.Message != m.snap.Message {
		m.AddLogMessage(logLevel(snap.Status), snap.Message)
	}
	m.snap = snap

	if !snap.Status.Terminal() {
		return m, waitForSnapshot(m.updates)
	}

	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.updates = nil
	m.screen = screenResults
	return m, loadResults(m.destination)
}

// stopRun asks the service to stop the current run, if any
func (m *Model) stopRun() {
	if m.screen != screenRun {
		return
	}
	if err := m.svc.Stop(); err == nil {
		m.AddLogMessage("WARN", "Stopping...")
	}
}

// Commands

// waitForSnapshot returns a command that delivers the next progress update
func waitForSnapshot(updates <-chan runprogress.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return SnapshotMsg(snap)
	}
}

// loadResults returns a command listing the images in dir
func loadResults(dir string) tea.Cmd {
	return func() tea.Msg {
		files, err := storage.List(dir)
		return ResultsMsg{Files: files, Err: err}
	}
}

func logLevel(status runprogress.Status) string {
	switch status {
	case runprogress.StatusCompleted:
		return "SUCCESS"
	case runprogress.StatusError:
		return "ERROR"
	case runprogress.StatusStopped:
		return "WARN"
	default:
		return "INFO"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
