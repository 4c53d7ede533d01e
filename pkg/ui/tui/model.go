package tui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"pinscraper/pkg/models"
	runprogress "pinscraper/pkg/progress"
	"pinscraper/pkg/storage"
)

// Service is the part of the scrape service the TUI drives
type Service interface {
	Start(req models.Request) (string, error)
	Stop() error
	Subscribe() (<-chan runprogress.Snapshot, func())
}

type screen int

const (
	screenForm screen = iota
	screenRun
	screenResults
)

// form fields in focus order
const (
	fieldQuery = iota
	fieldImages
	fieldFolder
	fieldQuality
	fieldHeadless
	numFields
)

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model represents the TUI model
type Model struct {
	svc        Service
	defaults   models.FormDefaults
	maxScrolls int

	screen screen

	// Form
	inputs     []textinput.Model
	focus      int
	qualityIdx int
	headless   bool
	formErr    string

	// Run
	spinner     spinner.Model
	bar         progress.Model
	runID       string
	destination string
	snap        runprogress.Snapshot
	updates     <-chan runprogress.Snapshot
	unsubscribe func()
	startTime   time.Time

	// Results
	results    []storage.FileInfo
	resultsErr string

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// NewModel creates a model showing the search form filled with defaults.
// maxScrolls overrides the scroll ceiling for runs started here.
func NewModel(svc Service, defaults models.FormDefaults, maxScrolls int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(pinRed)

	bar := progress.New(progress.WithGradient(string(softRed), string(pinRed)))
	bar.Width = 40

	m := Model{
		svc:            svc,
		defaults:       defaults,
		maxScrolls:     maxScrolls,
		spinner:        s,
		bar:            bar,
		headless:       defaults.Headless,
		maxLogMessages: 50,
	}

	m.inputs = make([]textinput.Model, fieldQuality)
	for i := range m.inputs {
		ti := textinput.New()
		ti.Cursor.Style = lipgloss.NewStyle().Foreground(pinRed)
		switch i {
		case fieldQuery:
			ti.Placeholder = "mountain cabins"
			ti.CharLimit = 120
		case fieldImages:
			ti.SetValue(strconv.Itoa(defaults.NumImages))
			ti.CharLimit = 3
		case fieldFolder:
			ti.SetValue(defaults.Folder)
			ti.CharLimit = 255
		}
		m.inputs[i] = ti
	}
	m.inputs[fieldQuery].Focus()

	for i, q := range models.QualityPresets {
		if q.String() == defaults.Quality {
			m.qualityIdx = i
		}
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// quality returns the selected quality preset
func (m *Model) quality() models.Quality {
	return models.QualityPresets[m.qualityIdx]
}

// cycleQuality steps through the quality presets
func (m *Model) cycleQuality(delta int) {
	n := len(models.QualityPresets)
	m.qualityIdx = ((m.qualityIdx+delta)%n + n) % n
}

func qualityLabels() []string {
	labels := make([]string, len(models.QualityPresets))
	for i, q := range models.QualityPresets {
		labels[i] = fmt.Sprintf("%s %s", q.Label, q)
	}
	return labels
}

// form collects the form fields the way the web page would submit them
func (m *Model) form() models.ScrapeForm {
	folder := m.inputs[fieldFolder].Value()
	headless := m.headless
	return models.ScrapeForm{
		SearchQuery:  m.inputs[fieldQuery].Value(),
		NumImages:    json.Number(m.inputs[fieldImages].Value()),
		FolderName:   &folder,
		ImageQuality: m.quality().String(),
		Headless:     &headless,
	}
}

// setFocus moves the focus to field i, wrapping around
func (m *Model) setFocus(i int) {
	m.focus = (i + numFields) % numFields
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// percent is the run's completion as a fraction for the progress bar
func (m *Model) percent() float64 {
	return float64(runprogress.Percentage(m.snap.Current, m.snap.Total)) / 100
}

// totalSize sums the sizes of the listed results
func (m *Model) totalSize() int64 {
	var total int64
	for _, f := range m.results {
		total += f.Size
	}
	return total
}
