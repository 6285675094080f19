// Package tui is the terminal interface for running claims interactively:
// pick an account, answer the captcha, watch the run progress.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfo-tools/mfo-claim/internal/captcha"
	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/runner"
)

// maxLogLines bounds the on-screen event log
const maxLogLines = 100

// History is the slice of the run store the TUI reads
type History interface {
	ListRuns(limit int) ([]*domain.Run, error)
}

// Model is the TUI application model
type Model struct {
	runner  *runner.Runner
	gate    *captcha.Gate
	history History

	// Data
	accounts []domain.Account
	runs     []*domain.Run
	logLines []string

	// Run state
	stage   domain.Stage
	running bool

	// Captcha
	captchaFile  string
	captchaReady bool
	answer       string

	// UI state
	width       int
	height      int
	activeTab   int
	selectedRow int
	statusMsg   string

	lastRefresh time.Time
}

// ModelConfig holds initial data for the TUI model
type ModelConfig struct {
	Runner      *runner.Runner
	Gate        *captcha.Gate
	History     History
	Accounts    []domain.Account
	CaptchaFile string
}

// NewModel creates a new TUI model
func NewModel(cfg ModelConfig) Model {
	m := Model{
		runner:      cfg.Runner,
		gate:        cfg.Gate,
		history:     cfg.History,
		accounts:    cfg.Accounts,
		captchaFile: cfg.CaptchaFile,
		stage:       domain.StageIdle,
	}
	if cfg.History != nil {
		if runs, err := cfg.History.ListRuns(20); err == nil {
			m.runs = runs
		}
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCaptchaCmd(m.gate, m.captchaFile),
		waitForEventCmd(m.runner),
		tickCmd(),
	)
}

// TickMsg triggers a periodic refresh
type TickMsg time.Time

// RunEventMsg carries one progress event from the active run
type RunEventMsg domain.Event

// AccountsMsg carries a reloaded account listing
type AccountsMsg []domain.Account

// CaptchaMsg reports a captcha refresh attempt
type CaptchaMsg struct {
	Path string
	Err  error
}

// RunStartedMsg reports the outcome of a start attempt
type RunStartedMsg struct {
	RunID string
	Err   error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
