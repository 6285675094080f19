package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfo-tools/mfo-claim/internal/captcha"
	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/runner"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.running = m.runner != nil && m.runner.Running()
		m.lastRefresh = time.Time(msg)
		return m, tickCmd()

	case RunEventMsg:
		event := domain.Event(msg)
		m.stage = event.Stage
		m.appendLog(event)
		if event.Stage.Terminal() {
			m.running = false
			m.reloadRuns()
		}
		return m, waitForEventCmd(m.runner)

	case CaptchaMsg:
		if msg.Err != nil {
			m.captchaReady = false
			m.statusMsg = "captcha refresh failed: " + msg.Err.Error()
		} else {
			m.captchaReady = true
			m.statusMsg = "captcha saved to " + msg.Path
		}
		return m, nil

	case AccountsMsg:
		m.SetAccounts([]domain.Account(msg))
		return m, nil

	case RunStartedMsg:
		if msg.Err != nil {
			m.statusMsg = "cannot start: " + msg.Err.Error()
		} else {
			m.running = true
			m.statusMsg = "run started"
			m.logLines = nil
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab":
		m.activeTab = (m.activeTab + 1) % 2
		m.selectedRow = 0
		return m, nil

	case "up":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
		return m, nil

	case "down":
		limit := len(m.accounts)
		if m.activeTab == 1 {
			limit = len(m.runs)
		}
		if m.selectedRow < limit-1 {
			m.selectedRow++
		}
		return m, nil

	case "ctrl+r":
		m.answer = ""
		return m, refreshCaptchaCmd(m.gate, m.captchaFile)

	case "backspace":
		if len(m.answer) > 0 {
			m.answer = m.answer[:len(m.answer)-1]
		}
		return m, nil

	case "enter":
		return m.startSelected()

	default:
		// Printable keys build the captcha answer
		if m.activeTab == 0 && len(msg.String()) == 1 {
			m.answer += msg.String()
		}
		return m, nil
	}
}

func (m Model) startSelected() (tea.Model, tea.Cmd) {
	if m.activeTab != 0 {
		return m, nil
	}
	if m.running {
		m.statusMsg = "a run is already in flight"
		return m, nil
	}
	if len(m.accounts) == 0 {
		m.statusMsg = "no accounts configured"
		return m, nil
	}
	if m.answer == "" {
		m.statusMsg = "enter the captcha answer first"
		return m, nil
	}

	account := m.accounts[m.selectedRow]
	answer := m.answer
	m.answer = ""

	return m, startRunCmd(m.runner, m.gate, account, answer)
}

func (m *Model) appendLog(event domain.Event) {
	line := fmt.Sprintf("%s  %s", event.Time.Format("15:04:05"), event.Message)
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

func (m *Model) reloadRuns() {
	if m.history == nil {
		return
	}
	if runs, err := m.history.ListRuns(20); err == nil {
		m.runs = runs
	}
}

// SetAccounts replaces the account listing, keeping the selection in range
func (m *Model) SetAccounts(accounts []domain.Account) {
	m.accounts = accounts
	if m.selectedRow >= len(accounts) {
		m.selectedRow = 0
	}
}

func waitForEventCmd(r *runner.Runner) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		return RunEventMsg(<-r.Events())
	}
}

func refreshCaptchaCmd(gate *captcha.Gate, path string) tea.Cmd {
	if gate == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := gate.Refresh(ctx); err != nil {
			return CaptchaMsg{Err: err}
		}
		if err := os.WriteFile(path, gate.Image(), 0o644); err != nil {
			return CaptchaMsg{Err: err}
		}
		return CaptchaMsg{Path: path}
	}
}

func startRunCmd(r *runner.Runner, gate *captcha.Gate, account domain.Account, answer string) tea.Cmd {
	return func() tea.Msg {
		gate.SetAnswer(answer)
		runID, err := r.Start(context.Background(), account)
		return RunStartedMsg{RunID: runID, Err: err}
	}
}
