package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mfo-tools/mfo-claim/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	header := fmt.Sprintf(" MFO Claim │ Accounts: %d │ Stage: %s ", len(m.accounts), m.stageLabel())
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	switch m.activeTab {
	case 0:
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderAccounts()))
		b.WriteString("\n")
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderCaptcha()))
		b.WriteString("\n")
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderLog()))
		b.WriteString("\n")
	case 1:
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderHistory()))
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString(dimmedStyle.Width(m.width).Render(" " + m.statusMsg + " "))
		b.WriteString("\n")
	}

	var statusBar string
	if m.activeTab == 0 {
		statusBar = " [tab]history [↑/↓]account [type]answer [enter]start [ctrl+r]new captcha [esc]quit "
	} else {
		statusBar = " [tab]claim [↑/↓]scroll [esc]quit "
	}
	b.WriteString(statusBarStyle.Width(m.width).Render(statusBar))

	return b.String()
}

func (m Model) stageLabel() string {
	switch m.stage {
	case domain.StageIdle:
		return "idle"
	case domain.StageLoggingIn:
		return runningStyle.Render("logging in")
	case domain.StageSigningIn:
		return runningStyle.Render("checking in")
	case domain.StageClaimingBonus:
		return runningStyle.Render("claiming bonus")
	case domain.StageClaimingTask:
		return runningStyle.Render("claiming task reward")
	case domain.StageDone:
		return runningStyle.Render("done")
	case domain.StageFailed:
		return failedStyle.Render("failed")
	}
	return string(m.stage)
}

func (m Model) renderTabs() string {
	tabs := []string{"Claim", "History"}
	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if i == m.activeTab {
			rendered[i] = tabActiveStyle.Render(tab)
		} else {
			rendered[i] = tabInactiveStyle.Render(tab)
		}
	}
	return " " + strings.Join(rendered, "  ")
}

func (m Model) renderAccounts() string {
	var b strings.Builder
	b.WriteString("Accounts\n")

	if len(m.accounts) == 0 {
		b.WriteString(dimmedStyle.Render("  none configured"))
		return b.String()
	}

	for i, account := range m.accounts {
		line := fmt.Sprintf("  %s", account.Name())
		if i == m.selectedRow && m.activeTab == 0 {
			line = selectedStyle.Render("▸ " + account.Name())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderCaptcha() string {
	var b strings.Builder
	b.WriteString("Captcha\n")

	if m.captchaReady {
		b.WriteString(fmt.Sprintf("  image: %s\n", m.captchaFile))
	} else {
		b.WriteString(warningStyle.Render("  no challenge loaded, press ctrl+r") + "\n")
	}

	answer := m.answer
	if answer == "" {
		answer = dimmedStyle.Render("(empty)")
	}
	b.WriteString(fmt.Sprintf("  answer: %s▌", answer))
	return b.String()
}

func (m Model) renderLog() string {
	var b strings.Builder
	b.WriteString("Progress\n")

	if len(m.logLines) == 0 {
		b.WriteString(dimmedStyle.Render("  idle"))
		return b.String()
	}

	lines := m.logLines
	visible := m.height - 16
	if visible > 0 && len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	for _, line := range lines {
		b.WriteString("  " + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderHistory() string {
	var b strings.Builder
	b.WriteString("Recent runs\n")

	if len(m.runs) == 0 {
		b.WriteString(dimmedStyle.Render("  no runs yet"))
		return b.String()
	}

	for i, run := range m.runs {
		status := string(run.Status)
		switch run.Status {
		case domain.RunCompleted:
			status = runningStyle.Render(status)
		case domain.RunFailed:
			status = failedStyle.Render(status)
		}

		day := "-"
		if run.DayNo > 0 {
			day = fmt.Sprintf("day %d", run.DayNo)
			if run.BonusDay {
				day += " +bonus"
			}
		}

		line := fmt.Sprintf("  %s  %-16s %-8s %s",
			run.StartedAt.Format(time.DateTime), run.Username, day, status)
		if i == m.selectedRow && m.activeTab == 1 {
			line = selectedStyle.Render("▸") + line[1:]
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
