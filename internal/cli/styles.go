package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

const (
	colorText    = "#E6EDF3"
	colorMuted   = "#8B9AAE"
	colorSuccess = "#3FB950"
	colorWarning = "#D29922"
	colorError   = "#F85149"
)

type cliStyles struct {
	Title lipgloss.Style
	Muted lipgloss.Style
	OK    lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
}

// styles returns colored styles on a terminal and unstyled ones otherwise.
func styles() cliStyles {
	if !colorEnabled() {
		plain := lipgloss.NewStyle()
		return cliStyles{Title: plain, Muted: plain, OK: plain, Warn: plain, Error: plain}
	}
	return cliStyles{
		Title: lipgloss.NewStyle().Foreground(lipgloss.Color(colorText)).Bold(true),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)),
		OK:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)),
	}
}

// actionBadge renders a short label for a recommended action.
func actionBadge(action models.RecommendedAction) string {
	st := styles()
	switch action {
	case models.ActionNewChat:
		return st.Warn.Render(fmt.Sprintf("WARN %s", action))
	case models.ActionContinue:
		return st.OK.Render(fmt.Sprintf("OK %s", action))
	default:
		return st.Muted.Render(fmt.Sprintf("? %s", action))
	}
}

func formatContextLine(status models.ContextStatus) string {
	return fmt.Sprintf("Context: %d/%d tokens used (%.1f%%) %s",
		status.UsedCapacity, status.TotalCapacity, status.UsedPercentage*100, actionBadge(status.RecommendedAction))
}
