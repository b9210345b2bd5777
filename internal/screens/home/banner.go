package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// renderTitle returns the banner centred in the content width.
func renderTitle(cw int, compact bool) string {
	width := cw
	if compact {
		width = 0
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(components.Banner(width))
}

// renderStatusBar renders backend state, model and the last quiz score in
// a bordered box matching the content width.
func renderStatusBar(online bool, model string, last *lastQuiz, cw int, compact bool) string {
	onStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	offStyle := lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
	modelStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	backendText := onStyle.Render("● ONLINE")
	if !online {
		backendText = offStyle.Render("● OFFLINE")
	}

	var parts []string
	if compact {
		parts = []string{backendText, modelStyle.Render(model)}
	} else {
		parts = []string{backendText, modelStyle.Render("◆ " + model), quizText(last, dimStyle)}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(strings.Join(parts, "  "))
}

func quizText(last *lastQuiz, dim lipgloss.Style) string {
	if last == nil || last.Total == 0 {
		return dim.Render("★ NO QUIZZES YET")
	}
	return lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
		Render(fmt.Sprintf("★ LAST %d/%d", last.Correct, last.Total))
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 24

// renderMenu renders each menu item as a fixed-width button, with the
// selected item's description underneath.
func renderMenu(menu components.Menu, cw int, compact bool) string {
	selectedBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Primary).
		Padding(0, 1)

	normalBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Padding(0, 1)

	disabledBtn := normalBtn.Foreground(theme.TextDim)

	if !compact {
		selectedBtn = selectedBtn.Border(lipgloss.RoundedBorder()).BorderForeground(theme.Primary)
		normalBtn = normalBtn.Border(lipgloss.RoundedBorder()).BorderForeground(theme.Border)
		disabledBtn = disabledBtn.Border(lipgloss.RoundedBorder()).BorderForeground(theme.Border)
	}

	var buttons []string
	for i, item := range menu.Items {
		switch {
		case item.Disabled:
			buttons = append(buttons, disabledBtn.Render(item.Label))
		case i == menu.Selected:
			buttons = append(buttons, selectedBtn.Render("▸ "+item.Label))
		default:
			buttons = append(buttons, normalBtn.Render(item.Label))
		}
	}
	block := strings.Join(buttons, "\n")
	if desc := menu.Items[menu.Selected].Description; desc != "" {
		block += "\n\n" + theme.Hint.Render(desc)
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(block)
}

// renderKeyBanner renders a warning when the selected provider needs an
// API key that has not been set.
func renderKeyBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ Set an API key in Settings to start studying")
}

// renderOfflineNote renders the monitor's offline reason.
func renderOfflineNote(reason string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Width(cw).
		Align(lipgloss.Center).
		Render(reason)
}

// renderCabinetFrame wraps content in a double-border frame, centred
// vertically and horizontally within the given dimensions.
func renderCabinetFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
