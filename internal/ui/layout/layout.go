package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// Smallest terminal the frame renders in.
const (
	MinWidth  = 60
	MinHeight = 20
)

const appName = "Exam Whisperer"

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Status is the right-hand side of the header.
type Status struct {
	Online   bool
	Provider string
	Model    string
}

func (s Status) dot() string {
	if !s.Online {
		return lipgloss.NewStyle().Foreground(theme.Error).Render("●")
	}
	return lipgloss.NewStyle().Foreground(theme.Success).Render("●")
}

func (s Status) render() string {
	label := "online"
	if !s.Online {
		label = "offline"
	}
	out := s.dot() + theme.Hint.Render(" "+label)

	llm := s.Model
	if s.Provider != "" && s.Model != "" {
		llm = s.Provider + "/" + s.Model
	}
	if llm != "" {
		out += lipgloss.NewStyle().Foreground(theme.TextDim).Render("  " + llm)
	}
	return out
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Make the window a little bigger.\n\nNeeds %d x %d, have %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// RenderHeader renders the application name, the active screen title and
// the backend status. The status collapses to its dot when space runs out.
func RenderHeader(title string, status Status, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  " + appName)
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := status.render()

	inner := max(width-4, 0)
	if lipgloss.Width(left)+lipgloss.Width(center)+lipgloss.Width(right)+2 > inner {
		right = status.dot()
	}

	leftGap := max((inner-lipgloss.Width(center))/2-lipgloss.Width(left), 1)
	rightGap := max(inner-lipgloss.Width(left)-leftGap-lipgloss.Width(center)-lipgloss.Width(right), 1)

	return bar(width).Render(left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right)
}

// RenderFooter renders key hints left to right, dropping those that do not
// fit. The last hint is always kept.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
	}

	const sep = "   "
	budget := width - 6
	var kept []string
	used := 0
	for i, p := range parts {
		w := lipgloss.Width(p) + len(sep)
		last := i == len(parts)-1
		if !last && used+w+lipgloss.Width(parts[len(parts)-1]) > budget {
			continue
		}
		kept = append(kept, p)
		used += w
	}
	return bar(width).Render("  " + strings.Join(kept, sep))
}

// RenderFrame composes the full frame: header + content + footer.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(contentHeight).Render(content)
	return header + "\n" + body + "\n" + footer
}
