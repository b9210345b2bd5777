package components

import (
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/ui/theme"
)

const bannerArt = `██╗    ██╗██╗  ██╗██╗███████╗██████╗ ███████╗██████╗
██║    ██║██║  ██║██║██╔════╝██╔══██╗██╔════╝██╔══██╗
██║ █╗ ██║███████║██║███████╗██████╔╝█████╗  ██████╔╝
██║███╗██║██╔══██║██║╚════██║██╔═══╝ ██╔══╝  ██╔══██╗
╚███╔███╔╝██║  ██║██║███████║██║     ███████╗██║  ██║
 ╚══╝╚══╝ ╚═╝  ╚═╝╚═╝╚══════╝╚═╝     ╚══════╝╚═╝  ╚═╝`

const bannerCompact = "E X A M · W H I S P E R"

// bannerWidth is the column count of bannerArt.
const bannerWidth = 53

// Banner returns the block-letter title in the primary color, or a one-line
// fallback when width is narrower than the art.
func Banner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
