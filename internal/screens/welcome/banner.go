package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/ui/theme"
)

const bannerArt = `┌─┐ ┬ ┬ ┬ ┌─┐ ┌─┐ ┌─┐ ┌┬┐ ┬ ┬
│─┼┐│ │ │ ┌─┘ ├─┘ ├─┤  │  ├─┤
└─┘└└─┘ ┴ └─┘ ┴   ┴ ┴  ┴  ┴ ┴`

const bannerCompact = "Q · U · I · Z · P · A · T · H"

// Banner returns the unstyled banner art.
func Banner(compact bool) string {
	if compact {
		return bannerCompact
	}
	return bannerArt
}

// RenderBanner returns the banner styled in the primary color, falling back
// to the compact form below 40 columns.
func RenderBanner(width int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(Banner(width < 40))
}
