package cmd

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/go-drift/drift-maps/pkg/mapview"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
)

func phaseStyle(p mapview.Phase) lipgloss.Style {
	switch p {
	case mapview.PhaseLoading:
		return warnStyle
	case mapview.PhaseReady:
		return okStyle
	case mapview.PhaseError:
		return errStyle
	default:
		return dimStyle
	}
}

// pad left-aligns s in a field of width columns before styling, so ANSI
// sequences do not disturb column alignment.
func pad(style lipgloss.Style, s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return style.Render(s)
}

