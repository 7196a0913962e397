package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used for text-mode reports.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// newStyles builds styles bound to lr, so colour support follows the
// renderer's writer rather than the process stdout.
func newStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lr.NewStyle().Bold(true),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Faint(true),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Styles returns the text-mode styles. Outside a terminal in text mode every
// style renders plain text.
func (r *Renderer) Styles() *Styles {
	if r.styles == nil {
		lr := lipgloss.NewRenderer(r.out)
		if !r.tty || r.EffectiveMode() != ModeText {
			lr.SetColorProfile(termenv.Ascii)
		}
		r.styles = newStyles(lr)
	}
	return r.styles
}
