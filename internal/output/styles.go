package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	matchStyle   = lipgloss.NewStyle().Bold(true)
	contextStyle = lipgloss.NewStyle().Faint(true)
	numberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
)

// MaybeNoStyle strips styling when w is not a terminal.
func MaybeNoStyle(w io.Writer) {
	f, ok := w.(*os.File)
	if ok && isatty.IsTerminal(f.Fd()) {
		return
	}
	matchStyle = matchStyle.UnsetBold()
	contextStyle = contextStyle.UnsetFaint()
	numberStyle = numberStyle.UnsetForeground()
	errorStyle = errorStyle.UnsetForeground().UnsetBold()
	infoStyle = infoStyle.UnsetForeground().UnsetBold()
}

// InfoStyle renders informational banners.
func InfoStyle() lipgloss.Style { return infoStyle }

// ErrorStyle renders error banners.
func ErrorStyle() lipgloss.Style { return errorStyle }
