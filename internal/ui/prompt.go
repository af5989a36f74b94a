package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// RenderPrompt renders the shell prompt as a single Powerline-style
// segment containing the given label (callers build it as "agfs:" plus
// the current working directory), styled with the teacher's lipgloss
// theme. The trailing "> " is baked in here; callers don't add their own.
func RenderPrompt(label string) string {
	bg := currentTheme.Mauve
	fg := currentTheme.Base

	style := lipgloss.NewStyle().Background(bg).Foreground(fg).Padding(0, 1).Bold(true)
	seg := style.Render(label)
	sep := lipgloss.NewStyle().Foreground(bg).Render("")

	return fmt.Sprintf("%s%s> ", seg, sep)
}
