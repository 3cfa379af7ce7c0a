package edit

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles controls how Render draws the field list.
type Styles struct {
	Title     lipgloss.Style
	Path      lipgloss.Style
	Draft     lipgloss.Style
	Dirty     lipgloss.Style
	Committed lipgloss.Style
}

// DefaultStyles returns the palette used when Render is called with no
// overrides.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true),
		Path:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Draft:     lipgloss.NewStyle(),
		Dirty:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Committed: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// Render draws every field as one line of "path = draft" with dirty and
// committed markers, suitable for terminal display.
func (m *Manager) Render(title string, styles Styles) string {
	fields := m.Fields()
	var b strings.Builder
	if title != "" {
		b.WriteString(styles.Title.Render(title))
		b.WriteString("\n")
	}
	for _, f := range fields {
		line := styles.Path.Render(f.Path.String()) + " = " + styles.Draft.Render(f.Draft)
		if f.Dirty {
			line += " " + styles.Dirty.Render("*")
		} else if f.Has {
			line += " " + styles.Committed.Render("✓")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
