package ui

import (
	"fmt"
	"strings"

	"profilegrid/internal/profile"

	"github.com/charmbracelet/lipgloss"
)

// RenderCard draws one profile card. Content is truncated to the card width.
func RenderCard(p profile.Profile, styles Styles, selected bool) string {
	inner := CardWidth - 4 // border + padding
	lines := []string{
		styles.Bold.Render(truncate(p.FullName(), inner)),
		styles.Muted.Render(truncate(cityCountry(p), inner)),
		styles.Body.Render(truncate(p.Email, inner)),
		styles.Body.Render(truncate(profile.FormatPhone(p.Phone), inner)),
		styles.Subtitle.Render(truncate("enter: details  d: delete", inner)),
	}
	style := styles.Card
	if selected {
		style = styles.CardSelected
	}
	return style.Width(CardWidth - 2).Render(strings.Join(lines, "\n"))
}

// RenderGrid lays cards out in rows of cols, highlighting the card at cursor.
func RenderGrid(profiles []profile.Profile, styles Styles, cols, cursor int) string {
	if cols < 1 {
		cols = 1
	}
	gap := strings.Repeat(" ", CardSpacing)

	var rows []string
	for start := 0; start < len(profiles); start += cols {
		end := min(start+cols, len(profiles))
		cells := make([]string, 0, 2*(end-start))
		for i := start; i < end; i++ {
			if i > start {
				cells = append(cells, gap)
			}
			cells = append(cells, RenderCard(profiles[i], styles, i == cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func cityCountry(p profile.Profile) string {
	switch {
	case p.Location.City == "":
		return p.Location.Country
	case p.Location.Country == "":
		return p.Location.City
	}
	return fmt.Sprintf("%s, %s", p.Location.City, p.Location.Country)
}

func truncate(s string, l int) string {
	r := []rune(s)
	if len(r) <= l {
		return s
	}
	if l <= 3 {
		return string(r[:l])
	}
	return string(r[:l-3]) + "..."
}
