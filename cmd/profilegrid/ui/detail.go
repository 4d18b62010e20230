package ui

import (
	"fmt"
	"strings"

	"profilegrid/internal/profile"

	"github.com/charmbracelet/glamour"
)

// ProfileMarkdown renders a profile as a markdown document for the detail
// view and the show command.
func ProfileMarkdown(p profile.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", profile.FormatName(p))
	if p.Gender != "" {
		fmt.Fprintf(&sb, "_%s_", p.Gender)
		if p.Nat != "" {
			fmt.Fprintf(&sb, " · %s", p.Nat)
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Address\n\n")
	fmt.Fprintf(&sb, "%s\n\n", profile.FormatAddress(p))
	fmt.Fprintf(&sb, "Coordinates: %s, %s\n\n", p.Location.Coordinates.Latitude, p.Location.Coordinates.Longitude)

	sb.WriteString("## Contact\n\n")
	fmt.Fprintf(&sb, "- **Email:** %s\n", p.Email)
	fmt.Fprintf(&sb, "- **Phone:** %s\n", profile.FormatPhone(p.Phone))
	fmt.Fprintf(&sb, "- **Cell:** %s\n\n", profile.FormatPhone(p.Cell))

	sb.WriteString("## Dates\n\n")
	fmt.Fprintf(&sb, "- **Date of birth:** %s (%d years old)\n", profile.FormatDate(p.DOB.Date), p.DOB.Age)
	fmt.Fprintf(&sb, "- **Timezone:** %s %s\n", p.Location.Timezone.Offset, p.Location.Timezone.Description)
	fmt.Fprintf(&sb, "- **Member since:** %s (%d years)\n\n", profile.FormatDate(p.Registered.Date), p.Registered.Age)

	sb.WriteString("## Account\n\n")
	fmt.Fprintf(&sb, "- **Username:** %s\n", p.Login.Username)
	fmt.Fprintf(&sb, "- **UUID:** `%s`\n", p.UUID())
	if p.Picture.Large != "" {
		fmt.Fprintf(&sb, "- **Picture:** %s\n", p.Picture.Large)
	}
	return sb.String()
}

// NewRenderer builds a markdown renderer wrapped at width.
func NewRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
}

// RenderMarkdown renders content, falling back to plain text when the
// renderer is missing, fails or panics.
func RenderMarkdown(r *glamour.TermRenderer, content string) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			result = content
		}
	}()
	if r != nil && content != "" {
		if rendered, err := r.Render(content); err == nil {
			return rendered
		}
	}
	return content
}
