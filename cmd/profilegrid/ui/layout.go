package ui

// Layout constants for viewport and card sizing
const (
	HeaderHeight    = 1
	SearchBarHeight = 1
	StatusBarHeight = 1
	FooterHeight    = 1
	BannerHeight    = 1

	// Cards
	CardWidth   = 36
	CardHeight  = 7 // including border
	CardSpacing = 1

	// Detail overlay
	DetailMaxWidth = 72

	// RowUnits is the number of logical scroll units per terminal row
	// reported to the scroll trigger.
	RowUnits = 16

	// Responsive breakpoints
	MinimumTerminalWidth  = 40
	MinimumTerminalHeight = 12
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{TerminalWidth: width, TerminalHeight: height}
}

// TooSmall reports whether the terminal is below the minimum usable size.
func (l LayoutConfig) TooSmall() bool {
	return l.TerminalWidth < MinimumTerminalWidth || l.TerminalHeight < MinimumTerminalHeight
}

// ListHeight is the number of rows left for the card viewport.
func (l LayoutConfig) ListHeight(withBanner bool) int {
	h := l.TerminalHeight - HeaderHeight - SearchBarHeight - StatusBarHeight - FooterHeight
	if withBanner {
		h -= BannerHeight
	}
	if h < 1 {
		h = 1
	}
	return h
}

// Columns is how many cards fit side by side.
func (l LayoutConfig) Columns() int {
	cols := (l.TerminalWidth + CardSpacing) / (CardWidth + CardSpacing)
	if cols < 1 {
		cols = 1
	}
	return cols
}

// DetailWidth is the width of the detail overlay.
func (l LayoutConfig) DetailWidth() int {
	w := l.TerminalWidth - 4
	if w > DetailMaxWidth {
		w = DetailMaxWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}
