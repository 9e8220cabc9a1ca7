package util

import (
	"fmt"
	"github.com/mattn/go-runewidth"
	"time"
)

// TruncateString cuts a string to fit within maxWidth visual width
func TruncateString(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	width := 0
	for i, r := range s {
		charWidth := runewidth.RuneWidth(r)
		if width+charWidth > maxWidth-3 { // Reserve space for "..."
			return s[:i] + "..."
		}
		width += charWidth
	}
	return s
}

// FormatElapsed formats how long a login has been running, eg " 1m05s"
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%2dm%02ds", minutes, seconds)
}
