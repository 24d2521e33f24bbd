// Package rst holds the few reStructuredText building blocks the page
// writer needs.
package rst

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Header returns a section title underlined with adornment. The underline
// covers the display width of the title so wide characters stay valid.
func Header(title, adornment string) string {
	title = strings.TrimSpace(title)
	if adornment == "" {
		adornment = "="
	}
	width := runewidth.StringWidth(title)
	repeat := width / runewidth.StringWidth(adornment)
	if width%runewidth.StringWidth(adornment) != 0 {
		repeat++
	}
	if repeat < 1 {
		repeat = 1
	}
	return fmt.Sprintf("%s\n%s\n", title, strings.Repeat(adornment, repeat))
}

// Indent prefixes every non-empty line of text with amount spaces.
func Indent(text string, amount int) string {
	pad := strings.Repeat(" ", amount)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = pad + l
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// Toctree renders a toctree directive listing entries in order.
func Toctree(entries []string, maxDepth int) string {
	var b strings.Builder
	b.WriteString(".. toctree::\n")
	if maxDepth > 0 {
		fmt.Fprintf(&b, "   :maxdepth: %d\n", maxDepth)
	}
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString("   ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	return b.String()
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"`", "\\`",
	"_", `\_`,
	"|", `\|`,
)

// Escape backslash-escapes the characters that would otherwise start inline
// markup.
func Escape(s string) string {
	return escaper.Replace(s)
}
