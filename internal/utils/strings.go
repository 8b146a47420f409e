package utils

import (
	"strings"

	"github.com/PolarWolf314/reclaim/internal/ui"
)

// FormatList formats items as an indented bullet list, one per line.
func FormatList(items []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("    - ")
		b.WriteString(ui.Highlight.Sprint(item))
		b.WriteString("\n")
	}
	return b.String()
}

// Plural returns singular when n is 1 and singular+"s" otherwise.
func Plural(n int, singular string) string {
	if n == 1 {
		return singular
	}
	return singular + "s"
}
