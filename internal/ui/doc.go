// Package ui provides semantic text formatting for CLI output.
//
// Formatters colorize content when the terminal supports it. When NO_COLOR
// is set or the terminal has no color support, text decorations are used
// instead:
//
//	ui.Code.Sprint("reclaim recovery status")   // `reclaim recovery status`
//	ui.Highlight.Sprint("m.cross_signing.master") // 'm.cross_signing.master'
//	ui.Muted.Sprint("none")                      // (none)
//
// Secret renders recovery keys without any decoration so they can be
// copied as printed.
package ui
