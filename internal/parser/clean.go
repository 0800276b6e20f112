package parser

import (
	"regexp"
	"strings"
)

var (
	bulletPattern    = regexp.MustCompile(`[•●▪◦‣∙]`)
	dashPattern      = regexp.MustCompile(`[–—]`)
	blankLinePattern = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// CleanText normalises extracted text before any rule runs: tabs become
// spaces, bullet glyphs become '-', runs of blank lines collapse to one.
// NUL bytes are dropped since postgres text columns reject them.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	text = bulletPattern.ReplaceAllString(text, "-")
	text = dashPattern.ReplaceAllString(text, "-")
	text = blankLinePattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
