// Package naming turns part identifiers and tree paths into the display and
// file names used for exported artifacts. Everything here is pure.
package naming

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Strategy selects how identifiers are rewritten.
type Strategy int

const (
	// Verbatim leaves identifiers untouched.
	Verbatim Strategy = iota
	// SpacedTitleCase trims, turns underscores into spaces and title-cases
	// every word: "rear_axle" becomes "Rear Axle".
	SpacedTitleCase
	// LowerUnderscored lowercases and turns spaces into underscores:
	// "Rear Axle" becomes "rear_axle".
	LowerUnderscored
)

var strategyNames = map[Strategy]string{
	Verbatim:         "verbatim",
	SpacedTitleCase:  "space",
	LowerUnderscored: "underscore",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Options lists the canonical strategy names in declaration order.
func Options() []string {
	return []string{Verbatim.String(), SpacedTitleCase.String(), LowerUnderscored.String()}
}

// ParseStrategy maps a canonical name (case-insensitive) back to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbatim", "none":
		return Verbatim, nil
	case "space", "spaced":
		return SpacedTitleCase, nil
	case "underscore", "underscored":
		return LowerUnderscored, nil
	}
	return Verbatim, fmt.Errorf("unknown naming strategy %q (want one of %s)", name, strings.Join(Options(), ", "))
}

// Format applies the strategy to identifier. A count above one appends
// "_<count>" before the transform, so Format("bolt", SpacedTitleCase, 3)
// yields "Bolt 3".
func Format(identifier string, s Strategy, count int) string {
	if count > 1 {
		identifier = fmt.Sprintf("%s_%d", identifier, count)
	}
	switch s {
	case SpacedTitleCase:
		return titleWords(strings.ReplaceAll(strings.TrimSpace(identifier), "_", " "))
	case LowerUnderscored:
		return strings.ReplaceAll(strings.ToLower(identifier), " ", "_")
	default:
		return identifier
	}
}

// FormatPath formats every "/"-delimited segment of path independently.
func FormatPath(path string, s Strategy) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = Format(segment, s, 1)
	}
	return strings.Join(segments, "/")
}

// FileName is Format plus the artifact extension (".stl", ".png", ...).
func FileName(base string, s Strategy, ext string, count int) string {
	return Format(base, s, count) + ext
}

// titleWords splits on runs of whitespace, uppercases the first rune of
// each word and lowercases the rest. Digits and punctuation inside a word do
// not start a new word: "10mm" stays "10mm", "m3-bolt" becomes "M3-bolt".
func titleWords(s string) string {
	lower := cases.Lower(language.Und)
	words := strings.Fields(s)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + lower.String(w[size:])
	}
	return strings.Join(words, " ")
}
