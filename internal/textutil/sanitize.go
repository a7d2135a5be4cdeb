package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

var lowerFrench = cases.Lower(language.French)

// StripDiacritics removes combining marks: "Légifrance" becomes "Legifrance".
func StripDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// CollapseSpaces replaces every whitespace run with a single space and trims
// the ends.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// FoldSegment turns free text into a single lowercase path segment. Empty
// input, or input reduced to dots, yields "".
func FoldSegment(value string) string {
	value = CollapseSpaces(value)
	if value == "" {
		return ""
	}
	value = SanitizeFileName(StripDiacritics(lowerFrench.String(value)))
	if strings.Trim(value, ".") == "" {
		return ""
	}
	return value
}
