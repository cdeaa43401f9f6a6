package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Person columns carry lodging suffixes appended by the upstream system,
// e.g. "Maria Souza (Precatórios)". Grouping and filtering compare the bare
// name so the same person never splits into several ranking rows.
var personSuffix = regexp.MustCompile(`\s*\(.*\)$`)

// NormalizePersonName strips the parenthesised suffix and surrounding
// whitespace. Mirrors the SQL expression the Postgres repository renders.
func NormalizePersonName(name string) string {
	return strings.TrimSpace(personSuffix.ReplaceAllString(name, ""))
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldText lowercases and strips diacritics for case/accent-insensitive
// matching ("Saúde" → "saude"). Matches Postgres unaccent + ILIKE behavior.
func FoldText(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}
