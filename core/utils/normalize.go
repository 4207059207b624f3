package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes text and drops the combining marks (accents).
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldReplacer handles letters that do not decompose and the quote characters
// that break downstream matching.
var foldReplacer = strings.NewReplacer(
	"Á", "A", "À", "A", "Ă", "A", "Â", "A", "Å", "A", "Ä", "A", "Ã", "A", "Ą", "A", "Æ", "AE",
	"Ć", "C", "Č", "C", "Ç", "C", "Ď", "D", "Đ", "D",
	"É", "E", "È", "E", "Ê", "E", "Ě", "E", "Ë", "E", "Ę", "E", "Ğ", "G",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I", "Ĺ", "L", "Ľ", "L", "Ł", "L",
	"Ń", "N", "Ň", "N", "Ñ", "N",
	"Ó", "O", "Ò", "O", "Ô", "O", "Ö", "O", "Õ", "O", "Ø", "O", "Œ", "OE", "ø", "o",
	"Ŕ", "R", "Ř", "R", "Ś", "S", "Š", "S", "Ş", "S", "Ș", "S", "Ť", "T", "Ț", "T",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U", "Ý", "Y", "Ÿ", "Y", "Ź", "Z", "Ž", "Z", "Ż", "Z", "Þ", "T",
	"'", "", "’", "", "‘", "", "“", "", "”", "", `"`, "",
)

// Normalize folds s to plain ASCII-friendly text: accents are removed, a
// fixed set of special letters is transliterated, quotes are dropped and
// runs of whitespace collapse to a single space.
// Input that is not valid UTF-8 yields an empty string.
func Normalize(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return ""
	}
	out = foldReplacer.Replace(out)
	return strings.Join(strings.Fields(out), " ")
}
