package signature

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	decimalComma = regexp.MustCompile(`(\d),(\d)`)
	numericDash  = regexp.MustCompile(`(\d)\s*[-‐‑–—]\s*(\d)`)
	punctuation  = regexp.MustCompile(`[^\p{L}\p{N}/.%\s\x00]+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Latin letters that render identically to Cyrillic ones. Applied only inside
// words that already contain Cyrillic, so "XL" or "BBQ" stay untouched.
var lookalikes = map[rune]rune{
	'a': 'а', 'b': 'в', 'c': 'с', 'e': 'е', 'h': 'н', 'k': 'к',
	'm': 'м', 'o': 'о', 'p': 'р', 't': 'т', 'x': 'х', 'y': 'у',
}

// Normalize folds text into the canonical form every pass works on.
func Normalize(text string) string {
	s := norm.NFKC.String(text)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ё", "е")
	s = decimalComma.ReplaceAllString(s, "$1.$2")
	// dashes between digits survive as "-" (caliber ranges); all others become spaces
	s = numericDash.ReplaceAllString(s, "$1\x00$2")
	s = punctuation.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\x00", "-")
	s = whitespace.ReplaceAllString(s, " ")
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = foldLookalikes(w)
	}
	return strings.Join(words, " ")
}

func foldLookalikes(word string) string {
	hasCyrillic, hasLatin := false, false
	for _, r := range word {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			hasCyrillic = true
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLatin = true
		}
	}
	if !hasCyrillic || !hasLatin {
		return word
	}
	return strings.Map(func(r rune) rune {
		if c, ok := lookalikes[r]; ok {
			return c
		}
		return r
	}, word)
}

// Tokens returns stemmed keywords in text order, duplicates included.
func Tokens(text string) []string {
	return tokensFromWords(strings.Fields(Normalize(text)))
}

func tokensFromWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, "./%")
		if utf8.RuneCountInString(w) < 3 || strings.ContainsAny(w, "/.%") || hasDigit(w) {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		st := stem(w)
		if _, stop := stopWords[st]; stop {
			continue
		}
		out = append(out, st)
	}
	return out
}

func uniqueSorted(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func stem(word string) string {
	if isASCII(word) {
		if len(word) > 4 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
			return word[:len(word)-1]
		}
		return word
	}
	n := utf8.RuneCountInString(word)
	for _, suf := range russianSuffixes {
		if strings.HasSuffix(word, suf) && n-utf8.RuneCountInString(suf) >= 3 {
			return strings.TrimSuffix(word, suf)
		}
	}
	return word
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
