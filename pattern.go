package govgram

import "strings"

// Wildcard pattern syntax understood by the estimator and the query-side
// extractor: '%' matches any run of characters, '_' any single character,
// '\' escapes the next character.
const (
	wildcardAny    = '%'
	wildcardSingle = '_'
	wildcardEscape = '\\'
)

// ExtractWildcardParts returns the literal fragments of a LIKE/ILIKE
// pattern, left to right. A fragment is a maximal run of extractable
// characters; a side bounded by a non-word character or the pattern edge is
// padded with EmptyCharacter, a side bounded by a wildcard is not, because
// the wildcard may continue the word. Escaped characters are literal; a
// dangling trailing escape is ignored. Fragments keep the input case.
func ExtractWildcardParts(pattern string) []string {
	var fragments []string
	var word []rune
	inWord := false
	leftPad := false
	lastWasWildcard := false
	escaped := false

	flush := func(rightPad bool) {
		if !inWord {
			return
		}
		var b strings.Builder
		if leftPad {
			b.WriteRune(EmptyCharacter)
		}
		b.WriteString(string(word))
		if rightPad {
			b.WriteRune(EmptyCharacter)
		}
		fragments = append(fragments, b.String())
		word = word[:0]
		inWord = false
	}
	extend := func(r rune) {
		if !inWord {
			inWord = true
			leftPad = !lastWasWildcard
		}
		word = append(word, r)
	}

	for _, r := range pattern {
		if escaped {
			escaped = false
			if isExtractable(r) {
				extend(r)
			} else {
				flush(true)
				lastWasWildcard = false
			}
			continue
		}
		switch {
		case r == wildcardEscape:
			escaped = true
		case r == wildcardAny || r == wildcardSingle:
			flush(false)
			lastWasWildcard = true
		case isExtractable(r):
			extend(r)
		default:
			flush(true)
			lastWasWildcard = false
		}
	}
	flush(true)
	return fragments
}
