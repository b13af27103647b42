package govgram

import "strings"

// WordCallback is invoked by ExtractWords once per extracted word.
type WordCallback func(word string)

// ExtractWords splits _s_ into words and invokes _callback_ for each one in
// order of appearance. A word is a maximal run of extractable characters
// (letters and digits), lowercased and padded on both sides with
// EmptyCharacter. A string without extractable characters produces no calls.
func ExtractWords(s string, callback WordCallback) {
	var word []rune
	for _, r := range s {
		if isExtractable(r) {
			word = append(word, r)
			continue
		}
		if len(word) > 0 {
			callback(padWord(word))
			word = word[:0]
		}
	}
	if len(word) > 0 {
		callback(padWord(word))
	}
}

// Words returns the padded lowercase words of _s_ as a slice.
func Words(s string) []string {
	var words []string
	ExtractWords(s, func(word string) {
		words = append(words, word)
	})
	return words
}

func padWord(word []rune) string {
	var b strings.Builder
	b.WriteRune(EmptyCharacter)
	b.WriteString(strings.ToLower(string(word)))
	b.WriteRune(EmptyCharacter)
	return b.String()
}
