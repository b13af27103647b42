/*
Package govgram implements variable-length gram (v-gram) primitives for
approximate substring search over large string collections.

 1. Extraction: splits strings into words and mines each word for minimal
    rare substrings (v-grams) against a table of frequent q-grams.
    Refer: https://doi.org/10.1109/ICDE.2009.46
 2. Statistics: builds frequent q-gram tables either exactly (FrequencyCounter)
    or in bounded memory over a stream (LossyCounter).
    Refer: http://www.vldb.org/conf/2002/S10P03.pdf
 3. Estimation: predicts the selectivity of LIKE-style wildcard patterns from
    a q-gram frequency table (SelectivityEstimator).

The package implements both in-mem and Redis backed solutions for the frequency
table and the posting index. The in-memory index is thread-safe.
*/
package govgram

import (
	"fmt"
	"unicode"
)

// EmptyCharacter pads every tokenized word on both sides. It marks word
// boundaries inside q-grams and must never satisfy isExtractable.
const EmptyCharacter = '$'

const (
	// DefaultMinQ and DefaultMaxQ bound the length of extracted v-grams.
	DefaultMinQ = 2
	DefaultMaxQ = 5

	// MaxStatQ is the largest q-gram length consulted during selectivity
	// estimation. Statistics tables meant for estimation are built with
	// minQ=1 and maxQ=MaxStatQ.
	MaxStatQ = 3

	// DefaultLimitRatio is the frequency threshold of FrequencyCounter:
	// q-grams occurring in fewer than this fraction of words are dropped.
	DefaultLimitRatio = 0.03

	// DefaultCharacterFrequency is assumed for characters missing from the
	// statistics table.
	DefaultCharacterFrequency = 0.001

	// DefaultLikeSelectivity is returned for patterns that carry no usable
	// literal fragments or when no statistics are available.
	DefaultLikeSelectivity = 0.05

	// OptimalVGramCount is the number of rarest v-grams kept when probing
	// an index for a wildcard pattern.
	OptimalVGramCount = 5
)

// isExtractable reports whether r can be part of a word. Everything else
// separates words.
func isExtractable(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func validateQRange(minQ, maxQ int) error {
	if minQ < 1 {
		return fmt.Errorf("govgram: minQ %d out of range, must be at least 1", minQ)
	}
	if maxQ < minQ {
		return fmt.Errorf("govgram: maxQ %d out of range, must be at least minQ %d", maxQ, minQ)
	}
	return nil
}
