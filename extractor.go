package govgram

import (
	"fmt"
	"sort"
)

// VGramCallback is invoked once per extracted v-gram.
type VGramCallback func(vgram string)

// ExtractMinimalWordVGrams extracts the minimal rare v-grams of a single
// padded word against _table_. At every start position the candidate grows
// from _minQ_ runes until it is absent from the table (in the prefix sense);
// a candidate is kept only while no later candidate is contained in it, which
// makes the result the set of rare substrings with no rare proper substring.
// Words shorter than _minQ_ yield no v-grams.
func ExtractMinimalWordVGrams(word string, table *FrequencyTable, minQ, maxQ int) ([]string, error) {
	if err := validateExtraction(table, minQ, maxQ); err != nil {
		return nil, err
	}
	var vgrams []string
	extractMinimalWordVGrams(word, table, minQ, maxQ, func(vgram string) {
		vgrams = append(vgrams, vgram)
	})
	return vgrams, nil
}

// ExtractWordVGrams extracts every rare candidate of a single padded word
// against _table_, without the minimality reduction: one v-gram per start
// position that has a rare candidate, containment between them allowed.
func ExtractWordVGrams(word string, table *FrequencyTable, minQ, maxQ int) ([]string, error) {
	if err := validateExtraction(table, minQ, maxQ); err != nil {
		return nil, err
	}
	var vgrams []string
	extractWordVGrams(word, table, minQ, maxQ, func(vgram string) {
		vgrams = append(vgrams, vgram)
	})
	return vgrams, nil
}

// ExtractVGrams tokenizes _value_ and extracts the minimal v-grams of every
// word, deduplicated and sorted. This is the indexing-side entry point.
func ExtractVGrams(value string, table *FrequencyTable, minQ, maxQ int) ([]string, error) {
	if err := validateExtraction(table, minQ, maxQ); err != nil {
		return nil, err
	}
	var vgrams []string
	ExtractWords(value, func(word string) {
		extractMinimalWordVGrams(word, table, minQ, maxQ, func(vgram string) {
			vgrams = append(vgrams, vgram)
		})
	})
	return uniqueStrings(vgrams), nil
}

func validateExtraction(table *FrequencyTable, minQ, maxQ int) error {
	if table == nil {
		return fmt.Errorf("govgram: nil frequency table")
	}
	return validateQRange(minQ, maxQ)
}

func extractMinimalWordVGrams(word string, table *FrequencyTable, minQ, maxQ int, callback VGramCallback) {
	runes := []rune(word)
	prevP, prevR := -1, -1
	for p := 0; p+minQ <= len(runes); p++ {
		candR := rareCandidate(runes, p, table, minQ, maxQ)
		if candR < 0 {
			continue
		}
		// The pending candidate survives only if the new one ends strictly
		// later; otherwise the new candidate is contained in it and the
		// pending one is not minimal.
		if prevR >= 0 && prevR < candR {
			callback(string(runes[prevP:prevR]))
		}
		prevP, prevR = p, candR
	}
	if prevR >= 0 {
		callback(string(runes[prevP:prevR]))
	}
}

func extractWordVGrams(word string, table *FrequencyTable, minQ, maxQ int, callback VGramCallback) {
	runes := []rune(word)
	for p := 0; p+minQ <= len(runes); p++ {
		if candR := rareCandidate(runes, p, table, minQ, maxQ); candR >= 0 {
			callback(string(runes[p:candR]))
		}
	}
}

// rareCandidate returns the end offset of the shortest rare candidate
// starting at _p_, or -1 when every candidate length up to _maxQ_ is present
// in the table. The search bounds narrow as the candidate grows and are
// reused across lengths; they are only valid for one start position.
func rareCandidate(runes []rune, p int, table *FrequencyTable, minQ, maxQ int) int {
	lower, upper := 0, table.Len()-1
	for r := p + minQ; r <= len(runes) && r-p <= maxQ; r++ {
		if table.PrefixSearch(string(runes[p:r]), &lower, &upper) < 0 {
			return r
		}
	}
	return -1
}

func uniqueStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	sort.Strings(values)
	unique := values[:1]
	for _, value := range values[1:] {
		if value != unique[len(unique)-1] {
			unique = append(unique, value)
		}
	}
	return unique
}
