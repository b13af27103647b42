package govgram

import (
	"fmt"
	"strings"
)

// SelectivityEstimator predicts which fraction of a string collection a
// wildcard pattern will match, using a q-gram statistics table built with
// minQ=1 and maxQ=MaxStatQ. The estimate is inexact: index probes based on
// it always require verification against the actual strings.
// The table is an injected immutable snapshot; the estimator never loads or
// mutates shared state.
type SelectivityEstimator struct {
	table *FrequencyTable
}

// NewSelectivityEstimator creates an estimator over _table_. A nil table is
// allowed and makes every estimate fall back to DefaultLikeSelectivity.
func NewSelectivityEstimator(table *FrequencyTable) *SelectivityEstimator {
	return &SelectivityEstimator{table: table}
}

// EstimateLike estimates the selectivity of LIKE/ILIKE _pattern_ as the
// product of its literal fragment selectivities, clamped to [0, 1].
// Fragments are treated as independent, a known approximation. A pattern
// without literal fragments matches everything and estimates to 1. Without
// statistics the estimate is DefaultLikeSelectivity.
func (e *SelectivityEstimator) EstimateLike(pattern string) (float64, error) {
	usable, err := e.checkTable()
	if err != nil {
		return 0, err
	}
	if !usable {
		return DefaultLikeSelectivity, nil
	}
	result := 1.0
	for _, fragment := range ExtractWildcardParts(pattern) {
		result *= e.estimateFragment(strings.ToLower(fragment))
	}
	return clampProbability(result), nil
}

// EstimateVGram estimates the selectivity of a single extracted v-gram. It
// is used to rank the v-grams of a query pattern by rarity. A v-gram shorter
// than the table's minQ is a configuration error.
func (e *SelectivityEstimator) EstimateVGram(vgram string) (float64, error) {
	runes := []rune(vgram)
	if len(runes) == 0 {
		return 0, fmt.Errorf("govgram: empty v-gram in selectivity lookup")
	}
	usable, err := e.checkTable()
	if err != nil {
		return 0, err
	}
	if !usable {
		return DefaultLikeSelectivity, nil
	}
	if len(runes) < e.table.MinQ() {
		return 0, fmt.Errorf("govgram: v-gram %q shorter than minQ %d of the statistics table", vgram, e.table.MinQ())
	}
	if len(runes) == 1 {
		return float64(e.table.CharacterFrequency(runes[0])), nil
	}
	return clampProbability(e.estimateFragment(vgram)), nil
}

// checkTable reports whether usable statistics are present. A table with
// entries but a non-positive minimum frequency sentinel is corrupt: the
// absent-q-gram fallback minfreq*0.5 would degenerate to zero.
func (e *SelectivityEstimator) checkTable() (bool, error) {
	if e.table == nil || e.table.Len() == 0 {
		return false, nil
	}
	if e.table.MinFrequency() <= 0 {
		return false, fmt.Errorf("govgram: corrupt statistics, non-positive minimum frequency %f", e.table.MinFrequency())
	}
	return true, nil
}

// estimateFragment estimates one boundary-padded lowercase fragment. Short
// fragments are looked up directly. Longer ones are approximated with a
// conditional-probability chain: seed with the first window, then for every
// following character multiply by freq(suffix+char)/freq(suffix) where
// suffix is the longest tail of the consumed window present in the table,
// down to the empty suffix with a forced denominator of 1.
func (e *SelectivityEstimator) estimateFragment(fragment string) float64 {
	runes := []rune(fragment)
	if len(runes) <= MaxStatQ {
		freq, _ := e.lookup(fragment)
		return float64(freq)
	}
	seed, _ := e.lookup(string(runes[:MaxStatQ]))
	estimate := float64(seed)
	p, q := 0, MaxStatQ
	for q < len(runes) {
		p++
		pp := p
		denominator, found := e.lookup(string(runes[pp:q]))
		for !found {
			pp++
			if pp >= q {
				denominator = 1.0
				break
			}
			denominator, found = e.lookup(string(runes[pp:q]))
		}
		q++
		numerator, _ := e.lookup(string(runes[pp:q]))
		estimate *= float64(numerator) / float64(denominator)
	}
	return estimate
}

// lookup returns the table frequency of _qgram_ and whether it was present,
// falling back to half the minimum observed frequency.
func (e *SelectivityEstimator) lookup(qgram string) (float32, bool) {
	if freq, ok := e.table.Lookup(qgram); ok {
		return freq, true
	}
	return e.table.MinFrequency() * 0.5, false
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
