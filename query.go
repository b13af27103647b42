package govgram

import "strings"

// ExtractQueryVGrams extracts the v-grams used to probe a posting index for
// a LIKE/ILIKE pattern: the minimal v-grams of every literal fragment,
// ranked by estimated selectivity, keeping the OptimalVGramCount rarest.
// The result is deduplicated and sorted. An empty result means the pattern
// constrains nothing and the caller must fall back to scanning every
// document, with recheck.
func ExtractQueryVGrams(pattern string, table *FrequencyTable, minQ, maxQ int) ([]string, error) {
	if err := validateExtraction(table, minQ, maxQ); err != nil {
		return nil, err
	}
	type rankedVGram struct {
		vgram       string
		selectivity float64
	}
	estimator := NewSelectivityEstimator(table)
	var kept []rankedVGram
	var estimateErr error
	keep := func(vgram string) {
		selectivity, err := estimator.EstimateVGram(vgram)
		if err != nil {
			if estimateErr == nil {
				estimateErr = err
			}
			return
		}
		if len(kept) < OptimalVGramCount {
			kept = append(kept, rankedVGram{vgram, selectivity})
			return
		}
		// Replace the least selective kept v-gram, if this one is rarer.
		worst := 0
		for i := range kept {
			if kept[i].selectivity > kept[worst].selectivity {
				worst = i
			}
		}
		if selectivity < kept[worst].selectivity {
			kept[worst] = rankedVGram{vgram, selectivity}
		}
	}
	for _, fragment := range ExtractWildcardParts(pattern) {
		extractMinimalWordVGrams(strings.ToLower(fragment), table, minQ, maxQ, keep)
	}
	if estimateErr != nil {
		return nil, estimateErr
	}
	vgrams := make([]string, 0, len(kept))
	for _, r := range kept {
		vgrams = append(vgrams, r.vgram)
	}
	return uniqueStrings(vgrams), nil
}
