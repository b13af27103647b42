package govgram

import "sort"

// wordQGrams invokes _fn_ for every q-gram window of _word_ with q in
// [minQ, maxQ], shortest lengths first.
func wordQGrams(word string, minQ, maxQ int, fn func(qgram string)) {
	runes := []rune(word)
	for q := minQ; q <= maxQ; q++ {
		for i := 0; i+q <= len(runes); i++ {
			fn(string(runes[i : i+q]))
		}
	}
}

// FrequencyCounter counts exact q-gram occurrences over a corpus to build a
// frequent q-gram table. Every window occurrence counts, including repeats
// inside one word. Feed it with Accumulate or AccumulateWord, then call
// Finalize or BuildTable once; the counter is not meant to be reused after.
type FrequencyCounter struct {
	minQ    int
	maxQ    int
	counts  map[string]uint64
	words   uint64
	chars   uint64
	strings uint64
}

// NewFrequencyCounter creates a FrequencyCounter for q-gram lengths in
// [minQ, maxQ].
func NewFrequencyCounter(minQ, maxQ int) (*FrequencyCounter, error) {
	if err := validateQRange(minQ, maxQ); err != nil {
		return nil, err
	}
	return &FrequencyCounter{
		minQ:   minQ,
		maxQ:   maxQ,
		counts: make(map[string]uint64),
	}, nil
}

// Accumulate tokenizes _s_ and counts the q-grams of every word.
func (c *FrequencyCounter) Accumulate(s string) {
	c.strings++
	ExtractWords(s, c.AccumulateWord)
}

// AccumulateWord counts the q-grams of one padded word, as produced by
// ExtractWords.
func (c *FrequencyCounter) AccumulateWord(word string) {
	c.words++
	if n := len([]rune(word)); n > 2 {
		c.chars += uint64(n - 2)
	}
	wordQGrams(word, c.minQ, c.maxQ, func(qgram string) {
		c.counts[qgram]++
	})
}

// Count returns the accumulated occurrence count of _qgram_.
func (c *FrequencyCounter) Count(qgram string) uint64 {
	return c.counts[qgram]
}

// TotalWords returns the number of words accumulated so far.
func (c *FrequencyCounter) TotalWords() uint64 {
	return c.words
}

// TotalStrings returns the number of strings fed through Accumulate.
func (c *FrequencyCounter) TotalStrings() uint64 {
	return c.strings
}

// AvgWordLen returns the average word length seen so far, excluding the
// boundary padding.
func (c *FrequencyCounter) AvgWordLen() float32 {
	if c.words == 0 {
		return 0
	}
	return float32(float64(c.chars) / float64(c.words))
}

// Finalize keeps the q-grams occurring at least _limitRatio_ * totalWords
// times and annotates each with its relative frequency count/totalWords,
// clamped to 1. The entries are sorted by q-gram.
func (c *FrequencyCounter) Finalize(limitRatio float64) []FrequencyTableEntry {
	if c.words == 0 {
		return nil
	}
	limit := limitRatio * float64(c.words)
	entries := make([]FrequencyTableEntry, 0, len(c.counts))
	for qgram, count := range c.counts {
		if float64(count) < limit {
			continue
		}
		freq := float32(float64(count) / float64(c.words))
		if freq > 1 {
			freq = 1
		}
		entries = append(entries, FrequencyTableEntry{qgram, freq})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QGram < entries[j].QGram
	})
	return entries
}

// BuildTable finalizes the counter into a FrequencyTable carrying the corpus
// metadata.
func (c *FrequencyCounter) BuildTable(limitRatio float64) (*FrequencyTable, error) {
	table, err := NewFrequencyTable(c.minQ, c.maxQ, c.Finalize(limitRatio))
	if err != nil {
		return nil, err
	}
	table.avgWordLen = c.AvgWordLen()
	table.rows = c.strings
	return table, nil
}
