package govgram

import (
	"fmt"
	"sort"
)

// lossyEntry tracks one q-gram inside the lossy counting working set.
// _count_ is the number of units the q-gram was seen in since it entered the
// set, _delta_ the maximum number of units it could have been seen in before
// that, _touched_ whether it was already counted in the open unit.
type lossyEntry struct {
	count   uint64
	delta   uint64
	touched bool
}

// LossyCounter builds a frequent q-gram table from a stream of strings in
// bounded memory using lossy counting. One input string is one counting unit:
// each distinct q-gram is counted at most once per unit, so an entry count is
// the number of units containing the q-gram (up to the lossy error). After
// every unit that crosses a bucket boundary the working set is pruned, which
// bounds its size independently of the stream length.
// _k_ is the target number of table entries; the bucket width follows from it
// under a zipfian assumption, as does the final cutoff of 9/10 of a bucket.
type LossyCounter struct {
	minQ        int
	maxQ        int
	k           uint
	bucketWidth uint64
	entries     map[string]*lossyEntry
	touched     []*lossyEntry
	occurrences uint64
	unitStart   uint64
	bCurrent    uint64
	rows        uint64
	words       uint64
	chars       uint64
}

// NewLossyCounter creates a LossyCounter for q-gram lengths in [minQ, maxQ]
// targeting a table of _k_ entries. Statistics tables meant for selectivity
// estimation use minQ=1 and maxQ=MaxStatQ.
func NewLossyCounter(minQ, maxQ int, k uint) (*LossyCounter, error) {
	if err := validateQRange(minQ, maxQ); err != nil {
		return nil, err
	}
	if k == 0 {
		return nil, fmt.Errorf("govgram: target entry count must be greater than zero")
	}
	return &LossyCounter{
		minQ:        minQ,
		maxQ:        maxQ,
		k:           k,
		bucketWidth: uint64(k+10) * 1000 / 7,
		entries:     make(map[string]*lossyEntry),
		bCurrent:    1,
	}, nil
}

// Add feeds one string as a complete counting unit.
func (lc *LossyCounter) Add(s string) {
	ExtractWords(s, lc.AddWord)
	lc.Flush()
}

// AddWord feeds one padded word, as produced by ExtractWords, into the open
// unit. The unit stays open until Flush is called.
func (lc *LossyCounter) AddWord(word string) {
	lc.words++
	if n := len([]rune(word)); n > 2 {
		lc.chars += uint64(n - 2)
	}
	wordQGrams(word, lc.minQ, lc.maxQ, lc.touch)
}

func (lc *LossyCounter) touch(qgram string) {
	entry := lc.entries[qgram]
	if entry != nil {
		if entry.touched {
			return
		}
		entry.count++
	} else {
		entry = &lossyEntry{count: 1, delta: lc.bCurrent - 1}
		lc.entries[qgram] = entry
	}
	entry.touched = true
	lc.touched = append(lc.touched, entry)
	lc.occurrences++
}

// Flush closes the open unit: per-unit flags are reset and, when the
// occurrence count crossed a bucket boundary, the working set is pruned
// before the bucket number advances. Every input string is one unit, flushed
// even when it yields no words.
func (lc *LossyCounter) Flush() {
	lc.rows++
	for _, entry := range lc.touched {
		entry.touched = false
	}
	lc.touched = lc.touched[:0]
	if lc.occurrences/lc.bucketWidth != lc.unitStart/lc.bucketWidth {
		lc.prune()
		lc.bCurrent += lc.occurrences/lc.bucketWidth - lc.unitStart/lc.bucketWidth
	}
	lc.unitStart = lc.occurrences
}

// prune drops every entry whose count plus error bound no longer reaches the
// current bucket number.
func (lc *LossyCounter) prune() {
	for qgram, entry := range lc.entries {
		if entry.count+entry.delta <= lc.bCurrent {
			delete(lc.entries, qgram)
		}
	}
}

// Size returns the number of q-grams in the working set.
func (lc *LossyCounter) Size() int {
	return len(lc.entries)
}

// Rows returns the number of units counted so far.
func (lc *LossyCounter) Rows() uint64 {
	return lc.rows
}

// Count returns the working-set count of _qgram_, 0 if it was pruned or
// never seen.
func (lc *LossyCounter) Count(qgram string) uint64 {
	if entry := lc.entries[qgram]; entry != nil {
		return entry.count
	}
	return 0
}

// AvgWordLen returns the average word length seen so far, excluding the
// boundary padding.
func (lc *LossyCounter) AvgWordLen() float32 {
	if lc.words == 0 {
		return 0
	}
	return float32(float64(lc.chars) / float64(lc.words))
}

// BuildTable finalizes the counter into a FrequencyTable: entries below the
// final cutoff are dropped, at most _k_ entries are kept preferring the
// highest counts, and counts become relative frequencies with the number of
// units as divisor. The sentinel frequencies reflect the rarest and most
// frequent surviving counts even after truncation.
func (lc *LossyCounter) BuildTable() (*FrequencyTable, error) {
	type survivor struct {
		qgram string
		count uint64
	}
	cutoff := 9 * lc.occurrences / lc.bucketWidth
	var survivors []survivor
	var minCount, maxCount uint64
	for qgram, entry := range lc.entries {
		if entry.count <= cutoff {
			continue
		}
		if len(survivors) == 0 || entry.count < minCount {
			minCount = entry.count
		}
		if entry.count > maxCount {
			maxCount = entry.count
		}
		survivors = append(survivors, survivor{qgram, entry.count})
	}
	if len(survivors) > int(lc.k) {
		sort.Slice(survivors, func(i, j int) bool {
			if survivors[i].count == survivors[j].count {
				return survivors[i].qgram < survivors[j].qgram
			}
			return survivors[i].count > survivors[j].count
		})
		survivors = survivors[:lc.k]
		minCount = survivors[len(survivors)-1].count
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].qgram < survivors[j].qgram
	})
	entries := make([]FrequencyTableEntry, 0, len(survivors))
	for _, s := range survivors {
		entries = append(entries, FrequencyTableEntry{s.qgram, float32(float64(s.count) / float64(lc.rows))})
	}
	table, err := NewFrequencyTable(lc.minQ, lc.maxQ, entries)
	if err != nil {
		return nil, err
	}
	if len(survivors) > 0 {
		table.minFreq = float32(float64(minCount) / float64(lc.rows))
		table.maxFreq = float32(float64(maxCount) / float64(lc.rows))
	}
	table.avgWordLen = lc.AvgWordLen()
	table.rows = lc.rows
	return table, nil
}
