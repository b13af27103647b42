package govgram

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/dgryski/go-metro"

	"github.com/kwertop/govgram/internal/util"
)

// termFilter is a bloom filter over the terms posted to an in-memory index.
// A negative answer is definite, which lets queries reject v-grams that were
// never posted without touching the trie; a false positive only costs the
// trie lookup it failed to skip. Filling the filter past the capacity it was
// sized for degrades the false positive rate, nothing else.
type termFilter struct {
	size      uint
	numHashes uint
	bits      *bitset.BitSet
}

// newTermFilter sizes a filter for _capacity_ distinct terms at _errorRate_
// false positive probability.
func newTermFilter(capacity uint, errorRate float64) *termFilter {
	size := util.Max(util.CalculateFilterSize(capacity, errorRate), 1)
	numHashes := util.Max(util.CalculateNumHashes(size, capacity), 1)
	return &termFilter{
		size:      size,
		numHashes: numHashes,
		bits:      bitset.New(size),
	}
}

func (f *termFilter) insert(term string) {
	hashes := termHashes(term)
	for i := uint(0); i < f.numHashes; i++ {
		f.bits.Set(f.index(hashes, i))
	}
}

func (f *termFilter) mightContain(term string) bool {
	hashes := termHashes(term)
	for i := uint(0); i < f.numHashes; i++ {
		if !f.bits.Test(f.index(hashes, i)) {
			return false
		}
	}
	return true
}

func termHashes(term string) [2]uint64 {
	hash1, hash2 := metro.Hash128([]byte(term), 1373)
	return [2]uint64{hash1, hash2}
}

// index derives the i-th bit position from the two metro hashes by enhanced
// double hashing.
func (f *termFilter) index(hashes [2]uint64, i uint) uint {
	j := uint64(i)
	return uint((hashes[0] + j*hashes[1] + (j*j*j-j)/6) % uint64(f.size))
}
