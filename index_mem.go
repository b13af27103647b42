package govgram

import (
	"sort"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/tchap/go-patricia/v2/patricia"
)

// MemIndex is an in-memory posting index from v-gram terms to document ids.
// Terms live in a patricia trie, posting lists are bitsets over dense
// internal document numbers, and a bloom filter in front of the trie rejects
// terms that were never posted. MemIndex is thread-safe.
//
// Extraction is lossy, so the index answers with candidates: every string
// containing the pattern is among the candidates, but candidates must be
// verified against the actual strings (recheck).
type MemIndex struct {
	lock   sync.RWMutex
	table  *FrequencyTable
	minQ   int
	maxQ   int
	trie   *patricia.Trie
	filter *termFilter
	terms  uint
	ids    []string
	idmap  map[string]uint
}

const (
	defaultIndexTermCapacity = 1 << 16
	defaultIndexErrorRate    = 0.01
)

// NewMemIndex creates an index extracting v-grams of [minQ, maxQ] runes
// against _table_.
func NewMemIndex(table *FrequencyTable, minQ, maxQ int) (*MemIndex, error) {
	return NewMemIndexWithCapacity(table, minQ, maxQ, defaultIndexTermCapacity, defaultIndexErrorRate)
}

// NewMemIndexWithCapacity creates an index whose term filter is sized for
// _termCapacity_ distinct terms at _errorRate_ false positive probability.
func NewMemIndexWithCapacity(table *FrequencyTable, minQ, maxQ int, termCapacity uint, errorRate float64) (*MemIndex, error) {
	if err := validateExtraction(table, minQ, maxQ); err != nil {
		return nil, err
	}
	return &MemIndex{
		table:  table,
		minQ:   minQ,
		maxQ:   maxQ,
		trie:   patricia.NewTrie(),
		filter: newTermFilter(termCapacity, errorRate),
		idmap:  make(map[string]uint),
	}, nil
}

// Add extracts the minimal v-grams of _value_ and posts them under _id_.
// Adding under an existing id accumulates postings, it never removes any.
func (ix *MemIndex) Add(id, value string) error {
	terms, err := ExtractVGrams(value, ix.table, ix.minQ, ix.maxQ)
	if err != nil {
		return err
	}
	ix.lock.Lock()
	defer ix.lock.Unlock()
	doc := ix.intern(id)
	for _, term := range terms {
		ix.post(term, doc)
	}
	return nil
}

// Put posts a single _term_ under _id_ without extraction.
func (ix *MemIndex) Put(term, id string) {
	ix.lock.Lock()
	defer ix.lock.Unlock()
	ix.post(term, ix.intern(id))
}

// Lookup returns the sorted document ids posted under _term_.
func (ix *MemIndex) Lookup(term string) []string {
	ix.lock.RLock()
	defer ix.lock.RUnlock()
	return ix.collect(ix.posting(term))
}

// QueryLike returns candidate document ids for a LIKE/ILIKE pattern. The
// second result reports whether candidates must be verified: it is false
// only when a probed term has no postings at all, which proves no document
// matches. A pattern yielding no probe terms returns every document, with
// recheck.
func (ix *MemIndex) QueryLike(pattern string) ([]string, bool, error) {
	terms, err := ExtractQueryVGrams(pattern, ix.table, ix.minQ, ix.maxQ)
	if err != nil {
		return nil, false, err
	}
	ix.lock.RLock()
	defer ix.lock.RUnlock()
	if len(terms) == 0 {
		all := make([]string, len(ix.ids))
		copy(all, ix.ids)
		sort.Strings(all)
		return all, true, nil
	}
	var result *bitset.BitSet
	for _, term := range terms {
		posting := ix.posting(term)
		if posting == nil {
			return nil, false, nil
		}
		if result == nil {
			result = posting.Clone()
		} else {
			result.InPlaceIntersection(posting)
		}
	}
	return ix.collect(result), true, nil
}

// Len returns the number of indexed documents.
func (ix *MemIndex) Len() int {
	ix.lock.RLock()
	defer ix.lock.RUnlock()
	return len(ix.ids)
}

// Terms returns the number of distinct posted terms.
func (ix *MemIndex) Terms() uint {
	ix.lock.RLock()
	defer ix.lock.RUnlock()
	return ix.terms
}

func (ix *MemIndex) intern(id string) uint {
	if doc, ok := ix.idmap[id]; ok {
		return doc
	}
	doc := uint(len(ix.ids))
	ix.ids = append(ix.ids, id)
	ix.idmap[id] = doc
	return doc
}

func (ix *MemIndex) post(term string, doc uint) {
	prefix := patricia.Prefix(term)
	if item := ix.trie.Get(prefix); item != nil {
		item.(*bitset.BitSet).Set(doc)
		return
	}
	posting := bitset.New(doc + 1)
	posting.Set(doc)
	ix.trie.Insert(prefix, posting)
	ix.filter.insert(term)
	ix.terms++
}

func (ix *MemIndex) posting(term string) *bitset.BitSet {
	if !ix.filter.mightContain(term) {
		return nil
	}
	if item := ix.trie.Get(patricia.Prefix(term)); item != nil {
		return item.(*bitset.BitSet)
	}
	return nil
}

func (ix *MemIndex) collect(posting *bitset.BitSet) []string {
	if posting == nil {
		return nil
	}
	var docs []string
	for i, ok := posting.NextSet(0); ok; i, ok = posting.NextSet(i + 1) {
		docs = append(docs, ix.ids[i])
	}
	sort.Strings(docs)
	return docs
}
