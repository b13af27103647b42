package govgram

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// FrequencyTableEntry is one frequent q-gram with its relative frequency.
type FrequencyTableEntry struct {
	QGram     string
	Frequency float32
}

// FrequencyTable is an immutable, sorted collection of frequent q-grams used
// both as the rarity oracle during v-gram extraction and as the statistics
// source during selectivity estimation.
// _minQ_ and _maxQ_ bound the q-gram lengths the table was built for.
// _entries_ is sorted by q-gram in byte-lexicographic order.
// _minFreq_ and _maxFreq_ are the sentinel frequencies of the least and most
// frequent entry, kept explicitly so estimation can use them after the table
// has been truncated.
// _avgWordLen_ and _rows_ describe the corpus the table was learned from.
type FrequencyTable struct {
	minQ       int
	maxQ       int
	entries    []FrequencyTableEntry
	minFreq    float32
	maxFreq    float32
	avgWordLen float32
	rows       uint64
}

// NewFrequencyTable sorts _entries_ by q-gram and builds a table for q-gram
// lengths in [minQ, maxQ]. Entries must be unique with positive frequencies;
// violations indicate corrupt statistics and are returned as errors. The
// sentinel frequencies are computed from the entries.
func NewFrequencyTable(minQ, maxQ int, entries []FrequencyTableEntry) (*FrequencyTable, error) {
	if err := validateQRange(minQ, maxQ); err != nil {
		return nil, err
	}
	table := &FrequencyTable{
		minQ:    minQ,
		maxQ:    maxQ,
		entries: make([]FrequencyTableEntry, len(entries)),
	}
	copy(table.entries, entries)
	sort.Slice(table.entries, func(i, j int) bool {
		return table.entries[i].QGram < table.entries[j].QGram
	})
	for i := range table.entries {
		entry := table.entries[i]
		if entry.Frequency <= 0 {
			return nil, fmt.Errorf("govgram: corrupt statistics, q-gram %q has frequency %f", entry.QGram, entry.Frequency)
		}
		if i > 0 && entry.QGram == table.entries[i-1].QGram {
			return nil, fmt.Errorf("govgram: corrupt statistics, duplicate q-gram %q", entry.QGram)
		}
		if i == 0 || entry.Frequency < table.minFreq {
			table.minFreq = entry.Frequency
		}
		if entry.Frequency > table.maxFreq {
			table.maxFreq = entry.Frequency
		}
	}
	return table, nil
}

// Len returns the number of entries in the table.
func (t *FrequencyTable) Len() int {
	return len(t.entries)
}

// MinQ returns the smallest q-gram length the table was built for.
func (t *FrequencyTable) MinQ() int {
	return t.minQ
}

// MaxQ returns the largest q-gram length the table was built for.
func (t *FrequencyTable) MaxQ() int {
	return t.maxQ
}

// MinFrequency returns the sentinel frequency of the rarest entry, 0 for an
// empty table.
func (t *FrequencyTable) MinFrequency() float32 {
	return t.minFreq
}

// MaxFrequency returns the sentinel frequency of the most frequent entry, 0
// for an empty table.
func (t *FrequencyTable) MaxFrequency() float32 {
	return t.maxFreq
}

// AvgWordLen returns the average word length of the corpus the table was
// learned from, excluding boundary padding. It is 0 unless set by a builder.
func (t *FrequencyTable) AvgWordLen() float32 {
	return t.avgWordLen
}

// Rows returns the number of strings the table was learned from.
func (t *FrequencyTable) Rows() uint64 {
	return t.rows
}

// Entries returns the sorted entries backing the table. The slice must be
// treated as read-only.
func (t *FrequencyTable) Entries() []FrequencyTableEntry {
	return t.entries
}

// Lookup returns the frequency of _qgram_ and whether the table contains it.
func (t *FrequencyTable) Lookup(qgram string) (float32, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].QGram >= qgram
	})
	if i < len(t.entries) && t.entries[i].QGram == qgram {
		return t.entries[i].Frequency, true
	}
	return 0, false
}

// Contains reports whether the table has an exact entry for _qgram_.
func (t *FrequencyTable) Contains(qgram string) bool {
	_, ok := t.Lookup(qgram)
	return ok
}

// PrefixSearch returns the index of an entry whose q-gram starts with
// _prefix_, or -1 if there is none. _lower_ and _upper_ are inclusive search
// bounds narrowed in place; after the call they still bracket every entry
// starting with _prefix_, so the same bounds may be passed again for any
// longer prefix to continue the search in the narrowed window. Callers start
// with lower=0 and upper=Len()-1.
func (t *FrequencyTable) PrefixSearch(prefix string, lower, upper *int) int {
	for *lower <= *upper {
		mid := (*lower + *upper) / 2
		qgram := t.entries[mid].QGram
		if strings.HasPrefix(qgram, prefix) {
			return mid
		}
		if qgram < prefix {
			*lower = mid + 1
		} else {
			*upper = mid - 1
		}
	}
	return -1
}

// HasPrefix reports whether any entry starts with _prefix_.
func (t *FrequencyTable) HasPrefix(prefix string) bool {
	lower, upper := 0, len(t.entries)-1
	return t.PrefixSearch(prefix, &lower, &upper) >= 0
}

// CharacterFrequency returns the frequency of the single-character q-gram
// _r_, falling back to DefaultCharacterFrequency when the table has no entry
// for it.
func (t *FrequencyTable) CharacterFrequency(r rune) float32 {
	if freq, ok := t.Lookup(string(r)); ok {
		return freq
	}
	return DefaultCharacterFrequency
}

type frequencyTableEntryJSON struct {
	QGram     string  `json:"q"`
	Frequency float32 `json:"f"`
}

type frequencyTableJSON struct {
	MinQ       int                       `json:"mnq"`
	MaxQ       int                       `json:"mxq"`
	Entries    []frequencyTableEntryJSON `json:"e"`
	MinFreq    float32                   `json:"mnf"`
	MaxFreq    float32                   `json:"mxf"`
	AvgWordLen float32                   `json:"aw"`
	Rows       uint64                    `json:"r"`
}

// Export JSON marshals the table.
func (t *FrequencyTable) Export() ([]byte, error) {
	entries := make([]frequencyTableEntryJSON, len(t.entries))
	for i := range t.entries {
		entries[i] = frequencyTableEntryJSON{t.entries[i].QGram, t.entries[i].Frequency}
	}
	return json.Marshal(frequencyTableJSON{t.minQ, t.maxQ, entries, t.minFreq, t.maxFreq, t.avgWordLen, t.rows})
}

// Import JSON unmarshals _data_ into the table, replacing its contents.
func (t *FrequencyTable) Import(data []byte) error {
	var table frequencyTableJSON
	err := json.Unmarshal(data, &table)
	if err != nil {
		return fmt.Errorf("govgram: error while unmarshalling data, error %v", err)
	}
	entries := make([]FrequencyTableEntry, len(table.Entries))
	for i := range table.Entries {
		entries[i] = FrequencyTableEntry{table.Entries[i].QGram, table.Entries[i].Frequency}
	}
	imported, err := NewFrequencyTable(table.MinQ, table.MaxQ, entries)
	if err != nil {
		return err
	}
	imported.avgWordLen = table.AvgWordLen
	imported.rows = table.Rows
	*t = *imported
	return nil
}

// maxTableEntryBytes caps the serialized length of a single q-gram, well past
// any practical maxQ. Anything longer marks a corrupt payload.
const maxTableEntryBytes = 64 * utf8.UTFMax

// WriteTo writes the binary representation of the table to _stream_ and
// returns the number of bytes written.
func (t *FrequencyTable) WriteTo(stream io.Writer) (int64, error) {
	err := binary.Write(stream, binary.BigEndian, uint64(t.minQ))
	if err != nil {
		return 0, err
	}
	err = binary.Write(stream, binary.BigEndian, uint64(t.maxQ))
	if err != nil {
		return 0, err
	}
	err = binary.Write(stream, binary.BigEndian, t.minFreq)
	if err != nil {
		return 0, err
	}
	err = binary.Write(stream, binary.BigEndian, t.maxFreq)
	if err != nil {
		return 0, err
	}
	err = binary.Write(stream, binary.BigEndian, t.avgWordLen)
	if err != nil {
		return 0, err
	}
	err = binary.Write(stream, binary.BigEndian, t.rows)
	if err != nil {
		return 0, err
	}
	err = binary.Write(stream, binary.BigEndian, uint64(len(t.entries)))
	if err != nil {
		return 0, err
	}
	size := int64(4*binary.Size(uint64(0)) + 3*binary.Size(float32(0)))
	for i := range t.entries {
		qgram := []byte(t.entries[i].QGram)
		err = binary.Write(stream, binary.BigEndian, uint16(len(qgram)))
		if err != nil {
			return 0, err
		}
		_, err = stream.Write(qgram)
		if err != nil {
			return 0, err
		}
		err = binary.Write(stream, binary.BigEndian, t.entries[i].Frequency)
		if err != nil {
			return 0, err
		}
		size += int64(binary.Size(uint16(0)) + len(qgram) + binary.Size(float32(0)))
	}
	return size, nil
}

// ReadFrom reads the binary representation of a table from _stream_ into the
// receiver, replacing its contents, and returns the number of bytes read.
func (t *FrequencyTable) ReadFrom(stream io.Reader) (int64, error) {
	var minQ, maxQ, rows, count uint64
	var minFreq, maxFreq, avgWordLen float32
	err := binary.Read(stream, binary.BigEndian, &minQ)
	if err != nil {
		return 0, err
	}
	err = binary.Read(stream, binary.BigEndian, &maxQ)
	if err != nil {
		return 0, err
	}
	err = binary.Read(stream, binary.BigEndian, &minFreq)
	if err != nil {
		return 0, err
	}
	err = binary.Read(stream, binary.BigEndian, &maxFreq)
	if err != nil {
		return 0, err
	}
	err = binary.Read(stream, binary.BigEndian, &avgWordLen)
	if err != nil {
		return 0, err
	}
	err = binary.Read(stream, binary.BigEndian, &rows)
	if err != nil {
		return 0, err
	}
	err = binary.Read(stream, binary.BigEndian, &count)
	if err != nil {
		return 0, err
	}
	size := int64(4*binary.Size(uint64(0)) + 3*binary.Size(float32(0)))
	entries := make([]FrequencyTableEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		var length uint16
		err = binary.Read(stream, binary.BigEndian, &length)
		if err != nil {
			return 0, err
		}
		if length > maxTableEntryBytes {
			return 0, fmt.Errorf("govgram: corrupt statistics, q-gram of %d bytes in serialized table", length)
		}
		qgram := make([]byte, length)
		_, err = io.ReadFull(stream, qgram)
		if err != nil {
			return 0, err
		}
		var freq float32
		err = binary.Read(stream, binary.BigEndian, &freq)
		if err != nil {
			return 0, err
		}
		entries = append(entries, FrequencyTableEntry{string(qgram), freq})
		size += int64(binary.Size(uint16(0)) + int(length) + binary.Size(float32(0)))
	}
	read, err := NewFrequencyTable(int(minQ), int(maxQ), entries)
	if err != nil {
		return 0, err
	}
	read.minFreq = minFreq
	read.maxFreq = maxFreq
	read.avgWordLen = avgWordLen
	read.rows = rows
	*t = *read
	return size, nil
}

// Equals checks if two frequency tables have the same parameters and entries.
func (t *FrequencyTable) Equals(u *FrequencyTable) (bool, error) {
	if t.minQ != u.minQ || t.maxQ != u.maxQ {
		return false, fmt.Errorf("q ranges aren't equal, [%d, %d] and [%d, %d]", t.minQ, t.maxQ, u.minQ, u.maxQ)
	}
	if len(t.entries) != len(u.entries) {
		return false, fmt.Errorf("entry counts aren't equal, %d and %d", len(t.entries), len(u.entries))
	}
	for i := range t.entries {
		if t.entries[i] != u.entries[i] {
			return false, fmt.Errorf("entries at index %d aren't equal, %v and %v", i, t.entries[i], u.entries[i])
		}
	}
	return true, nil
}
