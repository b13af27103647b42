package govgram

import (
	"fmt"
	"testing"
)

func TestLossyCounterBasic(t *testing.T) {
	counter, err := NewLossyCounter(1, 2, 1000)
	if err != nil {
		t.Fatalf("counter should build, got error %v", err)
	}
	counter.Add("ab")
	counter.Add("cd")

	if counter.Rows() != 2 {
		t.Errorf("rows should be 2, got %d", counter.Rows())
	}
	// $ is in both units, everything else in one.
	if counter.Count("$") != 2 {
		t.Errorf("count of $ should be 2, got %d", counter.Count("$"))
	}
	if counter.Count("ab") != 1 {
		t.Errorf("count of ab should be 1, got %d", counter.Count("ab"))
	}
	if counter.Count("zz") != 0 {
		t.Errorf("count of an unseen q-gram should be 0, got %d", counter.Count("zz"))
	}

	table, err := counter.BuildTable()
	if err != nil {
		t.Fatalf("table should build, got error %v", err)
	}
	if table.Len() != 11 {
		t.Errorf("table should have 11 entries, got %d", table.Len())
	}
	if freq, ok := table.Lookup("$"); !ok || freq != 1 {
		t.Errorf("frequency of $ should be 1, got %v %v", freq, ok)
	}
	if freq, ok := table.Lookup("ab"); !ok || freq != 0.5 {
		t.Errorf("frequency of ab should be 0.5, got %v %v", freq, ok)
	}
	if table.MinFrequency() != 0.5 || table.MaxFrequency() != 1 {
		t.Errorf("sentinel frequencies should be 0.5 and 1, got %v and %v", table.MinFrequency(), table.MaxFrequency())
	}
	if table.AvgWordLen() != 2 {
		t.Errorf("average word length should be 2, got %v", table.AvgWordLen())
	}
}

func TestLossyCounterPerUnitDedup(t *testing.T) {
	counter, _ := NewLossyCounter(1, 2, 1000)
	counter.Add("ab ab")

	// Both words are in the same unit, so every q-gram counts once.
	if counter.Rows() != 1 {
		t.Errorf("rows should be 1, got %d", counter.Rows())
	}
	for _, qgram := range []string{"$", "a", "b", "$a", "ab", "b$"} {
		if counter.Count(qgram) != 1 {
			t.Errorf("count of %q should be 1, got %d", qgram, counter.Count(qgram))
		}
	}
}

func TestLossyCounterUnitBoundaries(t *testing.T) {
	counter, _ := NewLossyCounter(1, 2, 1000)
	counter.AddWord("$xy$")
	counter.AddWord("$xy$")
	counter.Flush()
	if counter.Count("xy") != 1 {
		t.Errorf("count within one unit should be 1, got %d", counter.Count("xy"))
	}
	counter.AddWord("$xy$")
	counter.Flush()
	if counter.Count("xy") != 2 {
		t.Errorf("count across two units should be 2, got %d", counter.Count("xy"))
	}
}

func TestLossyCounterPruning(t *testing.T) {
	// k=2 gives a bucket width of 12000/7 = 1714 occurrences. One unit of
	// one-off q-grams followed by enough repetitive units crosses a bucket
	// boundary and prunes the one-offs.
	counter, _ := NewLossyCounter(1, 2, 2)
	counter.Add("xyzq")
	for i := 0; i < 400; i++ {
		counter.Add("aaaa")
	}

	if counter.Size() != 5 {
		t.Errorf("working set should hold only $, a, $a, aa, a$, got %d entries", counter.Size())
	}
	if counter.Count("xy") != 0 {
		t.Errorf("one-off q-gram should be pruned, got count %d", counter.Count("xy"))
	}
	if counter.Count("$") != 401 {
		t.Errorf("count of $ should be 401, got %d", counter.Count("$"))
	}
	if counter.Count("aa") != 400 {
		t.Errorf("count of aa should be 400, got %d", counter.Count("aa"))
	}

	table, err := counter.BuildTable()
	if err != nil {
		t.Fatalf("table should build, got error %v", err)
	}
	// Top-2 truncation keeps $ and $a, preferring higher counts and
	// breaking the tie at 400 lexicographically.
	if table.Len() != 2 {
		t.Errorf("table should be truncated to 2 entries, got %d", table.Len())
	}
	if freq, ok := table.Lookup("$"); !ok || freq != 1 {
		t.Errorf("frequency of $ should be 1, got %v %v", freq, ok)
	}
	if freq, ok := table.Lookup("$a"); !ok || freq != float32(float64(400)/float64(401)) {
		t.Errorf("frequency of $a should be 400/401, got %v %v", freq, ok)
	}
	if table.MinFrequency() != float32(float64(400)/float64(401)) {
		t.Errorf("min frequency should reflect the rarest kept entry, got %v", table.MinFrequency())
	}
	if table.MaxFrequency() != 1 {
		t.Errorf("max frequency should be 1, got %v", table.MaxFrequency())
	}
	if table.Rows() != 401 {
		t.Errorf("rows should be 401, got %d", table.Rows())
	}
	if table.AvgWordLen() != 4 {
		t.Errorf("average word length should be 4, got %v", table.AvgWordLen())
	}

	// A pruned q-gram re-enters with a fresh count; it may undercount but
	// never overcount.
	counter.Add("xyzq")
	if counter.Count("xy") != 1 {
		t.Errorf("re-entered q-gram should restart at 1, got %d", counter.Count("xy"))
	}
}

func TestLossyCounterValidation(t *testing.T) {
	if _, err := NewLossyCounter(1, 2, 0); err == nil {
		t.Error("k 0 should error out")
	}
	if _, err := NewLossyCounter(0, 2, 10); err == nil {
		t.Error("minQ 0 should error out")
	}
	if _, err := NewLossyCounter(3, 2, 10); err == nil {
		t.Error("maxQ below minQ should error out")
	}
}

func BenchmarkLossyCounterAdd(b *testing.B) {
	b.StopTimer()
	counter, _ := NewLossyCounter(1, 3, 1000)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		counter.Add(fmt.Sprintf("stream unit %d with some repeating words", i))
	}
}
