package govgram

import (
	"reflect"
	"testing"
)

// helloTable marks "he", "ll" and "lo" as frequent, everything else as rare.
func helloTable(t *testing.T) *FrequencyTable {
	table, err := NewFrequencyTable(2, 3, []FrequencyTableEntry{
		{"he", 0.8},
		{"ll", 0.6},
		{"lo", 0.7},
	})
	if err != nil {
		t.Fatalf("table should build, got error %v", err)
	}
	return table
}

func TestExtractMinimalWordVGrams(t *testing.T) {
	table := helloTable(t)
	vgrams, err := ExtractMinimalWordVGrams("$hello$", table, 2, 3)
	if err != nil {
		t.Fatalf("extraction should succeed, got error %v", err)
	}
	// Candidates by start position: $h, hel, el, llo, lo$, o$; the
	// minimality reduction drops hel (contains el) and lo$ (contains o$).
	expected := []string{"$h", "el", "llo", "o$"}
	if !reflect.DeepEqual(vgrams, expected) {
		t.Errorf("minimal v-grams should be %v, got %v", expected, vgrams)
	}
}

func TestExtractWordVGramsAllCandidates(t *testing.T) {
	table := helloTable(t)
	vgrams, err := ExtractWordVGrams("$hello$", table, 2, 3)
	if err != nil {
		t.Fatalf("extraction should succeed, got error %v", err)
	}
	expected := []string{"$h", "hel", "el", "llo", "lo$", "o$"}
	if !reflect.DeepEqual(vgrams, expected) {
		t.Errorf("all candidates should be %v, got %v", expected, vgrams)
	}
}

func TestExtractMinimalRareSubstringInvariant(t *testing.T) {
	table := helloTable(t)
	vgrams, _ := ExtractMinimalWordVGrams("$hello$", table, 2, 3)
	for _, vgram := range vgrams {
		if table.HasPrefix(vgram) {
			t.Errorf("emitted v-gram %q should be absent from the table", vgram)
		}
	}
}

func TestExtractPrefixSenseRarity(t *testing.T) {
	// With "hel" stored, its prefix "he" counts as frequent too, so no
	// candidate of any length survives at that start position.
	table, _ := NewFrequencyTable(2, 3, []FrequencyTableEntry{{"hel", 0.5}})
	vgrams, err := ExtractMinimalWordVGrams("$hel$", table, 2, 3)
	if err != nil {
		t.Fatalf("extraction should succeed, got error %v", err)
	}
	expected := []string{"$h", "el", "l$"}
	if !reflect.DeepEqual(vgrams, expected) {
		t.Errorf("minimal v-grams should be %v, got %v", expected, vgrams)
	}
}

func TestExtractEmptyTable(t *testing.T) {
	// With no frequent q-grams every candidate is rare at minQ length.
	table, _ := NewFrequencyTable(2, 3, nil)
	vgrams, err := ExtractMinimalWordVGrams("$ab$", table, 2, 3)
	if err != nil {
		t.Fatalf("extraction should succeed, got error %v", err)
	}
	expected := []string{"$a", "ab", "b$"}
	if !reflect.DeepEqual(vgrams, expected) {
		t.Errorf("minimal v-grams should be %v, got %v", expected, vgrams)
	}
}

func TestExtractShortWord(t *testing.T) {
	table := helloTable(t)
	vgrams, err := ExtractMinimalWordVGrams("$a$", table, 4, 5)
	if err != nil {
		t.Fatalf("short word should be a no-op, got error %v", err)
	}
	if len(vgrams) != 0 {
		t.Errorf("word shorter than minQ should yield no v-grams, got %v", vgrams)
	}
}

func TestExtractValidation(t *testing.T) {
	table := helloTable(t)
	if _, err := ExtractMinimalWordVGrams("$hello$", nil, 2, 3); err == nil {
		t.Error("nil table should error out")
	}
	if _, err := ExtractMinimalWordVGrams("$hello$", table, 0, 3); err == nil {
		t.Error("minQ 0 should error out")
	}
	if _, err := ExtractMinimalWordVGrams("$hello$", table, 3, 2); err == nil {
		t.Error("maxQ below minQ should error out")
	}
}

func TestExtractVGramsDedupSorted(t *testing.T) {
	table, _ := NewFrequencyTable(2, 3, nil)
	vgrams, err := ExtractVGrams("ab ba ab", table, 2, 3)
	if err != nil {
		t.Fatalf("extraction should succeed, got error %v", err)
	}
	// $ab$ yields $a, ab, b$ twice; $ba$ yields $b, ba, a$.
	expected := []string{"$a", "$b", "a$", "ab", "b$", "ba"}
	if !reflect.DeepEqual(vgrams, expected) {
		t.Errorf("v-grams should be deduplicated and sorted, got %v", vgrams)
	}
}

func TestExtractVGramsNoWords(t *testing.T) {
	table := helloTable(t)
	vgrams, err := ExtractVGrams("!!! ...", table, 2, 3)
	if err != nil {
		t.Fatalf("extraction should succeed, got error %v", err)
	}
	if len(vgrams) != 0 {
		t.Errorf("input without words should yield no v-grams, got %v", vgrams)
	}
}

func BenchmarkExtractVGrams(b *testing.B) {
	b.StopTimer()
	counter, _ := NewFrequencyCounter(2, 3)
	counter.Accumulate("the quick brown fox jumps over the lazy dog")
	counter.Accumulate("pack my box with five dozen liquor jugs")
	table, _ := counter.BuildTable(0)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		ExtractVGrams("sphinx of black quartz judge my vow", table, 2, 5)
	}
}
