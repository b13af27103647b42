package govgram

import (
	"reflect"
	"testing"
)

func TestWildcardPartsPadding(t *testing.T) {
	cases := []struct {
		pattern  string
		expected []string
	}{
		// Sides bounded by the pattern edge are padded, sides bounded
		// by a wildcard are not.
		{"abc", []string{"$abc$"}},
		{"%abc%", []string{"abc"}},
		{"ab_c", []string{"$ab", "c$"}},
		{"_ab%", []string{"ab"}},
		{"%abc", []string{"abc$"}},
		{"abc%", []string{"$abc"}},
	}
	for _, c := range cases {
		parts := ExtractWildcardParts(c.pattern)
		if !reflect.DeepEqual(parts, c.expected) {
			t.Errorf("parts of %q should be %v, got %v", c.pattern, c.expected, parts)
		}
	}
}

func TestWildcardPartsSeparators(t *testing.T) {
	// A non-word character splits fragments and pads both sides, like
	// word boundaries during tokenization.
	parts := ExtractWildcardParts("a-b")
	expected := []string{"$a$", "$b$"}
	if !reflect.DeepEqual(parts, expected) {
		t.Errorf("parts should be %v, got %v", expected, parts)
	}
	parts = ExtractWildcardParts("a1_2b")
	expected = []string{"$a1", "2b$"}
	if !reflect.DeepEqual(parts, expected) {
		t.Errorf("parts should be %v, got %v", expected, parts)
	}
}

func TestWildcardPartsEscapes(t *testing.T) {
	cases := []struct {
		pattern  string
		expected []string
	}{
		// An escaped wildcard is a literal non-word character.
		{`a\%b`, []string{"$a$", "$b$"}},
		{`%a\%`, []string{"a$"}},
		// An escaped word character joins the fragment.
		{`a\bc`, []string{"$abc$"}},
		{`%\ab`, []string{"ab$"}},
		// A dangling trailing escape is ignored.
		{`ab\`, []string{"$ab$"}},
	}
	for _, c := range cases {
		parts := ExtractWildcardParts(c.pattern)
		if !reflect.DeepEqual(parts, c.expected) {
			t.Errorf("parts of %q should be %v, got %v", c.pattern, c.expected, parts)
		}
	}
}

func TestWildcardPartsNoFragments(t *testing.T) {
	for _, pattern := range []string{"", "%", "%%__", "_"} {
		if parts := ExtractWildcardParts(pattern); len(parts) != 0 {
			t.Errorf("pattern %q should yield no fragments, got %v", pattern, parts)
		}
	}
}

func TestWildcardPartsKeepCase(t *testing.T) {
	parts := ExtractWildcardParts("%AbC%")
	expected := []string{"AbC"}
	if !reflect.DeepEqual(parts, expected) {
		t.Errorf("fragments should keep the input case, got %v", parts)
	}
}

func TestWildcardPartsUnicode(t *testing.T) {
	parts := ExtractWildcardParts("hé_llo")
	expected := []string{"$hé", "llo$"}
	if !reflect.DeepEqual(parts, expected) {
		t.Errorf("parts should be %v, got %v", expected, parts)
	}
}
