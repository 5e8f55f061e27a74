package scoring

import (
	"strings"
	"testing"
)

func totalWords(slices []VerseSlice) int {
	n := 0
	for _, s := range slices {
		n += len(s.Words)
	}
	return n
}

func TestAllocate_Conservation(t *testing.T) {
	exact := joinTexts(fatiha)
	cases := []struct {
		name       string
		transcript string
	}{
		{"exact", exact},
		{"longer", exact + " امين امين"},
		{"shorter", "بسم الله الرحمن الرحيم الحمد لله"},
		{"empty", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			slices := Allocate(c.transcript, fatiha, 0.2)
			if len(slices) != len(fatiha) {
				t.Fatalf("expected %d slices, got %d", len(fatiha), len(slices))
			}
			words := len(Words(Normalize(c.transcript)))
			if got := totalWords(slices); got != words {
				t.Fatalf("allocated %d words, transcript has %d", got, words)
			}
		})
	}
}

func TestAllocate_ExactTranscriptAlignsWithVerses(t *testing.T) {
	slices := Allocate(joinTexts(fatiha), fatiha, 0.2)
	for i, s := range slices {
		if s.IsMissing {
			t.Fatalf("ayah %d unexpectedly missing", i+1)
		}
		if s.Transcribed() != s.NormalizedExpected {
			t.Fatalf("ayah %d: got %q want %q", i+1, s.Transcribed(), s.NormalizedExpected)
		}
	}
}

func TestAllocate_SurplusGoesToLastVerse(t *testing.T) {
	slices := Allocate(joinTexts(ikhlas)+" امين", ikhlas, 0.2)
	last := slices[len(slices)-1]
	if got := last.Words[len(last.Words)-1]; got != "امين" {
		t.Fatalf("expected surplus word on last ayah, got %q", got)
	}
	if len(last.Words) != len(last.ExpectedWords)+1 {
		t.Fatalf("expected %d words on last ayah, got %d", len(last.ExpectedWords)+1, len(last.Words))
	}
}

func TestAllocate_CursorNeverResets(t *testing.T) {
	// 4 + 4 + 2 expected words, 5 available
	slices := Allocate("بسم الله الرحمن الرحيم الحمد", fatiha[:3], 0.2)
	if len(slices[0].Words) != 4 {
		t.Fatalf("ayah 1: expected 4 words, got %d", len(slices[0].Words))
	}
	if len(slices[1].Words) != 1 || slices[1].Words[0] != "الحمد" {
		t.Fatalf("ayah 2: expected [الحمد], got %v", slices[1].Words)
	}
	if slices[1].IsMissing {
		t.Fatal("ayah 2: one of four words meets the 20% rule")
	}
	if len(slices[2].Words) != 0 || !slices[2].IsMissing {
		t.Fatalf("ayah 3: expected no words and missing, got %v missing=%v", slices[2].Words, slices[2].IsMissing)
	}
}

func TestAllocate_MissingRatio(t *testing.T) {
	// ayahs 1-6 hold 20 words, ayah 7 holds 9 so it needs ceil(1.8) = 2
	prefix := joinTexts(fatiha[:6])
	cases := []struct {
		name    string
		extra   string
		missing bool
	}{
		{"no words", "", true},
		{"one word", "صراط", true},
		{"two words", "صراط الذين", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			slices := Allocate(strings.TrimSpace(prefix+" "+c.extra), fatiha, 0.2)
			if got := slices[6].IsMissing; got != c.missing {
				t.Fatalf("ayah 7 missing = %v, want %v", got, c.missing)
			}
		})
	}
}

func TestIsMissing(t *testing.T) {
	cases := []struct {
		retrieved, expected int
		ratio               float64
		want                bool
	}{
		{0, 4, 0.2, true},
		{0, 0, 0.2, true},
		{1, 4, 0.2, false},
		{3, 15, 0.2, false},
		{2, 15, 0.2, true},
		{1, 9, 0.2, true},
		{2, 9, 0.2, false},
		{1, 10, 0, false},
		{9, 10, 1, true},
	}
	for _, c := range cases {
		if got := isMissing(c.retrieved, c.expected, c.ratio); got != c.want {
			t.Fatalf("isMissing(%d, %d, %v) = %v, want %v", c.retrieved, c.expected, c.ratio, got, c.want)
		}
	}
}
