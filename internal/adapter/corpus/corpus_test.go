package corpus

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

func TestLoadSample(t *testing.T) {
	c, err := LoadSample()
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if got := c.Surahs(); len(got) != 5 || got[0] != 1 || got[4] != 114 {
		t.Fatalf("unexpected surahs %v", got)
	}
	if c.Size() != 25 {
		t.Fatalf("expected 25 ayahs, got %d", c.Size())
	}

	fatiha, err := c.Verses(1)
	if err != nil {
		t.Fatalf("verses: %v", err)
	}
	if len(fatiha) != 7 {
		t.Fatalf("expected 7 ayahs in Al-Fatiha, got %d", len(fatiha))
	}
	for i, v := range fatiha {
		if v.Reference.Ayah != i+1 {
			t.Fatalf("ayah %d out of order: %s", i+1, v.Reference)
		}
	}

	all := c.All()
	if all[0].Reference != (domain.VerseReference{Surah: 1, Ayah: 1}) {
		t.Fatalf("first ayah is %s", all[0].Reference)
	}
	if last := all[len(all)-1].Reference; last != (domain.VerseReference{Surah: 114, Ayah: 6}) {
		t.Fatalf("last ayah is %s", last)
	}
}

func TestLoad_Aliases(t *testing.T) {
	in := `{
		"112": [
			{"ayah": 2, "surah": 112, "text": " اللَّهُ الصَّمَدُ "},
			{"number": 1, "text": "قُلْ هُوَ اللَّهُ أَحَدٌ"},
			{"verse": 3, "chapter": 112, "text": "لَمْ يَلِدْ وَلَمْ يُولَدْ"}
		]
	}`
	c, err := Load(strings.NewReader(in))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	verses, _ := c.Verses(112)
	if len(verses) != 3 {
		t.Fatalf("expected 3 ayahs, got %d", len(verses))
	}
	for i, v := range verses {
		if v.Reference != (domain.VerseReference{Surah: 112, Ayah: i + 1}) {
			t.Fatalf("record %d has reference %s", i, v.Reference)
		}
	}
	if verses[1].Text != "اللَّهُ الصَّمَدُ" {
		t.Fatalf("text not trimmed: %q", verses[1].Text)
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"bad key":           `{"one": [{"verse": 1, "text": "x"}]}`,
		"no ayah number":    `{"1": [{"text": "x"}]}`,
		"chapter mismatch":  `{"1": [{"verse": 1, "chapter": 2, "text": "x"}]}`,
		"duplicate":         `{"1": [{"verse": 1, "text": "x"}, {"verse": 1, "text": "y"}]}`,
		"empty text":        `{"1": [{"verse": 1, "text": "  "}]}`,
		"ayah out of surah": `{"1": [{"verse": 8, "text": "x"}]}`,
		"unknown surah":     `{"115": [{"verse": 1, "text": "x"}]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(in))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}

	if _, err := Load(strings.NewReader("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLookupErrors(t *testing.T) {
	c, err := LoadSample()
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}

	if _, err := c.Verses(2); !errors.Is(err, domain.ErrSurahNotFound) {
		t.Fatalf("expected ErrSurahNotFound, got %v", err)
	}
	if _, err := c.Verse(domain.VerseReference{Surah: 108, Ayah: 4}); !errors.Is(err, domain.ErrAyahNotFound) {
		t.Fatalf("expected ErrAyahNotFound, got %v", err)
	}

	v, err := c.Verse(domain.VerseReference{Surah: 108, Ayah: 2})
	if err != nil {
		t.Fatalf("verse: %v", err)
	}
	if !strings.Contains(v.Text, "وَانْحَرْ") {
		t.Fatalf("unexpected text %q", v.Text)
	}
}

func TestVerses_ReturnsCopy(t *testing.T) {
	c, _ := LoadSample()
	verses, _ := c.Verses(1)
	verses[0].Text = "changed"
	again, _ := c.Verses(1)
	if again[0].Text == "changed" {
		t.Fatal("Verses exposed internal storage")
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	c, _ := LoadSample()

	var buf bytes.Buffer
	if err := Write(&buf, c.All()); err != nil {
		t.Fatalf("write: %v", err)
	}
	reloaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Size() != c.Size() {
		t.Fatalf("reloaded %d ayahs, want %d", reloaded.Size(), c.Size())
	}
	for i, v := range reloaded.All() {
		if v != c.All()[i] {
			t.Fatalf("ayah %d differs after round trip: %+v", i, v)
		}
	}
}
