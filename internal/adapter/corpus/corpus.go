package corpus

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

//go:embed data/sample.json
var sampleData []byte

// ErrMalformed is returned when a corpus file cannot be turned into a
// consistent surah -> ayah mapping.
var ErrMalformed = errors.New("malformed corpus")

// Corpus is a read-only, in-memory verse corpus keyed by surah number.
// It is safe for concurrent use once loaded.
type Corpus struct {
	surahs map[int][]domain.VerseRecord
	all    []domain.VerseRecord
}

// rawVerse accepts every key spelling found in published corpus dumps.
type rawVerse struct {
	Verse   *int   `json:"verse"`
	Ayah    *int   `json:"ayah"`
	Number  *int   `json:"number"`
	Chapter *int   `json:"chapter"`
	Surah   *int   `json:"surah"`
	Text    string `json:"text"`
}

// canonicalVerse is the only shape written by Write.
type canonicalVerse struct {
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

// LoadSample loads the corpus embedded in the binary. It holds a handful of
// short surahs and is meant for local runs and tests.
func LoadSample() (*Corpus, error) {
	return Load(bytes.NewReader(sampleData))
}

// LoadFile loads a JSON corpus from path.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}

// Load decodes a corpus of the form {"<surah>": [{"verse": 1, "text": "..."}]}.
// Ayah numbers may be spelled verse, ayah or number and surah numbers
// chapter or surah; all records are canonicalized here so lookups never see
// the aliases.
func Load(r io.Reader) (*Corpus, error) {
	var raw map[string][]rawVerse
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	verses := make(map[int][]domain.VerseRecord, len(raw))
	for key, list := range raw {
		surah, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("surah key %q: %w", key, ErrMalformed)
		}
		for i, rv := range list {
			record, err := canonicalize(surah, rv)
			if err != nil {
				return nil, fmt.Errorf("surah %d record %d: %w", surah, i, err)
			}
			verses[surah] = append(verses[surah], record)
		}
	}

	return New(verses)
}

func canonicalize(surah int, rv rawVerse) (domain.VerseRecord, error) {
	ayah := firstSet(rv.Verse, rv.Ayah, rv.Number)
	if ayah == nil {
		return domain.VerseRecord{}, fmt.Errorf("no ayah number: %w", ErrMalformed)
	}
	if chapter := firstSet(rv.Chapter, rv.Surah); chapter != nil && *chapter != surah {
		return domain.VerseRecord{}, fmt.Errorf("chapter %d filed under surah %d: %w", *chapter, surah, ErrMalformed)
	}
	return domain.VerseRecord{
		Reference: domain.VerseReference{Surah: surah, Ayah: *ayah},
		Text:      strings.TrimSpace(rv.Text),
	}, nil
}

func firstSet(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// New builds a corpus from already typed records. Records are sorted by
// ayah; duplicates, empty texts and ayahs outside the surah are rejected.
func New(verses map[int][]domain.VerseRecord) (*Corpus, error) {
	c := &Corpus{surahs: make(map[int][]domain.VerseRecord, len(verses))}

	for surah, list := range verses {
		info, err := domain.GetSurah(surah)
		if err != nil {
			return nil, fmt.Errorf("surah %d: %w", surah, ErrMalformed)
		}

		sorted := slices.Clone(list)
		slices.SortFunc(sorted, func(a, b domain.VerseRecord) int {
			return a.Reference.Ayah - b.Reference.Ayah
		})

		for i, v := range sorted {
			switch {
			case v.Reference.Surah != surah:
				return nil, fmt.Errorf("ayah %s filed under surah %d: %w", v.Reference, surah, ErrMalformed)
			case v.Reference.Ayah < 1 || v.Reference.Ayah > info.Ayahs:
				return nil, fmt.Errorf("ayah %s outside surah of %d ayahs: %w", v.Reference, info.Ayahs, ErrMalformed)
			case v.Text == "":
				return nil, fmt.Errorf("ayah %s has no text: %w", v.Reference, ErrMalformed)
			case i > 0 && sorted[i-1].Reference.Ayah == v.Reference.Ayah:
				return nil, fmt.Errorf("duplicate ayah %s: %w", v.Reference, ErrMalformed)
			}
		}
		c.surahs[surah] = sorted
	}

	numbers := lo.Keys(c.surahs)
	slices.Sort(numbers)
	c.all = lo.FlatMap(numbers, func(n int, _ int) []domain.VerseRecord {
		return c.surahs[n]
	})

	return c, nil
}

// Verses returns the ayahs of a surah in order.
func (c *Corpus) Verses(surah int) ([]domain.VerseRecord, error) {
	list, ok := c.surahs[surah]
	if !ok {
		return nil, fmt.Errorf("surah %d: %w", surah, domain.ErrSurahNotFound)
	}
	return slices.Clone(list), nil
}

// Verse returns a single ayah.
func (c *Corpus) Verse(ref domain.VerseReference) (domain.VerseRecord, error) {
	list, ok := c.surahs[ref.Surah]
	if !ok {
		return domain.VerseRecord{}, fmt.Errorf("surah %d: %w", ref.Surah, domain.ErrSurahNotFound)
	}
	i, found := slices.BinarySearchFunc(list, ref.Ayah, func(v domain.VerseRecord, ayah int) int {
		return v.Reference.Ayah - ayah
	})
	if !found {
		return domain.VerseRecord{}, fmt.Errorf("ayah %s: %w", ref, domain.ErrAyahNotFound)
	}
	return list[i], nil
}

// All returns every ayah in mushaf order. The slice is shared and must not
// be modified.
func (c *Corpus) All() []domain.VerseRecord {
	return c.all
}

// Surahs returns the surah numbers present in the corpus, ascending.
func (c *Corpus) Surahs() []int {
	numbers := lo.Keys(c.surahs)
	slices.Sort(numbers)
	return numbers
}

// Size returns the number of ayahs loaded.
func (c *Corpus) Size() int {
	return len(c.all)
}

// Write encodes verses in the canonical corpus shape accepted by Load.
func Write(w io.Writer, verses []domain.VerseRecord) error {
	out := make(map[string][]canonicalVerse)
	for _, v := range verses {
		key := strconv.Itoa(v.Reference.Surah)
		out[key] = append(out[key], canonicalVerse{
			Chapter: v.Reference.Surah,
			Verse:   v.Reference.Ayah,
			Text:    v.Text,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return nil
}
