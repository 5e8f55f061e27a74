package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Validate checks the range against the surah table
func (a AssignmentRange) Validate() error {
	surah, err := GetSurah(a.Surah)
	if err != nil {
		return err
	}
	if a.StartAyah < 1 || a.StartAyah > a.EndAyah {
		return fmt.Errorf("%s: %w", a, ErrInvalidRange)
	}
	if a.EndAyah > surah.Ayahs {
		return fmt.Errorf("%s: surah %d has %d ayahs: %w", a, a.Surah, surah.Ayahs, ErrInvalidRange)
	}
	return nil
}

// Contains reports whether the ayah lies inside the range
func (a AssignmentRange) Contains(ref VerseReference) bool {
	return ref.Surah == a.Surah && ref.Ayah >= a.StartAyah && ref.Ayah <= a.EndAyah
}

// Len returns the number of ayahs in the range
func (a AssignmentRange) Len() int {
	if a.EndAyah < a.StartAyah {
		return 0
	}
	return a.EndAyah - a.StartAyah + 1
}

func (a AssignmentRange) String() string {
	if a.StartAyah == a.EndAyah {
		return fmt.Sprintf("%d:%d", a.Surah, a.StartAyah)
	}
	return fmt.Sprintf("%d:%d-%d", a.Surah, a.StartAyah, a.EndAyah)
}

// ParseAssignment parses a human-readable assignment descriptor.
//
// Accepted forms: "1" (whole surah), "1:5", "1:1-7", and the same with a
// surah name instead of the number, e.g. "Al-Fatiha:1-3" or "al fatiha".
// The parsed range is validated before it is returned.
func ParseAssignment(descriptor string) (AssignmentRange, error) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return AssignmentRange{}, fmt.Errorf("empty descriptor: %w", ErrInvalidReference)
	}

	surahPart, ayahPart, hasAyahs := strings.Cut(descriptor, ":")

	surah, err := parseSurah(surahPart)
	if err != nil {
		return AssignmentRange{}, fmt.Errorf("descriptor %q: %w", descriptor, err)
	}

	var a AssignmentRange
	if !hasAyahs {
		a = AssignmentRange{Surah: surah.Number, StartAyah: 1, EndAyah: surah.Ayahs}
	} else {
		start, end, err := parseAyahSpan(ayahPart)
		if err != nil {
			return AssignmentRange{}, fmt.Errorf("descriptor %q: %w", descriptor, err)
		}
		a = AssignmentRange{Surah: surah.Number, StartAyah: start, EndAyah: end}
	}

	if err := a.Validate(); err != nil {
		return AssignmentRange{}, err
	}
	return a, nil
}

func parseSurah(s string) (Surah, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return GetSurah(n)
	}

	key := surahKey(s)
	if key == "" {
		return Surah{}, ErrInvalidReference
	}
	for _, surah := range surahs {
		if surahKey(surah.Name) == key {
			return surah, nil
		}
	}
	return Surah{}, fmt.Errorf("unknown surah name %q: %w", s, ErrSurahNotFound)
}

func parseAyahSpan(s string) (int, int, error) {
	startStr, endStr, isRange := strings.Cut(strings.TrimSpace(s), "-")
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return 0, 0, ErrInvalidReference
	}
	if !isRange {
		return start, start, nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return 0, 0, ErrInvalidReference
	}
	return start, end, nil
}

// surahKey folds a surah name to lowercase letters only
func surahKey(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
