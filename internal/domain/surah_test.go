package domain

import (
	"errors"
	"testing"
)

func TestGetAllSurahs_Totals(t *testing.T) {
	all := GetAllSurahs()
	if len(all) != 114 {
		t.Fatalf("expected 114 surahs, got %d", len(all))
	}
	total := 0
	for i, s := range all {
		if s.Number != i+1 {
			t.Fatalf("surah at index %d has number %d", i, s.Number)
		}
		total += s.Ayahs
	}
	if total != 6236 {
		t.Fatalf("expected 6236 ayahs, got %d", total)
	}

	all[0].Ayahs = 0
	if s, _ := GetSurah(1); s.Ayahs != 7 {
		t.Fatal("GetAllSurahs must return a copy")
	}
}

func TestAyahID_RoundTrip(t *testing.T) {
	ref := VerseReference{Surah: 110, Ayah: 1}
	if ref.ID() != "110001" {
		t.Fatalf("unexpected id %s", ref.ID())
	}
	got, err := ParseAyahID("110001")
	if err != nil {
		t.Fatal(err)
	}
	if got != ref {
		t.Fatalf("got %+v want %+v", got, ref)
	}
	if _, err := ParseAyahID("1101"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
}
