package domain

import (
	"errors"
	"testing"
)

func TestParseAssignment(t *testing.T) {
	cases := []struct {
		in   string
		want AssignmentRange
	}{
		{"1", AssignmentRange{Surah: 1, StartAyah: 1, EndAyah: 7}},
		{"1:5", AssignmentRange{Surah: 1, StartAyah: 5, EndAyah: 5}},
		{"1:1-7", AssignmentRange{Surah: 1, StartAyah: 1, EndAyah: 7}},
		{" 112 : 2 - 4 ", AssignmentRange{Surah: 112, StartAyah: 2, EndAyah: 4}},
		{"Al-Fatiha:1-3", AssignmentRange{Surah: 1, StartAyah: 1, EndAyah: 3}},
		{"an nas", AssignmentRange{Surah: 114, StartAyah: 1, EndAyah: 6}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseAssignment(c.in)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != c.want {
				t.Fatalf("got %+v want %+v", got, c.want)
			}
		})
	}
}

func TestParseAssignment_Errors(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"", ErrInvalidReference},
		{"1:x", ErrInvalidReference},
		{"1:2-y", ErrInvalidReference},
		{"!!!", ErrInvalidReference},
		{"115", ErrSurahNotFound},
		{"0:1", ErrSurahNotFound},
		{"Al-Unknown:1", ErrSurahNotFound},
		{"1:5-2", ErrInvalidRange},
		{"1:1-8", ErrInvalidRange},
		{"1:0", ErrInvalidRange},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			_, err := ParseAssignment(c.in)
			if !errors.Is(err, c.want) {
				t.Fatalf("got %v want %v", err, c.want)
			}
			if !IsAssignmentError(err) {
				t.Fatalf("expected assignment error classification for %v", err)
			}
		})
	}
}

func TestAssignmentRange_ContainsAndLen(t *testing.T) {
	a := AssignmentRange{Surah: 2, StartAyah: 255, EndAyah: 257}
	if a.Len() != 3 {
		t.Fatalf("expected len 3, got %d", a.Len())
	}
	if !a.Contains(VerseReference{Surah: 2, Ayah: 256}) {
		t.Fatal("expected 2:256 inside range")
	}
	if a.Contains(VerseReference{Surah: 2, Ayah: 258}) || a.Contains(VerseReference{Surah: 3, Ayah: 255}) {
		t.Fatal("unexpected containment")
	}
	if a.String() != "2:255-257" {
		t.Fatalf("unexpected string %q", a.String())
	}
}
