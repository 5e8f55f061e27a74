package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

func newBotService(t *testing.T) (*BotService, *harness, *fakeFSM) {
	t.Helper()
	h := newHarness(t)
	fsm := newFakeFSM()
	return NewBotService(h.svc, fsm, domain.LangArabic), h, fsm
}

func TestBotService_RecitalFlow(t *testing.T) {
	svc, h, fsm := newBotService(t)
	ctx := context.Background()
	const user = "42"

	if err := svc.HandleStart(ctx, user, domain.LangEnglish); err != nil {
		t.Fatalf("start: %v", err)
	}
	if state, _ := svc.GetCurrentState(ctx, user); state != domain.StateSelectSurah {
		t.Fatalf("state = %s", state)
	}

	surah, err := svc.HandleSurahSelection(ctx, user, 112)
	if err != nil {
		t.Fatalf("select surah: %v", err)
	}
	if surah.Name != "Al-Ikhlas" || surah.Ayahs != 4 {
		t.Fatalf("unexpected surah %+v", surah)
	}
	if state, _ := svc.GetCurrentState(ctx, user); state != domain.StateEnterRange {
		t.Fatalf("state = %s", state)
	}

	if err := svc.SetRangeInput(ctx, user, "1-"); err != nil {
		t.Fatal(err)
	}
	if got := svc.GetRangeInput(ctx, user); got != "1-" {
		t.Fatalf("range input = %q", got)
	}

	a, err := svc.HandleRangeInput(ctx, user, " 1-3 ")
	if err != nil {
		t.Fatalf("range input: %v", err)
	}
	if a != (domain.AssignmentRange{Surah: 112, StartAyah: 1, EndAyah: 3}) {
		t.Fatalf("unexpected assignment %v", a)
	}
	if got := svc.GetRangeInput(ctx, user); got != "" {
		t.Fatalf("keypad input not cleared: %q", got)
	}
	if state, _ := svc.GetCurrentState(ctx, user); state != domain.StateWaitRecital {
		t.Fatalf("state = %s", state)
	}

	h.transcriber.text = h.recitation(t, a)
	sub, err := svc.HandleRecital(ctx, user, strings.NewReader("wav"))
	if err != nil {
		t.Fatalf("recital: %v", err)
	}
	if sub.Accuracy != 1 || len(sub.Report.Verses) != 3 {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if state, _ := fsm.GetState(ctx, user); state != domain.StateWaitRecital {
		t.Fatalf("state after recital = %s", state)
	}

	list, err := svc.ListSubmissions(ctx, user, 5)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v (%d)", err, len(list))
	}
	if _, err := svc.GetSubmission(ctx, user, sub.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestBotService_RecitalFailureRestoresState(t *testing.T) {
	svc, h, _ := newBotService(t)
	ctx := context.Background()
	const user = "42"

	if _, err := svc.HandleSurahSelection(ctx, user, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.HandleRangeInput(ctx, user, "1-7"); err != nil {
		t.Fatal(err)
	}

	h.transcriber.err = errors.New("timeout")
	if _, err := svc.HandleRecital(ctx, user, strings.NewReader("wav")); err == nil {
		t.Fatal("expected error")
	}
	if state, _ := svc.GetCurrentState(ctx, user); state != domain.StateWaitRecital {
		t.Fatalf("state = %s", state)
	}
}

func TestBotService_InvalidSelections(t *testing.T) {
	svc, _, _ := newBotService(t)
	ctx := context.Background()
	const user = "7"

	if _, err := svc.HandleSurahSelection(ctx, user, 2); !errors.Is(err, domain.ErrSurahNotFound) {
		t.Fatalf("expected ErrSurahNotFound for a surah outside the corpus, got %v", err)
	}

	if _, err := svc.HandleRangeInput(ctx, user, "1-3"); err == nil {
		t.Fatal("expected error without a selected surah")
	}

	if _, err := svc.HandleSurahSelection(ctx, user, 108); err != nil {
		t.Fatal(err)
	}
	for _, input := range []string{"", "4", "2-1", "a-b", "1:2"} {
		if _, err := svc.HandleRangeInput(ctx, user, input); !domain.IsAssignmentError(err) {
			t.Errorf("input %q: expected assignment error, got %v", input, err)
		}
	}
	if state, _ := svc.GetCurrentState(ctx, user); state != domain.StateEnterRange {
		t.Fatalf("state = %s", state)
	}

	if _, err := svc.HandleRecital(ctx, user, strings.NewReader("wav")); err == nil {
		t.Fatal("expected error without an assignment")
	}
}

func TestBotService_Language(t *testing.T) {
	svc, _, fsm := newBotService(t)
	ctx := context.Background()

	if got := svc.GetUserLanguage(ctx, "new-user"); got != domain.LangArabic {
		t.Fatalf("default language = %s", got)
	}
	if err := svc.SetLanguage(ctx, "u", domain.LangRussian); err != nil {
		t.Fatal(err)
	}
	if got := svc.GetUserLanguage(ctx, "u"); got != domain.LangRussian {
		t.Fatalf("language = %s", got)
	}

	_ = fsm.SetData(ctx, "u", domain.SessionKeyLanguage, "xx")
	if got := svc.GetUserLanguage(ctx, "u"); got != domain.LangArabic {
		t.Fatalf("unsupported stored language should fall back, got %s", got)
	}
}

func TestBotService_MatchMode(t *testing.T) {
	svc, h, _ := newBotService(t)
	ctx := context.Background()
	const user = "9"

	if err := svc.StartMatchMode(ctx, user); err != nil {
		t.Fatal(err)
	}
	if state, _ := svc.GetCurrentState(ctx, user); state != domain.StateWaitMatch {
		t.Fatalf("state = %s", state)
	}

	h.transcriber.text = "قل اعوذ برب الفلق"
	results, err := svc.HandleMatchRecital(ctx, user, strings.NewReader("wav"))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 || results[0].Match == nil {
		t.Fatalf("expected one match, got %+v", results)
	}
	if ref := results[0].Match.Reference; ref != (domain.VerseReference{Surah: 113, Ayah: 1}) {
		t.Fatalf("matched %s", ref)
	}
	if results[0].InAssignment {
		t.Fatal("no assignment in session, result must not be flagged")
	}
}
