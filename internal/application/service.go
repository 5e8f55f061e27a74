package application

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

// BotService drives the bot conversation: surah and range selection, then
// recitals graded by the GradingService.
type BotService struct {
	grading     *GradingService
	fsm         domain.FSMPort
	defaultLang domain.Language
}

func NewBotService(grading *GradingService, fsm domain.FSMPort, defaultLang domain.Language) *BotService {
	return &BotService{
		grading:     grading,
		fsm:         fsm,
		defaultLang: defaultLang,
	}
}

// HandleStart resets the conversation to surah selection
func (s *BotService) HandleStart(ctx context.Context, userID string, lang domain.Language) error {
	if err := s.fsm.SetState(ctx, userID, domain.StateSelectSurah); err != nil {
		return fmt.Errorf("set state: %w", err)
	}

	if err := s.SetLanguage(ctx, userID, lang); err != nil {
		return err
	}

	if err := s.ClearRangeInput(ctx, userID); err != nil {
		return fmt.Errorf("clear range input: %w", err)
	}

	return nil
}

// SetLanguage stores the user's preferred language
func (s *BotService) SetLanguage(ctx context.Context, userID string, lang domain.Language) error {
	if err := s.fsm.SetData(ctx, userID, domain.SessionKeyLanguage, string(lang)); err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return nil
}

// GetCurrentState returns the current state for a user
func (s *BotService) GetCurrentState(ctx context.Context, userID string) (domain.State, error) {
	return s.fsm.GetState(ctx, userID)
}

// HandleSurahSelection stores the chosen surah and asks for a range.
// Only surahs present in the corpus can be selected.
func (s *BotService) HandleSurahSelection(ctx context.Context, userID string, surahNumber int) (domain.Surah, error) {
	surah, ok := lo.Find(s.grading.AvailableSurahs(), func(item domain.Surah) bool {
		return item.Number == surahNumber
	})
	if !ok {
		return domain.Surah{}, fmt.Errorf("surah %d: %w", surahNumber, domain.ErrSurahNotFound)
	}

	if err := s.fsm.SetData(ctx, userID, domain.SessionKeySurah, strconv.Itoa(surahNumber)); err != nil {
		return domain.Surah{}, fmt.Errorf("set surah: %w", err)
	}

	if err := s.ClearRangeInput(ctx, userID); err != nil {
		return domain.Surah{}, fmt.Errorf("clear range input: %w", err)
	}

	if err := s.fsm.SetState(ctx, userID, domain.StateEnterRange); err != nil {
		return domain.Surah{}, fmt.Errorf("set state: %w", err)
	}

	return surah, nil
}

// HandleRangeInput parses an ayah range such as "5" or "1-7" for the
// selected surah and moves the user to recital.
func (s *BotService) HandleRangeInput(ctx context.Context, userID, input string) (domain.AssignmentRange, error) {
	surahNumber, err := s.GetSelectedSurah(ctx, userID)
	if err != nil {
		return domain.AssignmentRange{}, err
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return domain.AssignmentRange{}, fmt.Errorf("empty range: %w", domain.ErrInvalidReference)
	}

	a, err := domain.ParseAssignment(fmt.Sprintf("%d:%s", surahNumber, input))
	if err != nil {
		return domain.AssignmentRange{}, err
	}
	if _, err := s.grading.Verses(a); err != nil {
		return domain.AssignmentRange{}, err
	}

	if err := s.fsm.SetData(ctx, userID, domain.SessionKeyAssignment, a.String()); err != nil {
		return domain.AssignmentRange{}, fmt.Errorf("set assignment: %w", err)
	}

	if err := s.ClearRangeInput(ctx, userID); err != nil {
		return domain.AssignmentRange{}, fmt.Errorf("clear range input: %w", err)
	}

	if err := s.fsm.SetState(ctx, userID, domain.StateWaitRecital); err != nil {
		return domain.AssignmentRange{}, fmt.Errorf("set state: %w", err)
	}

	return a, nil
}

// GetAssignment returns the range the user is currently reciting
func (s *BotService) GetAssignment(ctx context.Context, userID string) (domain.AssignmentRange, error) {
	raw, err := s.fsm.GetData(ctx, userID, domain.SessionKeyAssignment)
	if err != nil {
		return domain.AssignmentRange{}, fmt.Errorf("get assignment: %w", err)
	}
	return domain.ParseAssignment(raw)
}

// HandleRecital grades a voice recording against the session assignment.
// The user stays on the same assignment afterwards so they can retry.
func (s *BotService) HandleRecital(ctx context.Context, userID string, audio io.Reader) (*domain.Submission, error) {
	a, err := s.GetAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.fsm.SetState(ctx, userID, domain.StateProcessing); err != nil {
		return nil, fmt.Errorf("set state: %w", err)
	}

	submission, gradeErr := s.grading.GradeRecording(ctx, userID, a, audio)

	if err := s.fsm.SetState(ctx, userID, domain.StateWaitRecital); err != nil {
		return nil, fmt.Errorf("reset state: %w", err)
	}

	if gradeErr != nil {
		return nil, fmt.Errorf("grade recital: %w", gradeErr)
	}
	return submission, nil
}

// StartMatchMode makes the next voice messages go to the ayah matcher
func (s *BotService) StartMatchMode(ctx context.Context, userID string) error {
	if err := s.fsm.SetState(ctx, userID, domain.StateWaitMatch); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// HandleMatchRecital finds the ayahs recited in a recording. Results are
// flagged against the session assignment when there is one.
func (s *BotService) HandleMatchRecital(ctx context.Context, userID string, audio io.Reader) ([]domain.MatchResult, error) {
	var assignment *domain.AssignmentRange
	if a, err := s.GetAssignment(ctx, userID); err == nil {
		assignment = &a
	}

	results, err := s.grading.MatchRecording(ctx, audio, assignment)
	if err != nil {
		return nil, fmt.Errorf("match recital: %w", err)
	}
	return results, nil
}

// GetUserLanguage retrieves the user's preferred language
func (s *BotService) GetUserLanguage(ctx context.Context, userID string) domain.Language {
	raw, err := s.fsm.GetData(ctx, userID, domain.SessionKeyLanguage)
	if err != nil {
		return s.defaultLang
	}
	lang, ok := domain.ParseLanguage(raw)
	if !ok {
		return s.defaultLang
	}
	return lang
}

// GetSelectedSurah returns the currently selected surah for a user
func (s *BotService) GetSelectedSurah(ctx context.Context, userID string) (int, error) {
	surahStr, err := s.fsm.GetData(ctx, userID, domain.SessionKeySurah)
	if err != nil {
		return 0, fmt.Errorf("get surah: %w", err)
	}

	return strconv.Atoi(surahStr)
}

// GetAvailableSurahs returns the surahs that can be recited
func (s *BotService) GetAvailableSurahs() []domain.Surah {
	return s.grading.AvailableSurahs()
}

// GetRangeInput gets the accumulated keypad input for a user
func (s *BotService) GetRangeInput(ctx context.Context, userID string) string {
	input, err := s.fsm.GetData(ctx, userID, domain.SessionKeyRangeInput)
	if err != nil {
		return ""
	}
	return input
}

// SetRangeInput sets the accumulated keypad input for a user
func (s *BotService) SetRangeInput(ctx context.Context, userID, input string) error {
	return s.fsm.SetData(ctx, userID, domain.SessionKeyRangeInput, input)
}

// ClearRangeInput clears the accumulated keypad input for a user
func (s *BotService) ClearRangeInput(ctx context.Context, userID string) error {
	return s.fsm.DeleteData(ctx, userID, domain.SessionKeyRangeInput)
}

// GetSubmission retrieves a graded recitation of the user
func (s *BotService) GetSubmission(ctx context.Context, userID, submissionID string) (*domain.Submission, error) {
	return s.grading.GetSubmission(ctx, userID, submissionID)
}

// ListSubmissions retrieves the latest graded recitations of the user
func (s *BotService) ListSubmissions(ctx context.Context, userID string, limit int) ([]*domain.Submission, error) {
	return s.grading.ListSubmissions(ctx, userID, limit)
}
