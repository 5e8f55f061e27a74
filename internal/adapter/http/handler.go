package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/escalopa/quran-recite-grader/internal/application"
	"github.com/escalopa/quran-recite-grader/internal/domain"
)

const (
	maxJSONBody       = 1 << 20
	maxAudioBody      = 25 << 20
	defaultListLimit  = 20
	maxListLimit      = 200
	msgInvalidConfig  = "invalid assignment configuration"
	msgInvalidRequest = "invalid request"
)

var errMissingAssignment = fmt.Errorf("assignment is required: %w", domain.ErrInvalidReference)

type handler struct {
	grader Grader
	log    zerolog.Logger
}

// AssignmentRequest names the ayahs to grade, either as a descriptor such as
// "112:1-4" or "Al-Ikhlas", or as explicit fields.
type AssignmentRequest struct {
	Descriptor string `json:"assignment,omitempty"`
	Surah      int    `json:"surah,omitempty"`
	StartAyah  int    `json:"start_ayah,omitempty"`
	EndAyah    int    `json:"end_ayah,omitempty"`
}

func (a AssignmentRequest) isZero() bool {
	return a.Descriptor == "" && a.Surah == 0 && a.StartAyah == 0 && a.EndAyah == 0
}

// Resolve validates the request into a range
func (a AssignmentRequest) Resolve() (domain.AssignmentRange, error) {
	if a.Descriptor != "" {
		return domain.ParseAssignment(a.Descriptor)
	}
	if a.isZero() {
		return domain.AssignmentRange{}, errMissingAssignment
	}
	r := domain.AssignmentRange{Surah: a.Surah, StartAyah: a.StartAyah, EndAyah: a.EndAyah}
	if err := r.Validate(); err != nil {
		return domain.AssignmentRange{}, err
	}
	return r, nil
}

type GradeRequest struct {
	StudentID string `json:"student_id"`
	AssignmentRequest
	Transcript string `json:"transcript"`
}

type MatchRequest struct {
	AssignmentRequest
	Transcript string `json:"transcript"`
}

type MatchResponse struct {
	Results []domain.MatchResult `json:"results"`
}

type SubmissionsResponse struct {
	Submissions []*domain.Submission `json:"submissions"`
}

type SurahResponse struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Ayahs  int    `json:"ayahs"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *handler) listSurahs(w http.ResponseWriter, r *http.Request) {
	surahs := h.grader.AvailableSurahs()
	out := make([]SurahResponse, 0, len(surahs))
	for _, s := range surahs {
		out = append(out, SurahResponse{Number: s.Number, Name: s.Name, Ayahs: s.Ayahs})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) grade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidRequest, err)
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidRequest, errors.New("student_id is required"))
		return
	}

	a, err := req.AssignmentRequest.Resolve()
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	submission, err := h.grader.Grade(r.Context(), req.StudentID, a, req.Transcript)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, submission)
}

// gradeAudio accepts a multipart form with student_id, assignment and an
// audio file field holding 16-bit PCM WAV.
func (h *handler) gradeAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBody)
	if err := r.ParseMultipartForm(maxAudioBody); err != nil {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidRequest, err)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	studentID := strings.TrimSpace(r.FormValue("student_id"))
	if studentID == "" {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidRequest, errors.New("student_id is required"))
		return
	}

	a, err := AssignmentRequest{Descriptor: r.FormValue("assignment")}.Resolve()
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidRequest, fmt.Errorf("audio file: %w", err))
		return
	}
	defer file.Close()

	submission, err := h.grader.GradeRecording(r.Context(), studentID, a, file)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, submission)
}

func (h *handler) match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, msgInvalidRequest, err)
		return
	}

	var assignment *domain.AssignmentRange
	if !req.AssignmentRequest.isZero() {
		a, err := req.AssignmentRequest.Resolve()
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		assignment = &a
	}

	results, err := h.grader.Match(req.Transcript, assignment)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MatchResponse{Results: results})
}

func (h *handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, r, http.StatusBadRequest, msgInvalidRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = min(n, maxListLimit)
	}

	submissions, err := h.grader.ListSubmissions(r.Context(), chi.URLParam(r, "student"), limit)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if submissions == nil {
		submissions = []*domain.Submission{}
	}
	h.writeJSON(w, http.StatusOK, SubmissionsResponse{Submissions: submissions})
}

func (h *handler) getSubmission(w http.ResponseWriter, r *http.Request) {
	submission, err := h.grader.GetSubmission(r.Context(), chi.URLParam(r, "student"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, submission)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// writeFailure maps application errors to status codes
func (h *handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsAssignmentError(err):
		h.writeError(w, r, http.StatusBadRequest, msgInvalidConfig, err)
	case errors.Is(err, domain.ErrSubmissionNotFound):
		h.writeError(w, r, http.StatusNotFound, "submission not found", err)
	case errors.Is(err, application.ErrTranscriberUnavailable):
		h.writeError(w, r, http.StatusServiceUnavailable, "transcription unavailable", err)
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("Request failed")
		h.writeError(w, r, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg, RequestID: middleware.GetReqID(r.Context())}
	if err != nil {
		resp.Detail = err.Error()
	}
	h.writeJSON(w, status, resp)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
