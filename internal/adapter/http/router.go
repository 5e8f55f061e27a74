// Package http exposes the grading engine over a JSON API.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
)

// Grader is the application surface served by the API.
type Grader interface {
	Grade(ctx context.Context, studentID string, a domain.AssignmentRange, transcript string) (*domain.Submission, error)
	GradeRecording(ctx context.Context, studentID string, a domain.AssignmentRange, audio io.Reader) (*domain.Submission, error)
	Match(transcript string, assignment *domain.AssignmentRange) ([]domain.MatchResult, error)
	GetSubmission(ctx context.Context, studentID, submissionID string) (*domain.Submission, error)
	ListSubmissions(ctx context.Context, studentID string, limit int) ([]*domain.Submission, error)
	AvailableSurahs() []domain.Surah
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(grader Grader) http.Handler {
	h := &handler{grader: grader, log: logging.WithComponent("http")}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/surahs", h.listSurahs)
		r.Post("/grade", h.grade)
		r.Post("/grade/audio", h.gradeAudio)
		r.Post("/match", h.match)
		r.Get("/submissions/{student}", h.listSubmissions)
		r.Get("/submissions/{student}/{id}", h.getSubmission)
	})

	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("Request served")
		})
	}
}
