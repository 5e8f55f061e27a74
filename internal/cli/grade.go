package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/escalopa/quran-recite-grader/internal/config"
	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
)

type gradeOptions struct {
	assignment string
	transcript string
	file       string
	student    string
}

func newGradeCmd(configPath *string) *cobra.Command {
	var opts gradeOptions

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a transcript against an assignment and print the report as JSON",
		Example: `  grader grade --assignment 112:1-4 --transcript "قل هو الله احد ..."
  grader grade --assignment Al-Falaq --file recital.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadQuiet(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a, err := domain.ParseAssignment(opts.assignment)
			if err != nil {
				return err
			}
			transcript, err := readTranscript(cmd.InOrStdin(), opts.transcript, opts.file)
			if err != nil {
				return err
			}

			grader, err := newOfflineGrader(cfg)
			if err != nil {
				return err
			}
			submission, err := grader.Grade(cmd.Context(), opts.student, a, transcript)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), submission.Report)
		},
	}

	cmd.Flags().StringVarP(&opts.assignment, "assignment", "a", "", `assignment descriptor, e.g. "1:1-7" or "Al-Ikhlas"`)
	cmd.Flags().StringVarP(&opts.transcript, "transcript", "t", "", "transcript text")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", `read the transcript from a file, "-" for stdin`)
	cmd.Flags().StringVar(&opts.student, "student", "cli", "student id recorded on the submission")
	_ = cmd.MarkFlagRequired("assignment")
	cmd.MarkFlagsMutuallyExclusive("transcript", "file")
	return cmd
}

type matchOptions struct {
	assignment string
	transcript string
	file       string
}

func newMatchCmd(configPath *string) *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find the ayahs a free-form transcript recites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadQuiet(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var assignment *domain.AssignmentRange
			if opts.assignment != "" {
				a, err := domain.ParseAssignment(opts.assignment)
				if err != nil {
					return err
				}
				assignment = &a
			}
			transcript, err := readTranscript(cmd.InOrStdin(), opts.transcript, opts.file)
			if err != nil {
				return err
			}

			grader, err := newOfflineGrader(cfg)
			if err != nil {
				return err
			}
			results, err := grader.Match(transcript, assignment)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVarP(&opts.assignment, "assignment", "a", "", "flag matches inside this assignment")
	cmd.Flags().StringVarP(&opts.transcript, "transcript", "t", "", "transcript text")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", `read the transcript from a file, "-" for stdin`)
	cmd.MarkFlagsMutuallyExclusive("transcript", "file")
	return cmd
}

// loadQuiet loads the config and sends logs to w so stdout stays JSON only.
func loadQuiet(configPath string, w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	lc := cfg.LoggingConfig()
	lc.Format = "console"
	logging.InitWithWriter(lc, w)
	return cfg, nil
}

func readTranscript(stdin io.Reader, text, file string) (string, error) {
	switch file {
	case "":
		if strings.TrimSpace(text) == "" {
			return "", errors.New("a transcript is required, use --transcript or --file")
		}
		return text, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		return string(data), nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
