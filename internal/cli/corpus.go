package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/escalopa/quran-recite-grader/internal/adapter/corpus"
	"github.com/escalopa/quran-recite-grader/internal/adapter/quranapi"
	"github.com/escalopa/quran-recite-grader/internal/config"
	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
)

func newCorpusCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect or download the verse corpus",
	}
	cmd.AddCommand(newCorpusSyncCmd(configPath))
	cmd.AddCommand(newCorpusInfoCmd(configPath))
	return cmd
}

func newCorpusSyncCmd(configPath *string) *cobra.Command {
	var (
		out    string
		surahs []int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download verse texts from the Quran API into a corpus file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logging.Init(cfg.LoggingConfig())
			log := logging.WithComponent("corpus")

			if err := cfg.RequireQuranAPI(); err != nil {
				return err
			}

			if len(surahs) == 0 {
				surahs = lo.Map(domain.GetAllSurahs(), func(s domain.Surah, _ int) int { return s.Number })
			}
			for _, n := range surahs {
				if _, err := domain.GetSurah(n); err != nil {
					return fmt.Errorf("surah %d: %w", n, err)
				}
			}

			client := quranapi.NewClient(cfg.QuranAPI.BaseURL, cfg.QuranAPI.APIKey)
			verses, err := client.FetchAll(cmd.Context(), surahs, func(surah, ayahs int) {
				log.Info().Int("surah", surah).Int("ayahs", ayahs).Msg("Fetched surah")
			})
			if err != nil {
				return err
			}

			if err := writeCorpusFile(out, verses); err != nil {
				return err
			}
			log.Info().Str("path", out).Int("ayahs", len(verses)).Msg("Corpus written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "corpus.json", "output file")
	cmd.Flags().IntSliceVar(&surahs, "surahs", nil, "surah numbers to fetch, all by default")
	return cmd
}

// writeCorpusFile writes through a temp file so a failed sync never
// leaves a truncated corpus behind.
func writeCorpusFile(path string, verses []domain.VerseRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".corpus-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := corpus.Write(tmp, verses); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close corpus: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move corpus: %w", err)
	}
	return nil
}

func newCorpusInfoCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List the surahs of the configured corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadQuiet(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c, err := loadCorpus(cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, n := range c.Surahs() {
				verses, err := c.Verses(n)
				if err != nil {
					return err
				}
				surah, err := domain.GetSurah(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%3d  %-16s %3d/%d\n", n, surah.Name, len(verses), surah.Ayahs)
			}
			fmt.Fprintf(w, "%d ayahs\n", c.Size())
			return nil
		},
	}
}
