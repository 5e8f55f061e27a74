package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/escalopa/quran-recite-grader/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		log.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
