package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/rprtr258/syncwatch/internal/cli"
	infraLog "github.com/rprtr258/syncwatch/internal/infra/log"
)

func run() int {
	infraLog.Setup(os.Stderr, false)

	if errRun := cli.Run(os.Args); errRun != nil {
		log.Error().
			Err(errRun).
			Msg("syncwatch exited abnormally")
		return 1
	}

	return 0
}

func main() {
	os.Exit(run())
}
