package main

import (
	"checkout-service/internal/cli"
	"github.com/rs/zerolog/log"
	"os"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("checkout failed")
		os.Exit(1)
	}
}
