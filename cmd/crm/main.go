// Command crm runs the CRM API server and its maintenance tasks.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}
