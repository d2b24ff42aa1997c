// Command achillesd runs the Achilles streaming daemon without the CLI.
//
// Configuration is read from ACHILLES_CONFIG when set, otherwise from the
// default search locations used by `achilles serve`.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"achilles/internal/config"
	"achilles/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load(strings.TrimSpace(os.Getenv("ACHILLES_CONFIG")))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Fatalf("achillesd: %v", err)
	}
}
