// Command refresher re-fetches store prices for the whole catalog,
// either once or on a timer. It talks to the database directly, so it
// can run while the API server is down.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamehub/internal/catalog"
	"gamehub/internal/prices"
	"gamehub/internal/refresh"
	"gamehub/internal/store"
	"gamehub/pkg/database"
	"gamehub/pkg/utils"
)

func main() {
	var (
		loop     = flag.Bool("loop", false, "keep refreshing on an interval instead of exiting")
		interval = flag.Duration("interval", 30*time.Minute, "refresh interval when -loop is set")
	)
	flag.Parse()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	srvCfg := utils.LoadServerConfig()
	registry := store.NewRegistry(store.NewSteam(), store.NewGOG())
	refresher := refresh.New(catalog.NewRepo(db), prices.NewRepo(db), registry, nil, srvCfg.RefreshDelay)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	results, err := refresher.RefreshAll(ctx)
	if err != nil {
		log.Fatalf("refresh failed: %v", err)
	}
	report(results)

	if *loop {
		refresher.RunPeriodic(ctx, *interval)
	}
}

func report(results []refresh.UpdateResult) {
	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		log.Printf("failed: %s @ %s: %s", r.GameName, r.Store, r.Error)
	}
	log.Printf("refreshed %d/%d (game, store) pairs", ok, len(results))
}
