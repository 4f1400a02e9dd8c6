// Command export-csv dumps the catalog and its price rows to two CSV
// files, for spreadsheets or ad-hoc analysis.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gamehub/internal/catalog"
	"gamehub/internal/prices"
	"gamehub/pkg/database"
)

func main() {
	var (
		gamesOut  = flag.String("games", "data/games.csv", "output CSV path for games")
		pricesOut = flag.String("prices", "data/prices.csv", "output CSV path for prices")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportGames(ctx, db, *gamesOut); err != nil {
		log.Fatalf("export games failed: %v", err)
	}
	if err := exportPrices(ctx, db, *pricesOut); err != nil {
		log.Fatalf("export prices failed: %v", err)
	}

	log.Printf("exported games to %s and prices to %s", *gamesOut, *pricesOut)
}

func createCSV(path string) (*os.File, *csv.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, csv.NewWriter(f), nil
}

func exportGames(ctx context.Context, db *sql.DB, path string) error {
	games, err := catalog.NewRepo(db).List(ctx)
	if err != nil {
		return err
	}

	f, w, err := createCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "name", "store_ids", "developer", "publisher", "release_date"}); err != nil {
		return err
	}
	for _, g := range games {
		ids, _ := json.Marshal(g.StoreIDs)
		released := ""
		if !g.ReleaseDate.IsZero() {
			released = g.ReleaseDate.Format("2006-01-02")
		}
		if err := w.Write([]string{
			strconv.FormatInt(g.ID, 10), g.Name, string(ids), g.Developer, g.Publisher, released,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func exportPrices(ctx context.Context, db *sql.DB, path string) error {
	games, err := catalog.NewRepo(db).List(ctx)
	if err != nil {
		return err
	}
	priceRepo := prices.NewRepo(db)

	f, w, err := createCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{
		"game_id", "game_name", "store", "current_price", "original_price",
		"discount_percentage", "currency", "available", "last_updated",
	}); err != nil {
		return err
	}

	for _, g := range games {
		rows, err := priceRepo.ListByGame(ctx, g.ID)
		if err != nil {
			return err
		}
		for _, p := range rows {
			if err := w.Write([]string{
				strconv.FormatInt(g.ID, 10),
				g.Name,
				p.StoreName,
				fmt.Sprintf("%.2f", p.CurrentPrice),
				fmt.Sprintf("%.2f", p.OriginalPrice),
				fmt.Sprintf("%.0f", p.DiscountPercentage),
				p.CurrencyCode,
				strconv.FormatBool(p.IsAvailable),
				p.LastUpdated.UTC().Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
