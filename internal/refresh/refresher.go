// Package refresh re-fetches quotes for every store a catalog game is
// linked to, on demand or on a timer.
package refresh

import (
	"context"
	"fmt"
	"log"
	"time"

	"gamehub/internal/catalog"
	"gamehub/internal/feed"
	"gamehub/internal/prices"
	"gamehub/internal/store"
	"gamehub/pkg/models"
)

type Refresher struct {
	Games  *catalog.Repo
	Prices *prices.Repo
	Stores *store.Registry
	Feed   *feed.Hub // optional

	// Delay is the pause between games so a batch run does not hammer
	// the storefront APIs.
	Delay time.Duration
}

func New(games *catalog.Repo, priceRepo *prices.Repo, stores *store.Registry, hub *feed.Hub, delay time.Duration) *Refresher {
	return &Refresher{Games: games, Prices: priceRepo, Stores: stores, Feed: hub, Delay: delay}
}

// UpdateResult reports the outcome for one (game, store) pair.
type UpdateResult struct {
	GameID   int64    `json:"game_id"`
	GameName string   `json:"game_name"`
	Store    string   `json:"store"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	NewPrice *float64 `json:"new_price,omitempty"` // set only when the listing is available
}

// RefreshAll walks the catalog sequentially and re-fetches a quote for
// every linked store. A failed fetch leaves the stored price row as it
// was and is reported in the result instead of aborting the run.
func (r *Refresher) RefreshAll(ctx context.Context) ([]UpdateResult, error) {
	games, err := r.Games.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	var results []UpdateResult
	for i := range games {
		if i > 0 && r.Delay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(r.Delay):
			}
		}
		results = append(results, r.refreshGame(ctx, &games[i])...)
	}
	return results, nil
}

func (r *Refresher) refreshGame(ctx context.Context, g *models.Game) []UpdateResult {
	var out []UpdateResult
	for _, adapter := range r.Stores.All() {
		externalID, ok := g.ExternalID(adapter.Name())
		if !ok {
			continue // game was never linked to this store
		}

		res := UpdateResult{GameID: g.ID, GameName: g.Name, Store: adapter.Name()}

		st, err := r.Games.GetOrCreateStore(ctx, adapter.Name())
		if err != nil {
			res.Error = err.Error()
			out = append(out, res)
			continue
		}

		quote, err := adapter.GetGamePrice(ctx, externalID, false)
		if err != nil {
			// keep the last known row; the error only shows in the report
			log.Printf("[refresh] %s price for %q: %v", adapter.Name(), g.Name, err)
			res.Error = err.Error()
			out = append(out, res)
			continue
		}
		if quote == nil {
			res.Error = "listing not found"
			out = append(out, res)
			continue
		}

		rec, err := r.Prices.Upsert(ctx, g.ID, st.ID, *quote)
		if err != nil {
			res.Error = err.Error()
			out = append(out, res)
			continue
		}

		res.Success = true
		if rec.IsAvailable {
			p := rec.CurrentPrice
			res.NewPrice = &p
		}
		out = append(out, res)

		if r.Feed != nil {
			r.Feed.BroadcastJSON(feed.PriceEvent{
				Type:      feed.EventPriceUpdated,
				GameID:    g.ID,
				StoreID:   st.ID,
				Store:     adapter.Name(),
				NewPrice:  rec.CurrentPrice,
				Currency:  rec.CurrencyCode,
				Available: rec.IsAvailable,
				At:        time.Now().UTC(),
			})
		}
	}
	return out
}

// RunPeriodic refreshes the whole catalog every interval until the
// context is cancelled. The first run happens after one full interval.
func (r *Refresher) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[refresh] periodic refresh stopped")
			return
		case <-ticker.C:
			results, err := r.RefreshAll(ctx)
			if err != nil {
				log.Printf("[refresh] batch failed: %v", err)
				continue
			}
			ok := 0
			for _, res := range results {
				if res.Success {
					ok++
				}
			}
			log.Printf("[refresh] batch done: %d/%d updates succeeded", ok, len(results))
		}
	}
}
