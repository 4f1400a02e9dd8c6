package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gamehub/internal/feed"
	"gamehub/internal/match"
	"gamehub/internal/prices"
	"gamehub/internal/store"
	"gamehub/pkg/models"
)

// Reconciler maps freshly fetched store listings onto the canonical
// catalog: find or create the game, link the store's external id, then
// attach a price row per store.
type Reconciler struct {
	DB     *sql.DB
	Games  *Repo
	Prices *prices.Repo
	Stores *store.Registry
	Feed   *feed.Hub // optional

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(db *sql.DB, games *Repo, priceRepo *prices.Repo, stores *store.Registry, hub *feed.Hub) *Reconciler {
	return &Reconciler{
		DB:     db,
		Games:  games,
		Prices: priceRepo,
		Stores: stores,
		Feed:   hub,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing catalog writes for one series.
// Entries are never evicted; the key space is bounded by the catalog.
func (rc *Reconciler) lockFor(key string) *sync.Mutex {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	mu, ok := rc.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		rc.locks[key] = mu
	}
	return mu
}

// ReconcileAndAttach fetches the listing from the named store, finds
// or creates the matching canonical game inside one transaction, and
// then attaches a price row for every registered store. A failure in
// the find-or-create step is returned to the caller; per-store price
// failures afterwards are logged and skipped without touching the
// already committed game.
func (rc *Reconciler) ReconcileAndAttach(ctx context.Context, storeName, externalID string) (*models.Game, error) {
	adapter, ok := rc.Stores.Get(storeName)
	if !ok {
		return nil, fmt.Errorf("unknown store %q", storeName)
	}
	storeName = adapter.Name()

	details, err := adapter.GetGameDetails(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetch details from %s: %w", storeName, err)
	}
	if details == nil {
		return nil, fmt.Errorf("%s has no game with id %s", storeName, externalID)
	}

	game, created, err := rc.findOrCreate(ctx, storeName, externalID, details)
	if err != nil {
		return nil, err
	}

	if created && rc.Feed != nil {
		rc.Feed.BroadcastJSON(feed.GameEvent{
			Type:   feed.EventGameAdded,
			GameID: game.ID,
			Name:   game.Name,
			Store:  storeName,
			At:     time.Now().UTC(),
		})
	}

	rc.attachPrices(ctx, game, storeName, externalID, created)

	// reload to pick up external ids discovered during price attachment
	final, err := rc.Games.GetByID(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		return game, nil
	}
	return final, nil
}

// findOrCreate runs the match-or-create plus back-fill step as one
// transaction, serialized per series key so two concurrent calls for
// the same new game cannot both insert a canonical row. Titles can
// only fuzzy-match when their series keys are equal, which is what
// makes the key a sound lock subject.
func (rc *Reconciler) findOrCreate(ctx context.Context, storeName, externalID string, details *models.GameCandidate) (*models.Game, bool, error) {
	mu := rc.lockFor(match.SeriesKey(details.Name))
	mu.Lock()
	defer mu.Unlock()

	tx, err := rc.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin reconcile: %w", err)
	}
	defer tx.Rollback()

	// exact name match always wins over the fuzzy scan
	existing, err := rc.Games.FindByName(ctx, tx, details.Name)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		summaries, err := rc.Games.Summaries(ctx, tx)
		if err != nil {
			return nil, false, err
		}
		for _, s := range summaries {
			if match.AreGamesMatching(s.Name, details.Name) {
				existing, err = rc.Games.getByIDTx(ctx, tx, s.ID)
				if err != nil {
					return nil, false, err
				}
				break
			}
		}
	}

	var (
		game    *models.Game
		created bool
	)
	if existing == nil {
		game = &models.Game{
			Name:        strings.TrimSpace(details.Name),
			StoreIDs:    map[string]string{storeName: externalID},
			Description: details.Description,
			ImageURL:    details.ImageURL,
			Developer:   details.Developer,
			Publisher:   details.Publisher,
			ReleaseDate: details.ReleaseDate,
		}
		if err := rc.Games.Create(ctx, tx, game); err != nil {
			return nil, false, err
		}
		created = true
	} else {
		game = existing
		// the triggering store is treated as the freshest source
		game.Description = details.Description
		game.ImageURL = details.ImageURL
		game.Developer = details.Developer
		game.Publisher = details.Publisher
		if !details.ReleaseDate.IsZero() {
			game.ReleaseDate = details.ReleaseDate
		}
		if _, taken := game.ExternalID(storeName); !taken {
			if game.StoreIDs == nil {
				game.StoreIDs = make(map[string]string)
			}
			game.StoreIDs[storeName] = externalID
		}
		if err := rc.Games.Update(ctx, tx, game); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit reconcile: %w", err)
	}
	return game, created, nil
}

// attachPrices fetches a quote from every registered store. External
// ids discovered while searching sibling stores are collected and
// applied as one back-fill commit at the end.
func (rc *Reconciler) attachPrices(ctx context.Context, game *models.Game, primaryStore, primaryID string, isNew bool) {
	discovered := make(map[string]string)

	for _, adapter := range rc.Stores.All() {
		if err := rc.attachStorePrice(ctx, game, adapter, primaryStore, primaryID, isNew, discovered); err != nil {
			// one broken store must not abort the others
			log.Printf("[catalog] price from %s for game %d: %v", adapter.Name(), game.ID, err)
		}
	}

	if len(discovered) > 0 {
		updated, err := rc.Games.BackfillStoreIDs(ctx, game.ID, discovered)
		if err != nil {
			log.Printf("[catalog] backfill store ids for game %d: %v", game.ID, err)
			return
		}
		*game = *updated
	}
}

func (rc *Reconciler) attachStorePrice(ctx context.Context, game *models.Game, adapter store.Adapter, primaryStore, primaryID string, isNew bool, discovered map[string]string) error {
	st, err := rc.Games.GetOrCreateStore(ctx, adapter.Name())
	if err != nil {
		return err
	}

	var externalID string
	switch {
	case adapter.Name() == primaryStore:
		externalID = primaryID
	default:
		if id, ok := game.ExternalID(adapter.Name()); ok {
			externalID = id
		} else {
			results, err := adapter.SearchGames(ctx, game.Name)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if m := FindBestMatch(results, game.Name); m != nil {
				externalID = m.ExternalID
				discovered[adapter.Name()] = m.ExternalID
			}
		}
	}
	if externalID == "" {
		return nil // this store does not carry the game
	}

	quote, err := adapter.GetGamePrice(ctx, externalID, isNew)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if quote == nil {
		return nil // FetchFailed-as-not-found: leave any existing row alone
	}

	rec, err := rc.Prices.Upsert(ctx, game.ID, st.ID, *quote)
	if err != nil {
		return fmt.Errorf("upsert price: %w", err)
	}

	if rc.Feed != nil {
		rc.Feed.BroadcastJSON(feed.PriceEvent{
			Type:      feed.EventPriceUpdated,
			GameID:    game.ID,
			StoreID:   st.ID,
			Store:     adapter.Name(),
			NewPrice:  rec.CurrentPrice,
			Currency:  rec.CurrencyCode,
			Available: rec.IsAvailable,
			At:        time.Now().UTC(),
		})
	}
	return nil
}

// FindBestMatch picks the listing denoting the target game: exact
// trimmed case-insensitive equality first, fuzzy match second.
func FindBestMatch(results []models.GameCandidate, targetName string) *models.GameCandidate {
	target := strings.TrimSpace(targetName)
	for i := range results {
		if strings.EqualFold(strings.TrimSpace(results[i].Name), target) {
			return &results[i]
		}
	}
	for i := range results {
		if match.AreGamesMatching(results[i].Name, targetName) {
			return &results[i]
		}
	}
	return nil
}
