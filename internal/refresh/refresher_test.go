package refresh

import (
	"context"
	"errors"
	"testing"

	"gamehub/internal/catalog"
	"gamehub/internal/prices"
	"gamehub/internal/store"
	"gamehub/pkg/database"
	"gamehub/pkg/models"
)

type fakeAdapter struct {
	name     string
	quotes   map[string]models.PriceQuote
	priceErr error
	calls    int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) SearchGames(ctx context.Context, term string) ([]models.GameCandidate, error) {
	return nil, nil
}

func (f *fakeAdapter) GetGameDetails(ctx context.Context, externalID string) (*models.GameCandidate, error) {
	return nil, nil
}

func (f *fakeAdapter) GetGamePrice(ctx context.Context, externalID string, isNewGame bool) (*models.PriceQuote, error) {
	f.calls++
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	q, ok := f.quotes[externalID]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func newTestRefresher(t *testing.T, adapters ...store.Adapter) (*Refresher, *catalog.Repo, *prices.Repo) {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	games := catalog.NewRepo(db)
	priceRepo := prices.NewRepo(db)
	return New(games, priceRepo, store.NewRegistry(adapters...), nil, 0), games, priceRepo
}

func seedGame(t *testing.T, games *catalog.Repo, name string, storeIDs map[string]string) *models.Game {
	t.Helper()
	tx, err := games.DB.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	g := &models.Game{Name: name, StoreIDs: storeIDs}
	if err := games.Create(context.Background(), tx, g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return g
}

func TestRefreshAllSkipsUnlinkedStores(t *testing.T) {
	steam := &fakeAdapter{
		name:   "Steam",
		quotes: map[string]models.PriceQuote{"100": {CurrentPrice: 49.99, OriginalPrice: 49.99, CurrencyCode: "PLN", Available: true}},
	}
	gog := &fakeAdapter{name: "GOG"}
	r, games, priceRepo := newTestRefresher(t, steam, gog)
	ctx := context.Background()

	g := seedGame(t, games, "Celeste", map[string]string{"Steam": "100"})

	results, err := r.RefreshAll(ctx)
	if err != nil {
		t.Fatalf("refreshAll: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("want 1 result, got %d", len(results))
	}
	if !results[0].Success || results[0].Store != "Steam" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].NewPrice == nil || *results[0].NewPrice != 49.99 {
		t.Errorf("new price = %v", results[0].NewPrice)
	}
	if gog.calls != 0 {
		t.Errorf("unlinked store was queried %d times", gog.calls)
	}

	rows, err := priceRepo.ListByGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("listByGame: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("want 1 price row, got %d", len(rows))
	}
}

func TestRefreshAllKeepsRowWhenFetchFails(t *testing.T) {
	steam := &fakeAdapter{
		name:   "Steam",
		quotes: map[string]models.PriceQuote{"100": {CurrentPrice: 49.99, OriginalPrice: 49.99, CurrencyCode: "PLN", Available: true}},
	}
	r, games, priceRepo := newTestRefresher(t, steam)
	ctx := context.Background()

	g := seedGame(t, games, "Celeste", map[string]string{"Steam": "100"})

	if _, err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	steam.priceErr = errors.New("store is down")
	results, err := r.RefreshAll(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected one failed result, got %+v", results)
	}

	st, err := games.GetOrCreateStore(ctx, "Steam")
	if err != nil {
		t.Fatalf("getOrCreateStore: %v", err)
	}
	rec, err := priceRepo.Get(ctx, g.ID, st.ID)
	if err != nil {
		t.Fatalf("get price: %v", err)
	}
	if rec == nil {
		t.Fatal("price row vanished after failed fetch")
	}
	if rec.CurrentPrice != 49.99 || !rec.IsAvailable {
		t.Errorf("failed fetch modified the row: %+v", rec)
	}
}

func TestRefreshAllMarksDelisted(t *testing.T) {
	steam := &fakeAdapter{
		name:   "Steam",
		quotes: map[string]models.PriceQuote{"100": {CurrentPrice: 49.99, OriginalPrice: 49.99, CurrencyCode: "PLN", Available: true}},
	}
	r, games, priceRepo := newTestRefresher(t, steam)
	ctx := context.Background()

	g := seedGame(t, games, "Celeste", map[string]string{"Steam": "100"})
	if _, err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// store answered, but the listing is no longer purchasable
	steam.quotes["100"] = models.PriceQuote{CurrencyCode: "PLN", Available: false}
	results, err := r.RefreshAll(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if !results[0].Success {
		t.Fatalf("unavailable is a successful fetch, got %+v", results[0])
	}
	if results[0].NewPrice != nil {
		t.Errorf("delisted game should not report a price, got %v", *results[0].NewPrice)
	}

	st, _ := games.GetOrCreateStore(ctx, "Steam")
	rec, err := priceRepo.Get(ctx, g.ID, st.ID)
	if err != nil {
		t.Fatalf("get price: %v", err)
	}
	if rec.IsAvailable || rec.CurrentPrice != 0 {
		t.Errorf("row not zeroed for delisted game: %+v", rec)
	}
}
