package prices

import (
	"context"
	"database/sql"
	"testing"

	"gamehub/pkg/database"
	"gamehub/pkg/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepo(db)
}

// seedGameAndStore inserts the foreign-key targets a price row needs.
func seedGameAndStore(t *testing.T, db *sql.DB) (gameID, storeID int64) {
	t.Helper()
	res, err := db.Exec(`INSERT INTO games (name, store_ids) VALUES ('Celeste', '{}')`)
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}
	gameID, _ = res.LastInsertId()

	res, err = db.Exec(`INSERT INTO stores (name, base_url, is_active, region, requires_auth)
		VALUES ('Steam', 'https://store.steampowered.com', 1, 'PL', 0)`)
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	storeID, _ = res.LastInsertId()
	return gameID, storeID
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM prices`).Scan(&n); err != nil {
		t.Fatalf("count prices: %v", err)
	}
	return n
}

func TestUpsertInsertsThenOverwrites(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	gameID, storeID := seedGameAndStore(t, r.DB)

	first, err := r.Upsert(ctx, gameID, storeID, models.PriceQuote{
		CurrentPrice: 36.99, OriginalPrice: 36.99, CurrencyCode: "PLN", Available: true,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.CurrentPrice != 36.99 || !first.IsAvailable {
		t.Errorf("first row = %+v", first)
	}

	second, err := r.Upsert(ctx, gameID, storeID, models.PriceQuote{
		CurrentPrice: 18.49, OriginalPrice: 36.99, DiscountPercentage: 50,
		CurrencyCode: "PLN", Available: true,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if n := countRows(t, r.DB); n != 1 {
		t.Fatalf("upsert duplicated the row: %d rows", n)
	}
	if second.CurrentPrice != 18.49 || second.DiscountPercentage != 50 {
		t.Errorf("second row = %+v", second)
	}
	if !second.LastUpdated.After(first.LastUpdated) && !second.LastUpdated.Equal(first.LastUpdated) {
		t.Errorf("last_updated went backwards: %v then %v", first.LastUpdated, second.LastUpdated)
	}
}

func TestUpsertUnavailableZeroesPriceFields(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	gameID, storeID := seedGameAndStore(t, r.DB)

	if _, err := r.Upsert(ctx, gameID, storeID, models.PriceQuote{
		CurrentPrice: 36.99, OriginalPrice: 36.99, CurrencyCode: "PLN", Available: true,
	}); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	// the quote carries stale numbers; unavailability must win
	rec, err := r.Upsert(ctx, gameID, storeID, models.PriceQuote{
		CurrentPrice: 36.99, OriginalPrice: 36.99, CurrencyCode: "PLN", Available: false,
	})
	if err != nil {
		t.Fatalf("unavailable upsert: %v", err)
	}

	if rec.IsAvailable {
		t.Error("row still marked available")
	}
	if rec.CurrentPrice != 0 || rec.OriginalPrice != 0 || rec.DiscountPercentage != 0 {
		t.Errorf("price fields not zeroed: %+v", rec)
	}
	if rec.CurrencyCode != "PLN" {
		t.Errorf("currency dropped: %q", rec.CurrencyCode)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	r := newTestRepo(t)
	p, err := r.Get(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for missing row, got %+v", p)
	}
}

func TestListByGameJoinsStoreNames(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	gameID, storeID := seedGameAndStore(t, r.DB)

	if _, err := r.Upsert(ctx, gameID, storeID, models.PriceQuote{
		CurrentPrice: 36.99, OriginalPrice: 36.99, CurrencyCode: "PLN", Available: true,
		StoreURL: "https://store.steampowered.com/app/504230",
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := r.ListByGame(ctx, gameID)
	if err != nil {
		t.Fatalf("listByGame: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if rows[0].StoreName != "Steam" {
		t.Errorf("store name = %q", rows[0].StoreName)
	}
	if rows[0].StoreURL == "" {
		t.Error("store url dropped")
	}
}
