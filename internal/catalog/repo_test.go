package catalog

import (
	"context"
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

func mustCreate(t *testing.T, r *Repo, g *models.Game) {
	t.Helper()
	tx, err := r.DB.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := r.Create(context.Background(), tx, g); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestFindByNameIsCaseAndSpaceInsensitive(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, r, &models.Game{Name: "Hollow Knight"})

	tx, err := r.DB.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	g, err := r.FindByName(ctx, tx, "  hollow knight ")
	if err != nil {
		t.Fatalf("findByName: %v", err)
	}
	if g == nil {
		t.Fatal("expected a match, got nil")
	}
	if g.Name != "Hollow Knight" {
		t.Errorf("matched %q, want %q", g.Name, "Hollow Knight")
	}

	missing, err := r.FindByName(ctx, tx, "Hollow Knight 2")
	if err != nil {
		t.Fatalf("findByName missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown name, got %+v", missing)
	}
}

func TestStoreIDsRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	g := &models.Game{
		Name:     "Celeste",
		StoreIDs: map[string]string{"Steam": "504230"},
	}
	mustCreate(t, r, g)

	got, err := r.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("getByID: %v", err)
	}
	if got == nil {
		t.Fatal("game not found after create")
	}
	if id, ok := got.ExternalID("Steam"); !ok || id != "504230" {
		t.Errorf("Steam id = %q, %v; want %q, true", id, ok, "504230")
	}
}

func TestBackfillStoreIDsFillsOnlyEmptySlots(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	g := &models.Game{
		Name:     "Stardew Valley",
		StoreIDs: map[string]string{"Steam": "413150"},
	}
	mustCreate(t, r, g)

	updated, err := r.BackfillStoreIDs(ctx, g.ID, map[string]string{
		"Steam": "999999", // already taken, must not overwrite
		"GOG":   "1453375253",
		"Epic":  "", // empty ids are skipped
	})
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}

	if id, _ := updated.ExternalID("Steam"); id != "413150" {
		t.Errorf("Steam id overwritten to %q", id)
	}
	if id, ok := updated.ExternalID("GOG"); !ok || id != "1453375253" {
		t.Errorf("GOG id = %q, %v; want filled", id, ok)
	}
	if _, ok := updated.ExternalID("Epic"); ok {
		t.Error("empty external id was stored")
	}
}

func TestGetOrCreateStoreIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.GetOrCreateStore(ctx, "Steam")
	if err != nil {
		t.Fatalf("first getOrCreate: %v", err)
	}
	second, err := r.GetOrCreateStore(ctx, "Steam")
	if err != nil {
		t.Fatalf("second getOrCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("store created twice: ids %d and %d", first.ID, second.ID)
	}
	if first.BaseURL == "" {
		t.Error("known store should get its reference base URL")
	}

	stores, err := r.ListStores(ctx)
	if err != nil {
		t.Fatalf("listStores: %v", err)
	}
	if len(stores) != 1 {
		t.Errorf("want 1 store row, got %d", len(stores))
	}
}
