package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"gamehub/internal/prices"
	"gamehub/internal/store"
	"gamehub/pkg/database"
	"gamehub/pkg/models"
)

// fakeAdapter is an in-memory storefront keyed by external id. Search
// returns the whole inventory; the reconciler's own matching decides
// which hit counts.
type fakeAdapter struct {
	name      string
	inventory map[string]models.GameCandidate
	quotes    map[string]models.PriceQuote
	searchErr error
	priceErr  error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) SearchGames(ctx context.Context, term string) ([]models.GameCandidate, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	ids := make([]string, 0, len(f.inventory))
	for id := range f.inventory {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.GameCandidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.inventory[id])
	}
	return out, nil
}

func (f *fakeAdapter) GetGameDetails(ctx context.Context, externalID string) (*models.GameCandidate, error) {
	g, ok := f.inventory[externalID]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeAdapter) GetGamePrice(ctx context.Context, externalID string, isNewGame bool) (*models.PriceQuote, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	q, ok := f.quotes[externalID]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func newTestReconciler(t *testing.T, adapters ...store.Adapter) (*Reconciler, *prices.Repo) {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	priceRepo := prices.NewRepo(db)
	rc := NewReconciler(db, NewRepo(db), priceRepo, store.NewRegistry(adapters...), nil)
	return rc, priceRepo
}

func countGames(t *testing.T, rc *Reconciler) int {
	t.Helper()
	var n int
	if err := rc.DB.QueryRow(`SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		t.Fatalf("count games: %v", err)
	}
	return n
}

func TestReconcileCreatesGameAndAttachesAllStores(t *testing.T) {
	steam := &fakeAdapter{
		name: "Steam",
		inventory: map[string]models.GameCandidate{
			"100": {Name: "Elden Ring", ExternalID: "100", Developer: "FromSoftware"},
		},
		quotes: map[string]models.PriceQuote{
			"100": {CurrentPrice: 249.99, OriginalPrice: 249.99, CurrencyCode: "PLN", Available: true},
		},
	}
	gog := &fakeAdapter{
		name: "GOG",
		inventory: map[string]models.GameCandidate{
			"g1": {Name: "Elden Ring", ExternalID: "g1"},
		},
		quotes: map[string]models.PriceQuote{
			"g1": {CurrentPrice: 199.99, OriginalPrice: 249.99, DiscountPercentage: 20, CurrencyCode: "PLN", Available: true},
		},
	}
	rc, priceRepo := newTestReconciler(t, steam, gog)
	ctx := context.Background()

	g, err := rc.ReconcileAndAttach(ctx, "steam", "100")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if g.Name != "Elden Ring" {
		t.Errorf("name = %q", g.Name)
	}
	if id, _ := g.ExternalID("Steam"); id != "100" {
		t.Errorf("Steam id = %q, want 100", id)
	}
	if id, _ := g.ExternalID("GOG"); id != "g1" {
		t.Errorf("GOG id = %q, want g1 (discovered via search)", id)
	}

	rows, err := priceRepo.ListByGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("listByGame: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 price rows, got %d", len(rows))
	}
	for _, p := range rows {
		if !p.IsAvailable {
			t.Errorf("%s price should be available", p.StoreName)
		}
	}
}

func TestReconcileMatchesExistingGameFuzzy(t *testing.T) {
	steam := &fakeAdapter{
		name: "Steam",
		inventory: map[string]models.GameCandidate{
			"1": {Name: "Borderlands Game of the Year Edition", ExternalID: "1"},
		},
		quotes: map[string]models.PriceQuote{
			"1": {CurrentPrice: 129.99, OriginalPrice: 129.99, CurrencyCode: "PLN", Available: true},
		},
	}
	gog := &fakeAdapter{
		name: "GOG",
		inventory: map[string]models.GameCandidate{
			"b-goty": {Name: "Borderlands GOTY", ExternalID: "b-goty"},
		},
		quotes: map[string]models.PriceQuote{
			"b-goty": {CurrentPrice: 99.99, OriginalPrice: 129.99, DiscountPercentage: 23, CurrencyCode: "PLN", Available: true},
		},
	}
	rc, _ := newTestReconciler(t, steam, gog)
	ctx := context.Background()

	first, err := rc.ReconcileAndAttach(ctx, "Steam", "1")
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	second, err := rc.ReconcileAndAttach(ctx, "GOG", "b-goty")
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("abbreviated edition created a second game: %d vs %d", first.ID, second.ID)
	}
	if n := countGames(t, rc); n != 1 {
		t.Errorf("want 1 game row, got %d", n)
	}
	if id, _ := second.ExternalID("GOG"); id != "b-goty" {
		t.Errorf("GOG id = %q, want b-goty", id)
	}
}

func TestReconcileDifferentInstallmentsStaySeparate(t *testing.T) {
	steam := &fakeAdapter{
		name: "Steam",
		inventory: map[string]models.GameCandidate{
			"f3": {Name: "Fallout 3", ExternalID: "f3"},
			"f4": {Name: "Fallout 4", ExternalID: "f4"},
		},
		quotes: map[string]models.PriceQuote{
			"f3": {CurrentPrice: 39.99, OriginalPrice: 39.99, CurrencyCode: "PLN", Available: true},
			"f4": {CurrentPrice: 79.99, OriginalPrice: 79.99, CurrencyCode: "PLN", Available: true},
		},
	}
	rc, _ := newTestReconciler(t, steam)
	ctx := context.Background()

	a, err := rc.ReconcileAndAttach(ctx, "Steam", "f3")
	if err != nil {
		t.Fatalf("reconcile f3: %v", err)
	}
	b, err := rc.ReconcileAndAttach(ctx, "Steam", "f4")
	if err != nil {
		t.Fatalf("reconcile f4: %v", err)
	}

	if a.ID == b.ID {
		t.Fatal("different installments collapsed into one game")
	}
	if n := countGames(t, rc); n != 2 {
		t.Errorf("want 2 game rows, got %d", n)
	}
}

func TestReconcilePriceFailureDoesNotAbortOthers(t *testing.T) {
	steam := &fakeAdapter{
		name: "Steam",
		inventory: map[string]models.GameCandidate{
			"100": {Name: "Hades", ExternalID: "100"},
		},
		quotes: map[string]models.PriceQuote{
			"100": {CurrentPrice: 89.99, OriginalPrice: 89.99, CurrencyCode: "PLN", Available: true},
		},
	}
	gog := &fakeAdapter{
		name:     "GOG",
		priceErr: errors.New("gateway timeout"),
		inventory: map[string]models.GameCandidate{
			"h1": {Name: "Hades", ExternalID: "h1"},
		},
	}
	rc, priceRepo := newTestReconciler(t, steam, gog)
	ctx := context.Background()

	g, err := rc.ReconcileAndAttach(ctx, "Steam", "100")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	rows, err := priceRepo.ListByGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("listByGame: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want only the Steam price row, got %d rows", len(rows))
	}
	if rows[0].StoreName != "Steam" {
		t.Errorf("surviving row belongs to %q", rows[0].StoreName)
	}
}

func TestReconcileUnknownStoreAndListing(t *testing.T) {
	steam := &fakeAdapter{name: "Steam", inventory: map[string]models.GameCandidate{}}
	rc, _ := newTestReconciler(t, steam)
	ctx := context.Background()

	if _, err := rc.ReconcileAndAttach(ctx, "Epic", "1"); err == nil {
		t.Error("expected error for unregistered store")
	}
	if _, err := rc.ReconcileAndAttach(ctx, "Steam", "nope"); err == nil {
		t.Error("expected error for unknown external id")
	}
	if n := countGames(t, rc); n != 0 {
		t.Errorf("failed reconciliations must not create games, got %d rows", n)
	}
}

func TestReconcileConcurrentSameTitleCreatesOneGame(t *testing.T) {
	steam := &fakeAdapter{
		name: "Steam",
		inventory: map[string]models.GameCandidate{
			"100": {Name: "Outer Wilds", ExternalID: "100"},
		},
		quotes: map[string]models.PriceQuote{
			"100": {CurrentPrice: 104.99, OriginalPrice: 104.99, CurrencyCode: "PLN", Available: true},
		},
	}
	gog := &fakeAdapter{
		name: "GOG",
		inventory: map[string]models.GameCandidate{
			"ow": {Name: "Outer Wilds", ExternalID: "ow"},
		},
		quotes: map[string]models.PriceQuote{
			"ow": {CurrentPrice: 94.99, OriginalPrice: 104.99, DiscountPercentage: 10, CurrencyCode: "PLN", Available: true},
		},
	}
	rc, priceRepo := newTestReconciler(t, steam, gog)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = rc.ReconcileAndAttach(ctx, "Steam", "100")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = rc.ReconcileAndAttach(ctx, "GOG", "ow")
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
	}

	if n := countGames(t, rc); n != 1 {
		t.Fatalf("concurrent reconciliations created %d games, want 1", n)
	}

	games, err := rc.Games.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	g := games[0]
	if id, _ := g.ExternalID("Steam"); id != "100" {
		t.Errorf("Steam id = %q, want 100", id)
	}
	if id, _ := g.ExternalID("GOG"); id != "ow" {
		t.Errorf("GOG id = %q, want ow", id)
	}

	rows, err := priceRepo.ListByGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("listByGame: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("want 2 price rows, got %d", len(rows))
	}
}

func TestFindBestMatchPrefersExactName(t *testing.T) {
	results := []models.GameCandidate{
		{Name: "Portal 2", ExternalID: "p2"},
		{Name: "Portal", ExternalID: "p1"},
	}
	if m := FindBestMatch(results, "portal"); m == nil || m.ExternalID != "p1" {
		t.Errorf("exact name should win, got %+v", m)
	}
	if m := FindBestMatch(results, "Half-Life"); m != nil {
		t.Errorf("unrelated title matched %+v", m)
	}
}
