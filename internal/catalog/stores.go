package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gamehub/pkg/models"
)

// Known storefront reference data, applied the first time a store
// shows up. Unknown stores still get a row, just without a base URL.
var defaultStoreInfo = map[string]models.Store{
	"steam": {BaseURL: "https://store.steampowered.com", Region: "PL"},
	"gog":   {BaseURL: "https://www.gog.com", Region: "PL"},
}

// GetOrCreateStore returns the store row for the given name, creating
// it lazily on first encounter. Safe under concurrent callers: the
// insert ignores the unique-name conflict and re-reads.
func (r *Repo) GetOrCreateStore(ctx context.Context, name string) (*models.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("store name required")
	}

	if s, err := r.findStore(ctx, name); err != nil || s != nil {
		return s, err
	}

	info := defaultStoreInfo[strings.ToLower(name)]
	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO stores (name, base_url, is_active, region, requires_auth)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, info.BaseURL, info.Region, info.RequiresAuth); err != nil {
		return nil, fmt.Errorf("insert store: %w", err)
	}

	s, err := r.findStore(ctx, name)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("store %q vanished after insert", name)
	}
	return s, nil
}

func (r *Repo) findStore(ctx context.Context, name string) (*models.Store, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, base_url, is_active, region, requires_auth
		FROM stores
		WHERE name = ?
	`, name)

	var s models.Store
	if err := row.Scan(&s.ID, &s.Name, &s.BaseURL, &s.IsActive, &s.Region, &s.RequiresAuth); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan store: %w", err)
	}
	return &s, nil
}

// ListStores returns all known stores ordered by name.
func (r *Repo) ListStores(ctx context.Context) ([]models.Store, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, base_url, is_active, region, requires_auth
		FROM stores
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var out []models.Store
	for rows.Next() {
		var s models.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.BaseURL, &s.IsActive, &s.Region, &s.RequiresAuth); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
