package prices

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gamehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert merges a fetched quote into the unique (game, store) price
// row: insert on first sight, overwrite in place afterwards. The
// unique index turns a concurrent duplicate insert into an update, so
// the operation is idempotent; repeating it with the same quote only
// moves last_updated. An unavailable quote zeroes the price fields.
func (r *Repo) Upsert(ctx context.Context, gameID, storeID int64, q models.PriceQuote) (*models.PriceRecord, error) {
	current, original, discount := q.CurrentPrice, q.OriginalPrice, q.DiscountPercentage
	if !q.Available {
		current, original, discount = 0, 0, 0
	}
	now := time.Now().UTC()

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO prices (game_id, store_id, current_price, original_price, discount_percentage,
		                    currency_code, last_updated, is_available, store_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, store_id) DO UPDATE SET
		  current_price = excluded.current_price,
		  original_price = excluded.original_price,
		  discount_percentage = excluded.discount_percentage,
		  currency_code = excluded.currency_code,
		  last_updated = excluded.last_updated,
		  is_available = excluded.is_available,
		  store_url = excluded.store_url
	`, gameID, storeID, current, original, discount, q.CurrencyCode, now, q.Available, q.StoreURL)
	if err != nil {
		return nil, fmt.Errorf("upsert price: %w", err)
	}

	return r.Get(ctx, gameID, storeID)
}

func (r *Repo) Get(ctx context.Context, gameID, storeID int64) (*models.PriceRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, game_id, store_id, current_price, original_price, discount_percentage,
		       currency_code, last_updated, is_available, store_url
		FROM prices
		WHERE game_id = ? AND store_id = ?
	`, gameID, storeID)

	p, err := scanPrice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan price: %w", err)
	}
	return p, nil
}

// PriceWithStore carries the store name alongside the row for API
// responses.
type PriceWithStore struct {
	models.PriceRecord
	StoreName string `json:"store_name"`
}

func (r *Repo) ListByGame(ctx context.Context, gameID int64) ([]PriceWithStore, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT p.id, p.game_id, p.store_id, p.current_price, p.original_price, p.discount_percentage,
		       p.currency_code, p.last_updated, p.is_available, p.store_url, s.name
		FROM prices p
		JOIN stores s ON s.id = p.store_id
		WHERE p.game_id = ?
		ORDER BY s.name ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	var out []PriceWithStore
	for rows.Next() {
		var (
			p       PriceWithStore
			updated sql.NullTime
		)
		if err := rows.Scan(
			&p.ID, &p.GameID, &p.StoreID, &p.CurrentPrice, &p.OriginalPrice, &p.DiscountPercentage,
			&p.CurrencyCode, &updated, &p.IsAvailable, &p.StoreURL, &p.StoreName,
		); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		if updated.Valid {
			p.LastUpdated = updated.Time
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func scanPrice(row interface{ Scan(...any) error }) (*models.PriceRecord, error) {
	var (
		p       models.PriceRecord
		updated sql.NullTime
	)
	if err := row.Scan(
		&p.ID, &p.GameID, &p.StoreID, &p.CurrentPrice, &p.OriginalPrice, &p.DiscountPercentage,
		&p.CurrencyCode, &updated, &p.IsAvailable, &p.StoreURL,
	); err != nil {
		return nil, err
	}
	if updated.Valid {
		p.LastUpdated = updated.Time
	}
	return &p, nil
}
