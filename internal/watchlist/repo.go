// Package watchlist lets a user pin catalog games they want to track.
package watchlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Item is one watched game, joined with its current cheapest available
// price for list responses.
type Item struct {
	UserID   string    `json:"-"`
	GameID   int64     `json:"game_id"`
	GameName string    `json:"game_name"`
	Note     string    `json:"note,omitempty"`
	AddedAt  time.Time `json:"added_at"`

	BestPrice    *float64 `json:"best_price,omitempty"`
	BestStore    string   `json:"best_store,omitempty"`
	CurrencyCode string   `json:"currency_code,omitempty"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert adds the game to the user's watchlist, or updates the note if
// it is already there.
func (r *Repo) Upsert(ctx context.Context, userID string, gameID int64, note string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO watchlist (user_id, game_id, note, added_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, game_id) DO UPDATE SET
			note = excluded.note
	`, userID, gameID, note)
	if err != nil {
		return fmt.Errorf("upsert watchlist item: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID string, gameID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM watchlist
		WHERE user_id = ? AND game_id = ?
	`, userID, gameID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns the user's watchlist, newest first, each item annotated
// with the cheapest available price across stores.
func (r *Repo) List(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT w.user_id, w.game_id, g.name, w.note, w.added_at,
		       best.current_price, best.store_name, best.currency_code
		FROM watchlist w
		JOIN games g ON g.id = w.game_id
		LEFT JOIN (
			SELECT p.game_id, p.current_price, p.currency_code, s.name AS store_name,
			       ROW_NUMBER() OVER (PARTITION BY p.game_id ORDER BY p.current_price ASC) AS rn
			FROM prices p
			JOIN stores s ON s.id = p.store_id
			WHERE p.is_available = 1
		) best ON best.game_id = w.game_id AND best.rn = 1
		WHERE w.user_id = ?
		ORDER BY w.added_at DESC, g.name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var (
			it       Item
			price    sql.NullFloat64
			store    sql.NullString
			currency sql.NullString
		)
		if err := rows.Scan(&it.UserID, &it.GameID, &it.GameName, &it.Note, &it.AddedAt,
			&price, &store, &currency); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		if price.Valid {
			p := price.Float64
			it.BestPrice = &p
			it.BestStore = store.String
			it.CurrencyCode = currency.String
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, userID string, gameID int64) (*Item, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT w.user_id, w.game_id, g.name, w.note, w.added_at
		FROM watchlist w
		JOIN games g ON g.id = w.game_id
		WHERE w.user_id = ? AND w.game_id = ?
	`, userID, gameID)

	var it Item
	if err := row.Scan(&it.UserID, &it.GameID, &it.GameName, &it.Note, &it.AddedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get watchlist item: %w", err)
	}
	return &it, nil
}
