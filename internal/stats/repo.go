// Package stats computes price aggregates across stores for API
// consumers; nothing here mutates the catalog.
package stats

import (
	"context"
	"database/sql"
	"fmt"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// GameStats aggregates the available price rows of one game. Games
// with no available listing anywhere are excluded rather than reported
// with zeroes.
type GameStats struct {
	GameID      int64   `json:"game_id"`
	GameName    string  `json:"game_name"`
	StoreCount  int     `json:"store_count"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	AvgPrice    float64 `json:"avg_price"`
	MaxDiscount float64 `json:"max_discount"`
	OnSale      int     `json:"on_sale"`
}

// Overview holds catalog-wide counters.
type Overview struct {
	Games       int `json:"games"`
	Stores      int `json:"stores"`
	PriceRows   int `json:"price_rows"`
	Unavailable int `json:"unavailable"`
	OnSale      int `json:"on_sale"`
}

const gameStatsQuery = `
	SELECT g.id, g.name,
	       COUNT(p.id),
	       MIN(p.current_price),
	       MAX(p.current_price),
	       AVG(p.current_price),
	       MAX(p.discount_percentage),
	       SUM(CASE WHEN p.discount_percentage > 0 THEN 1 ELSE 0 END)
	FROM games g
	JOIN prices p ON p.game_id = g.id AND p.is_available = 1
`

func scanGameStats(rows *sql.Rows) (*GameStats, error) {
	var s GameStats
	if err := rows.Scan(
		&s.GameID, &s.GameName, &s.StoreCount,
		&s.MinPrice, &s.MaxPrice, &s.AvgPrice, &s.MaxDiscount, &s.OnSale,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// PerGame returns aggregates for every game that has at least one
// available price row, cheapest first.
func (r *Repo) PerGame(ctx context.Context) ([]GameStats, error) {
	rows, err := r.DB.QueryContext(ctx, gameStatsQuery+`
		GROUP BY g.id
		ORDER BY MIN(p.current_price) ASC, g.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	defer rows.Close()

	var out []GameStats
	for rows.Next() {
		s, err := scanGameStats(rows)
		if err != nil {
			return nil, fmt.Errorf("stats scan: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// ForGame returns the aggregate row for one game, or nil when the game
// has no available listing.
func (r *Repo) ForGame(ctx context.Context, gameID int64) (*GameStats, error) {
	rows, err := r.DB.QueryContext(ctx, gameStatsQuery+`
		WHERE g.id = ?
		GROUP BY g.id
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	s, err := scanGameStats(rows)
	if err != nil {
		return nil, fmt.Errorf("stats scan: %w", err)
	}
	return s, rows.Err()
}

func (r *Repo) Totals(ctx context.Context) (*Overview, error) {
	var o Overview
	row := r.DB.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM games),
		  (SELECT COUNT(*) FROM stores),
		  (SELECT COUNT(*) FROM prices),
		  (SELECT COUNT(*) FROM prices WHERE is_available = 0),
		  (SELECT COUNT(*) FROM prices WHERE is_available = 1 AND discount_percentage > 0)
	`)
	if err := row.Scan(&o.Games, &o.Stores, &o.PriceRows, &o.Unavailable, &o.OnSale); err != nil {
		return nil, fmt.Errorf("scan totals: %w", err)
	}
	return &o, nil
}
