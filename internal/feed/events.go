package feed

import "time"

const (
	EventGameAdded    = "game.added"
	EventPriceUpdated = "price.updated"
)

// GameEvent announces a new or re-linked canonical game.
type GameEvent struct {
	Type   string    `json:"type"`
	GameID int64     `json:"game_id"`
	Name   string    `json:"name"`
	Store  string    `json:"store"` // store that triggered the reconciliation
	At     time.Time `json:"at"`
}

// PriceEvent announces a refreshed price row.
type PriceEvent struct {
	Type      string    `json:"type"`
	GameID    int64     `json:"game_id"`
	StoreID   int64     `json:"store_id"`
	Store     string    `json:"store"`
	NewPrice  float64   `json:"new_price"`
	Currency  string    `json:"currency,omitempty"`
	Available bool      `json:"available"`
	At        time.Time `json:"at"`
}
