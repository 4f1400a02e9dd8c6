package models

import "time"

// Game is the canonical catalog entry: one row per real-world game,
// no matter how many stores list it. Each store that carries the game
// contributes its own external id to StoreIDs and its own price row.
type Game struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	StoreIDs    map[string]string `json:"store_ids,omitempty"` // e.g. {"Steam": "730", "GOG": "1423"}
	Description string            `json:"description"`
	ImageURL    string            `json:"image_url,omitempty"`
	Developer   string            `json:"developer,omitempty"`
	Publisher   string            `json:"publisher,omitempty"`
	ReleaseDate time.Time         `json:"release_date,omitempty"`
}

// ExternalID returns the game's id at the given store, if known.
func (g *Game) ExternalID(storeName string) (string, bool) {
	if g.StoreIDs == nil {
		return "", false
	}
	id, ok := g.StoreIDs[storeName]
	return id, ok
}

// GameCandidate is a raw listing as returned by one store adapter,
// before it has been reconciled against the catalog.
type GameCandidate struct {
	Name        string    `json:"name"`
	ExternalID  string    `json:"external_id"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Developer   string    `json:"developer,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	ReleaseDate time.Time `json:"release_date,omitempty"`
}
