package models

// Store is immutable reference data about one storefront,
// created lazily the first time the store contributes a price.
type Store struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BaseURL      string `json:"base_url"`
	IsActive     bool   `json:"is_active"`
	Region       string `json:"region"`
	RequiresAuth bool   `json:"requires_auth"`
}
