package models

import "time"

// PriceRecord is one store's current price for one canonical game.
// Unique per (GameID, StoreID); overwritten in place on every refresh,
// no history is kept.
type PriceRecord struct {
	ID                 int64     `json:"id"`
	GameID             int64     `json:"game_id"`
	StoreID            int64     `json:"store_id"`
	CurrentPrice       float64   `json:"current_price"`
	OriginalPrice      float64   `json:"original_price"`
	DiscountPercentage float64   `json:"discount_percentage"`
	CurrencyCode       string    `json:"currency_code"`
	LastUpdated        time.Time `json:"last_updated"`
	IsAvailable        bool      `json:"is_available"`
	StoreURL           string    `json:"store_url"`
}

// PriceQuote is what a store adapter reports for a single listing.
// Available=false means the store answered but the item is not
// purchasable there; the price fields are then meaningless.
type PriceQuote struct {
	CurrentPrice       float64 `json:"current_price"`
	OriginalPrice      float64 `json:"original_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	CurrencyCode       string  `json:"currency_code"`
	Available          bool    `json:"available"`
	StoreURL           string  `json:"store_url"`
}
