package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gamehub/pkg/models"
)

// Steam talks to the public storefront API.
type Steam struct {
	BaseURL string
	Client  *http.Client
	Country string // cc= parameter, drives currency
}

func NewSteam() *Steam {
	return &Steam{
		BaseURL: "https://store.steampowered.com",
		Client:  &http.Client{Timeout: 12 * time.Second},
		Country: "PL",
	}
}

func (s *Steam) Name() string { return "Steam" }

type steamSearchResponse struct {
	Items []struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		TinyImage string `json:"tiny_image"`
	} `json:"items"`
}

type steamAppDetails struct {
	Success bool `json:"success"`
	Data    struct {
		Name        string   `json:"name"`
		ShortDesc   string   `json:"short_description"`
		HeaderImage string   `json:"header_image"`
		Developers  []string `json:"developers"`
		Publishers  []string `json:"publishers"`
		ReleaseDate struct {
			Date string `json:"date"`
		} `json:"release_date"`
		PriceOverview *struct {
			Currency        string `json:"currency"`
			Initial         int64  `json:"initial"` // smallest currency unit
			Final           int64  `json:"final"`
			DiscountPercent int64  `json:"discount_percent"`
		} `json:"price_overview"`
	} `json:"data"`
}

func (s *Steam) SearchGames(ctx context.Context, term string) ([]models.GameCandidate, error) {
	u := fmt.Sprintf("%s/api/storesearch/?term=%s&l=english&cc=%s",
		s.BaseURL, url.QueryEscape(term), s.Country)

	var resp steamSearchResponse
	if err := s.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("steam: search: %w", err)
	}

	out := make([]models.GameCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == 0 || item.Name == "" {
			continue
		}
		out = append(out, models.GameCandidate{
			Name:       item.Name,
			ExternalID: strconv.FormatInt(item.ID, 10),
			ImageURL:   item.TinyImage,
		})
	}
	return out, nil
}

func (s *Steam) GetGameDetails(ctx context.Context, externalID string) (*models.GameCandidate, error) {
	u := fmt.Sprintf("%s/api/appdetails?appids=%s&cc=%s",
		s.BaseURL, url.QueryEscape(externalID), s.Country)

	var resp map[string]steamAppDetails
	if err := s.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("steam: details: %w", err)
	}

	details, ok := resp[externalID]
	if !ok || !details.Success {
		return nil, nil
	}

	c := &models.GameCandidate{
		Name:        details.Data.Name,
		ExternalID:  externalID,
		Description: details.Data.ShortDesc,
		ImageURL:    details.Data.HeaderImage,
		ReleaseDate: parseSteamDate(details.Data.ReleaseDate.Date),
	}
	if len(details.Data.Developers) > 0 {
		c.Developer = details.Data.Developers[0]
	}
	if len(details.Data.Publishers) > 0 {
		c.Publisher = details.Data.Publishers[0]
	}
	return c, nil
}

func (s *Steam) GetGamePrice(ctx context.Context, externalID string, isNewGame bool) (*models.PriceQuote, error) {
	u := fmt.Sprintf("%s/api/appdetails?appids=%s&cc=%s&filters=price_overview",
		s.BaseURL, url.QueryEscape(externalID), s.Country)

	var resp map[string]steamAppDetails
	if err := s.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("steam: price: %w", err)
	}

	details, ok := resp[externalID]
	if !ok || !details.Success {
		return nil, nil
	}

	ov := details.Data.PriceOverview
	if ov == nil {
		// app exists but has no store price (delisted, free, region locked)
		return &models.PriceQuote{
			Available:    false,
			CurrencyCode: "PLN",
			StoreURL:     fmt.Sprintf("%s/app/%s", s.BaseURL, externalID),
		}, nil
	}

	currency := ov.Currency
	if currency == "" {
		currency = "PLN"
	}

	return &models.PriceQuote{
		CurrentPrice:       float64(ov.Final) / 100,
		OriginalPrice:      float64(ov.Initial) / 100,
		DiscountPercentage: float64(ov.DiscountPercent),
		CurrencyCode:       currency,
		Available:          true,
		StoreURL:           fmt.Sprintf("%s/app/%s", s.BaseURL, externalID),
	}, nil
}

func (s *Steam) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Steam publishes dates like "10 Nov, 2015"; some entries use the
// bare-year or "Coming soon" form, which map to the zero time.
func parseSteamDate(s string) time.Time {
	for _, layout := range []string{"2 Jan, 2006", "Jan 2, 2006", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
