package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamehub/pkg/models"
)

// GOG talks to two hosts: the www catalog search and the api.gog.com
// product/price endpoints.
type GOG struct {
	BaseURL string // www.gog.com
	APIURL  string // api.gog.com
	Client  *http.Client
	Country string
}

func NewGOG() *GOG {
	return &GOG{
		BaseURL: "https://www.gog.com",
		APIURL:  "https://api.gog.com",
		Client:  &http.Client{Timeout: 12 * time.Second},
		Country: "PL",
	}
}

func (g *GOG) Name() string { return "GOG" }

type gogSearchResponse struct {
	Products []struct {
		ID                   int64    `json:"id"`
		Title                string   `json:"title"`
		Image                string   `json:"image"`
		Developers           []string `json:"developers"`
		Publishers           []string `json:"publishers"`
		ReleaseDateTimestamp *int64   `json:"releaseDateTimestamp"`
	} `json:"products"`
}

type gogProduct struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ReleaseDate string `json:"release_date"`
	IsPreOrder  bool   `json:"is_pre_order"`
	Images      struct {
		Background string `json:"background"`
	} `json:"images"`
}

type gogPriceResponse struct {
	Embedded struct {
		Prices []struct {
			Currency struct {
				Code string `json:"code"`
			} `json:"currency"`
			BasePrice  string `json:"basePrice"`  // "3999 PLN"
			FinalPrice string `json:"finalPrice"` // "1999 PLN"
		} `json:"prices"`
	} `json:"_embedded"`
}

func (g *GOG) SearchGames(ctx context.Context, term string) ([]models.GameCandidate, error) {
	u := fmt.Sprintf("%s/games/ajax/filtered?mediaType=game&search=%s&language=en-US&country=%s",
		g.BaseURL, url.QueryEscape(term), g.Country)

	var resp gogSearchResponse
	if err := g.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("gog: search: %w", err)
	}

	out := make([]models.GameCandidate, 0, len(resp.Products))
	for _, p := range resp.Products {
		if p.ID == 0 || strings.TrimSpace(p.Title) == "" {
			continue
		}
		c := models.GameCandidate{
			Name:       strings.TrimSpace(p.Title),
			ExternalID: strconv.FormatInt(p.ID, 10),
			ImageURL:   fixImageURL(p.Image),
		}
		if len(p.Developers) > 0 {
			c.Developer = strings.TrimSpace(p.Developers[0])
		}
		if len(p.Publishers) > 0 {
			c.Publisher = strings.TrimSpace(p.Publishers[0])
		}
		if p.ReleaseDateTimestamp != nil {
			c.ReleaseDate = time.Unix(*p.ReleaseDateTimestamp, 0).UTC()
		}
		out = append(out, c)
	}
	return out, nil
}

func (g *GOG) GetGameDetails(ctx context.Context, externalID string) (*models.GameCandidate, error) {
	if _, err := strconv.ParseInt(externalID, 10, 64); err != nil {
		return nil, nil // GOG ids are numeric; anything else cannot exist there
	}

	p, err := g.fetchProduct(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("gog: details: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	released, _ := time.Parse("2006-01-02", p.ReleaseDate)

	state := "Available"
	if p.IsPreOrder {
		state = "Pre-order"
	}

	return &models.GameCandidate{
		Name:        strings.TrimSpace(p.Title),
		ExternalID:  externalID,
		Description: fmt.Sprintf("%s - %s", strings.TrimSpace(p.Title), state),
		ImageURL:    fixImageURL(p.Images.Background),
		ReleaseDate: released,
	}, nil
}

func (g *GOG) GetGamePrice(ctx context.Context, externalID string, isNewGame bool) (*models.PriceQuote, error) {
	if _, err := strconv.ParseInt(externalID, 10, 64); err != nil {
		return nil, nil
	}

	u := fmt.Sprintf("%s/products/%s/prices?countryCode=%s", g.APIURL, externalID, g.Country)

	var resp gogPriceResponse
	if err := g.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("gog: price: %w", err)
	}

	storeURL := fmt.Sprintf("%s/game/%s", g.BaseURL, externalID)
	if isNewGame {
		// resolve the human slug once so the stored URL is stable
		if p, err := g.fetchProduct(ctx, externalID); err == nil && p != nil && p.Slug != "" {
			storeURL = fmt.Sprintf("%s/game/%s", g.BaseURL, p.Slug)
		}
	}

	if len(resp.Embedded.Prices) == 0 {
		// store answered, item not purchasable in this region
		return &models.PriceQuote{
			Available:    false,
			CurrencyCode: "PLN",
			StoreURL:     storeURL,
		}, nil
	}

	info := resp.Embedded.Prices[0]
	final, err := parseGogPrice(info.FinalPrice)
	if err != nil {
		return nil, fmt.Errorf("gog: price %q: %w", info.FinalPrice, err)
	}
	base, err := parseGogPrice(info.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("gog: price %q: %w", info.BasePrice, err)
	}

	var discount float64
	if base > 0 {
		discount = math.Round((1 - final/base) * 100)
	}

	currency := info.Currency.Code
	if currency == "" {
		currency = "PLN"
	}

	return &models.PriceQuote{
		CurrentPrice:       final,
		OriginalPrice:      base,
		DiscountPercentage: discount,
		CurrencyCode:       currency,
		Available:          true,
		StoreURL:           storeURL,
	}, nil
}

func (g *GOG) fetchProduct(ctx context.Context, externalID string) (*gogProduct, error) {
	u := fmt.Sprintf("%s/products/%s", g.APIURL, externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var p gogProduct
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &p, nil
}

func (g *GOG) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := g.Client.Do(req)
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

// GOG price strings carry the amount in the smallest currency unit,
// "3999 PLN" meaning 39.99.
func parseGogPrice(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty price string")
	}
	units, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}
	return float64(units) / 100, nil
}

func fixImageURL(u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
