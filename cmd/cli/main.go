// Command cli is a small terminal client for the HTTP API: search the
// stores, add games to the catalog, inspect prices, trigger a refresh.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	global := flag.NewFlagSet("gamehub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	client := &http.Client{Timeout: 30 * time.Second}
	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "login":
		login(ctx, client, *baseURL, *tokenPath, rest)
	case "search":
		search(ctx, client, *baseURL, rest)
	case "add":
		add(ctx, client, *baseURL, rest)
	case "list":
		list(ctx, client, *baseURL)
	case "prices":
		gamePrices(ctx, client, *baseURL, rest)
	case "refresh":
		triggerRefresh(ctx, client, *baseURL, *tokenPath)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: gamehub [-api URL] [-token PATH] COMMAND

commands:
  login   -email E -password P   log in and store the token
  search  QUERY                  search every store for a title
  add     -store NAME -id ID     add a store listing to the catalog
  list                           list the catalog
  prices  GAME_ID                show all store prices for a game
  refresh                        re-fetch prices for the whole catalog`)
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".gamehub", "token.json")
}

func login(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		log.Fatal("email and password are required")
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "",
		map[string]string{"email": *email, "password": *password}, &resp); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(tokenPath), 0o700); err != nil {
		log.Fatalf("token dir: %v", err)
	}
	b, _ := json.Marshal(map[string]string{"token": resp.Token})
	if err := os.WriteFile(tokenPath, b, 0o600); err != nil {
		log.Fatalf("save token: %v", err)
	}
	fmt.Println("logged in")
}

func loadToken(tokenPath string) string {
	b, err := os.ReadFile(tokenPath)
	if err != nil {
		return ""
	}
	var td struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(b, &td); err != nil {
		return ""
	}
	return td.Token
}

func search(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) == 0 {
		log.Fatal("search needs a query")
	}
	q := strings.Join(args, " ")

	var resp struct {
		Items []struct {
			Store string `json:"store"`
			Game  struct {
				Name       string `json:"name"`
				ExternalID string `json:"external_id"`
			} `json:"game"`
		} `json:"items"`
		FailedStores []string `json:"failed_stores"`
	}
	u := baseURL + "/games/search?q=" + url.QueryEscape(q)
	if err := doJSON(ctx, client, http.MethodGet, u, "", nil, &resp); err != nil {
		log.Fatalf("search failed: %v", err)
	}

	for _, it := range resp.Items {
		fmt.Printf("%-8s %-12s %s\n", it.Store, it.Game.ExternalID, it.Game.Name)
	}
	if len(resp.FailedStores) > 0 {
		fmt.Fprintf(os.Stderr, "warning: no answer from %s\n", strings.Join(resp.FailedStores, ", "))
	}
}

func add(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	storeName := fs.String("store", "", "store name (Steam, GOG)")
	externalID := fs.String("id", "", "the game's id at that store")
	_ = fs.Parse(args)

	if *storeName == "" || *externalID == "" {
		log.Fatal("-store and -id are required")
	}

	var resp struct {
		Game struct {
			ID       int64             `json:"id"`
			Name     string            `json:"name"`
			StoreIDs map[string]string `json:"store_ids"`
		} `json:"game"`
		Prices []priceRow `json:"prices"`
	}
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/games", "",
		map[string]string{"store": *storeName, "external_id": *externalID}, &resp); err != nil {
		log.Fatalf("add failed: %v", err)
	}

	fmt.Printf("#%d %s (linked: %s)\n", resp.Game.ID, resp.Game.Name, storeList(resp.Game.StoreIDs))
	printPrices(resp.Prices)
}

func list(ctx context.Context, client *http.Client, baseURL string) {
	var resp struct {
		Items []struct {
			ID       int64             `json:"id"`
			Name     string            `json:"name"`
			StoreIDs map[string]string `json:"store_ids"`
		} `json:"items"`
	}
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/games", "", nil, &resp); err != nil {
		log.Fatalf("list failed: %v", err)
	}
	for _, g := range resp.Items {
		fmt.Printf("%-5d %-40s %s\n", g.ID, g.Name, storeList(g.StoreIDs))
	}
}

type priceRow struct {
	StoreName          string  `json:"store_name"`
	CurrentPrice       float64 `json:"current_price"`
	OriginalPrice      float64 `json:"original_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	CurrencyCode       string  `json:"currency_code"`
	IsAvailable        bool    `json:"is_available"`
}

func gamePrices(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) == 0 {
		log.Fatal("prices needs a game id")
	}

	var resp struct {
		Game struct {
			Name string `json:"name"`
		} `json:"game"`
		Prices []priceRow `json:"prices"`
	}
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/games/"+args[0], "", nil, &resp); err != nil {
		log.Fatalf("prices failed: %v", err)
	}

	fmt.Println(resp.Game.Name)
	printPrices(resp.Prices)
}

func printPrices(rows []priceRow) {
	for _, p := range rows {
		if !p.IsAvailable {
			fmt.Printf("  %-8s unavailable\n", p.StoreName)
			continue
		}
		line := fmt.Sprintf("  %-8s %.2f %s", p.StoreName, p.CurrentPrice, p.CurrencyCode)
		if p.DiscountPercentage > 0 {
			line += fmt.Sprintf("  (-%.0f%%, was %.2f)", p.DiscountPercentage, p.OriginalPrice)
		}
		fmt.Println(line)
	}
}

func triggerRefresh(ctx context.Context, client *http.Client, baseURL, tokenPath string) {
	token := loadToken(tokenPath)
	if token == "" {
		log.Fatal("refresh requires login first")
	}

	var resp struct {
		Updated int `json:"updated"`
		Failed  int `json:"failed"`
	}
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/refresh", token, nil, &resp); err != nil {
		log.Fatalf("refresh failed: %v", err)
	}
	fmt.Printf("refreshed: %d updated, %d failed\n", resp.Updated, resp.Failed)
}

func storeList(ids map[string]string) string {
	if len(ids) == 0 {
		return "no stores"
	}
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func doJSON(ctx context.Context, client *http.Client, method, rawURL, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
