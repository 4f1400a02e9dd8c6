package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"gamehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// GameSummary is the (id, name) projection the fuzzy-match scan works
// on; full rows are only loaded for the candidate that matched.
type GameSummary struct {
	ID   int64
	Name string
}

const gameColumns = `id, name, store_ids, description, image_url, developer, publisher, release_date`

func scanGame(row interface{ Scan(...any) error }) (*models.Game, error) {
	var (
		g           models.Game
		storeIDs    string
		description sql.NullString
		imageURL    sql.NullString
		developer   sql.NullString
		publisher   sql.NullString
		released    sql.NullTime
	)
	if err := row.Scan(
		&g.ID, &g.Name, &storeIDs, &description, &imageURL, &developer, &publisher, &released,
	); err != nil {
		return nil, err
	}
	g.Description = description.String
	g.ImageURL = imageURL.String
	g.Developer = developer.String
	g.Publisher = publisher.String
	if released.Valid {
		g.ReleaseDate = released.Time
	}
	_ = json.Unmarshal([]byte(storeIDs), &g.StoreIDs)
	return &g, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE id = ?
	`, id)

	g, err := scanGame(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return g, nil
}

func (r *Repo) List(ctx context.Context) ([]models.Game, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var out []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// FindByName looks up a game by exact, case-insensitive, trimmed name.
func (r *Repo) FindByName(ctx context.Context, tx *sql.Tx, name string) (*models.Game, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE LOWER(TRIM(name)) = ?
	`, strings.ToLower(strings.TrimSpace(name)))

	g, err := scanGame(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan findByName: %w", err)
	}
	return g, nil
}

// Summaries returns every (id, name) pair for the linear match scan.
func (r *Repo) Summaries(ctx context.Context, tx *sql.Tx) ([]GameSummary, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM games`)
	if err != nil {
		return nil, fmt.Errorf("summaries query: %w", err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var s GameSummary
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("summaries scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) getByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Game, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE id = ?
	`, id)
	g, err := scanGame(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return g, nil
}

func marshalStoreIDs(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Create inserts a new canonical game inside the caller's transaction
// and fills in the generated id.
func (r *Repo) Create(ctx context.Context, tx *sql.Tx, g *models.Game) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO games (name, store_ids, description, image_url, developer, publisher, release_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.Name, marshalStoreIDs(g.StoreIDs), g.Description, g.ImageURL, g.Developer, g.Publisher, nullTime(g))
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert game id: %w", err)
	}
	g.ID = id
	return nil
}

// Update overwrites the game's descriptive fields and store-id map.
func (r *Repo) Update(ctx context.Context, tx *sql.Tx, g *models.Game) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE games
		SET name = ?, store_ids = ?, description = ?, image_url = ?, developer = ?, publisher = ?, release_date = ?
		WHERE id = ?
	`, g.Name, marshalStoreIDs(g.StoreIDs), g.Description, g.ImageURL, g.Developer, g.Publisher, nullTime(g), g.ID)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

func nullTime(g *models.Game) any {
	if g.ReleaseDate.IsZero() {
		return nil
	}
	return g.ReleaseDate
}

// BackfillStoreIDs merges newly discovered external ids into the
// game's store-id map, filling only slots that are still empty. The
// read-merge-write runs in its own transaction so two concurrent
// reconciliations cannot drop each other's ids.
func (r *Repo) BackfillStoreIDs(ctx context.Context, gameID int64, ids map[string]string) (*models.Game, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin backfill: %w", err)
	}
	defer tx.Rollback()

	g, err := r.getByIDTx(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("backfill: game %d not found", gameID)
	}

	changed := false
	for storeName, externalID := range ids {
		if externalID == "" {
			continue
		}
		if _, taken := g.ExternalID(storeName); taken {
			continue
		}
		if g.StoreIDs == nil {
			g.StoreIDs = make(map[string]string)
		}
		g.StoreIDs[storeName] = externalID
		changed = true
	}

	if changed {
		if _, err := tx.ExecContext(ctx, `
			UPDATE games SET store_ids = ? WHERE id = ?
		`, marshalStoreIDs(g.StoreIDs), g.ID); err != nil {
			return nil, fmt.Errorf("backfill update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit backfill: %w", err)
	}
	return g, nil
}
