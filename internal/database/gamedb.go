package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ludokit/gamescan/internal/model"
)

// GameDB provides SQLite-based storage for the game library.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for the whole library
// rather than one file per source. Deduplication across sources needs a
// single keyspace, and a single file simplifies backup/restore.
type GameDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures GameDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a GameDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*GameDB, error) {
	dbPath := filepath.Join(dbDir, "gamescan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string.
	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple readers go through WAL.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	gdb := &GameDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := gdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return gdb, nil
}

// Close closes the database connection.
func (gdb *GameDB) Close() error {
	return gdb.db.Close()
}

// Path returns the path to the SQLite database file.
func (gdb *GameDB) Path() string {
	return gdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (gdb *GameDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		key         TEXT PRIMARY KEY,
		id          TEXT NOT NULL,
		source      TEXT NOT NULL,
		name        TEXT NOT NULL,
		install_dir TEXT NOT NULL DEFAULT '',
		executable  TEXT NOT NULL DEFAULT '',
		cover_path  TEXT NOT NULL DEFAULT '',
		metadata    TEXT NOT NULL DEFAULT '{}',
		excluded    INTEGER NOT NULL DEFAULT 0,
		removed     INTEGER NOT NULL DEFAULT 0,
		added_at    TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL,
		last_run_id TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_games_source ON games(source);
	CREATE INDEX IF NOT EXISTS idx_games_removed ON games(removed);
	`
	_, err := gdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveGame inserts or updates a game row. The row is keyed by the
// source-qualified library key, so re-importing an existing game updates
// it in place. The removed flag is preserved on update: marking a game
// removed is an explicit user action that an import must not undo.
func (gdb *GameDB) SaveGame(ctx context.Context, game *model.Game, runID string) error {
	metadata, err := json.Marshal(game.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	addedAt := game.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}

	query := `
	INSERT INTO games (key, id, source, name, install_dir, executable, cover_path, metadata, excluded, removed, added_at, updated_at, last_run_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		name        = excluded.name,
		install_dir = excluded.install_dir,
		executable  = excluded.executable,
		cover_path  = excluded.cover_path,
		metadata    = excluded.metadata,
		excluded    = excluded.excluded,
		updated_at  = excluded.updated_at,
		last_run_id = excluded.last_run_id
	`
	_, err = gdb.db.ExecContext(ctx, query,
		model.Key(game.SourceID, game.ID),
		game.ID,
		game.SourceID,
		game.Name,
		game.InstallDir,
		game.Executable,
		game.CoverPath,
		string(metadata),
		boolToInt(game.Excluded),
		boolToInt(game.Removed),
		addedAt,
		time.Now(),
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", game.ID, err)
	}
	return nil
}

// GetGame retrieves a game by its library key.
// Returns sql.ErrNoRows (wrapped) if the game does not exist.
func (gdb *GameDB) GetGame(ctx context.Context, key string) (*model.Game, error) {
	query := `
	SELECT id, source, name, install_dir, executable, cover_path, metadata, excluded, removed, added_at
	FROM games WHERE key = ?
	`
	row := gdb.db.QueryRowContext(ctx, query, key)
	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", key, err)
	}
	return game, nil
}

// ListGames returns every game in the library ordered by name.
// Removed games are included; callers filter as needed.
func (gdb *GameDB) ListGames(ctx context.Context) ([]*model.Game, error) {
	query := `
	SELECT id, source, name, install_dir, executable, cover_path, metadata, excluded, removed, added_at
	FROM games ORDER BY name COLLATE NOCASE
	`
	rows, err := gdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game rows: %w", err)
	}
	return games, nil
}

// RemovedKeys returns the set of library keys the user has removed.
// The store consults this at registration so removed games are not
// re-added by a later import run.
func (gdb *GameDB) RemovedKeys(ctx context.Context) (map[string]bool, error) {
	rows, err := gdb.db.QueryContext(ctx, `SELECT key FROM games WHERE removed = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query removed games: %w", err)
	}
	defer rows.Close()

	removed := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan removed key: %w", err)
		}
		removed[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate removed keys: %w", err)
	}
	return removed, nil
}

// MarkRemoved flags a game as removed from the library.
func (gdb *GameDB) MarkRemoved(ctx context.Context, key string) error {
	result, err := gdb.db.ExecContext(ctx,
		`UPDATE games SET removed = 1, updated_at = ? WHERE key = ?`, time.Now(), key)
	if err != nil {
		return fmt.Errorf("failed to mark game removed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no game with key %s", key)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanGame.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanGame reads one game row into a model.Game.
func scanGame(row rowScanner) (*model.Game, error) {
	var (
		game     model.Game
		metadata string
		excluded int
		removed  int
	)
	err := row.Scan(
		&game.ID,
		&game.SourceID,
		&game.Name,
		&game.InstallDir,
		&game.Executable,
		&game.CoverPath,
		&metadata,
		&excluded,
		&removed,
		&game.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &game.Metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata column: %w", err)
		}
	}
	game.Excluded = excluded != 0
	game.Removed = removed != 0
	return &game, nil
}

// boolToInt converts a bool to the 0/1 representation stored in SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
