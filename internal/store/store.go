// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Default arsenal seeded on first open.
var defaultArsenal = []string{
	"Storm Phaze II - Pin Down",
	"Storm IQ Tour - Pin Down",
	"Roto Grip Attention Star - Pin Up",
	"Storm Lightning Blackout - Pin Up",
	"Storm Absolute - Pin Up",
	"Brunswick Prism - Pin Up",
}

// Store wraps SQLite access for sets, games, and deliveries.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			center TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			set_id TEXT NOT NULL,
			game_number INTEGER NOT NULL,
			starting_lane TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS shots (
			id INTEGER PRIMARY KEY,
			game_id TEXT NOT NULL,
			frame_number INTEGER NOT NULL,
			shot_number INTEGER NOT NULL,
			pins_down INTEGER NOT NULL,
			pins_standing TEXT NOT NULL,
			lane_number TEXT NOT NULL,
			split_name TEXT NOT NULL DEFAULT '',
			ball TEXT NOT NULL DEFAULT '',
			arrows_pos INTEGER NOT NULL DEFAULT 0,
			breakpoint_pos INTEGER NOT NULL DEFAULT 0,
			reaction TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS arsenal (
			ball_name TEXT PRIMARY KEY
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_set ON games(set_id, game_number);`,
		`CREATE INDEX IF NOT EXISTS idx_shots_game ON shots(game_id, frame_number, shot_number);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return s.seedArsenal()
}

func (s *Store) seedArsenal() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM arsenal`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, ball := range defaultArsenal {
		if _, err := s.db.Exec(`INSERT INTO arsenal (ball_name) VALUES (?)`, ball); err != nil {
			return err
		}
	}
	return nil
}

// CreateSet creates a set.
func (s *Store) CreateSet(ctx context.Context, name, center string) (model.Set, error) {
	set := model.Set{
		ID:        "set-" + uuid.NewString(),
		Name:      name,
		Center:    center,
		CreatedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sets (id, name, center, created_at) VALUES (?, ?, ?, ?)`,
		set.ID, set.Name, set.Center, set.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return model.Set{}, err
	}
	return set, nil
}

// GetSet loads one set.
func (s *Store) GetSet(ctx context.Context, id string) (model.Set, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, center, created_at FROM sets WHERE id = ?`, id)
	return scanSet(row)
}

// ListSets returns all sets, newest first.
func (s *Store) ListSets(ctx context.Context) ([]model.Set, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, center, created_at FROM sets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var sets []model.Set
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// RenameSet updates a set's name.
func (s *Store) RenameSet(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sets SET name = ? WHERE id = ?`, name, id)
	return err
}

// DeleteSet purges a set with its games and deliveries.
func (s *Store) DeleteSet(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM shots WHERE game_id IN (SELECT id FROM games WHERE set_id = ?)`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM games WHERE set_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sets WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateGame adds the next game to a set. The starting lane is fixed here
// and immutable afterwards.
func (s *Store) CreateGame(ctx context.Context, setID string, startingLane model.Lane) (model.Game, error) {
	if !startingLane.Valid() {
		return model.Game{}, fmt.Errorf("invalid starting lane %q", startingLane)
	}
	var maxNumber sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(game_number) FROM games WHERE set_id = ?`, setID).Scan(&maxNumber); err != nil {
		return model.Game{}, err
	}
	game := model.Game{
		ID:           "game-" + uuid.NewString(),
		SetID:        setID,
		Number:       int(maxNumber.Int64) + 1,
		StartingLane: startingLane,
		CreatedAt:    time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, set_id, game_number, starting_lane, created_at) VALUES (?, ?, ?, ?, ?)`,
		game.ID, game.SetID, game.Number, string(game.StartingLane), game.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return model.Game{}, err
	}
	return game, nil
}

// GetGame loads one game.
func (s *Store) GetGame(ctx context.Context, id string) (model.Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, set_id, game_number, starting_lane, created_at FROM games WHERE id = ?`, id)
	return scanGame(row)
}

// LatestGame returns the highest-numbered game of a set, if any.
func (s *Store) LatestGame(ctx context.Context, setID string) (model.Game, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, set_id, game_number, starting_lane, created_at FROM games
		 WHERE set_id = ? ORDER BY game_number DESC LIMIT 1`, setID)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, false, nil
	}
	if err != nil {
		return model.Game{}, false, err
	}
	return game, true, nil
}

// ListGames returns a set's games in play order.
func (s *Store) ListGames(ctx context.Context, setID string) ([]model.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, set_id, game_number, starting_lane, created_at FROM games
		 WHERE set_id = ? ORDER BY game_number ASC`, setID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var games []model.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

// AppendDelivery persists an accepted delivery and returns its row id.
func (s *Store) AppendDelivery(ctx context.Context, d model.Delivery) (int64, error) {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shots (game_id, frame_number, shot_number, pins_down, pins_standing, lane_number,
			split_name, ball, arrows_pos, breakpoint_pos, reaction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.GameID, d.Frame, d.Shot, d.PinsDown, d.Standing.String(), string(d.Lane),
		d.SplitName, d.Equipment.Ball, d.Equipment.ArrowsPos, d.Equipment.BreakpointPos,
		d.Equipment.Reaction, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ReplaceDelivery overwrites one delivery row in place. Callers must rescore
// the whole game afterwards; there is no incremental path.
func (s *Store) ReplaceDelivery(ctx context.Context, d model.Delivery) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE shots SET pins_down = ?, pins_standing = ?, lane_number = ?, split_name = ?,
			ball = ?, arrows_pos = ?, breakpoint_pos = ?, reaction = ?
		 WHERE game_id = ? AND frame_number = ? AND shot_number = ?`,
		d.PinsDown, d.Standing.String(), string(d.Lane), d.SplitName,
		d.Equipment.Ball, d.Equipment.ArrowsPos, d.Equipment.BreakpointPos, d.Equipment.Reaction,
		d.GameID, d.Frame, d.Shot)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no delivery at game %s frame %d shot %d", d.GameID, d.Frame, d.Shot)
	}
	return nil
}

// LoadDeliveries returns a game's raw deliveries in (frame, shot) order. Rows
// that cannot be parsed into deliveries surface a RestoreError.
func (s *Store) LoadDeliveries(ctx context.Context, gameID string) ([]model.Delivery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_id, frame_number, shot_number, pins_down, pins_standing, lane_number,
			split_name, ball, arrows_pos, breakpoint_pos, reaction, created_at
		 FROM shots WHERE game_id = ? ORDER BY frame_number ASC, shot_number ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var ds []model.Delivery
	for rows.Next() {
		var (
			d        model.Delivery
			standing string
			laneStr  string
			created  string
		)
		if err := rows.Scan(&d.ID, &d.GameID, &d.Frame, &d.Shot, &d.PinsDown, &standing, &laneStr,
			&d.SplitName, &d.Equipment.Ball, &d.Equipment.ArrowsPos, &d.Equipment.BreakpointPos,
			&d.Equipment.Reaction, &created); err != nil {
			return nil, &ledger.RestoreError{GameID: gameID, Err: err}
		}
		pins, err := model.ParsePinSet(standing)
		if err != nil {
			return nil, &ledger.RestoreError{GameID: gameID, Err: err}
		}
		d.Standing = pins
		d.Lane = model.Lane(laneStr)
		if !d.Lane.Valid() {
			return nil, &ledger.RestoreError{GameID: gameID, Err: fmt.Errorf("unknown lane %q", laneStr)}
		}
		at, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, &ledger.RestoreError{GameID: gameID, Err: err}
		}
		d.CreatedAt = at
		ds = append(ds, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadLedger restores a game's validated ledger. Parse failures are
// RestoreErrors; structural violations are ConsistencyErrors from the
// ledger itself.
func (s *Store) LoadLedger(ctx context.Context, gameID string) (*ledger.Ledger, error) {
	ds, err := s.LoadDeliveries(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return ledger.New(gameID, ds)
}

// ListArsenal returns all known balls, sorted by name.
func (s *Store) ListArsenal(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ball_name FROM arsenal ORDER BY ball_name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var balls []string
	for rows.Next() {
		var ball string
		if err := rows.Scan(&ball); err != nil {
			return nil, err
		}
		balls = append(balls, ball)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return balls, nil
}

// AddBall adds a ball to the arsenal. Adding an existing ball is a no-op.
func (s *Store) AddBall(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO arsenal (ball_name) VALUES (?)`, name)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSet(row rowScanner) (model.Set, error) {
	var (
		set     model.Set
		created string
	)
	if err := row.Scan(&set.ID, &set.Name, &set.Center, &created); err != nil {
		return model.Set{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return model.Set{}, err
	}
	set.CreatedAt = at
	return set, nil
}

func scanGame(row rowScanner) (model.Game, error) {
	var (
		game    model.Game
		lane    string
		created string
	)
	if err := row.Scan(&game.ID, &game.SetID, &game.Number, &lane, &created); err != nil {
		return model.Game{}, err
	}
	game.StartingLane = model.Lane(lane)
	at, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return model.Game{}, err
	}
	game.CreatedAt = at
	return game, nil
}
