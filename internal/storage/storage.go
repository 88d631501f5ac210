// Package storage provides SQLite-backed persistence for cached team data and
// the digest run log.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/seatscout/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/seatscout/data.db.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "seatscout", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxRuns: maxRuns}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS team_data (
			team_key     TEXT PRIMARY KEY,
			team         TEXT NOT NULL,
			excitement   INTEGER NOT NULL,
			outlook      TEXT,
			star_players TEXT NOT NULL DEFAULT '[]',
			fetched_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			variant      TEXT NOT NULL,
			status       TEXT NOT NULL,
			events       INTEGER NOT NULL DEFAULT 0,
			results      INTEGER NOT NULL DEFAULT 0,
			error        TEXT,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func teamKey(team string) string {
	return strings.ToLower(strings.TrimSpace(team))
}

// SaveTeamData upserts the cached data for a team.
func (s *Storage) SaveTeamData(data *models.TeamData) error {
	if data == nil || teamKey(data.Team) == "" {
		return errors.New("team data must name a team")
	}
	players, err := json.Marshal(data.StarPlayers)
	if err != nil {
		return fmt.Errorf("failed to marshal star players: %w", err)
	}
	fetchedAt := data.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO team_data
			(team_key, team, excitement, outlook, star_players, fetched_at)
		VALUES (?,?,?,?,?,?)`,
		teamKey(data.Team), data.Team, data.Excitement, data.Outlook, string(players),
		fetchedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save team data: %w", err)
	}
	return nil
}

// GetTeamData returns the cached data for team, or nil when nothing is cached.
func (s *Storage) GetTeamData(team string) (*models.TeamData, error) {
	row := s.db.QueryRow(`
		SELECT team, excitement, outlook, star_players, fetched_at
		FROM team_data WHERE team_key = ?`, teamKey(team))

	var data models.TeamData
	var outlook sql.NullString
	var playersJSON string
	var fetchedAtNano int64

	err := row.Scan(&data.Team, &data.Excitement, &outlook, &playersJSON, &fetchedAtNano)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load team data: %w", err)
	}
	if err := json.Unmarshal([]byte(playersJSON), &data.StarPlayers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal star players: %w", err)
	}
	data.Outlook = outlook.String
	data.FetchedAt = time.Unix(0, fetchedAtNano)
	return &data, nil
}

// PurgeTeamData drops cache entries fetched before cutoff.
func (s *Storage) PurgeTeamData(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM team_data WHERE fetched_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge team data: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// StartRun records the beginning of a digest cycle and returns its ID.
func (s *Storage) StartRun(variant string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, variant, status, started_at) VALUES (?,?,?,?)`,
		id, variant, string(models.RunRunning), time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the outcome of a digest cycle.
func (s *Storage) FinishRun(id string, status models.RunStatus, events, results int, runErr error) error {
	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.db.Exec(`
		UPDATE runs SET status=?, events=?, results=?, error=?, finished_at=?
		WHERE id=?`,
		string(status), events, results, errText, time.Now().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Storage) RecentRuns(limit int) ([]models.Run, error) {
	rows, err := s.db.Query(`
		SELECT id, variant, status, events, results, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.Run{}
	for rows.Next() {
		var r models.Run
		var status string
		var errText sql.NullString
		var startedNano int64
		var finishedNano sql.NullInt64

		if err := rows.Scan(&r.ID, &r.Variant, &status, &r.Events, &r.Results, &errText, &startedNano, &finishedNano); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Status = models.RunStatus(status)
		r.Error = errText.String
		r.StartedAt = time.Unix(0, startedNano)
		if finishedNano.Valid {
			r.FinishedAt = time.Unix(0, finishedNano.Int64)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RotateRuns keeps at most maxRuns newest runs by started_at.
func (s *Storage) RotateRuns() error {
	_, err := s.db.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
		)`, s.maxRuns)
	if err != nil {
		return fmt.Errorf("failed to rotate runs: %w", err)
	}
	return nil
}
