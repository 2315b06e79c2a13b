package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/scoring"
	"github.com/okian/gridiron/pkg/metrics"

	_ "modernc.org/sqlite"
)

const (
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
	// timeLayout has a fixed width so stored stamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

const schema = `
CREATE TABLE IF NOT EXISTS plays (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id      TEXT,
	team         TEXT    NOT NULL,
	season       INTEGER NOT NULL,
	week         INTEGER NOT NULL,
	down         INTEGER,
	distance     INTEGER,
	yardline_100 INTEGER,
	play_type    TEXT,
	yards        REAL,
	epa          REAL,
	success      INTEGER,
	turnover     INTEGER
);
CREATE INDEX IF NOT EXISTS idx_plays_team_season_week ON plays(team, season, week);

CREATE TABLE IF NOT EXISTS predictions (
	id                   TEXT PRIMARY KEY,
	created_at           TEXT    NOT NULL,
	season               INTEGER NOT NULL,
	week                 INTEGER NOT NULL,
	home                 TEXT    NOT NULL,
	away                 TEXT    NOT NULL,
	home_score           REAL,
	away_score           REAL,
	home_win_probability REAL,
	winner               TEXT,
	snapshot_version     TEXT,
	result               TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_season_week ON predictions(season, week);

CREATE TABLE IF NOT EXISTS outcomes (
	season      INTEGER NOT NULL,
	week        INTEGER NOT NULL,
	home        TEXT    NOT NULL,
	away        TEXT    NOT NULL,
	home_points INTEGER NOT NULL,
	away_points INTEGER NOT NULL,
	PRIMARY KEY (season, week, home, away)
);`

// SQLiteStore keeps plays, predictions and outcomes in one SQLite file.
type SQLiteStore struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteStore{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertPlays appends plays in one transaction.
func (s *SQLiteStore) InsertPlays(ctx context.Context, plays []model.PlayRecord) error {
	if len(plays) == 0 {
		return nil
	}
	defer observe("insert_plays", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert plays: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO plays
		(game_id, team, season, week, down, distance, yardline_100, play_type, yards, epa, success, turnover)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert plays: %w", err)
	}
	defer stmt.Close()

	for _, p := range plays {
		team := model.NormalizeTeam(p.Team)
		if team == "" || p.Season == 0 {
			return fmt.Errorf("%w: play without team or season", ErrInvalidRecord)
		}
		if _, err := stmt.ExecContext(ctx, p.GameID, team, p.Season, p.Week, p.Down, p.DistanceToGo,
			p.YardlineFromGoal100, string(p.PlayType), p.YardsGained, p.EfficiencyAdded,
			p.IsSuccess, p.IsTurnover); err != nil {
			return fmt.Errorf("insert play: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plays: %w", err)
	}
	return nil
}

// Plays implements PlayStore. Plays come back in week order, then insertion order.
func (s *SQLiteStore) Plays(ctx context.Context, team string, season, throughWeek int) ([]model.PlayRecord, error) {
	defer observe("plays", time.Now())

	q := `SELECT game_id, team, season, week, down, distance, yardline_100, play_type, yards, epa, success, turnover
		FROM plays WHERE team = ? AND season = ?`
	args := []any{model.NormalizeTeam(team), season}
	if throughWeek > 0 {
		q += ` AND week <= ?`
		args = append(args, throughWeek)
	}
	q += ` ORDER BY week, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	var out []model.PlayRecord
	for rows.Next() {
		var (
			p        model.PlayRecord
			gameID   sql.NullString
			playType sql.NullString
		)
		if err := rows.Scan(&gameID, &p.Team, &p.Season, &p.Week, &p.Down, &p.DistanceToGo,
			&p.YardlineFromGoal100, &playType, &p.YardsGained, &p.EfficiencyAdded,
			&p.IsSuccess, &p.IsTurnover); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		p.GameID = gameID.String
		p.PlayType = model.ParsePlayType(playType.String)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plays: %w", err)
	}
	return out, nil
}

// SavePrediction stores result under a new ID.
func (s *SQLiteStore) SavePrediction(ctx context.Context, result model.PredictionResult) (Record, error) {
	defer observe("save_prediction", time.Now())

	body, err := json.Marshal(result)
	if err != nil {
		return Record{}, fmt.Errorf("encode prediction: %w", err)
	}
	rec := Record{ID: s.newID(), CreatedAt: s.now().UTC(), Result: result}
	_, err = s.db.ExecContext(ctx, `INSERT INTO predictions
		(id, created_at, season, week, home, away, home_score, away_score, home_win_probability, winner, snapshot_version, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(timeLayout), result.Season, result.Week, result.HomeTeam, result.AwayTeam,
		result.HomeScore, result.AwayScore, result.HomeWinProbability, result.Winner, result.SnapshotVersion, string(body))
	if err != nil {
		return Record{}, fmt.Errorf("insert prediction: %w", err)
	}
	return rec, nil
}

// Predictions lists stored predictions for season, oldest first. A week of zero
// lists the whole season.
func (s *SQLiteStore) Predictions(ctx context.Context, season, week int) ([]Record, error) {
	defer observe("predictions", time.Now())

	q := `SELECT id, created_at, result FROM predictions WHERE season = ?`
	args := []any{season}
	if week > 0 {
		q += ` AND week = ?`
		args = append(args, week)
	}
	q += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			created string
			body    string
		)
		if err := rows.Scan(&rec.ID, &created, &body); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(body), &rec.Result); err != nil {
			return nil, fmt.Errorf("decode prediction %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return out, nil
}

// SaveOutcome records or corrects the final score of a game.
func (s *SQLiteStore) SaveOutcome(ctx context.Context, o Outcome) error {
	defer observe("save_outcome", time.Now())

	home, away := model.NormalizeTeam(o.Home), model.NormalizeTeam(o.Away)
	if home == "" || away == "" || o.HomePoints < 0 || o.AwayPoints < 0 {
		return fmt.Errorf("%w: outcome needs both teams and non-negative points", ErrInvalidRecord)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO outcomes (season, week, home, away, home_points, away_points)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (season, week, home, away) DO UPDATE SET
			home_points = excluded.home_points, away_points = excluded.away_points`,
		o.Season, o.Week, home, away, o.HomePoints, o.AwayPoints)
	if err != nil {
		return fmt.Errorf("upsert outcome: %w", err)
	}
	return nil
}

// Samples pairs the latest prediction of every decided game with its result.
// Tied games carry no signal and are skipped.
func (s *SQLiteStore) Samples(ctx context.Context) ([]scoring.Sample, error) {
	defer observe("samples", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.home_score - p.away_score, o.home_points > o.away_points
		FROM outcomes o
		JOIN predictions p ON p.id = (
			SELECT id FROM predictions
			WHERE season = o.season AND week = o.week AND home = o.home AND away = o.away
			ORDER BY created_at DESC, id DESC LIMIT 1)
		WHERE o.home_points <> o.away_points
		ORDER BY o.season, o.week, o.home`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []scoring.Sample
	for rows.Next() {
		var smp scoring.Sample
		if err := rows.Scan(&smp.ScoreDiff, &smp.HomeWon); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
