package runstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mfo-tools/mfo-claim/internal/domain"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed run history
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Run migrations
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts a newly started run
func (s *Store) SaveRun(run *domain.Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, username, status, day_no, bonus_day, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Username,
		string(run.Status),
		run.DayNo,
		run.BonusDay,
		run.StartedAt,
	)
	return err
}

// FinishRun records the terminal status of a run
func (s *Store) FinishRun(id string, status domain.RunStatus, dayNo int, bonusDay bool, finishedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, day_no = ?, bonus_day = ?, finished_at = ? WHERE id = ?
	`, string(status), dayNo, bonusDay, finishedAt, id)
	return err
}

// AppendEvent stores a progress event for a run
func (s *Store) AppendEvent(event domain.Event) error {
	_, err := s.db.Exec(`
		INSERT INTO run_events (run_id, stage, outcome, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.RunID,
		string(event.Stage),
		string(event.Outcome),
		event.Message,
		event.Time,
	)
	return err
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id string) (*domain.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, username, status, day_no, bonus_day, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns all runs.
func (s *Store) ListRuns(limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, username, status, day_no, bonus_day, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRunRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListEvents returns a run's events in emission order
func (s *Store) ListEvents(runID string) ([]domain.Event, error) {
	rows, err := s.db.Query(`
		SELECT run_id, stage, outcome, message, created_at
		FROM run_events WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var stage, outcome string
		var message sql.NullString
		if err := rows.Scan(&e.RunID, &stage, &outcome, &message, &e.Time); err != nil {
			return nil, err
		}
		e.Stage = domain.Stage(stage)
		e.Outcome = domain.Outcome(outcome)
		if message.Valid {
			e.Message = message.String
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LastRunForUser returns the most recent completed run for a username,
// or nil if none exists
func (s *Store) LastRunForUser(username string) (*domain.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, username, status, day_no, bonus_day, started_at, finished_at
		FROM runs WHERE username = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1
	`, username, string(domain.RunCompleted))

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func scanRun(row *sql.Row) (*domain.Run, error) {
	var run domain.Run
	var status string
	var finishedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Username, &status, &run.DayNo, &run.BonusDay, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func scanRunRows(rows *sql.Rows) (*domain.Run, error) {
	var run domain.Run
	var status string
	var finishedAt sql.NullTime

	err := rows.Scan(&run.ID, &run.Username, &status, &run.DayNo, &run.BonusDay, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
