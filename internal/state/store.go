// Package state persists completed discussions to SQLite. Persistence is a
// collaborator of the core, not part of it: the engine never touches the
// store, callers save results after a discussion finishes.
package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mootlabs/moot/internal/consensus"
)

// ErrNotFound is returned when a session ID has no stored discussion.
var ErrNotFound = errors.New("discussion not found")

// Store wraps the SQLite database holding discussion history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and runs migrations.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	// SQLite serializes writers anyway, and a :memory: database exists per
	// connection, so the pool must stay at one.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema when missing.
func (s *Store) Migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS discussions (
    session_id         TEXT PRIMARY KEY,
    topic              TEXT NOT NULL,
    protocol           TEXT NOT NULL,
    config             TEXT NOT NULL,
    termination_reason TEXT NOT NULL,
    final_consensus    REAL NOT NULL,
    final_metrics      TEXT NOT NULL,
    success            INTEGER NOT NULL,
    recommendations    TEXT NOT NULL,
    execution_ms       INTEGER NOT NULL,
    created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rounds (
    session_id      TEXT NOT NULL REFERENCES discussions(session_id) ON DELETE CASCADE,
    round_number    INTEGER NOT NULL,
    consensus_score REAL NOT NULL,
    metrics         TEXT NOT NULL,
    responses       TEXT NOT NULL,
    created_at      TIMESTAMP NOT NULL,
    PRIMARY KEY (session_id, round_number)
);

CREATE INDEX IF NOT EXISTS idx_discussions_created ON discussions(created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating state db: %w", err)
	}
	return nil
}

// SaveResult persists one completed discussion with all its rounds.
func (s *Store) SaveResult(res *consensus.Result) error {
	if res == nil {
		return fmt.Errorf("result must not be nil")
	}

	cfgJSON, err := json.Marshal(res.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	metricsJSON, err := json.Marshal(res.FinalMetrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	recsJSON, err := json.Marshal(res.Recommendations)
	if err != nil {
		return fmt.Errorf("encoding recommendations: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO discussions
        (session_id, topic, protocol, config, termination_reason,
         final_consensus, final_metrics, success, recommendations, execution_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID, res.Topic, string(res.Config.Protocol), string(cfgJSON),
		string(res.TerminationReason), res.FinalConsensus, string(metricsJSON),
		boolToInt(res.Success), string(recsJSON), res.ExecutionTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting discussion %s: %w", res.SessionID, err)
	}

	for _, round := range res.Rounds {
		roundMetrics, err := json.Marshal(round.Metrics)
		if err != nil {
			return fmt.Errorf("encoding round %d metrics: %w", round.RoundNumber, err)
		}
		responses, err := json.Marshal(round.Responses)
		if err != nil {
			return fmt.Errorf("encoding round %d responses: %w", round.RoundNumber, err)
		}
		_, err = tx.Exec(`INSERT INTO rounds
            (session_id, round_number, consensus_score, metrics, responses, created_at)
            VALUES (?, ?, ?, ?, ?, ?)`,
			res.SessionID, round.RoundNumber, round.ConsensusScore,
			string(roundMetrics), string(responses), round.Timestamp)
		if err != nil {
			return fmt.Errorf("inserting round %d: %w", round.RoundNumber, err)
		}
	}

	return tx.Commit()
}

// GetResult loads one discussion with its rounds, in round order.
func (s *Store) GetResult(sessionID string) (*consensus.Result, error) {
	row := s.db.QueryRow(`SELECT topic, config, termination_reason,
        final_consensus, final_metrics, success, recommendations, execution_ms
        FROM discussions WHERE session_id = ?`, sessionID)

	var (
		res         consensus.Result
		cfgJSON     string
		metricsJSON string
		recsJSON    string
		success     int
		execMS      int64
	)
	res.SessionID = sessionID
	err := row.Scan(&res.Topic, &cfgJSON, &res.TerminationReason,
		&res.FinalConsensus, &metricsJSON, &success, &recsJSON, &execMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading discussion %s: %w", sessionID, err)
	}

	if err := json.Unmarshal([]byte(cfgJSON), &res.Config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &res.FinalMetrics); err != nil {
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(recsJSON), &res.Recommendations); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}
	res.Success = success != 0
	res.ExecutionTime = time.Duration(execMS) * time.Millisecond

	rows, err := s.db.Query(`SELECT round_number, consensus_score, metrics, responses, created_at
        FROM rounds WHERE session_id = ? ORDER BY round_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading rounds for %s: %w", sessionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			round         consensus.DiscussionRound
			roundMetrics  string
			responsesJSON string
		)
		if err := rows.Scan(&round.RoundNumber, &round.ConsensusScore,
			&roundMetrics, &responsesJSON, &round.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning round: %w", err)
		}
		if err := json.Unmarshal([]byte(roundMetrics), &round.Metrics); err != nil {
			return nil, fmt.Errorf("decoding round %d metrics: %w", round.RoundNumber, err)
		}
		if err := json.Unmarshal([]byte(responsesJSON), &round.Responses); err != nil {
			return nil, fmt.Errorf("decoding round %d responses: %w", round.RoundNumber, err)
		}
		res.Rounds = append(res.Rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rounds: %w", err)
	}

	return &res, nil
}

// SessionSummary is one row of the discussion history listing.
type SessionSummary struct {
	SessionID         string                      `json:"session_id"`
	Topic             string                      `json:"topic"`
	Protocol          consensus.ProtocolType      `json:"protocol"`
	TerminationReason consensus.TerminationReason `json:"termination_reason"`
	Success           bool                        `json:"success"`
	Rounds            int                         `json:"rounds"`
	CreatedAt         time.Time                   `json:"created_at"`
}

// ListSessions returns the most recent discussions, newest first.
func (s *Store) ListSessions(limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT d.session_id, d.topic, d.protocol,
        d.termination_reason, d.success,
        (SELECT COUNT(*) FROM rounds r WHERE r.session_id = d.session_id),
        d.created_at
        FROM discussions d ORDER BY d.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing discussions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			sum     SessionSummary
			success int
		)
		if err := rows.Scan(&sum.SessionID, &sum.Topic, &sum.Protocol,
			&sum.TerminationReason, &success, &sum.Rounds, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning discussion row: %w", err)
		}
		sum.Success = success != 0
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
