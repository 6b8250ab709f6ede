// internal/history/store.go
//
// History queries: sessions, their event log, finished runs and the
// leaderboard over runs.

package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/robalobadob/firstlight/internal/event"
)

// Run is one session that reached the end-game.
type Run struct {
	SessionID     string `json:"sessionId"`
	ElapsedMs     int64  `json:"elapsedMs"`
	Assignments   int    `json:"assignments"`
	Transmissions int    `json:"transmissions"`
}

// LBRow is a leaderboard entry.
type LBRow struct {
	SessionID     string `json:"sessionId"`
	ElapsedMs     int64  `json:"elapsedMs"`
	Assignments   int    `json:"assignments"`
	Transmissions int    `json:"transmissions"`
	FinishedAt    string `json:"finishedAt"`
}

// EventRow is a persisted event.
type EventRow struct {
	Kind           string `json:"kind"`
	Level          string `json:"level"`
	GlyphID        string `json:"glyphId,omitempty"`
	TransmissionID int    `json:"transmissionId,omitempty"`
	Meaning        string `json:"meaning,omitempty"`
	Count          int    `json:"count,omitempty"`
	Message        string `json:"message,omitempty"`
}

const defaultLimit = 20

// StartSession records a session. Repeated calls for the same id are ignored.
func (s *Store) StartSession(ctx context.Context, id string, started time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions(id, started_at) VALUES(?, ?)`,
		id, started.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RecordEvent appends e to the session's event log.
func (s *Store) RecordEvent(ctx context.Context, sessionID string, e event.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(session_id, kind, level, glyph_id, transmission_id, meaning, cnt, message)
		 VALUES(?,?,?,?,?,?,?,?)`,
		sessionID, string(e.Kind), e.Level.String(),
		nullString(e.GlyphID), nullInt(e.TransmissionID), nullString(e.Meaning), nullInt(e.Count), nullString(e.Message),
	)
	return err
}

// InsertRun records a finished run.
func (s *Store) InsertRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(session_id, elapsed_ms, assignments, transmissions) VALUES(?,?,?,?)`,
		r.SessionID, r.ElapsedMs, r.Assignments, r.Transmissions,
	)
	return err
}

// Leaderboard returns the fastest runs, fewest assignments breaking ties.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, elapsed_ms, assignments, transmissions, created_at
		 FROM runs
		 ORDER BY elapsed_ms ASC, assignments ASC, created_at ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.SessionID, &r.ElapsedMs, &r.Assignments, &r.Transmissions, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Events returns the most recent events of a session, oldest first.
func (s *Store) Events(ctx context.Context, sessionID string, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, level, COALESCE(glyph_id,''), COALESCE(transmission_id,0),
		        COALESCE(meaning,''), COALESCE(cnt,0), COALESCE(message,'')
		 FROM (SELECT * FROM events WHERE session_id=? ORDER BY id DESC LIMIT ?)
		 ORDER BY id ASC`, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		if err := rows.Scan(&r.Kind, &r.Level, &r.GlyphID, &r.TransmissionID, &r.Meaning, &r.Count, &r.Message); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
