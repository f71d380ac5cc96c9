package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kinemetry/internal/measurement"
	"kinemetry/internal/session"
)

// CreateSession records a freshly started session.
func (s *Store) CreateSession(ctx context.Context, id, exerciseID, mode string, startedAt time.Time) error {
	if id == "" {
		return errors.New("session id must be set")
	}
	now := formatTime(time.Now())
	return s.execWithRetry(ctx,
		`INSERT INTO sessions (id, exercise_id, mode, started_at, reps, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?)`,
		id, exerciseID, mode, formatTime(startedAt), now, now,
	)
}

// GetSession fetches a session by identifier. Absent sessions return nil.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRow, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, exercise_id, mode, started_at, stopped_at, reps, created_at, updated_at
         FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

// ListSessions returns the most recent sessions, newest first. A limit of
// zero or less returns everything.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRow, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, exercise_id, mode, started_at, stopped_at, reps, created_at, updated_at
              FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// SaveTick persists every measurement the engine produced for one frame.
func (s *Store) SaveTick(ctx context.Context, sessionID string, tick *measurement.Tick) error {
	if tick == nil {
		return errors.New("tick is nil")
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tick tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		insert := func(m *measurement.Measurement) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO measurements (session_id, ts, joint, side, plane, role, angle_degrees, confidence, has_depth)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sessionID, formatTime(m.Timestamp), string(m.Joint), string(m.Side), string(m.Plane),
				string(m.Role), m.AngleDegrees, m.Confidence, boolToInt(m.HasDepth),
			)
			return err
		}

		if tick.Primary != nil {
			if err := insert(tick.Primary); err != nil {
				return fmt.Errorf("insert primary measurement: %w", err)
			}
		}
		for i := range tick.Secondary {
			if err := insert(&tick.Secondary[i]); err != nil {
				return fmt.Errorf("insert secondary measurement: %w", err)
			}
		}
		return tx.Commit()
	})
}

// SaveRep records one completed repetition and the pattern kinds observed
// during it.
func (s *Store) SaveRep(ctx context.Context, sessionID string, number int, peakDegrees float64, kinds []string, completedAt time.Time) error {
	kindsJSON, err := json.Marshal(kinds)
	if err != nil {
		return fmt.Errorf("marshal rep kinds: %w", err)
	}
	return s.execWithRetry(ctx,
		`INSERT INTO reps (session_id, rep_number, peak_degrees, kinds_json, completed_at)
         VALUES (?, ?, ?, ?, ?)`,
		sessionID, number, peakDegrees, string(kindsJSON), formatTime(completedAt),
	)
}

// FinishSession writes the terminal state of a stopped session: stop time,
// rep count, accumulated patterns, and the offline feedback ranking, all in
// one transaction.
func (s *Store) FinishSession(ctx context.Context, summary *session.Summary) error {
	if summary == nil {
		return errors.New("summary is nil")
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin finish tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET stopped_at = ?, reps = ?, updated_at = ? WHERE id = ?`,
			formatTime(summary.StoppedAt), summary.Reps, formatTime(time.Now()), summary.SessionID,
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("session %s not found", summary.SessionID)
		}

		for _, p := range summary.Patterns {
			joints := make([]string, len(p.Joints))
			for i, j := range p.Joints {
				joints[i] = string(j)
			}
			jointsJSON, err := json.Marshal(joints)
			if err != nil {
				return fmt.Errorf("marshal pattern joints: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO patterns (session_id, kind, tier, severity, magnitude, peak, joints_json, detected_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				summary.SessionID, string(p.Kind), string(p.Tier), string(p.Severity),
				p.Magnitude, p.PeakMagnitude, string(jointsJSON), formatTime(p.DetectedAt),
			); err != nil {
				return fmt.Errorf("insert pattern: %w", err)
			}
		}

		for rank, item := range summary.Feedback.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO feedback_items (session_id, rank, kind, score, cue)
                 VALUES (?, ?, ?, ?, ?)`,
				summary.SessionID, rank+1, string(item.Pattern.Kind), item.Score, item.Cue,
			); err != nil {
				return fmt.Errorf("insert feedback item: %w", err)
			}
		}

		return tx.Commit()
	})
}

// SessionPatterns returns the flagged patterns of a session ordered by
// detection time.
func (s *Store) SessionPatterns(ctx context.Context, sessionID string) ([]PatternRow, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, kind, tier, severity, magnitude, peak, joints_json, detected_at
         FROM patterns WHERE session_id = ? ORDER BY detected_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var out []PatternRow
	for rows.Next() {
		var (
			rec        PatternRow
			jointsJSON string
			detected   string
		)
		if err := rows.Scan(&rec.SessionID, &rec.Kind, &rec.Tier, &rec.Severity,
			&rec.Magnitude, &rec.Peak, &jointsJSON, &detected); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(jointsJSON), &rec.Joints); err != nil {
			return nil, fmt.Errorf("unmarshal pattern joints: %w", err)
		}
		if rec.DetectedAt, err = parseTime(detected); err != nil {
			return nil, fmt.Errorf("parse detected_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SessionReps returns the rep summaries of a session in completion order.
func (s *Store) SessionReps(ctx context.Context, sessionID string) ([]RepRow, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, rep_number, peak_degrees, kinds_json, completed_at
         FROM reps WHERE session_id = ? ORDER BY rep_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query reps: %w", err)
	}
	defer rows.Close()

	var out []RepRow
	for rows.Next() {
		var (
			rec       RepRow
			kindsJSON string
			completed string
		)
		if err := rows.Scan(&rec.SessionID, &rec.Number, &rec.PeakDegrees, &kindsJSON, &completed); err != nil {
			return nil, fmt.Errorf("scan rep: %w", err)
		}
		if err := json.Unmarshal([]byte(kindsJSON), &rec.Kinds); err != nil {
			return nil, fmt.Errorf("unmarshal rep kinds: %w", err)
		}
		if rec.CompletedAt, err = parseTime(completed); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SessionFeedback returns the persisted feedback ranking in rank order.
func (s *Store) SessionFeedback(ctx context.Context, sessionID string) ([]FeedbackRow, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, rank, kind, score, cue
         FROM feedback_items WHERE session_id = ? ORDER BY rank`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackRow
	for rows.Next() {
		var rec FeedbackRow
		if err := rows.Scan(&rec.SessionID, &rec.Rank, &rec.Kind, &rec.Score, &rec.Cue); err != nil {
			return nil, fmt.Errorf("scan feedback item: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SessionMeasurements returns up to limit measurement samples of a session
// in capture order. A limit of zero or less returns everything.
func (s *Store) SessionMeasurements(ctx context.Context, sessionID string, limit int) ([]MeasurementRow, error) {
	ctx = ensureContext(ctx)
	query := `SELECT session_id, ts, joint, side, plane, role, angle_degrees, confidence, has_depth
              FROM measurements WHERE session_id = ? ORDER BY ts, id`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var out []MeasurementRow
	for rows.Next() {
		var (
			rec      MeasurementRow
			ts       string
			hasDepth int
		)
		if err := rows.Scan(&rec.SessionID, &ts, &rec.Joint, &rec.Side, &rec.Plane,
			&rec.Role, &rec.AngleDegrees, &rec.Confidence, &hasDepth); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		if rec.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse measurement ts: %w", err)
		}
		rec.HasDepth = hasDepth != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and, via foreign keys, everything recorded
// under it.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*SessionRow, error) {
	var (
		rec      SessionRow
		started  string
		stopped  sql.NullString
		created  string
		updated  string
		parseErr error
	)
	if err := row.Scan(&rec.ID, &rec.ExerciseID, &rec.Mode, &started, &stopped, &rec.Reps, &created, &updated); err != nil {
		return nil, err
	}
	if rec.StartedAt, parseErr = parseTime(started); parseErr != nil {
		return nil, fmt.Errorf("parse started_at: %w", parseErr)
	}
	if stopped.Valid {
		t, err := parseTime(stopped.String)
		if err != nil {
			return nil, fmt.Errorf("parse stopped_at: %w", err)
		}
		rec.StoppedAt = &t
	}
	if rec.CreatedAt, parseErr = parseTime(created); parseErr != nil {
		return nil, fmt.Errorf("parse created_at: %w", parseErr)
	}
	if rec.UpdatedAt, parseErr = parseTime(updated); parseErr != nil {
		return nil, fmt.Errorf("parse updated_at: %w", parseErr)
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
