package store

import (
	"database/sql"
	"time"
)

// TriggerKind distinguishes gesture matches from voice commands in the log.
type TriggerKind string

const (
	TriggerKindGesture TriggerKind = "gesture"
	TriggerKindVoice   TriggerKind = "voice"
)

// Trigger is one entry of the trigger log.
type Trigger struct {
	ID         int64       `json:"id"`
	SessionID  string      `json:"sessionId"`
	Kind       TriggerKind `json:"kind"`
	Name       string      `json:"name"`
	Type       string      `json:"type,omitempty"`
	Action     string      `json:"action,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Timestamp  int64       `json:"timestamp"` // Event time, ms
	CreatedAt  time.Time   `json:"createdAt"`
}

// TriggerFilter narrows a trigger log query.
type TriggerFilter struct {
	Name  string
	Limit int // Default 100
}

// TriggerRepository appends to and reads the trigger log.
type TriggerRepository struct {
	db *sql.DB
}

// Triggers returns the trigger log repository for this store.
func (s *Store) Triggers() *TriggerRepository {
	return &TriggerRepository{db: s.db}
}

// Record appends an entry to the log.
func (r *TriggerRepository) Record(t *Trigger) error {
	t.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO triggers (session_id, kind, name, type, action, confidence, timestamp_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, string(t.Kind), t.Name, t.Type, t.Action, t.Confidence, t.Timestamp, t.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// List returns the newest entries first.
func (r *TriggerRepository) List(f TriggerFilter) ([]Trigger, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}

	query := `SELECT id, session_id, kind, name, type, action, confidence, timestamp_ms, created_at FROM triggers`
	args := []any{}
	if f.Name != "" {
		query += ` WHERE name = ?`
		args = append(args, f.Name)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	triggers := []Trigger{}
	for rows.Next() {
		var (
			t    Trigger
			kind string
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &kind, &t.Name, &t.Type, &t.Action, &t.Confidence,
			&t.Timestamp, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Kind = TriggerKind(kind)
		triggers = append(triggers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return triggers, nil
}

// Count returns how many times name was triggered.
func (r *TriggerRepository) Count(name string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM triggers WHERE name = ?`, name).Scan(&n)
	return n, err
}
