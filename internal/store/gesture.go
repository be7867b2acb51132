package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/twingest/internal/bindings"
	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/pattern"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Gesture is a gesture binding stored in the database.
type Gesture struct {
	ID        string
	Binding   bindings.Gesture
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GestureRepository provides CRUD operations for gesture bindings.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

const gestureColumns = `id, name, type, options, priority, cooldown, enabled, area, touches,
	condition, trigger_on, action, samples, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new gesture. An empty ID is filled with a fresh UUID.
func (r *GestureRepository) Create(g *Gesture) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	cols, err := bindingColumns(g.Binding)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO gestures (`+gestureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Binding.Name, string(g.Binding.Type), cols.options, g.Binding.Priority, cols.cooldown,
		cols.enabled, cols.area, g.Binding.Touches, g.Binding.Condition, g.Binding.Trigger, g.Binding.Action,
		g.Samples, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert gesture %q: %w", g.Binding.Name, err)
	}

	return nil
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	return scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id))
}

// GetByName retrieves a gesture by its name.
func (r *GestureRepository) GetByName(name string) (*Gesture, error) {
	return scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE name = ?`, name))
}

// List retrieves all gestures, oldest first so later rows win on name
// collisions when applied in order.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(`SELECT ` + gestureColumns + ` FROM gestures ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gestures, nil
}

// Update updates an existing gesture in the database.
func (r *GestureRepository) Update(g *Gesture) error {
	g.UpdatedAt = time.Now()

	cols, err := bindingColumns(g.Binding)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE gestures SET name = ?, type = ?, options = ?, priority = ?, cooldown = ?, enabled = ?,
		 area = ?, touches = ?, condition = ?, trigger_on = ?, action = ?, updated_at = ?
		 WHERE id = ?`,
		g.Binding.Name, string(g.Binding.Type), cols.options, g.Binding.Priority, cols.cooldown, cols.enabled,
		cols.area, g.Binding.Touches, g.Binding.Condition, g.Binding.Trigger, g.Binding.Action, g.UpdatedAt,
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("update gesture %q: %w", g.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a gesture from the database by its ID.
func (r *GestureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Bindings returns every stored gesture as a bindings set.
func (r *GestureRepository) Bindings() (*bindings.Set, error) {
	gestures, err := r.List()
	if err != nil {
		return nil, err
	}
	set := &bindings.Set{Gestures: make([]bindings.Gesture, 0, len(gestures))}
	for _, g := range gestures {
		set.Gestures = append(set.Gestures, g.Binding)
	}
	return set, nil
}

type encodedBinding struct {
	options  string
	cooldown sql.NullInt64
	enabled  bool
	area     sql.NullString
}

func bindingColumns(b bindings.Gesture) (encodedBinding, error) {
	enc := encodedBinding{options: "{}", enabled: b.Enabled == nil || *b.Enabled}

	if len(b.Options) > 0 {
		raw, err := json.Marshal(b.Options)
		if err != nil {
			return enc, fmt.Errorf("encode options: %w", err)
		}
		enc.options = string(raw)
	}
	if b.Cooldown != nil {
		enc.cooldown = sql.NullInt64{Int64: *b.Cooldown, Valid: true}
	}
	if b.Area != nil {
		raw, err := json.Marshal(b.Area)
		if err != nil {
			return enc, fmt.Errorf("encode area: %w", err)
		}
		enc.area = sql.NullString{String: string(raw), Valid: true}
	}
	return enc, nil
}

func scanGesture(row rowScanner) (*Gesture, error) {
	g := &Gesture{}
	var (
		kind     string
		options  string
		cooldown sql.NullInt64
		enabled  bool
		area     sql.NullString
	)

	err := row.Scan(&g.ID, &g.Binding.Name, &kind, &options, &g.Binding.Priority, &cooldown, &enabled, &area,
		&g.Binding.Touches, &g.Binding.Condition, &g.Binding.Trigger, &g.Binding.Action,
		&g.Samples, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	g.Binding.Type = pattern.Kind(kind)
	if options != "" && options != "{}" {
		if err := json.Unmarshal([]byte(options), &g.Binding.Options); err != nil {
			return nil, fmt.Errorf("decode options of %q: %w", g.Binding.Name, err)
		}
	}
	if cooldown.Valid {
		v := cooldown.Int64
		g.Binding.Cooldown = &v
	}
	if !enabled {
		g.Binding.Enabled = &enabled
	}
	if area.Valid {
		var rect geom.Rect
		if err := json.Unmarshal([]byte(area.String), &rect); err != nil {
			return nil, fmt.Errorf("decode area of %q: %w", g.Binding.Name, err)
		}
		g.Binding.Area = &rect
	}
	return g, nil
}
