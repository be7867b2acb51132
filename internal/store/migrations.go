package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Gesture bindings. options and area hold JSON; a NULL cooldown keeps
		// the engine default.
		`CREATE TABLE IF NOT EXISTS gestures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			options TEXT NOT NULL DEFAULT '{}',
			priority INTEGER NOT NULL DEFAULT 0,
			cooldown INTEGER,
			enabled INTEGER NOT NULL DEFAULT 1,
			area TEXT,
			touches INTEGER NOT NULL DEFAULT 0,
			condition TEXT NOT NULL DEFAULT '',
			trigger_on TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL DEFAULT '',
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recorded training strokes
		`CREATE TABLE IF NOT EXISTS gesture_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Trigger log of gesture and voice matches
		`CREATE TABLE IF NOT EXISTS triggers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('gesture', 'voice')),
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL DEFAULT 0,
			timestamp_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_samples_gesture_id ON gesture_samples(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_triggers_name ON triggers(name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
