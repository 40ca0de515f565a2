package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per pipeline run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			device TEXT NOT NULL,
			detector TEXT NOT NULL,
			threshold REAL NOT NULL,
			gallery_size INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Sightings table - one row per annotated face per frame
		`CREATE TABLE IF NOT EXISTS sightings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame_seq INTEGER NOT NULL,
			label TEXT NOT NULL,
			known INTEGER NOT NULL,
			distance REAL NOT NULL,
			box_top INTEGER NOT NULL,
			box_right INTEGER NOT NULL,
			box_bottom INTEGER NOT NULL,
			box_left INTEGER NOT NULL,
			seen_at_ms INTEGER NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_sightings_session_id ON sightings(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sightings_label ON sightings(session_id, label)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
