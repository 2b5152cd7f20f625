package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Profiles table - stores named counting threshold presets.
		// Workout history is deliberately not persisted anywhere.
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			up_threshold REAL NOT NULL DEFAULT 140,
			down_threshold REAL NOT NULL DEFAULT 110,
			hysteresis REAL NOT NULL DEFAULT 8,
			min_depth_px REAL NOT NULL DEFAULT 40,
			min_frames INTEGER NOT NULL DEFAULT 3,
			cooldown_ms INTEGER NOT NULL DEFAULT 400,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - application settings as key-value pairs
		// (active profile, camera device, hook directory overrides).
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
