package store

import (
	"database/sql"
	"errors"
	"time"
)

// Profile is a named counting threshold preset. Different exercises bend
// the elbow through different ranges, so the machine's thresholds are
// stored per profile rather than hardcoded.
type Profile struct {
	ID            string
	Name          string
	UpThreshold   float64
	DownThreshold float64
	Hysteresis    float64
	MinDepthPx    float64
	MinFrames     int
	CooldownMs    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileRepository provides CRUD operations for counting profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a new profile into the database.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (id, name, up_threshold, down_threshold, hysteresis, min_depth_px, min_frames, cooldown_ms, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.UpThreshold, p.DownThreshold, p.Hysteresis, p.MinDepthPx, p.MinFrames, p.CooldownMs, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p := &Profile{}

	err := r.db.QueryRow(
		`SELECT id, name, up_threshold, down_threshold, hysteresis, min_depth_px, min_frames, cooldown_ms, created_at, updated_at
		 FROM profiles WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.UpThreshold, &p.DownThreshold, &p.Hysteresis, &p.MinDepthPx, &p.MinFrames, &p.CooldownMs, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p := &Profile{}

	err := r.db.QueryRow(
		`SELECT id, name, up_threshold, down_threshold, hysteresis, min_depth_px, min_frames, cooldown_ms, created_at, updated_at
		 FROM profiles WHERE name = ?`,
		name,
	).Scan(&p.ID, &p.Name, &p.UpThreshold, &p.DownThreshold, &p.Hysteresis, &p.MinDepthPx, &p.MinFrames, &p.CooldownMs, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

// List retrieves all profiles from the database.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, up_threshold, down_threshold, hysteresis, min_depth_px, min_frames, cooldown_ms, created_at, updated_at
		 FROM profiles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		err := rows.Scan(&p.ID, &p.Name, &p.UpThreshold, &p.DownThreshold, &p.Hysteresis, &p.MinDepthPx, &p.MinFrames, &p.CooldownMs, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile in the database.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, up_threshold = ?, down_threshold = ?, hysteresis = ?, min_depth_px = ?, min_frames = ?, cooldown_ms = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.UpThreshold, p.DownThreshold, p.Hysteresis, p.MinDepthPx, p.MinFrames, p.CooldownMs, p.UpdatedAt, p.ID,
	)
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

// Delete removes a profile from the database by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
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
