package pgtracking

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('admin', 'employee')),
  full_name TEXT NOT NULL DEFAULT '',
  designation TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  date_of_birth DATE NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS tracking_sessions (
  id BIGSERIAL PRIMARY KEY,
  employee_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  start_time TIMESTAMPTZ NOT NULL,
  end_time TIMESTAMPTZ NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  current_latitude DOUBLE PRECISION NULL,
  current_longitude DOUBLE PRECISION NULL,
  last_location_update TIMESTAMPTZ NULL,
  CHECK (is_active = (end_time IS NULL))
)`,
		// Не больше одной активной сессии на сотрудника.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracking_sessions_active ON tracking_sessions(employee_id) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_sessions_employee_start ON tracking_sessions(employee_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_sessions_start ON tracking_sessions(start_time)`,
		`
CREATE TABLE IF NOT EXISTS path_points (
  id BIGSERIAL PRIMARY KEY,
  session_id BIGINT NOT NULL REFERENCES tracking_sessions(id) ON DELETE CASCADE,
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  recorded_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_path_points_session_time ON path_points(session_id, recorded_at, id)`,
		`
CREATE TABLE IF NOT EXISTS pinpoints (
  id BIGSERIAL PRIMARY KEY,
  session_id BIGINT NULL REFERENCES tracking_sessions(id) ON DELETE SET NULL,
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  place TEXT NULL,
  address TEXT NULL,
  phone TEXT NULL,
  message TEXT NULL,
  recorded_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_pinpoints_session_time ON pinpoints(session_id, recorded_at, id)`,
		`
CREATE TABLE IF NOT EXISTS quote_submissions (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  email TEXT NULL,
  location TEXT NOT NULL,
  submitted_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS contact_submissions (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  phone_number TEXT NOT NULL,
  email TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  submitted_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS laser_screed_submissions (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  whatsapp TEXT NOT NULL,
  services JSONB NOT NULL DEFAULT '[]',
  need_troweling TEXT NOT NULL,
  troweling_color TEXT NOT NULL DEFAULT '',
  sqft_range TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
