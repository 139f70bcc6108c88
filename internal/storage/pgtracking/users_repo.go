package pgtracking

import (
	"context"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const userColumns = `id, username, password_hash, role, full_name, designation, location, date_of_birth, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role,
		&u.FullName, &u.Designation, &u.Location, &u.DateOfBirth, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user; a taken username is reported as Conflict.
func (s *Storage) CreateUser(ctx context.Context, in models.UserCreateInput) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
INSERT INTO users (username, password_hash, role, full_name, designation, location, date_of_birth, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (username) DO NOTHING
RETURNING `+userColumns,
		in.Username, in.PasswordHash, in.Role, in.FullName, in.Designation, in.Location, in.DateOfBirth, time.Now().UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrConflict, "Username %q already exists", in.Username)
	}
	if err != nil {
		return nil, errors.Wrap(err, "insert user")
	}
	return u, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrNotFound, "User not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	return u, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrNotFound, "User not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	return u, nil
}

func (s *Storage) ListUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`, role)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	out := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id uint64, upd models.UserUpdate) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
UPDATE users SET
  full_name = COALESCE($2, full_name),
  designation = COALESCE($3, designation),
  location = COALESCE($4, location),
  date_of_birth = COALESCE($5, date_of_birth),
  password_hash = COALESCE($6, password_hash)
WHERE id = $1
RETURNING `+userColumns,
		id, upd.FullName, upd.Designation, upd.Location, upd.DateOfBirth, upd.PasswordHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrNotFound, "User not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id uint64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return models.Errorf(models.ErrNotFound, "User not found")
	}
	return nil
}

// ListOnlineEmployees returns employees with an active session. LastActivity is the
// latest pinpoint of that session, or its start when there is none.
func (s *Storage) ListOnlineEmployees(ctx context.Context) ([]*models.OnlineEmployee, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  u.id, u.username, u.password_hash, u.role, u.full_name, u.designation, u.location, u.date_of_birth, u.created_at,
  s.id, s.start_time,
  COALESCE((SELECT MAX(p.recorded_at) FROM pinpoints p WHERE p.session_id = s.id), s.start_time)
FROM users u
JOIN tracking_sessions s ON s.employee_id = u.id AND s.is_active
WHERE u.role = 'employee'
ORDER BY u.id
`)
	if err != nil {
		return nil, errors.Wrap(err, "select online employees")
	}
	defer rows.Close()

	out := make([]*models.OnlineEmployee, 0)
	for rows.Next() {
		var u models.User
		var e models.OnlineEmployee
		if err := rows.Scan(
			&u.ID, &u.Username, &u.PasswordHash, &u.Role,
			&u.FullName, &u.Designation, &u.Location, &u.DateOfBirth, &u.CreatedAt,
			&e.SessionID, &e.SessionStart, &e.LastActivity,
		); err != nil {
			return nil, errors.Wrap(err, "scan online employee")
		}
		e.User = &u
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) ListOfflineEmployees(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+userColumns+`
FROM users u
WHERE u.role = 'employee'
  AND NOT EXISTS (SELECT 1 FROM tracking_sessions s WHERE s.employee_id = u.id AND s.is_active)
ORDER BY u.id
`)
	if err != nil {
		return nil, errors.Wrap(err, "select offline employees")
	}
	defer rows.Close()

	out := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
