package pgtracking

import (
	"context"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const sessionColumns = `id, employee_id, start_time, end_time, is_active,
  current_latitude, current_longitude, last_location_update`

func scanSession(row scanner) (*models.TrackingSession, error) {
	var s models.TrackingSession
	if err := row.Scan(
		&s.ID, &s.EmployeeID, &s.StartTime, &s.EndTime, &s.IsActive,
		&s.CurrentLatitude, &s.CurrentLongitude, &s.LastLocationUpdate,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateActiveSession opens a session for the employee unless one is already active.
// On conflict the existing active session is returned with created=false.
func (s *Storage) CreateActiveSession(ctx context.Context, employeeID uint64, now time.Time) (*models.TrackingSession, bool, error) {
	// Между INSERT и SELECT чужая сессия может успеть закрыться, поэтому пара попыток.
	for attempt := 0; attempt < 3; attempt++ {
		sess, err := scanSession(s.db.QueryRow(ctx, `
INSERT INTO tracking_sessions (employee_id, start_time, is_active)
VALUES ($1, $2, TRUE)
ON CONFLICT (employee_id) WHERE is_active DO NOTHING
RETURNING `+sessionColumns, employeeID, now.UTC()))
		if err == nil {
			return sess, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, errors.Wrap(err, "insert session")
		}

		existing, err := s.GetActiveSession(ctx, employeeID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, false, err
		}
	}
	return nil, false, errors.New("insert session: active session changed concurrently")
}

func (s *Storage) GetActiveSession(ctx context.Context, employeeID uint64) (*models.TrackingSession, error) {
	sess, err := scanSession(s.db.QueryRow(ctx, `
SELECT `+sessionColumns+`
FROM tracking_sessions
WHERE employee_id = $1 AND is_active
`, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrNotFound, "No active session found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "select active session")
	}
	return sess, nil
}

func (s *Storage) GetSession(ctx context.Context, id uint64) (*models.TrackingSession, error) {
	sess, err := scanSession(s.db.QueryRow(ctx, `
SELECT `+sessionColumns+`
FROM tracking_sessions
WHERE id = $1
`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrNotFound, "Session not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "select session")
	}
	return sess, nil
}

// StopSession closes an active session owned by the employee and returns its totals.
func (s *Storage) StopSession(ctx context.Context, employeeID, sessionID uint64, now time.Time) (models.SessionStats, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.SessionStats{}, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	st := models.SessionStats{SessionID: sessionID}
	err = tx.QueryRow(ctx, `
UPDATE tracking_sessions
SET is_active = FALSE, end_time = $3
WHERE id = $1 AND employee_id = $2 AND is_active
RETURNING start_time, end_time
`, sessionID, employeeID, now.UTC()).Scan(&st.StartTime, &st.EndTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SessionStats{}, models.Errorf(models.ErrNotFound, "Active session not found")
	}
	if err != nil {
		return models.SessionStats{}, errors.Wrap(err, "stop session")
	}

	var pathCount, pinCount int64
	err = tx.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM path_points WHERE session_id = $1),
  (SELECT COUNT(*) FROM pinpoints WHERE session_id = $1)
`, sessionID).Scan(&pathCount, &pinCount)
	if err != nil {
		return models.SessionStats{}, errors.Wrap(err, "count session points")
	}
	st.PathPoints = int(pathCount)
	st.Pinpoints = int(pinCount)

	if err := tx.Commit(ctx); err != nil {
		return models.SessionStats{}, errors.Wrap(err, "commit tx")
	}
	return st, nil
}

// ListSessionsInRange returns the employee's sessions with start_time in [from, to), oldest first.
func (s *Storage) ListSessionsInRange(ctx context.Context, employeeID uint64, from, to time.Time) ([]*models.TrackingSession, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+sessionColumns+`
FROM tracking_sessions
WHERE employee_id = $1 AND start_time >= $2 AND start_time < $3
ORDER BY start_time ASC, id ASC
`, employeeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "select sessions")
	}
	defer rows.Close()

	out := make([]*models.TrackingSession, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		out = append(out, sess)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// ListSessionsStartedBetween returns sessions of all employees started in [from, to), newest first.
func (s *Storage) ListSessionsStartedBetween(ctx context.Context, from, to time.Time) ([]*models.SessionDetail, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  s.id, s.employee_id, s.start_time, s.end_time, s.is_active,
  s.current_latitude, s.current_longitude, s.last_location_update,
  COALESCE(NULLIF(u.full_name, ''), u.username)
FROM tracking_sessions s
JOIN users u ON u.id = s.employee_id
WHERE s.start_time >= $1 AND s.start_time < $2
ORDER BY s.start_time DESC, s.id DESC
`, from.UTC(), to.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "select sessions")
	}
	defer rows.Close()

	out := make([]*models.SessionDetail, 0)
	for rows.Next() {
		var sess models.TrackingSession
		var d models.SessionDetail
		if err := rows.Scan(
			&sess.ID, &sess.EmployeeID, &sess.StartTime, &sess.EndTime, &sess.IsActive,
			&sess.CurrentLatitude, &sess.CurrentLongitude, &sess.LastLocationUpdate,
			&d.EmployeeName,
		); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		d.Session = &sess
		out = append(out, &d)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// ListLivePositions returns the cached position of every active session.
func (s *Storage) ListLivePositions(ctx context.Context) ([]*models.LivePosition, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  s.id, s.employee_id, u.username,
  s.current_latitude, s.current_longitude,
  COALESCE(s.last_location_update, s.start_time)
FROM tracking_sessions s
JOIN users u ON u.id = s.employee_id
WHERE s.is_active
ORDER BY s.employee_id
`)
	if err != nil {
		return nil, errors.Wrap(err, "select live positions")
	}
	defer rows.Close()

	out := make([]*models.LivePosition, 0)
	for rows.Next() {
		var p models.LivePosition
		if err := rows.Scan(&p.SessionID, &p.EmployeeID, &p.Username, &p.Latitude, &p.Longitude, &p.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan live position")
		}
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
