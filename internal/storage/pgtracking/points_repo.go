package pgtracking

import (
	"context"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// AppendPathPoint stores a path point for the session. With updateLive the session's
// cached position is overwritten in the same transaction. Both modes fail with
// NotFound when the session was stopped in the meantime.
func (s *Storage) AppendPathPoint(ctx context.Context, sessionID uint64, lat, lng float64, at time.Time, updateLive bool) (models.PushResult, error) {
	at = at.UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.PushResult{}, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if updateLive {
		tag, err := tx.Exec(ctx, `
UPDATE tracking_sessions
SET current_latitude = $2, current_longitude = $3, last_location_update = $4
WHERE id = $1 AND is_active
`, sessionID, lat, lng, at)
		if err != nil {
			return models.PushResult{}, errors.Wrap(err, "update live position")
		}
		if tag.RowsAffected() == 0 {
			return models.PushResult{}, models.Errorf(models.ErrNotFound, "No active session found")
		}
	}

	res := models.PushResult{RecordedAt: at}
	err = tx.QueryRow(ctx, `
INSERT INTO path_points (session_id, latitude, longitude, recorded_at)
SELECT $1::bigint, $2::double precision, $3::double precision, $4::timestamptz
WHERE EXISTS (SELECT 1 FROM tracking_sessions WHERE id = $1 AND is_active)
RETURNING id
`, sessionID, lat, lng, at).Scan(&res.PointID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PushResult{}, models.Errorf(models.ErrNotFound, "No active session found")
	}
	if err != nil {
		return models.PushResult{}, errors.Wrap(err, "insert path point")
	}

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM path_points WHERE session_id = $1`, sessionID).Scan(&total); err != nil {
		return models.PushResult{}, errors.Wrap(err, "count path points")
	}
	res.TotalPoints = int(total)

	if err := tx.Commit(ctx); err != nil {
		return models.PushResult{}, errors.Wrap(err, "commit tx")
	}
	return res, nil
}

// ListPathPoints returns the path points of the given sessions in capture order.
func (s *Storage) ListPathPoints(ctx context.Context, sessionIDs []uint64) ([]*models.PathPoint, error) {
	if len(sessionIDs) == 0 {
		return []*models.PathPoint{}, nil
	}

	rows, err := s.db.Query(ctx, `
SELECT id, session_id, latitude, longitude, recorded_at
FROM path_points
WHERE session_id = ANY($1)
ORDER BY recorded_at ASC, id ASC
`, sessionIDs)
	if err != nil {
		return nil, errors.Wrap(err, "select path points")
	}
	defer rows.Close()

	out := make([]*models.PathPoint, 0)
	for rows.Next() {
		var p models.PathPoint
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Latitude, &p.Longitude, &p.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan path point")
		}
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// CreatePinpoint attaches a pinpoint to an active session; a stopped or missing
// session yields NotFound.
func (s *Storage) CreatePinpoint(ctx context.Context, in models.PinpointInput, at time.Time) (*models.Pinpoint, error) {
	sessionID := in.SessionID
	p := &models.Pinpoint{
		SessionID: &sessionID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Place:     in.Place,
		Address:   in.Address,
		Phone:     in.Phone,
		Message:   in.Message,
		Timestamp: at.UTC(),
	}
	err := s.db.QueryRow(ctx, `
INSERT INTO pinpoints (session_id, latitude, longitude, place, address, phone, message, recorded_at)
SELECT $1::bigint, $2::double precision, $3::double precision, $4::text, $5::text, $6::text, $7::text, $8::timestamptz
WHERE EXISTS (SELECT 1 FROM tracking_sessions WHERE id = $1 AND is_active)
RETURNING id
`, sessionID, in.Latitude, in.Longitude,
		nullIfEmpty(in.Place), nullIfEmpty(in.Address), nullIfEmpty(in.Phone), nullIfEmpty(in.Message),
		p.Timestamp).Scan(&p.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrNotFound, "No active session found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "insert pinpoint")
	}
	return p, nil
}

// ListPinpoints returns the pinpoints of the given sessions in capture order.
func (s *Storage) ListPinpoints(ctx context.Context, sessionIDs []uint64) ([]*models.Pinpoint, error) {
	if len(sessionIDs) == 0 {
		return []*models.Pinpoint{}, nil
	}

	rows, err := s.db.Query(ctx, `
SELECT id, session_id, latitude, longitude, place, address, phone, message, recorded_at
FROM pinpoints
WHERE session_id = ANY($1)
ORDER BY recorded_at ASC, id ASC
`, sessionIDs)
	if err != nil {
		return nil, errors.Wrap(err, "select pinpoints")
	}
	defer rows.Close()

	out := make([]*models.Pinpoint, 0)
	for rows.Next() {
		var p models.Pinpoint
		var place, address, phone, message *string
		if err := rows.Scan(
			&p.ID, &p.SessionID, &p.Latitude, &p.Longitude,
			&place, &address, &phone, &message, &p.Timestamp,
		); err != nil {
			return nil, errors.Wrap(err, "scan pinpoint")
		}
		p.Place = deref(place)
		p.Address = deref(address)
		p.Phone = deref(phone)
		p.Message = deref(message)
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
