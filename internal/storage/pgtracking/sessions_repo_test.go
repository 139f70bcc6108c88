package pgtracking

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var sessionCols = []string{
	"id", "employee_id", "start_time", "end_time", "is_active",
	"current_latitude", "current_longitude", "last_location_update",
}

func newMockStorage(t *testing.T) (*Storage, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithDB(mock), mock
}

func TestCreateActiveSession_Created(t *testing.T) {
	st, mock := newMockStorage(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO tracking_sessions`).
		WithArgs(uint64(7), now).
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow(uint64(11), uint64(7), now, (*time.Time)(nil), true, (*float64)(nil), (*float64)(nil), (*time.Time)(nil)))

	sess, created, err := st.CreateActiveSession(context.Background(), 7, now)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, uint64(11), sess.ID)
	require.True(t, sess.IsActive)
	require.Nil(t, sess.EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateActiveSession_ConflictReturnsExisting(t *testing.T) {
	st, mock := newMockStorage(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	started := now.Add(-time.Hour)

	mock.ExpectQuery(`INSERT INTO tracking_sessions`).
		WithArgs(uint64(7), now).
		WillReturnRows(pgxmock.NewRows(sessionCols))
	mock.ExpectQuery(`FROM tracking_sessions\s+WHERE employee_id = \$1 AND is_active`).
		WithArgs(uint64(7)).
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow(uint64(5), uint64(7), started, (*time.Time)(nil), true, (*float64)(nil), (*float64)(nil), (*time.Time)(nil)))

	sess, created, err := st.CreateActiveSession(context.Background(), 7, now)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, uint64(5), sess.ID)
	require.Equal(t, started, sess.StartTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveSession_NotFound(t *testing.T) {
	st, mock := newMockStorage(t)

	mock.ExpectQuery(`FROM tracking_sessions`).
		WithArgs(uint64(3)).
		WillReturnRows(pgxmock.NewRows(sessionCols))

	_, err := st.GetActiveSession(context.Background(), 3)
	require.True(t, errors.Is(err, models.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStopSession_ReturnsStats(t *testing.T) {
	st, mock := newMockStorage(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE tracking_sessions\s+SET is_active = FALSE`).
		WithArgs(uint64(11), uint64(7), end).
		WillReturnRows(pgxmock.NewRows([]string{"start_time", "end_time"}).AddRow(start, end))
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM path_points`).
		WithArgs(uint64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"paths", "pins"}).AddRow(int64(4), int64(1)))
	mock.ExpectCommit()

	stats, err := st.StopSession(context.Background(), 7, 11, end)
	require.NoError(t, err)
	require.Equal(t, uint64(11), stats.SessionID)
	require.Equal(t, 90*time.Minute, stats.Duration())
	require.Equal(t, 4, stats.PathPoints)
	require.Equal(t, 1, stats.Pinpoints)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStopSession_NotActiveIsNotFound(t *testing.T) {
	st, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE tracking_sessions`).
		WithArgs(uint64(11), uint64(7), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"start_time", "end_time"}))
	mock.ExpectRollback()

	_, err := st.StopSession(context.Background(), 7, 11, time.Now())
	require.True(t, errors.Is(err, models.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListLivePositions(t *testing.T) {
	st, mock := newMockStorage(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	lat, lng := 12.9, 77.6

	mock.ExpectQuery(`WHERE s.is_active`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "username", "lat", "lng", "updated"}).
			AddRow(uint64(1), uint64(7), "jdoe", &lat, &lng, at).
			AddRow(uint64(2), uint64(8), "asmith", (*float64)(nil), (*float64)(nil), at))

	out, err := st.ListLivePositions(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, 12.9, *out[0].Latitude)
	require.Nil(t, out[1].Latitude)
	require.Equal(t, "asmith", out[1].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}
