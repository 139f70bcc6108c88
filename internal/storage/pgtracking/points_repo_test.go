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

func TestAppendPathPoint_LiveUpdatesSessionInSameTx(t *testing.T) {
	st, mock := newMockStorage(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tracking_sessions\s+SET current_latitude`).
		WithArgs(uint64(11), 12.9, 77.6, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO path_points`).
		WithArgs(uint64(11), 12.9, 77.6, at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uint64(100)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM path_points`).
		WithArgs(uint64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectCommit()

	res, err := st.AppendPathPoint(context.Background(), 11, 12.9, 77.6, at, true)
	require.NoError(t, err)
	require.Equal(t, uint64(100), res.PointID)
	require.Equal(t, 3, res.TotalPoints)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendPathPoint_SimpleSkipsSessionUpdate(t *testing.T) {
	st, mock := newMockStorage(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO path_points`).
		WithArgs(uint64(11), 1.5, 2.5, at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uint64(7)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM path_points`).
		WithArgs(uint64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectCommit()

	res, err := st.AppendPathPoint(context.Background(), 11, 1.5, 2.5, at, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalPoints)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendPathPoint_StoppedSessionIsNotFound(t *testing.T) {
	st, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tracking_sessions`).
		WithArgs(uint64(11), 12.9, 77.6, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := st.AppendPathPoint(context.Background(), 11, 12.9, 77.6, time.Now(), true)
	require.True(t, errors.Is(err, models.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendPathPoint_SimpleOnStoppedSessionIsNotFound(t *testing.T) {
	st, mock := newMockStorage(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO path_points[\s\S]+WHERE EXISTS \(SELECT 1 FROM tracking_sessions WHERE id = \$1 AND is_active\)`).
		WithArgs(uint64(11), 1.5, 2.5, at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := st.AppendPathPoint(context.Background(), 11, 1.5, 2.5, at, false)
	require.True(t, errors.Is(err, models.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePinpoint_ActiveSession(t *testing.T) {
	st, mock := newMockStorage(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	place := "Client office"

	mock.ExpectQuery(`INSERT INTO pinpoints[\s\S]+WHERE EXISTS`).
		WithArgs(uint64(11), 10.0, 20.0, &place, (*string)(nil), (*string)(nil), (*string)(nil), at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uint64(5)))

	p, err := st.CreatePinpoint(context.Background(), models.PinpointInput{SessionID: 11, Latitude: 10, Longitude: 20, Place: place}, at)
	require.NoError(t, err)
	require.Equal(t, uint64(5), p.ID)
	require.Equal(t, uint64(11), *p.SessionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePinpoint_StoppedSessionIsNotFound(t *testing.T) {
	st, mock := newMockStorage(t)

	mock.ExpectQuery(`INSERT INTO pinpoints[\s\S]+WHERE EXISTS`).
		WithArgs(uint64(11), 10.0, 20.0, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := st.CreatePinpoint(context.Background(), models.PinpointInput{SessionID: 11, Latitude: 10, Longitude: 20}, time.Now())
	require.True(t, errors.Is(err, models.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPinpoints_NullColumnsBecomeEmpty(t *testing.T) {
	st, mock := newMockStorage(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	sid := uint64(11)
	place := "Client office"

	mock.ExpectQuery(`FROM pinpoints\s+WHERE session_id = ANY\(\$1\)`).
		WithArgs([]uint64{11}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_id", "lat", "lng", "place", "address", "phone", "message", "recorded_at"}).
			AddRow(uint64(1), &sid, 10.0, 20.0, &place, (*string)(nil), (*string)(nil), (*string)(nil), at))

	out, err := st.ListPinpoints(context.Background(), []uint64{11})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Client office", out[0].Place)
	require.Equal(t, "", out[0].Address)
	require.Equal(t, uint64(11), *out[0].SessionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPathPoints_EmptyIDsSkipsQuery(t *testing.T) {
	st, mock := newMockStorage(t)

	out, err := st.ListPathPoints(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
