package pgtracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "attendtrack_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/attendtrack_test?sslmode=disable"

	// Порт слушается раньше, чем postgres готов принимать запросы.
	var st *Storage
	require.Eventually(t, func() bool {
		st, err = New(dsn)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(st.Close)
	return st
}

func TestPGTracking_SessionFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	st := startPostgres(t)
	ctx := context.Background()

	emp, err := st.CreateUser(ctx, models.UserCreateInput{Username: "jdoe", PasswordHash: "x", Role: models.RoleEmployee, FullName: "John Doe"})
	require.NoError(t, err)

	// Параллельный старт: создаётся ровно одна активная сессия.
	now := time.Now().UTC()
	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	ids := map[uint64]struct{}{}
	var errs []error
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, created, err := st.CreateActiveSession(ctx, emp.ID, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if created {
				createdCount++
			}
			ids[sess.ID] = struct{}{}
		}()
	}
	wg.Wait()
	require.Empty(t, errs)
	require.Equal(t, 1, createdCount)
	require.Len(t, ids, 1)

	active, err := st.GetActiveSession(ctx, emp.ID)
	require.NoError(t, err)

	res, err := st.AppendPathPoint(ctx, active.ID, 12.9, 77.6, now.Add(time.Minute), true)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalPoints)

	live, err := st.ListLivePositions(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.InDelta(t, 12.9, *live[0].Latitude, 1e-9)

	_, err = st.CreatePinpoint(ctx, models.PinpointInput{SessionID: active.ID, Latitude: 12.9, Longitude: 77.6, Place: "Site A"}, now.Add(2*time.Minute))
	require.NoError(t, err)

	stats, err := st.StopSession(ctx, emp.ID, active.ID, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, stats.PathPoints)
	require.Equal(t, 1, stats.Pinpoints)

	_, err = st.StopSession(ctx, emp.ID, active.ID, now.Add(2*time.Hour))
	require.True(t, errors.Is(err, models.ErrNotFound))

	// после остановки точки к сессии не цепляются
	_, err = st.AppendPathPoint(ctx, active.ID, 12.9, 77.6, now.Add(61*time.Minute), false)
	require.True(t, errors.Is(err, models.ErrNotFound))
	_, err = st.CreatePinpoint(ctx, models.PinpointInput{SessionID: active.ID, Latitude: 12.9, Longitude: 77.6}, now.Add(62*time.Minute))
	require.True(t, errors.Is(err, models.ErrNotFound))

	sessions, err := st.ListSessionsInRange(ctx, emp.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.False(t, sessions[0].IsActive)

	pins, err := st.ListPinpoints(ctx, []uint64{active.ID})
	require.NoError(t, err)
	require.Len(t, pins, 1)
	require.Equal(t, "Site A", pins[0].Place)

	offline, err := st.ListOfflineEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, offline, 1)
}

func TestPGTracking_Leads(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	st := startPostgres(t)
	ctx := context.Background()

	l := &models.LaserScreedSubmission{
		Name: "A", Email: "a@example.com", WhatsApp: "+100", Services: []string{"laser_screed"},
		NeedTroweling: "yes", SqftRange: "1000-5000",
	}
	require.NoError(t, st.CreateLaserScreedSubmission(ctx, l))
	require.Equal(t, models.LeadStatusPending, l.Status)

	got, err := st.GetLaserScreedSubmission(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"laser_screed"}, got.Services)

	got.Status = models.LeadStatusContacted
	require.NoError(t, st.UpdateLaserScreedSubmission(ctx, got))

	require.NoError(t, st.DeleteLaserScreedSubmission(ctx, l.ID))
	_, err = st.GetLaserScreedSubmission(ctx, l.ID)
	require.True(t, errors.Is(err, models.ErrNotFound))
}
