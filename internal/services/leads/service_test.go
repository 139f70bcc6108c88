package leads

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memLeads struct {
	quotes   []*models.QuoteSubmission
	contacts []*models.ContactSubmission
	screed   map[uint64]*models.LaserScreedSubmission
	nextID   uint64
}

func newMemLeads() *memLeads {
	return &memLeads{screed: map[uint64]*models.LaserScreedSubmission{}}
}

func (m *memLeads) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memLeads) CreateQuoteSubmission(ctx context.Context, q *models.QuoteSubmission) error {
	q.ID = m.id()
	m.quotes = append(m.quotes, q)
	return nil
}

func (m *memLeads) ListQuoteSubmissions(ctx context.Context) ([]*models.QuoteSubmission, error) {
	return m.quotes, nil
}

func (m *memLeads) DeleteQuoteSubmission(ctx context.Context, id uint64) error {
	return models.Errorf(models.ErrNotFound, "Submission not found")
}

func (m *memLeads) CreateContactSubmission(ctx context.Context, c *models.ContactSubmission) error {
	c.ID = m.id()
	m.contacts = append(m.contacts, c)
	return nil
}

func (m *memLeads) ListContactSubmissions(ctx context.Context) ([]*models.ContactSubmission, error) {
	return m.contacts, nil
}

func (m *memLeads) DeleteContactSubmission(ctx context.Context, id uint64) error { return nil }

func (m *memLeads) CreateLaserScreedSubmission(ctx context.Context, l *models.LaserScreedSubmission) error {
	l.ID = m.id()
	cp := *l
	m.screed[l.ID] = &cp
	return nil
}

func (m *memLeads) ListLaserScreedSubmissions(ctx context.Context) ([]*models.LaserScreedSubmission, error) {
	out := make([]*models.LaserScreedSubmission, 0, len(m.screed))
	for _, l := range m.screed {
		out = append(out, l)
	}
	return out, nil
}

func (m *memLeads) GetLaserScreedSubmission(ctx context.Context, id uint64) (*models.LaserScreedSubmission, error) {
	l, ok := m.screed[id]
	if !ok {
		return nil, models.Errorf(models.ErrNotFound, "Submission not found")
	}
	cp := *l
	return &cp, nil
}

func (m *memLeads) UpdateLaserScreedSubmission(ctx context.Context, l *models.LaserScreedSubmission) error {
	cp := *l
	m.screed[l.ID] = &cp
	return nil
}

func (m *memLeads) DeleteLaserScreedSubmission(ctx context.Context, id uint64) error {
	delete(m.screed, id)
	return nil
}

func newTestService() (*Service, *memLeads) {
	repo := newMemLeads()
	s := New(repo)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s, repo
}

func TestSubmitQuote(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	q, err := s.SubmitQuote(ctx, QuoteInput{Name: " Ann ", Phone: "555", Location: "Austin"})
	require.NoError(t, err)
	require.Equal(t, "Ann", q.Name)
	require.Len(t, repo.quotes, 1)

	_, err = s.SubmitQuote(ctx, QuoteInput{Name: "Ann", Phone: "555", Location: "Austin", Email: "bad"})
	require.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = s.SubmitQuote(ctx, QuoteInput{Name: "Ann", Location: "Austin"})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSubmitContact(t *testing.T) {
	s, _ := newTestService()
	_, err := s.SubmitContact(context.Background(), ContactInput{Name: "Bo", PhoneNumber: "1", Email: "bo@example.com"})
	require.NoError(t, err)

	_, err = s.SubmitContact(context.Background(), ContactInput{Name: "Bo", PhoneNumber: "1"})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestLaserScreed_Lifecycle(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	l, err := s.SubmitLaserScreed(ctx, LaserScreedInput{
		Name: "Cy", Email: "cy@example.com", WhatsApp: "+1555", Services: []string{"laser_screed"},
		NeedTroweling: "yes", SqftRange: "1000-5000",
	})
	require.NoError(t, err)
	require.Equal(t, models.LeadStatusPending, l.Status)

	_, err = s.SubmitLaserScreed(ctx, LaserScreedInput{Name: "Cy", Email: "cy@example.com", WhatsApp: "1"})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	status := models.LeadStatusContacted
	got, err := s.UpdateLaserScreed(ctx, l.ID, LaserScreedUpdate{Status: &status})
	require.NoError(t, err)
	require.Equal(t, models.LeadStatusContacted, got.Status)
	require.Equal(t, "Cy", got.Name)

	bad := "archived"
	_, err = s.UpdateLaserScreed(ctx, l.ID, LaserScreedUpdate{Status: &bad})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.UpdateLaserScreed(ctx, 999, LaserScreedUpdate{Status: &status})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestExport(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.SubmitQuote(ctx, QuoteInput{Name: "Ann", Phone: "555", Location: "Austin"})
	require.NoError(t, err)
	_, err = s.SubmitLaserScreed(ctx, LaserScreedInput{Name: "Cy", Email: "cy@example.com", WhatsApp: "1", Services: []string{"a", "b"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Quotes", "Contacts", "Laser Screed"}, f.GetSheetList())

	rows, err := f.GetRows("Quotes")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Ann", rows[1][1])

	rows, err = f.GetRows("Laser Screed")
	require.NoError(t, err)
	require.Equal(t, "a, b", rows[1][5])
	require.Equal(t, "pending", rows[1][9])
}
