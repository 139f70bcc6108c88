package pgtracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) CreateQuoteSubmission(ctx context.Context, q *models.QuoteSubmission) error {
	q.SubmittedAt = time.Now().UTC()
	err := s.db.QueryRow(ctx, `
INSERT INTO quote_submissions (name, phone, email, location, submitted_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, q.Name, q.Phone, nullIfEmpty(q.Email), q.Location, q.SubmittedAt).Scan(&q.ID)
	return errors.Wrap(err, "insert quote submission")
}

func (s *Storage) ListQuoteSubmissions(ctx context.Context) ([]*models.QuoteSubmission, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, name, phone, email, location, submitted_at
FROM quote_submissions
ORDER BY submitted_at DESC, id DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select quote submissions")
	}
	defer rows.Close()

	out := make([]*models.QuoteSubmission, 0)
	for rows.Next() {
		var q models.QuoteSubmission
		var email *string
		if err := rows.Scan(&q.ID, &q.Name, &q.Phone, &email, &q.Location, &q.SubmittedAt); err != nil {
			return nil, errors.Wrap(err, "scan quote submission")
		}
		q.Email = deref(email)
		out = append(out, &q)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) DeleteQuoteSubmission(ctx context.Context, id uint64) error {
	return s.deleteByID(ctx, `DELETE FROM quote_submissions WHERE id = $1`, id, "Submission not found")
}

func (s *Storage) CreateContactSubmission(ctx context.Context, c *models.ContactSubmission) error {
	c.SubmittedAt = time.Now().UTC()
	err := s.db.QueryRow(ctx, `
INSERT INTO contact_submissions (name, phone_number, email, message, submitted_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, c.Name, c.PhoneNumber, c.Email, c.Message, c.SubmittedAt).Scan(&c.ID)
	return errors.Wrap(err, "insert contact submission")
}

func (s *Storage) ListContactSubmissions(ctx context.Context) ([]*models.ContactSubmission, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, name, phone_number, email, message, submitted_at
FROM contact_submissions
ORDER BY submitted_at DESC, id DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select contact submissions")
	}
	defer rows.Close()

	out := make([]*models.ContactSubmission, 0)
	for rows.Next() {
		var c models.ContactSubmission
		if err := rows.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Email, &c.Message, &c.SubmittedAt); err != nil {
			return nil, errors.Wrap(err, "scan contact submission")
		}
		out = append(out, &c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) DeleteContactSubmission(ctx context.Context, id uint64) error {
	return s.deleteByID(ctx, `DELETE FROM contact_submissions WHERE id = $1`, id, "Submission not found")
}

const laserScreedColumns = `id, name, email, company, whatsapp, services, need_troweling,
  troweling_color, sqft_range, status, created_at, updated_at`

func scanLaserScreed(row scanner) (*models.LaserScreedSubmission, error) {
	var l models.LaserScreedSubmission
	var services []byte
	if err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Company, &l.WhatsApp, &services, &l.NeedTroweling,
		&l.TrowelingColor, &l.SqftRange, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Services = []string{}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &l.Services); err != nil {
			return nil, errors.Wrap(err, "decode services")
		}
	}
	return &l, nil
}

func (s *Storage) CreateLaserScreedSubmission(ctx context.Context, l *models.LaserScreedSubmission) error {
	services, err := json.Marshal(nonNil(l.Services))
	if err != nil {
		return errors.Wrap(err, "encode services")
	}
	now := time.Now().UTC()
	if l.Status == "" {
		l.Status = models.LeadStatusPending
	}
	l.CreatedAt, l.UpdatedAt = now, now

	err = s.db.QueryRow(ctx, `
INSERT INTO laser_screed_submissions (
  name, email, company, whatsapp, services, need_troweling,
  troweling_color, sqft_range, status, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
RETURNING id
`, l.Name, l.Email, l.Company, l.WhatsApp, services, l.NeedTroweling,
		l.TrowelingColor, l.SqftRange, l.Status, now).Scan(&l.ID)
	return errors.Wrap(err, "insert laser screed submission")
}

func (s *Storage) ListLaserScreedSubmissions(ctx context.Context) ([]*models.LaserScreedSubmission, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+laserScreedColumns+`
FROM laser_screed_submissions
ORDER BY created_at DESC, id DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select laser screed submissions")
	}
	defer rows.Close()

	out := make([]*models.LaserScreedSubmission, 0)
	for rows.Next() {
		l, err := scanLaserScreed(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan laser screed submission")
		}
		out = append(out, l)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) GetLaserScreedSubmission(ctx context.Context, id uint64) (*models.LaserScreedSubmission, error) {
	l, err := scanLaserScreed(s.db.QueryRow(ctx, `SELECT `+laserScreedColumns+` FROM laser_screed_submissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.Errorf(models.ErrNotFound, "Submission not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "select laser screed submission")
	}
	return l, nil
}

// UpdateLaserScreedSubmission overwrites every mutable field of an existing submission.
func (s *Storage) UpdateLaserScreedSubmission(ctx context.Context, l *models.LaserScreedSubmission) error {
	services, err := json.Marshal(nonNil(l.Services))
	if err != nil {
		return errors.Wrap(err, "encode services")
	}
	l.UpdatedAt = time.Now().UTC()

	err = s.db.QueryRow(ctx, `
UPDATE laser_screed_submissions SET
  name = $2, email = $3, company = $4, whatsapp = $5, services = $6,
  need_troweling = $7, troweling_color = $8, sqft_range = $9, status = $10, updated_at = $11
WHERE id = $1
RETURNING created_at
`, l.ID, l.Name, l.Email, l.Company, l.WhatsApp, services,
		l.NeedTroweling, l.TrowelingColor, l.SqftRange, l.Status, l.UpdatedAt).Scan(&l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Errorf(models.ErrNotFound, "Submission not found")
	}
	return errors.Wrap(err, "update laser screed submission")
}

func (s *Storage) DeleteLaserScreedSubmission(ctx context.Context, id uint64) error {
	return s.deleteByID(ctx, `DELETE FROM laser_screed_submissions WHERE id = $1`, id, "Submission not found")
}

func (s *Storage) deleteByID(ctx context.Context, q string, id uint64, notFound string) error {
	tag, err := s.db.Exec(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "delete")
	}
	if tag.RowsAffected() == 0 {
		return models.Errorf(models.ErrNotFound, "%s", notFound)
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
