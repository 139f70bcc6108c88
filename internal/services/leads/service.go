package leads

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/validation"
)

type Repository interface {
	CreateQuoteSubmission(ctx context.Context, q *models.QuoteSubmission) error
	ListQuoteSubmissions(ctx context.Context) ([]*models.QuoteSubmission, error)
	DeleteQuoteSubmission(ctx context.Context, id uint64) error

	CreateContactSubmission(ctx context.Context, c *models.ContactSubmission) error
	ListContactSubmissions(ctx context.Context) ([]*models.ContactSubmission, error)
	DeleteContactSubmission(ctx context.Context, id uint64) error

	CreateLaserScreedSubmission(ctx context.Context, l *models.LaserScreedSubmission) error
	ListLaserScreedSubmissions(ctx context.Context) ([]*models.LaserScreedSubmission, error)
	GetLaserScreedSubmission(ctx context.Context, id uint64) (*models.LaserScreedSubmission, error)
	UpdateLaserScreedSubmission(ctx context.Context, l *models.LaserScreedSubmission) error
	DeleteLaserScreedSubmission(ctx context.Context, id uint64) error
}

type QuoteInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=15"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Location string `json:"location" validate:"required,max=200"`
}

type ContactInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Email       string `json:"email" validate:"required,email"`
	Message     string `json:"message"`
}

type LaserScreedInput struct {
	Name           string   `json:"name" validate:"required,max=100"`
	Email          string   `json:"email" validate:"required,email"`
	Company        string   `json:"company" validate:"max=200"`
	WhatsApp       string   `json:"whatsapp" validate:"required,max=20"`
	Services       []string `json:"services" validate:"required,min=1,dive,required"`
	NeedTroweling  string   `json:"need_troweling" validate:"max=10"`
	TrowelingColor string   `json:"troweling_color" validate:"max=20"`
	SqftRange      string   `json:"sqft_range" validate:"max=50"`
}

// LaserScreedUpdate is a partial change made by an admin while working the lead.
type LaserScreedUpdate struct {
	Name           *string   `json:"name" validate:"omitempty,max=100"`
	Email          *string   `json:"email" validate:"omitempty,email"`
	Company        *string   `json:"company" validate:"omitempty,max=200"`
	WhatsApp       *string   `json:"whatsapp" validate:"omitempty,max=20"`
	Services       *[]string `json:"services" validate:"omitempty,min=1"`
	NeedTroweling  *string   `json:"need_troweling" validate:"omitempty,max=10"`
	TrowelingColor *string   `json:"troweling_color" validate:"omitempty,max=20"`
	SqftRange      *string   `json:"sqft_range" validate:"omitempty,max=50"`
	Status         *string   `json:"status" validate:"omitempty,oneof=pending contacted completed"`
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) SubmitQuote(ctx context.Context, in QuoteInput) (*models.QuoteSubmission, error) {
	in.Name, in.Phone, in.Email, in.Location = trim(in.Name), trim(in.Phone), trim(in.Email), trim(in.Location)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	q := &models.QuoteSubmission{Name: in.Name, Phone: in.Phone, Email: in.Email, Location: in.Location, SubmittedAt: s.now()}
	if err := s.repo.CreateQuoteSubmission(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) ListQuotes(ctx context.Context) ([]*models.QuoteSubmission, error) {
	return s.repo.ListQuoteSubmissions(ctx)
}

func (s *Service) DeleteQuote(ctx context.Context, id uint64) error {
	return s.repo.DeleteQuoteSubmission(ctx, id)
}

func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*models.ContactSubmission, error) {
	in.Name, in.PhoneNumber, in.Email = trim(in.Name), trim(in.PhoneNumber), trim(in.Email)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	c := &models.ContactSubmission{
		Name:        in.Name,
		PhoneNumber: in.PhoneNumber,
		Email:       in.Email,
		Message:     strings.TrimSpace(in.Message),
		SubmittedAt: s.now(),
	}
	if err := s.repo.CreateContactSubmission(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListContacts(ctx context.Context) ([]*models.ContactSubmission, error) {
	return s.repo.ListContactSubmissions(ctx)
}

func (s *Service) DeleteContact(ctx context.Context, id uint64) error {
	return s.repo.DeleteContactSubmission(ctx, id)
}

// SubmitLaserScreed stores a new inquiry in the pending state.
func (s *Service) SubmitLaserScreed(ctx context.Context, in LaserScreedInput) (*models.LaserScreedSubmission, error) {
	in.Name, in.Email, in.WhatsApp = trim(in.Name), trim(in.Email), trim(in.WhatsApp)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	now := s.now()
	l := &models.LaserScreedSubmission{
		Name:           in.Name,
		Email:          in.Email,
		Company:        trim(in.Company),
		WhatsApp:       in.WhatsApp,
		Services:       in.Services,
		NeedTroweling:  in.NeedTroweling,
		TrowelingColor: in.TrowelingColor,
		SqftRange:      in.SqftRange,
		Status:         models.LeadStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateLaserScreedSubmission(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) ListLaserScreed(ctx context.Context) ([]*models.LaserScreedSubmission, error) {
	return s.repo.ListLaserScreedSubmissions(ctx)
}

func (s *Service) GetLaserScreed(ctx context.Context, id uint64) (*models.LaserScreedSubmission, error) {
	return s.repo.GetLaserScreedSubmission(ctx, id)
}

func (s *Service) UpdateLaserScreed(ctx context.Context, id uint64, upd LaserScreedUpdate) (*models.LaserScreedSubmission, error) {
	if err := validation.Struct(&upd); err != nil {
		return nil, err
	}
	l, err := s.repo.GetLaserScreedSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	set(&l.Name, upd.Name)
	set(&l.Email, upd.Email)
	set(&l.Company, upd.Company)
	set(&l.WhatsApp, upd.WhatsApp)
	set(&l.NeedTroweling, upd.NeedTroweling)
	set(&l.TrowelingColor, upd.TrowelingColor)
	set(&l.SqftRange, upd.SqftRange)
	set(&l.Status, upd.Status)
	if upd.Services != nil {
		l.Services = *upd.Services
	}
	l.UpdatedAt = s.now()

	if err := s.repo.UpdateLaserScreedSubmission(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) DeleteLaserScreed(ctx context.Context, id uint64) error {
	return s.repo.DeleteLaserScreedSubmission(ctx, id)
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func trim(s string) string { return strings.TrimSpace(s) }
