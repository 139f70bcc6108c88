package models

import "time"

type QuoteSubmission struct {
	ID          uint64
	Name        string
	Phone       string
	Email       string
	Location    string
	SubmittedAt time.Time
}

type ContactSubmission struct {
	ID          uint64
	Name        string
	PhoneNumber string
	Email       string
	Message     string
	SubmittedAt time.Time
}

const (
	LeadStatusPending   = "pending"
	LeadStatusContacted = "contacted"
	LeadStatusCompleted = "completed"
)

type LaserScreedSubmission struct {
	ID             uint64
	Name           string
	Email          string
	Company        string
	WhatsApp       string
	Services       []string
	NeedTroweling  string
	TrowelingColor string
	SqftRange      string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
