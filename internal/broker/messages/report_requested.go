package messages

import "time"

// ReportRequested asks the worker to render a date-range report into the archive.
// Dates are calendar dates in YYYY-MM-DD form.
type ReportRequested struct {
	JobID       string    `json:"job_id"`
	EmployeeID  uint64    `json:"employee_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Filename    string    `json:"filename"`
	RequestedBy uint64    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}
