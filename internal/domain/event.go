package domain

import "time"

var EventCategories = []string{
	"Conference",
	"Workshop",
	"Seminar",
	"Webinar",
	"Networking",
	"Hackathon",
	"Competition",
	"Exhibition",
	"Concert",
	"Other",
}

type Event struct {
	ID                   uint      `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Date                 time.Time `json:"date"`
	Location             string    `json:"location"`
	Category             string    `json:"category"`
	Capacity             int       `json:"capacity"`
	RegistrationClosesAt time.Time `json:"registration_closes_at"`
	AutoApprove          bool      `json:"auto_approve"`
	BannerURL            string    `json:"banner_url,omitempty"`
	OrganizerID          uint      `json:"organizer_id,omitempty"`
	ParticipantsCount    int       `json:"participants_count"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AvailableSlots is capacity minus the approved participants, never negative.
func (e Event) AvailableSlots(approved int) int {
	if free := e.Capacity - approved; free > 0 {
		return free
	}

	return 0
}

// WithinCutoff reports whether now falls inside the window of length cutoff
// that ends at deadline.
func WithinCutoff(now, deadline time.Time, cutoff time.Duration) bool {
	return deadline.Sub(now) <= cutoff
}

type EventDateRange string

const (
	DateAll       EventDateRange = "all"
	DateToday     EventDateRange = "today"
	DateThisWeek  EventDateRange = "this_week"
	DateThisMonth EventDateRange = "this_month"
)

type EventSort string

const (
	SortDateDesc   EventSort = "date"
	SortDateAsc    EventSort = "date_asc"
	SortPopularity EventSort = "popularity"
	SortName       EventSort = "name"
)

type EventFilter struct {
	Category string
	Search   string
	Date     EventDateRange
	Sort     EventSort
	Page     int
	Limit    int
}

// Bounds returns the [from, to) interval selected by the date range relative
// to now. ok is false for DateAll.
func (r EventDateRange) Bounds(now time.Time) (from, to time.Time, ok bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch r {
	case DateToday:
		return today, today.AddDate(0, 0, 1), true
	case DateThisWeek:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return start, start.AddDate(0, 0, 7), true
	case DateThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

type EventPage struct {
	Events []Event `json:"events"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}
