package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/eventdesk/eventdesk-api/internal/domain"
)

var errClosesAfterEvent = errors.New("registration must close before the event starts")

type EventRequest struct {
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Date                 time.Time `json:"date"`
	Location             string    `json:"location"`
	Category             string    `json:"category"`
	Capacity             int       `json:"capacity"`
	RegistrationClosesAt time.Time `json:"registration_closes_at"`
	AutoApprove          bool      `json:"auto_approve"`
}

func (req *EventRequest) Validate() error {
	categories := make([]any, 0, len(domain.EventCategories))
	for _, c := range domain.EventCategories {
		categories = append(categories, c)
	}

	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Description, validation.Required),
		validation.Field(&req.Date, validation.Required),
		validation.Field(&req.Location, validation.Required),
		validation.Field(&req.Category, validation.Required, validation.In(categories...)),
		validation.Field(&req.Capacity, validation.Min(0)),
		validation.Field(&req.RegistrationClosesAt, validation.Required),
	)
	if err != nil {
		return err
	}

	if req.RegistrationClosesAt.After(req.Date) {
		return errClosesAfterEvent
	}

	return nil
}

func (req *EventRequest) ToDomain(id uint) domain.Event {
	return domain.Event{
		ID:                   id,
		Title:                req.Title,
		Description:          req.Description,
		Date:                 req.Date,
		Location:             req.Location,
		Category:             req.Category,
		Capacity:             req.Capacity,
		RegistrationClosesAt: req.RegistrationClosesAt,
		AutoApprove:          req.AutoApprove,
	}
}

type ListEventsQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Date     string `form:"date"`
	Sort     string `form:"sort"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

func (q *ListEventsQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Date, validation.In(
			string(domain.DateAll), string(domain.DateToday), string(domain.DateThisWeek), string(domain.DateThisMonth),
		)),
		validation.Field(&q.Sort, validation.In(
			string(domain.SortDateDesc), string(domain.SortDateAsc), string(domain.SortPopularity), string(domain.SortName),
		)),
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0)),
	)
}

func (q *ListEventsQuery) ToFilter() domain.EventFilter {
	return domain.EventFilter{
		Category: q.Category,
		Search:   q.Search,
		Date:     domain.EventDateRange(q.Date),
		Sort:     domain.EventSort(q.Sort),
		Page:     q.Page,
		Limit:    q.Limit,
	}
}
