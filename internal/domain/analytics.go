package domain

type EventFill struct {
	EventID     uint    `json:"event_id"`
	Title       string  `json:"title"`
	Approved    int     `json:"approved"`
	Capacity    int     `json:"capacity"`
	FillPercent float64 `json:"fill_percent"`
}

type Analytics struct {
	TotalEvents       int64                       `json:"total_events"`
	UpcomingEvents    int64                       `json:"upcoming_events"`
	TotalParticipants int64                       `json:"total_participants"`
	ByStatus          map[ParticipantStatus]int64 `json:"by_status"`
	ByCategory        map[string]int64            `json:"by_category"`
	Events            []EventFill                 `json:"events"`
}

// FillPercent is approved*100/capacity rounded to one decimal; 0 without capacity.
func FillPercent(approved, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}

	tenths := (approved*1000 + capacity/2) / capacity

	return float64(tenths) / 10
}
