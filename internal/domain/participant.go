package domain

import (
	"sort"
	"strings"
	"time"
)

type ParticipantStatus string

const (
	StatusPending   ParticipantStatus = "pending"
	StatusApproved  ParticipantStatus = "approved"
	StatusRejected  ParticipantStatus = "rejected"
	StatusWithdrawn ParticipantStatus = "withdrawn"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	}

	return false
}

var transitions = map[ParticipantStatus][]ParticipantStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusWithdrawn},
	StatusApproved: {StatusWithdrawn},
}

// CanTransition is the single authority on the participant lifecycle.
func CanTransition(from, to ParticipantStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

type Participant struct {
	ID            uint              `json:"id"`
	EventID       uint              `json:"event_id"`
	UserID        uint              `json:"user_id"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Status        ParticipantStatus `json:"status"`
	QueuePosition int               `json:"queue_position"`
	RegisteredAt  time.Time         `json:"registered_at"`
}

// Active reports whether the registration still holds or waits for a seat.
func (p Participant) Active() bool {
	return p.Status == StatusPending || p.Status == StatusApproved
}

func (p Participant) Matches(search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}

	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Email), search)
}

// SortForPromotion orders pending participants by queue position, then
// registration time, then id.
func SortForPromotion(ps []Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.QueuePosition != b.QueuePosition {
			return a.QueuePosition < b.QueuePosition
		}
		if !a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.RegisteredAt.Before(b.RegisteredAt)
		}
		return a.ID < b.ID
	})
}

// WithdrawnBucket selects where withdrawn participants are grouped.
type WithdrawnBucket string

const (
	// BucketMerged groups withdrawn participants with rejected ones.
	BucketMerged WithdrawnBucket = "merged"
	// BucketSeparate keeps withdrawn participants in their own group.
	BucketSeparate WithdrawnBucket = "separate"
)

type ParticipantGroups struct {
	Approved  []Participant `json:"approved"`
	Pending   []Participant `json:"pending"`
	Rejected  []Participant `json:"rejected"`
	Withdrawn []Participant `json:"withdrawn,omitempty"`
}

func GroupParticipants(all []Participant, mode WithdrawnBucket) ParticipantGroups {
	groups := ParticipantGroups{
		Approved: []Participant{},
		Pending:  []Participant{},
		Rejected: []Participant{},
	}

	for _, p := range all {
		switch p.Status {
		case StatusApproved:
			groups.Approved = append(groups.Approved, p)
		case StatusPending:
			groups.Pending = append(groups.Pending, p)
		case StatusRejected:
			groups.Rejected = append(groups.Rejected, p)
		case StatusWithdrawn:
			if mode == BucketSeparate {
				groups.Withdrawn = append(groups.Withdrawn, p)
			} else {
				groups.Rejected = append(groups.Rejected, p)
			}
		}
	}

	SortForPromotion(groups.Pending)

	return groups
}

// All concatenates the buckets in display order.
func (g ParticipantGroups) All() []Participant {
	all := make([]Participant, 0, len(g.Approved)+len(g.Pending)+len(g.Rejected)+len(g.Withdrawn))
	all = append(all, g.Approved...)
	all = append(all, g.Pending...)
	all = append(all, g.Rejected...)
	all = append(all, g.Withdrawn...)

	return all
}

func (g ParticipantGroups) Filter(search string) ParticipantGroups {
	keep := func(in []Participant) []Participant {
		out := make([]Participant, 0, len(in))
		for _, p := range in {
			if p.Matches(search) {
				out = append(out, p)
			}
		}
		return out
	}

	filtered := ParticipantGroups{
		Approved: keep(g.Approved),
		Pending:  keep(g.Pending),
		Rejected: keep(g.Rejected),
	}
	if g.Withdrawn != nil {
		filtered.Withdrawn = keep(g.Withdrawn)
	}

	return filtered
}

// Bucket returns the group holding participants of the given status.
func (g ParticipantGroups) Bucket(status ParticipantStatus) []Participant {
	switch status {
	case StatusApproved:
		return g.Approved
	case StatusPending:
		return g.Pending
	case StatusRejected:
		return g.Rejected
	case StatusWithdrawn:
		return g.Withdrawn
	}

	return nil
}

type ParticipantList struct {
	Event          Event `json:"event"`
	AutoApproved   int   `json:"auto_approved"`
	AvailableSlots int   `json:"available_slots"`
	ParticipantGroups
}

// ParticipantChange is one committed status transition, pushed to live feeds.
type ParticipantChange struct {
	EventID       uint              `json:"event_id"`
	ParticipantID uint              `json:"participant_id"`
	From          ParticipantStatus `json:"from"`
	To            ParticipantStatus `json:"to"`
	At            time.Time         `json:"at"`
}
