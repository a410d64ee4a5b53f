package domain

type NotificationTarget string

const (
	TargetSelected NotificationTarget = "selected"
	TargetStatus   NotificationTarget = "status"
	TargetAll      NotificationTarget = "all"
)

type BroadcastRequest struct {
	Message        string
	Target         NotificationTarget
	ParticipantIDs []uint
	Status         ParticipantStatus
}

type DeliveryOutcome struct {
	ParticipantID uint   `json:"participant_id"`
	Email         string `json:"email"`
	Sent          bool   `json:"sent"`
	Error         string `json:"error,omitempty"`
}

type NotificationReport struct {
	Requested int               `json:"requested"`
	Sent      int               `json:"sent"`
	Failed    int               `json:"failed"`
	Outcomes  []DeliveryOutcome `json:"outcomes"`
}
