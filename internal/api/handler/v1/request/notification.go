package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/eventdesk/eventdesk-api/internal/domain"
)

type NotificationRequest struct {
	Message        string `json:"message"`
	Target         string `json:"target"`
	ParticipantIDs []uint `json:"participant_ids"`
	Status         string `json:"status"`
}

func (req *NotificationRequest) Validate() error {
	if req.Target == "" {
		req.Target = string(domain.TargetSelected)
	}

	var idRules, statusRules []validation.Rule
	switch domain.NotificationTarget(req.Target) {
	case domain.TargetSelected:
		idRules = append(idRules, validation.Required)
	case domain.TargetStatus:
		statusRules = append(statusRules, validation.Required)
	}
	statusRules = append(statusRules, validation.In(
		string(domain.StatusApproved), string(domain.StatusPending), string(domain.StatusRejected), string(domain.StatusWithdrawn),
	))

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Message, validation.Required, validation.Length(1, 5000)),
		validation.Field(&req.Target, validation.Required, validation.In(
			string(domain.TargetSelected), string(domain.TargetStatus), string(domain.TargetAll),
		)),
		validation.Field(&req.ParticipantIDs, idRules...),
		validation.Field(&req.Status, statusRules...),
	)
}

func (req *NotificationRequest) ToDomain() domain.BroadcastRequest {
	return domain.BroadcastRequest{
		Message:        req.Message,
		Target:         domain.NotificationTarget(req.Target),
		ParticipantIDs: req.ParticipantIDs,
		Status:         domain.ParticipantStatus(req.Status),
	}
}
