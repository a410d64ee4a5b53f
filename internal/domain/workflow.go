package domain

type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

type StepOutcome struct {
	Name          string     `json:"name"`
	ParticipantID uint       `json:"participant_id,omitempty"`
	Status        StepStatus `json:"status"`
	Detail        string     `json:"detail,omitempty"`
}

// WorkflowReport records what every step of an admin action did. Steps run in
// order; a failed notification does not undo the status change before it.
type WorkflowReport struct {
	Action        string        `json:"action"`
	ParticipantID uint          `json:"participant_id"`
	Promoted      []uint        `json:"promoted"`
	Steps         []StepOutcome `json:"steps"`
}

func (r *WorkflowReport) Record(name string, participantID uint, status StepStatus, detail string) {
	r.Steps = append(r.Steps, StepOutcome{
		Name:          name,
		ParticipantID: participantID,
		Status:        status,
		Detail:        detail,
	})
}

func (r *WorkflowReport) Failed() []StepOutcome {
	var failed []StepOutcome
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			failed = append(failed, s)
		}
	}

	return failed
}
