package operation

import (
	"time"

	"github.com/tendant/stepup-auth/pkg/formdata"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// StepOutcome is what a single executed authentication step reports back.
type StepOutcome string

const (
	// StepSucceeded means the step confirmed the user; resolution continues.
	StepSucceeded StepOutcome = "SUCCEEDED"
	// StepFailed means the attempt failed but the method still has budget;
	// the operation stays on the same step.
	StepFailed StepOutcome = "FAILED"
	// StepMethodExhausted means the method can no longer succeed (attempts
	// spent, code expired); resolution runs the failure transition.
	StepMethodExhausted StepOutcome = "METHOD_EXHAUSTED"
)

// StepRecord is one entry of an operation's step history.
type StepRecord struct {
	AuthMethod stepflow.AuthMethod `json:"auth_method"`
	Outcome    StepOutcome         `json:"outcome"`
	Timestamp  time.Time           `json:"timestamp"`
}

// Operation is one step-up authentication flow in progress. Its result stays
// CONTINUE until the step engine declares it DONE or FAILED; after that the
// operation is terminal and rejects further step results.
type Operation struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	UserID   string             `json:"user_id,omitempty"`
	FormData *formdata.FormData `json:"form_data"`

	Result        stepflow.AuthResult    `json:"result"`
	FailureReason stepflow.FailureReason `json:"failure_reason,omitempty"`
	PendingMethod stepflow.AuthMethod    `json:"pending_method,omitempty"`
	History       []StepRecord           `json:"history"`

	TimestampCreated     time.Time `json:"timestamp_created"`
	TimestampLastUpdated time.Time `json:"timestamp_last_updated"`
}

// IsTerminal reports whether the operation finished, successfully or not.
func (o *Operation) IsTerminal() bool {
	return o.Result == stepflow.ResultDone || o.Result == stepflow.ResultFailed
}
