package eventmodels

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionReport is the outcome of one Execute call. Reports for executions
// that passed the precondition gate are persisted as execution records.
type ExecutionReport struct {
	ExecutionID    uuid.UUID        `json:"execution_id"`
	OrderID        uint             `json:"order_id"`
	Outcome        ExecutionOutcome `json:"outcome"`
	Descriptor     string           `json:"descriptor,omitempty"`
	Opening        int              `json:"opening"`
	Goal           int              `json:"goal"`
	Closing        int              `json:"closing"`
	Attempts       int              `json:"attempts"`
	BrokerOrderIDs []string         `json:"broker_order_ids"`
	Emergency      *EmergencyFill   `json:"emergency,omitempty"`
	Message        string           `json:"message,omitempty"`
	Error          string           `json:"error,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

func NewPendingExecutionReport(executionID uuid.UUID, orderID uint, startedAt time.Time) *ExecutionReport {
	return &ExecutionReport{
		ExecutionID:    executionID,
		OrderID:        orderID,
		Outcome:        ExecutionOutcomePending,
		BrokerOrderIDs: []string{},
		StartedAt:      startedAt,
	}
}

// FinalQuantity is the last position reading: after the emergency fill when
// one ran, the loop's closing size otherwise.
func (r *ExecutionReport) FinalQuantity() int {
	if r.Emergency != nil {
		return r.Emergency.QuantityAfter
	}

	return r.Closing
}

func (r *ExecutionReport) GoalReached() bool {
	return r.FinalQuantity() == r.Goal
}

func (r *ExecutionReport) Complete(outcome ExecutionOutcome, at time.Time) {
	r.Outcome = outcome
	r.CompletedAt = &at
}
