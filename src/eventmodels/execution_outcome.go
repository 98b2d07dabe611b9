package eventmodels

type ExecutionOutcome string

const (
	ExecutionOutcomePending              ExecutionOutcome = "pending"
	ExecutionOutcomeInactive             ExecutionOutcome = "inactive"
	ExecutionOutcomeAlreadyExecuted      ExecutionOutcome = "already_executed"
	ExecutionOutcomePrerequisiteUnmet    ExecutionOutcome = "prerequisite_unmet"
	ExecutionOutcomeClaimedElsewhere     ExecutionOutcome = "claimed_elsewhere"
	ExecutionOutcomeNotAuthenticated     ExecutionOutcome = "not_authenticated"
	ExecutionOutcomeUnsupportedOrderType ExecutionOutcome = "unsupported_order_type"
	ExecutionOutcomeCompleted            ExecutionOutcome = "completed"
	ExecutionOutcomeFailed               ExecutionOutcome = "failed"
)

// Skipped reports whether the precondition gate stopped the execution before
// any state was changed.
func (o ExecutionOutcome) Skipped() bool {
	switch o {
	case ExecutionOutcomeInactive, ExecutionOutcomeAlreadyExecuted, ExecutionOutcomePrerequisiteUnmet,
		ExecutionOutcomeClaimedElsewhere, ExecutionOutcomeNotAuthenticated:
		return true
	}

	return false
}

func (o ExecutionOutcome) Finished() bool {
	return o != ExecutionOutcomePending
}
