package workflow

// BuildApprovalStateMachine configures the approval instance lifecycle:
//
//	IN_PROGRESS --ADVANCE--> IN_PROGRESS   (step approved, more steps pending)
//	IN_PROGRESS --APPROVE--> APPROVED      (last pending step approved)
//	IN_PROGRESS --REJECT---> REJECTED      (single rejection is terminal)
//	IN_PROGRESS --CANCEL---> CANCELLED     (submitter withdrew the order)
//
// Terminal states permit nothing.
func BuildApprovalStateMachine(current State) (StateMachine, error) {
	builder := NewBuilder()

	builder.Configure(StateInProgress).
		Permit(TriggerAdvance, StateInProgress).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerCancel, StateCancelled)

	return builder.Build(current)
}
