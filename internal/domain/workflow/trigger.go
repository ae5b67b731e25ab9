package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerAdvance fires when a step is approved but later steps remain pending
	TriggerAdvance Trigger = "ADVANCE"
	// TriggerApprove fires when the last pending step is approved
	TriggerApprove Trigger = "APPROVE"
	// TriggerReject fires on any rejection; one rejection ends the instance
	TriggerReject Trigger = "REJECT"
	// TriggerCancel fires when the submitter withdraws the order
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
