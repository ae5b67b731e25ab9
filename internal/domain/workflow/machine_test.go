package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateInProgress, false},
		{StateApproved, true},
		{StateRejected, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"in progress", StateInProgress, true},
		{"cancelled", StateCancelled, true},
		{"unknown", State("INVALID"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildApprovalStateMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		initial State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{"advance keeps instance in progress", StateInProgress, TriggerAdvance, StateInProgress, false},
		{"approve finalizes", StateInProgress, TriggerApprove, StateApproved, false},
		{"reject terminates", StateInProgress, TriggerReject, StateRejected, false},
		{"cancel terminates", StateInProgress, TriggerCancel, StateCancelled, false},
		{"approved permits nothing", StateApproved, TriggerAdvance, StateApproved, true},
		{"rejected permits nothing", StateRejected, TriggerApprove, StateRejected, true},
		{"cancelled permits nothing", StateCancelled, TriggerReject, StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine, err := BuildApprovalStateMachine(tt.initial)
			if err != nil {
				t.Fatalf("BuildApprovalStateMachine() error = %v", err)
			}

			err = machine.Fire(tt.trigger)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fire() error = %v", err)
			}
			if machine.State() != tt.want {
				t.Errorf("State() = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestBuildApprovalStateMachine_InvalidInitialState(t *testing.T) {
	_, err := BuildApprovalStateMachine(State("BOGUS"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("BuildApprovalStateMachine() error = %v, want ErrInvalidState", err)
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	machine, err := BuildApprovalStateMachine(StateInProgress)
	if err != nil {
		t.Fatalf("BuildApprovalStateMachine() error = %v", err)
	}

	if !machine.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) = false, want true")
	}

	if err := machine.Fire(TriggerApprove); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	if machine.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) after approval = true, want false")
	}
	if got := machine.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() = %v, want empty", got)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	machine, err := BuildApprovalStateMachine(StateInProgress)
	if err != nil {
		t.Fatalf("BuildApprovalStateMachine() error = %v", err)
	}

	want := []Trigger{TriggerAdvance, TriggerApprove, TriggerCancel, TriggerReject}
	got := machine.PermittedTriggers()
	if len(got) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
