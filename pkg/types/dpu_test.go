package types

import "testing"

func TestTransitionStateValid(t *testing.T) {
	tests := []struct {
		state TransitionState
		want  bool
	}{
		{StateDetaching, true},
		{StateAttaching, true},
		{"", false},
		{"resetting", false},
		{"Detaching", false},
	}

	for _, tt := range tests {
		if got := tt.state.Valid(); got != tt.want {
			t.Errorf("TransitionState(%q).Valid() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestPCIeDetachKey(t *testing.T) {
	if got := PCIeDetachKey("0000:01:00.0"); got != "PCIE_DETACH_INFO|0000:01:00.0" {
		t.Errorf("PCIeDetachKey() = %q", got)
	}
}
