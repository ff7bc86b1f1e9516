package result

import "testing"

func TestBillable(t *testing.T) {
	billable := []Status{StatusOK, StatusError, StatusTimedOut, StatusResourceExceeded}
	for _, s := range billable {
		if !s.Billable() {
			t.Fatalf("status %s should be billable", s)
		}
	}
	if StatusSetupFailure.Billable() {
		t.Fatalf("setup failures must never be billed")
	}
}
