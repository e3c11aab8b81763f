package lifecycle

import "testing"

func TestNormalizeStatusSteps(t *testing.T) {
	for _, s := range ValidStatuses() {
		got, ok := NormalizeStatus(string(s))
		if !ok {
			t.Fatalf("NormalizeStatus(%q) not ok", s)
		}
		if got != s {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestNormalizeStatusLegacyAliases(t *testing.T) {
	cases := map[string]Status{
		"draft":       StatusNew,
		"open":        StatusProposalsSent,
		"review":      StatusSelection,
		"in_progress": StatusActive,
		"completed":   StatusCompleted,
	}
	for raw, want := range cases {
		got, ok := NormalizeStatus(raw)
		if !ok {
			t.Fatalf("NormalizeStatus(%q) not ok", raw)
		}
		if got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "STEP7", "pending", "Draft", "step1"} {
		if got, ok := NormalizeStatus(raw); ok {
			t.Errorf("NormalizeStatus(%q) = %q, want not ok", raw, got)
		}
	}
}

func TestValidStatusesOrder(t *testing.T) {
	want := []Status{StatusNew, StatusProposalsSent, StatusSelection, StatusPayment, StatusActive, StatusCompleted}
	got := ValidStatuses()
	if len(got) != len(want) {
		t.Fatalf("ValidStatuses() returned %d statuses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ValidStatuses()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
