package lifecycle

// Status is the project's lifecycle state tag as persisted in
// projects.status. The sequence is linear with no cycles.
type Status string

const (
	StatusNew           Status = "STEP1" // created, waiting for admin shortlist
	StatusProposalsSent Status = "STEP2" // proposals sent to shortlisted students
	StatusSelection     Status = "STEP3" // accepted set shown to entrepreneur
	StatusPayment       Status = "STEP4" // student selected, payment pending
	StatusActive        Status = "STEP5" // payment captured, work in progress
	StatusCompleted     Status = "STEP6" // closed by admin
)

// legacyAliases maps the pre-migration free-text statuses still present in
// old rows to their step values. The old schema had no payment step, so
// STEP4 has no alias.
var legacyAliases = map[string]Status{
	"draft":       StatusNew,
	"open":        StatusProposalsSent,
	"review":      StatusSelection,
	"in_progress": StatusActive,
	"completed":   StatusCompleted,
}

// NormalizeStatus resolves a raw status column value to a Status, accepting
// both step values and legacy aliases. ok is false for anything else.
func NormalizeStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusNew, StatusProposalsSent, StatusSelection, StatusPayment, StatusActive, StatusCompleted:
		return Status(raw), true
	}
	if s, found := legacyAliases[raw]; found {
		return s, true
	}
	return "", false
}

// ValidStatuses returns every step value in order.
func ValidStatuses() []Status {
	return []Status{
		StatusNew,
		StatusProposalsSent,
		StatusSelection,
		StatusPayment,
		StatusActive,
		StatusCompleted,
	}
}
