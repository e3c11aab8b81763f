package lifecycle

// Command is a side effect planned by the machine. Transactional commands
// run inside the same transaction as the status update; best-effort
// commands run after commit and must never fail the transition.
type Command interface {
	// Name identifies the command kind for logging and auditing.
	Name() string
	// Transactional reports whether the command belongs inside the
	// transition's database transaction.
	Transactional() bool
}

// SetSelectedStudent writes selected_student_id onto the project.
type SetSelectedStudent struct {
	ProjectID int64
	StudentID int64
}

func (SetSelectedStudent) Name() string        { return "set_selected_student" }
func (SetSelectedStudent) Transactional() bool { return true }

// SwapAvailability marks the selected student unavailable and every other
// proposed student available again.
type SwapAvailability struct {
	ProjectID         int64
	SelectedStudentID int64
}

func (SwapAvailability) Name() string        { return "swap_availability" }
func (SwapAvailability) Transactional() bool { return true }

// ReleaseAvailability frees the project's selected student, if any.
type ReleaseAvailability struct {
	ProjectID int64
}

func (ReleaseAvailability) Name() string        { return "release_availability" }
func (ReleaseAvailability) Transactional() bool { return true }

// AddGroupMember inserts the selected student into the project's message group.
type AddGroupMember struct {
	ProjectID int64
	StudentID int64
}

func (AddGroupMember) Name() string        { return "add_group_member" }
func (AddGroupMember) Transactional() bool { return true }

// EnsureGroupMembership re-asserts that the selected student is a member of
// the project's message group. Idempotent by construction.
type EnsureGroupMembership struct {
	ProjectID int64
}

func (EnsureGroupMembership) Name() string        { return "ensure_group_membership" }
func (EnsureGroupMembership) Transactional() bool { return true }

// PostGroupMessage announces the transition in the project's message group.
type PostGroupMessage struct {
	ProjectID int64
	Content   string
}

func (PostGroupMessage) Name() string        { return "post_group_message" }
func (PostGroupMessage) Transactional() bool { return true }

// IssueInvoice writes the invoice row for a captured payment.
type IssueInvoice struct {
	ProjectID       int64
	PaymentIntentID string
	AmountMinor     int64
	Currency        string
}

func (IssueInvoice) Name() string        { return "issue_invoice" }
func (IssueInvoice) Transactional() bool { return true }

// SendReceipt emails the entrepreneur a payment receipt. Best-effort: runs
// after commit, a failure is logged and does not undo the transition.
type SendReceipt struct {
	ProjectID   int64
	AmountMinor int64
	Currency    string
}

func (SendReceipt) Name() string        { return "send_receipt" }
func (SendReceipt) Transactional() bool { return false }
