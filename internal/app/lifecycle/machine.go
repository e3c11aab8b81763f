package lifecycle

import (
	"fmt"

	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

// Event is a lifecycle trigger. Each event moves a project exactly one step
// forward; no event is reversible.
type Event string

const (
	EventSendProposals         Event = "SEND_PROPOSALS"          // admin: shortlist goes out to students
	EventProposeToEntrepreneur Event = "PROPOSE_TO_ENTREPRENEUR" // admin: accepted set shown to entrepreneur
	EventSelectStudent         Event = "SELECT_STUDENT"          // entrepreneur: picks one student
	EventConfirmPayment        Event = "CONFIRM_PAYMENT"         // gateway: intent captured
	EventComplete              Event = "COMPLETE"                // admin: closes the project
)

// transitions is the full machine: one source state per event.
var transitions = map[Event]struct{ from, to Status }{
	EventSendProposals:         {StatusNew, StatusProposalsSent},
	EventProposeToEntrepreneur: {StatusProposalsSent, StatusSelection},
	EventSelectStudent:         {StatusSelection, StatusPayment},
	EventConfirmPayment:        {StatusPayment, StatusActive},
	EventComplete:              {StatusActive, StatusCompleted},
}

// CanTransition reports whether event is legal from the current status.
func CanTransition(current Status, event Event) bool {
	t, ok := transitions[event]
	return ok && t.from == current
}

// Next returns the status an event leads to.
func Next(event Event) (Status, bool) {
	t, ok := transitions[event]
	return t.to, ok
}

// Params carries the per-event inputs a transition needs.
type Params struct {
	// SelectStudent
	StudentID int64
	// ConfirmPayment
	PaymentIntentID string
	AmountMinor     int64
	Currency        string
}

// Plan validates an event against the current status and returns the next
// status plus the ordered side-effect commands. Commands are data, not
// executed here, so the caller can run them inside one transaction and
// retry or audit them independently of the state change.
func Plan(projectID int64, current Status, event Event, p Params) (Status, []Command, error) {
	t, ok := transitions[event]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown lifecycle event %q", apperrors.ErrValidationFailed, event)
	}
	if t.from != current {
		return "", nil, fmt.Errorf("%w: event %s not allowed from status %s", apperrors.ErrInvalidTransition, event, current)
	}

	var cmds []Command
	switch event {
	case EventSendProposals:
		// Status change only; the guard (>=1 proposal row) is checked by the
		// service against the store.

	case EventProposeToEntrepreneur:
		cmds = append(cmds, PostGroupMessage{
			ProjectID: projectID,
			Content:   "Des profils ont été proposés pour votre projet. Vous pouvez maintenant choisir votre étudiant.",
		})

	case EventSelectStudent:
		if p.StudentID <= 0 {
			return "", nil, fmt.Errorf("%w: a student must be selected", apperrors.ErrValidationFailed)
		}
		cmds = append(cmds,
			SetSelectedStudent{ProjectID: projectID, StudentID: p.StudentID},
			SwapAvailability{ProjectID: projectID, SelectedStudentID: p.StudentID},
			AddGroupMember{ProjectID: projectID, StudentID: p.StudentID},
			PostGroupMessage{
				ProjectID: projectID,
				Content:   "Un étudiant a été sélectionné pour le projet. Le paiement peut être effectué.",
			},
		)

	case EventConfirmPayment:
		if p.PaymentIntentID == "" {
			return "", nil, fmt.Errorf("%w: payment intent id is required", apperrors.ErrValidationFailed)
		}
		cmds = append(cmds,
			IssueInvoice{
				ProjectID:       projectID,
				PaymentIntentID: p.PaymentIntentID,
				AmountMinor:     p.AmountMinor,
				Currency:        p.Currency,
			},
			EnsureGroupMembership{ProjectID: projectID},
			SendReceipt{ProjectID: projectID, AmountMinor: p.AmountMinor, Currency: p.Currency},
		)

	case EventComplete:
		cmds = append(cmds,
			ReleaseAvailability{ProjectID: projectID},
			PostGroupMessage{
				ProjectID: projectID,
				Content:   "Le projet est terminé. Merci d'avoir utilisé Tiro !",
			},
		)
	}

	return t.to, cmds, nil
}
