package lifecycle

import (
	"errors"
	"testing"

	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

func TestCanTransitionTable(t *testing.T) {
	allowed := map[Status]Event{
		StatusNew:           EventSendProposals,
		StatusProposalsSent: EventProposeToEntrepreneur,
		StatusSelection:     EventSelectStudent,
		StatusPayment:       EventConfirmPayment,
		StatusActive:        EventComplete,
	}
	events := []Event{
		EventSendProposals, EventProposeToEntrepreneur, EventSelectStudent,
		EventConfirmPayment, EventComplete,
	}

	for _, status := range ValidStatuses() {
		for _, event := range events {
			want := allowed[status] == event
			if got := CanTransition(status, event); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", status, event, got, want)
			}
		}
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	for _, event := range []Event{
		EventSendProposals, EventProposeToEntrepreneur, EventSelectStudent,
		EventConfirmPayment, EventComplete,
	} {
		if CanTransition(StatusCompleted, event) {
			t.Errorf("CanTransition(STEP6, %s) = true, want false", event)
		}
	}
}

func TestPlanRejectsWrongSource(t *testing.T) {
	_, _, err := Plan(1, StatusNew, EventComplete, Params{})
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("Plan from STEP1 with COMPLETE: err = %v, want ErrInvalidTransition", err)
	}
}

func TestPlanRejectsUnknownEvent(t *testing.T) {
	_, _, err := Plan(1, StatusNew, Event("TELEPORT"), Params{})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("Plan with unknown event: err = %v, want ErrValidationFailed", err)
	}
}

func TestPlanSelectStudentCommands(t *testing.T) {
	next, cmds, err := Plan(7, StatusSelection, EventSelectStudent, Params{StudentID: 3})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if next != StatusPayment {
		t.Errorf("next = %s, want %s", next, StatusPayment)
	}

	wantNames := []string{"set_selected_student", "swap_availability", "add_group_member", "post_group_message"}
	if len(cmds) != len(wantNames) {
		t.Fatalf("got %d commands, want %d", len(cmds), len(wantNames))
	}
	for i, name := range wantNames {
		if cmds[i].Name() != name {
			t.Errorf("command[%d] = %s, want %s", i, cmds[i].Name(), name)
		}
		if !cmds[i].Transactional() {
			t.Errorf("command %s should be transactional", name)
		}
	}

	sel, ok := cmds[0].(SetSelectedStudent)
	if !ok || sel.StudentID != 3 || sel.ProjectID != 7 {
		t.Errorf("SetSelectedStudent = %+v, want student 3 on project 7", cmds[0])
	}
}

func TestPlanSelectStudentRequiresStudent(t *testing.T) {
	_, _, err := Plan(7, StatusSelection, EventSelectStudent, Params{})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("Plan without student: err = %v, want ErrValidationFailed", err)
	}
}

func TestPlanConfirmPaymentCommands(t *testing.T) {
	next, cmds, err := Plan(7, StatusPayment, EventConfirmPayment, Params{
		PaymentIntentID: "pi_123",
		AmountMinor:     50000,
		Currency:        "eur",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if next != StatusActive {
		t.Errorf("next = %s, want %s", next, StatusActive)
	}

	var invoice *IssueInvoice
	var receipt *SendReceipt
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case IssueInvoice:
			invoice = &c
		case SendReceipt:
			receipt = &c
		}
	}

	if invoice == nil {
		t.Fatal("no IssueInvoice command planned")
	}
	if invoice.PaymentIntentID != "pi_123" || invoice.AmountMinor != 50000 {
		t.Errorf("IssueInvoice = %+v", invoice)
	}
	if !invoice.Transactional() {
		t.Error("IssueInvoice should be transactional")
	}

	if receipt == nil {
		t.Fatal("no SendReceipt command planned")
	}
	if receipt.Transactional() {
		t.Error("SendReceipt must be best-effort, not transactional")
	}
}

func TestPlanConfirmPaymentRequiresIntent(t *testing.T) {
	_, _, err := Plan(7, StatusPayment, EventConfirmPayment, Params{})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("Plan without intent: err = %v, want ErrValidationFailed", err)
	}
}

func TestPlanCompleteCommands(t *testing.T) {
	next, cmds, err := Plan(7, StatusActive, EventComplete, Params{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if next != StatusCompleted {
		t.Errorf("next = %s, want %s", next, StatusCompleted)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	if cmds[0].Name() != "release_availability" {
		t.Errorf("command[0] = %s, want release_availability", cmds[0].Name())
	}
}
