package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/lifecycle"
	"github.com/tiroapp/tiro-backend/internal/app/models"
)

func newAvailabilityEnv() (*fakeStudentStore, AvailabilityService) {
	projects := &fakeProjectStore{projects: map[int64]*models.Project{
		1: {ID: 1, Status: string(lifecycle.StatusSelection), EntrepreneurID: 1},
	}}
	students := &fakeStudentStore{
		students: map[int64]*models.Student{
			1: {ID: 1, UserID: 21, Available: true},
			2: {ID: 2, UserID: 22, Available: false}, // busy on another project
			3: {ID: 3, UserID: 23, Available: true},
		},
		projects:  projects,
		shortlist: map[int64][]int64{1: {1, 2, 3}},
	}
	return students, NewAvailabilityService(fakeTxRunner{}, students, zerolog.Nop())
}

func TestHandleStudentSelection(t *testing.T) {
	students, svc := newAvailabilityEnv()

	if err := svc.HandleStudentSelection(context.Background(), 1, 3); err != nil {
		t.Fatalf("HandleStudentSelection: %v", err)
	}

	if students.students[3].Available {
		t.Error("selected student should be unavailable")
	}
	// The whole shortlist is freed first, including students busy before.
	if !students.students[1].Available || !students.students[2].Available {
		t.Error("non-selected shortlisted students should be available")
	}

	p := students.projects.projects[1]
	if p.SelectedStudentID == nil || *p.SelectedStudentID != 3 {
		t.Errorf("selected_student_id = %v, want 3", p.SelectedStudentID)
	}
}

func TestHandleProjectCompletionReleasesStudent(t *testing.T) {
	students, svc := newAvailabilityEnv()
	ctx := context.Background()

	if err := svc.HandleStudentSelection(ctx, 1, 1); err != nil {
		t.Fatalf("HandleStudentSelection: %v", err)
	}
	if err := svc.HandleProjectCompletion(ctx, 1); err != nil {
		t.Fatalf("HandleProjectCompletion: %v", err)
	}

	if !students.students[1].Available {
		t.Error("student should be available after project completion")
	}
}

func TestHandleProjectCompletionWithoutSelection(t *testing.T) {
	_, svc := newAvailabilityEnv()

	// No student selected: completion is a no-op, not an error.
	if err := svc.HandleProjectCompletion(context.Background(), 1); err != nil {
		t.Fatalf("HandleProjectCompletion: %v", err)
	}
}
