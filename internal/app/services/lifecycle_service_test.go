package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/lifecycle"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/db"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/gateway"
)

// In-memory fakes implementing the narrow store interfaces. The fake tx
// runner hands the function a nil pgx.Tx; fakes never touch it.

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	return fn(ctx, nil)
}

type fakeProjectStore struct {
	projects map[int64]*models.Project
}

func (f *fakeProjectStore) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectStore) UpdateStatusTx(ctx context.Context, tx pgx.Tx, projectID int64, from, to string) error {
	p, ok := f.projects[projectID]
	if !ok {
		return apperrors.ErrProjectNotFound
	}
	if p.Status != from {
		return apperrors.ErrInvalidTransition
	}
	p.Status = to
	return nil
}

func (f *fakeProjectStore) SetSelectedStudentTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error {
	p, ok := f.projects[projectID]
	if !ok {
		return apperrors.ErrProjectNotFound
	}
	sid := studentID
	p.SelectedStudentID = &sid
	return nil
}

type fakeStudentStore struct {
	students  map[int64]*models.Student
	projects  *fakeProjectStore
	shortlist map[int64][]int64
}

func (f *fakeStudentStore) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return s, nil
}

func (f *fakeStudentStore) HandleSelectionTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error {
	for _, id := range f.shortlist[projectID] {
		if s, ok := f.students[id]; ok {
			s.Available = true
		}
	}
	s, ok := f.students[studentID]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	s.Available = false

	p, ok := f.projects.projects[projectID]
	if !ok {
		return apperrors.ErrProjectNotFound
	}
	sid := studentID
	p.SelectedStudentID = &sid
	return nil
}

func (f *fakeStudentStore) ReleaseByProjectTx(ctx context.Context, tx pgx.Tx, projectID int64) (int64, error) {
	p, ok := f.projects.projects[projectID]
	if !ok || p.SelectedStudentID == nil {
		return 0, nil
	}
	s, ok := f.students[*p.SelectedStudentID]
	if !ok {
		return 0, nil
	}
	s.Available = true
	return 1, nil
}

type fakeEntrepreneurStore struct {
	byID     map[int64]*models.Entrepreneur
	byUserID map[int64]*models.Entrepreneur
}

func (f *fakeEntrepreneurStore) GetByID(ctx context.Context, id int64) (*models.Entrepreneur, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrEntrepreneurNotFound
	}
	return e, nil
}

func (f *fakeEntrepreneurStore) GetByUserID(ctx context.Context, userID int64) (*models.Entrepreneur, error) {
	e, ok := f.byUserID[userID]
	if !ok {
		return nil, apperrors.ErrEntrepreneurNotFound
	}
	return e, nil
}

type fakeProposalStore struct {
	shortlist map[int64][]int64
	accepted  map[int64]map[int64]bool
}

func (f *fakeProposalStore) CountByProject(ctx context.Context, projectID int64) (int64, error) {
	return int64(len(f.shortlist[projectID])), nil
}

func (f *fakeProposalStore) CountAccepted(ctx context.Context, projectID int64) (int64, error) {
	var n int64
	for _, ok := range f.accepted[projectID] {
		if ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeProposalStore) IsAccepted(ctx context.Context, projectID, studentID int64) (bool, error) {
	return f.accepted[projectID][studentID], nil
}

type fakeMessageStore struct {
	groups   map[int64]*models.MessageGroup // keyed by project id
	members  map[int64][]int64              // group id -> user ids
	messages []models.Message
	nextID   int64
}

func (f *fakeMessageStore) GetGroupByProjectID(ctx context.Context, projectID int64) (*models.MessageGroup, error) {
	g, ok := f.groups[projectID]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	return g, nil
}

func (f *fakeMessageStore) AddMemberTx(ctx context.Context, tx pgx.Tx, groupID, userID int64) error {
	for _, id := range f.members[groupID] {
		if id == userID {
			return nil
		}
	}
	f.members[groupID] = append(f.members[groupID], userID)
	return nil
}

func (f *fakeMessageStore) CreateMessageTx(ctx context.Context, tx pgx.Tx, m *models.Message) error {
	f.nextID++
	m.ID = f.nextID
	f.messages = append(f.messages, *m)
	return nil
}

type fakeTransitionStore struct {
	applied map[string]models.ProjectTransition
}

func (f *fakeTransitionStore) InsertTx(ctx context.Context, tx pgx.Tx, t *models.ProjectTransition) error {
	if _, ok := f.applied[t.IdempotencyKey]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	f.applied[t.IdempotencyKey] = *t
	return nil
}

func (f *fakeTransitionStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.applied[key]
	return ok, nil
}

type fakeInvoiceStore struct {
	byIntent  map[string]*models.Invoice
	byProject map[int64]*models.Invoice
	seq       int64
}

func (f *fakeInvoiceStore) NextNumberTx(ctx context.Context, tx pgx.Tx) (string, error) {
	f.seq++
	return fmt.Sprintf("TIRO-2026-%06d", f.seq), nil
}

func (f *fakeInvoiceStore) CreateTx(ctx context.Context, tx pgx.Tx, inv *models.Invoice) error {
	if _, ok := f.byIntent[inv.PaymentIntentID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	f.byIntent[inv.PaymentIntentID] = inv
	f.byProject[inv.ProjectID] = inv
	return nil
}

func (f *fakeInvoiceStore) GetByProjectID(ctx context.Context, projectID int64) (*models.Invoice, error) {
	inv, ok := f.byProject[projectID]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	return inv, nil
}

type fakeEmailService struct {
	receipts  int
	proposals int
	completed int
}

func (f *fakeEmailService) SendPaymentReceipt(toEmail, toName, projectTitle, invoiceNumber string, amountMinor int64, currency string) error {
	f.receipts++
	return nil
}

func (f *fakeEmailService) SendProposalNotification(toEmail, toName, projectTitle string) error {
	f.proposals++
	return nil
}

func (f *fakeEmailService) SendProjectCompleted(toEmail, toName, projectTitle string) error {
	f.completed++
	return nil
}

// testEnv wires a lifecycle service over fakes. Project 1 belongs to
// entrepreneur 1 (user 10); students 1..3 (users 21..23) are on the
// shortlist; user 99 is the system account.
type testEnv struct {
	service      LifecycleService
	projects     *fakeProjectStore
	students     *fakeStudentStore
	proposals    *fakeProposalStore
	messages     *fakeMessageStore
	transitions  *fakeTransitionStore
	invoices     *fakeInvoiceStore
	emailService *fakeEmailService
}

func newTestEnv(t *testing.T, projectStatus lifecycle.Status) *testEnv {
	t.Helper()

	projects := &fakeProjectStore{projects: map[int64]*models.Project{
		1: {ID: 1, Title: "Refonte identité", Price: 500, Status: string(projectStatus), EntrepreneurID: 1},
	}}

	shortlist := map[int64][]int64{1: {1, 2, 3}}
	students := &fakeStudentStore{
		students: map[int64]*models.Student{
			1: {ID: 1, UserID: 21, Available: true},
			2: {ID: 2, UserID: 22, Available: true},
			3: {ID: 3, UserID: 23, Available: true},
		},
		projects:  projects,
		shortlist: shortlist,
	}

	entrepreneur := &models.Entrepreneur{
		ID:     1,
		UserID: 10,
		User:   &models.User{ID: 10, Email: "ent@tiro.app", FirstName: "Paul", LastName: "Martin"},
	}
	entrepreneurs := &fakeEntrepreneurStore{
		byID:     map[int64]*models.Entrepreneur{1: entrepreneur},
		byUserID: map[int64]*models.Entrepreneur{10: entrepreneur},
	}

	proposals := &fakeProposalStore{
		shortlist: shortlist,
		accepted:  map[int64]map[int64]bool{1: {}},
	}

	projectID := int64(1)
	messages := &fakeMessageStore{
		groups:  map[int64]*models.MessageGroup{1: {ID: 100, ProjectID: &projectID, Name: "Refonte identité"}},
		members: map[int64][]int64{100: {10, 99}},
	}

	transitions := &fakeTransitionStore{applied: map[string]models.ProjectTransition{}}
	invoices := &fakeInvoiceStore{
		byIntent:  map[string]*models.Invoice{},
		byProject: map[int64]*models.Invoice{},
	}
	emailService := &fakeEmailService{}

	availability := NewAvailabilityService(fakeTxRunner{}, students, zerolog.Nop())

	service := NewLifecycleService(
		fakeTxRunner{},
		projects, students, entrepreneurs, proposals, messages, transitions, invoices,
		availability, emailService, 99, zerolog.Nop(),
	)

	return &testEnv{
		service:      service,
		projects:     projects,
		students:     students,
		proposals:    proposals,
		messages:     messages,
		transitions:  transitions,
		invoices:     invoices,
		emailService: emailService,
	}
}

func succeededIntent(amount int64) *gateway.Intent {
	return &gateway.Intent{
		ID:       "pi_test_1",
		Amount:   amount,
		Currency: "eur",
		Status:   gateway.IntentStatusSucceeded,
		Metadata: map[string]string{"projectId": "1"},
	}
}

func TestFullLifecycleFlow(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusNew)
	ctx := context.Background()

	// STEP1 -> STEP2
	res, err := env.service.SendProposals(ctx, 1)
	if err != nil {
		t.Fatalf("SendProposals: %v", err)
	}
	if res.Status != lifecycle.StatusProposalsSent {
		t.Fatalf("status = %s, want STEP2", res.Status)
	}

	// Students 1 and 2 accept; 3 never answers.
	env.proposals.accepted[1][1] = true
	env.proposals.accepted[1][2] = true

	// STEP2 -> STEP3 posts an announcement.
	res, err = env.service.ProposeToEntrepreneur(ctx, 1)
	if err != nil {
		t.Fatalf("ProposeToEntrepreneur: %v", err)
	}
	if res.Status != lifecycle.StatusSelection {
		t.Fatalf("status = %s, want STEP3", res.Status)
	}
	if len(env.messages.messages) != 1 {
		t.Fatalf("got %d group messages, want 1", len(env.messages.messages))
	}

	// STEP3 -> STEP4: entrepreneur picks student 2.
	res, err = env.service.SelectStudent(ctx, 1, 10, 2)
	if err != nil {
		t.Fatalf("SelectStudent: %v", err)
	}
	if res.Status != lifecycle.StatusPayment {
		t.Fatalf("status = %s, want STEP4", res.Status)
	}

	proj := env.projects.projects[1]
	if proj.SelectedStudentID == nil || *proj.SelectedStudentID != 2 {
		t.Fatalf("selected student = %v, want 2", proj.SelectedStudentID)
	}
	if env.students.students[2].Available {
		t.Error("selected student should be unavailable")
	}
	if !env.students.students[1].Available || !env.students.students[3].Available {
		t.Error("non-selected shortlisted students should be available")
	}

	// Student 2's user joined the project group.
	found := false
	for _, id := range env.messages.members[100] {
		if id == 22 {
			found = true
		}
	}
	if !found {
		t.Error("selected student's user not added to project group")
	}

	// STEP4 -> STEP5 on a succeeded intent.
	res, err = env.service.ConfirmPayment(ctx, 1, succeededIntent(50000))
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if res.Status != lifecycle.StatusActive {
		t.Fatalf("status = %s, want STEP5", res.Status)
	}
	if res.AlreadyApplied {
		t.Error("first confirmation should not be a replay")
	}

	inv, ok := env.invoices.byIntent["pi_test_1"]
	if !ok {
		t.Fatal("no invoice issued")
	}
	if inv.AmountMinor != 50000 || inv.ProjectID != 1 {
		t.Errorf("invoice = %+v", inv)
	}
	if env.emailService.receipts != 1 {
		t.Errorf("receipts sent = %d, want 1", env.emailService.receipts)
	}

	// STEP5 -> STEP6 releases the student.
	res, err = env.service.Complete(ctx, 1)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Status != lifecycle.StatusCompleted {
		t.Fatalf("status = %s, want STEP6", res.Status)
	}
	if !env.students.students[2].Available {
		t.Error("selected student should be available after completion")
	}
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusPayment)
	ctx := context.Background()

	if _, err := env.service.ConfirmPayment(ctx, 1, succeededIntent(50000)); err != nil {
		t.Fatalf("first ConfirmPayment: %v", err)
	}

	res, err := env.service.ConfirmPayment(ctx, 1, succeededIntent(50000))
	if err != nil {
		t.Fatalf("second ConfirmPayment: %v", err)
	}
	if !res.AlreadyApplied {
		t.Error("second confirmation should report already applied")
	}

	if len(env.invoices.byIntent) != 1 {
		t.Errorf("got %d invoices, want exactly 1", len(env.invoices.byIntent))
	}
	if env.projects.projects[1].Status != string(lifecycle.StatusActive) {
		t.Errorf("project status = %s, want STEP5", env.projects.projects[1].Status)
	}
	if env.emailService.receipts != 1 {
		t.Errorf("receipts sent = %d, want 1", env.emailService.receipts)
	}
}

func TestConfirmPaymentRejectsNonSucceededIntent(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusPayment)

	intent := succeededIntent(50000)
	intent.Status = "processing"

	_, err := env.service.ConfirmPayment(context.Background(), 1, intent)
	if !errors.Is(err, apperrors.ErrPaymentNotSucceeded) {
		t.Fatalf("err = %v, want ErrPaymentNotSucceeded", err)
	}
	if env.projects.projects[1].Status != string(lifecycle.StatusPayment) {
		t.Error("project status should not change on a pending intent")
	}
	if len(env.invoices.byIntent) != 0 {
		t.Error("no invoice should be issued for a pending intent")
	}
}

func TestSendProposalsRequiresShortlist(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusNew)
	env.proposals.shortlist[1] = nil

	_, err := env.service.SendProposals(context.Background(), 1)
	if !errors.Is(err, apperrors.ErrNoProposals) {
		t.Fatalf("err = %v, want ErrNoProposals", err)
	}
	if env.projects.projects[1].Status != string(lifecycle.StatusNew) {
		t.Error("guard failure must leave the status untouched")
	}
}

func TestProposeToEntrepreneurRequiresAcceptance(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusProposalsSent)

	_, err := env.service.ProposeToEntrepreneur(context.Background(), 1)
	if !errors.Is(err, apperrors.ErrNoAcceptedStudent) {
		t.Fatalf("err = %v, want ErrNoAcceptedStudent", err)
	}
}

func TestSelectStudentRequiresAcceptedStudent(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusSelection)
	env.proposals.accepted[1][1] = true

	// Student 3 never accepted.
	_, err := env.service.SelectStudent(context.Background(), 1, 10, 3)
	if !errors.Is(err, apperrors.ErrStudentNotInSet) {
		t.Fatalf("err = %v, want ErrStudentNotInSet", err)
	}
	if env.students.students[3].Available != true {
		t.Error("rejected selection must not touch availability")
	}
}

func TestSelectStudentRequiresOwnership(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusSelection)
	env.proposals.accepted[1][2] = true

	_, err := env.service.SelectStudent(context.Background(), 1, 777, 2)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestTransitionRejectedFromWrongStatus(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusNew)

	_, err := env.service.Complete(context.Background(), 1)
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionReplayIsNoOp(t *testing.T) {
	env := newTestEnv(t, lifecycle.StatusNew)
	ctx := context.Background()

	if _, err := env.service.SendProposals(ctx, 1); err != nil {
		t.Fatalf("SendProposals: %v", err)
	}

	// Same event again: the idempotency record short-circuits before the
	// status guard would reject it.
	res, err := env.service.SendProposals(ctx, 1)
	if err != nil {
		t.Fatalf("replayed SendProposals: %v", err)
	}
	if !res.AlreadyApplied {
		t.Error("replay should report already applied")
	}
	if env.projects.projects[1].Status != string(lifecycle.StatusProposalsSent) {
		t.Errorf("status = %s, want STEP2", env.projects.projects[1].Status)
	}
}
