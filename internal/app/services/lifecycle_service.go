package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/lifecycle"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/email"
	"github.com/tiroapp/tiro-backend/internal/pkg/gateway"
	"github.com/tiroapp/tiro-backend/internal/pkg/metrics"
)

// Narrow store views so transition tests can run on in-memory fakes.
type lifecycleProjectStore interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, projectID int64, from, to string) error
	SetSelectedStudentTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error
}

type lifecycleStudentStore interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
}

type lifecycleEntrepreneurStore interface {
	GetByID(ctx context.Context, id int64) (*models.Entrepreneur, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Entrepreneur, error)
}

type lifecycleProposalStore interface {
	CountByProject(ctx context.Context, projectID int64) (int64, error)
	CountAccepted(ctx context.Context, projectID int64) (int64, error)
	IsAccepted(ctx context.Context, projectID, studentID int64) (bool, error)
}

type lifecycleMessageStore interface {
	GetGroupByProjectID(ctx context.Context, projectID int64) (*models.MessageGroup, error)
	AddMemberTx(ctx context.Context, tx pgx.Tx, groupID, userID int64) error
	CreateMessageTx(ctx context.Context, tx pgx.Tx, m *models.Message) error
}

type lifecycleTransitionStore interface {
	InsertTx(ctx context.Context, tx pgx.Tx, t *models.ProjectTransition) error
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

type lifecycleInvoiceStore interface {
	NextNumberTx(ctx context.Context, tx pgx.Tx) (string, error)
	CreateTx(ctx context.Context, tx pgx.Tx, inv *models.Invoice) error
	GetByProjectID(ctx context.Context, projectID int64) (*models.Invoice, error)
}

// availabilityTxHandler is the slice of AvailabilityService the lifecycle
// commands use inside their transaction.
type availabilityTxHandler interface {
	HandleStudentSelectionTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error
	HandleProjectCompletionTx(ctx context.Context, tx pgx.Tx, projectID int64) error
}

// TransitionResult reports an applied (or replayed) lifecycle transition.
type TransitionResult struct {
	ProjectID      int64
	Status         lifecycle.Status
	Event          lifecycle.Event
	AlreadyApplied bool
}

// LifecycleService applies project lifecycle transitions. Each operation
// validates the machine's guard, then runs the status update and the
// transactional side-effect commands in one database transaction keyed by
// an idempotency token, so retries and concurrent submissions collapse to
// a single application.
type LifecycleService interface {
	SendProposals(ctx context.Context, projectID int64) (*TransitionResult, error)
	ProposeToEntrepreneur(ctx context.Context, projectID int64) (*TransitionResult, error)
	SelectStudent(ctx context.Context, projectID, callerUserID, studentID int64) (*TransitionResult, error)
	ConfirmPayment(ctx context.Context, projectID int64, intent *gateway.Intent) (*TransitionResult, error)
	Complete(ctx context.Context, projectID int64) (*TransitionResult, error)
}

type lifecycleServiceImpl struct {
	tx            TxRunner
	projects      lifecycleProjectStore
	students      lifecycleStudentStore
	entrepreneurs lifecycleEntrepreneurStore
	proposals     lifecycleProposalStore
	messages      lifecycleMessageStore
	transitions   lifecycleTransitionStore
	invoices      lifecycleInvoiceStore
	availability  availabilityTxHandler
	emailService  email.EmailService
	// systemUserID signs the lifecycle announcements posted into project
	// message groups (the seeded admin account).
	systemUserID int64
	logger       zerolog.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	tx TxRunner,
	projects lifecycleProjectStore,
	students lifecycleStudentStore,
	entrepreneurs lifecycleEntrepreneurStore,
	proposals lifecycleProposalStore,
	messages lifecycleMessageStore,
	transitions lifecycleTransitionStore,
	invoices lifecycleInvoiceStore,
	availability availabilityTxHandler,
	emailService email.EmailService,
	systemUserID int64,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleServiceImpl{
		tx:            tx,
		projects:      projects,
		students:      students,
		entrepreneurs: entrepreneurs,
		proposals:     proposals,
		messages:      messages,
		transitions:   transitions,
		invoices:      invoices,
		availability:  availability,
		emailService:  emailService,
		systemUserID:  systemUserID,
		logger:        logger,
	}
}

func (s *lifecycleServiceImpl) SendProposals(ctx context.Context, projectID int64) (*TransitionResult, error) {
	return s.apply(ctx, projectID, lifecycle.EventSendProposals, lifecycle.Params{}, "")
}

func (s *lifecycleServiceImpl) ProposeToEntrepreneur(ctx context.Context, projectID int64) (*TransitionResult, error) {
	return s.apply(ctx, projectID, lifecycle.EventProposeToEntrepreneur, lifecycle.Params{}, "")
}

func (s *lifecycleServiceImpl) SelectStudent(ctx context.Context, projectID, callerUserID, studentID int64) (*TransitionResult, error) {
	proj, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Only the owning entrepreneur may select.
	ent, err := s.entrepreneurs.GetByUserID(ctx, callerUserID)
	if err != nil {
		return nil, apperrors.ErrPermissionDenied
	}
	if ent.ID != proj.EntrepreneurID {
		return nil, apperrors.ErrPermissionDenied
	}

	return s.apply(ctx, projectID, lifecycle.EventSelectStudent, lifecycle.Params{StudentID: studentID}, "")
}

func (s *lifecycleServiceImpl) ConfirmPayment(ctx context.Context, projectID int64, intent *gateway.Intent) (*TransitionResult, error) {
	if intent == nil || intent.Status != gateway.IntentStatusSucceeded {
		return nil, apperrors.ErrPaymentNotSucceeded
	}

	params := lifecycle.Params{
		PaymentIntentID: intent.ID,
		AmountMinor:     intent.Amount,
		Currency:        intent.Currency,
	}
	// Keyed by the gateway intent so the confirm endpoint and the webhook
	// replay into the same transition.
	key := fmt.Sprintf("%s:%s", lifecycle.EventConfirmPayment, intent.ID)
	return s.apply(ctx, projectID, lifecycle.EventConfirmPayment, params, key)
}

func (s *lifecycleServiceImpl) Complete(ctx context.Context, projectID int64) (*TransitionResult, error) {
	return s.apply(ctx, projectID, lifecycle.EventComplete, lifecycle.Params{}, "")
}

func (s *lifecycleServiceImpl) apply(ctx context.Context, projectID int64, event lifecycle.Event, params lifecycle.Params, idempotencyKey string) (*TransitionResult, error) {
	proj, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	current, ok := lifecycle.NormalizeStatus(proj.Status)
	if !ok {
		return nil, fmt.Errorf("%w: project %d has unknown status %q", apperrors.ErrValidationFailed, projectID, proj.Status)
	}

	if idempotencyKey == "" {
		idempotencyKey = fmt.Sprintf("%s:%d", event, projectID)
	}

	// Fast path for replays; the unique key inside the transaction remains
	// the authoritative check.
	if applied, err := s.transitions.Exists(ctx, idempotencyKey); err == nil && applied {
		return &TransitionResult{ProjectID: projectID, Status: current, Event: event, AlreadyApplied: true}, nil
	}

	next, cmds, err := lifecycle.Plan(projectID, current, event, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			metrics.TransitionsRejected.WithLabelValues(string(event)).Inc()
		}
		return nil, err
	}

	if err := s.checkGuard(ctx, projectID, event, params); err != nil {
		metrics.TransitionsRejected.WithLabelValues(string(event)).Inc()
		return nil, err
	}

	var postCommit []lifecycle.Command
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// The transition record goes first: a duplicate key aborts the
		// transaction before any side effect runs twice.
		record := &models.ProjectTransition{
			ProjectID:      projectID,
			FromStatus:     string(current),
			ToStatus:       string(next),
			Event:          string(event),
			IdempotencyKey: idempotencyKey,
		}
		if err := s.transitions.InsertTx(ctx, tx, record); err != nil {
			return err
		}

		if err := s.projects.UpdateStatusTx(ctx, tx, projectID, string(current), string(next)); err != nil {
			return err
		}

		for _, cmd := range cmds {
			if !cmd.Transactional() {
				postCommit = append(postCommit, cmd)
				continue
			}
			if err := s.runCommandTx(ctx, tx, cmd); err != nil {
				return fmt.Errorf("command %s: %w", cmd.Name(), err)
			}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			s.logger.Info().
				Int64("projectID", projectID).
				Str("event", string(event)).
				Str("idempotencyKey", idempotencyKey).
				Msg("Transition already applied, skipping")
			return &TransitionResult{ProjectID: projectID, Status: next, Event: event, AlreadyApplied: true}, nil
		}
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			metrics.TransitionsRejected.WithLabelValues(string(event)).Inc()
		}
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(event)).Inc()
	s.logger.Info().
		Int64("projectID", projectID).
		Str("event", string(event)).
		Str("from", string(current)).
		Str("to", string(next)).
		Msg("Lifecycle transition applied")

	for _, cmd := range postCommit {
		s.runCommandPostCommit(ctx, cmd)
	}

	return &TransitionResult{ProjectID: projectID, Status: next, Event: event}, nil
}

// checkGuard validates the event's store-backed precondition. The machine
// itself only knows statuses; counts and membership live here.
func (s *lifecycleServiceImpl) checkGuard(ctx context.Context, projectID int64, event lifecycle.Event, params lifecycle.Params) error {
	switch event {
	case lifecycle.EventSendProposals:
		count, err := s.proposals.CountByProject(ctx, projectID)
		if err != nil {
			return err
		}
		if count == 0 {
			return apperrors.ErrNoProposals
		}

	case lifecycle.EventProposeToEntrepreneur:
		count, err := s.proposals.CountAccepted(ctx, projectID)
		if err != nil {
			return err
		}
		if count == 0 {
			return apperrors.ErrNoAcceptedStudent
		}

	case lifecycle.EventSelectStudent:
		accepted, err := s.proposals.IsAccepted(ctx, projectID, params.StudentID)
		if err != nil {
			return err
		}
		if !accepted {
			return apperrors.ErrStudentNotInSet
		}
	}
	return nil
}

func (s *lifecycleServiceImpl) runCommandTx(ctx context.Context, tx pgx.Tx, cmd lifecycle.Command) error {
	switch c := cmd.(type) {
	case lifecycle.SetSelectedStudent:
		return s.projects.SetSelectedStudentTx(ctx, tx, c.ProjectID, c.StudentID)

	case lifecycle.SwapAvailability:
		return s.availability.HandleStudentSelectionTx(ctx, tx, c.ProjectID, c.SelectedStudentID)

	case lifecycle.ReleaseAvailability:
		return s.availability.HandleProjectCompletionTx(ctx, tx, c.ProjectID)

	case lifecycle.AddGroupMember:
		group, err := s.messages.GetGroupByProjectID(ctx, c.ProjectID)
		if err != nil {
			if errors.Is(err, apperrors.ErrGroupNotFound) {
				// Legacy projects predate per-project groups.
				s.logger.Warn().Int64("projectID", c.ProjectID).Msg("Project has no message group, member not added")
				return nil
			}
			return err
		}
		student, err := s.students.GetByID(ctx, c.StudentID)
		if err != nil {
			return err
		}
		return s.messages.AddMemberTx(ctx, tx, group.ID, student.UserID)

	case lifecycle.EnsureGroupMembership:
		proj, err := s.projects.GetByID(ctx, c.ProjectID)
		if err != nil {
			return err
		}
		if proj.SelectedStudentID == nil {
			s.logger.Warn().Int64("projectID", c.ProjectID).Msg("No selected student to add to message group")
			return nil
		}
		group, err := s.messages.GetGroupByProjectID(ctx, c.ProjectID)
		if err != nil {
			if errors.Is(err, apperrors.ErrGroupNotFound) {
				return nil
			}
			return err
		}
		student, err := s.students.GetByID(ctx, *proj.SelectedStudentID)
		if err != nil {
			return err
		}
		return s.messages.AddMemberTx(ctx, tx, group.ID, student.UserID)

	case lifecycle.PostGroupMessage:
		group, err := s.messages.GetGroupByProjectID(ctx, c.ProjectID)
		if err != nil {
			if errors.Is(err, apperrors.ErrGroupNotFound) {
				s.logger.Warn().Int64("projectID", c.ProjectID).Msg("Project has no message group, announcement skipped")
				return nil
			}
			return err
		}
		msg := &models.Message{GroupID: group.ID, SenderID: s.systemUserID, Content: c.Content}
		if err := s.messages.CreateMessageTx(ctx, tx, msg); err != nil {
			return err
		}
		metrics.MessagesPosted.Inc()
		return nil

	case lifecycle.IssueInvoice:
		number, err := s.invoices.NextNumberTx(ctx, tx)
		if err != nil {
			return err
		}
		inv := &models.Invoice{
			Number:          number,
			ProjectID:       c.ProjectID,
			PaymentIntentID: c.PaymentIntentID,
			AmountMinor:     c.AmountMinor,
			Currency:        c.Currency,
		}
		return s.invoices.CreateTx(ctx, tx, inv)

	default:
		return fmt.Errorf("unhandled transactional command %s", cmd.Name())
	}
}

// runCommandPostCommit executes best-effort commands. A failure here is
// logged and swallowed: the transition has already committed.
func (s *lifecycleServiceImpl) runCommandPostCommit(ctx context.Context, cmd lifecycle.Command) {
	switch c := cmd.(type) {
	case lifecycle.SendReceipt:
		if err := s.sendReceipt(ctx, c); err != nil {
			s.logger.Error().Err(err).Int64("projectID", c.ProjectID).Msg("Failed to send payment receipt")
		}
	default:
		s.logger.Warn().Str("command", cmd.Name()).Msg("Unhandled post-commit command")
	}
}

func (s *lifecycleServiceImpl) sendReceipt(ctx context.Context, c lifecycle.SendReceipt) error {
	proj, err := s.projects.GetByID(ctx, c.ProjectID)
	if err != nil {
		return err
	}
	ent, err := s.entrepreneurs.GetByID(ctx, proj.EntrepreneurID)
	if err != nil {
		return err
	}
	if ent.User == nil {
		return apperrors.ErrUserNotFound
	}

	invoiceNumber := ""
	if inv, err := s.invoices.GetByProjectID(ctx, c.ProjectID); err == nil {
		invoiceNumber = inv.Number
	}

	name := ent.User.FirstName + " " + ent.User.LastName
	return s.emailService.SendPaymentReceipt(ent.User.Email, name, proj.Title, invoiceNumber, c.AmountMinor, c.Currency)
}
