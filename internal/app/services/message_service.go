package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/app/repositories"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/metrics"
)

// GroupBroadcaster pushes a new message to connected group members.
// Implemented by the websocket hub; nil-safe for tests and batch tools.
type GroupBroadcaster interface {
	BroadcastToGroup(groupID int64, payload interface{})
}

// MessageService handles message groups and chat messages
type MessageService struct {
	tx          TxRunner
	messageRepo *repositories.MessageRepository
	userRepo    *repositories.UserRepository
	broadcaster GroupBroadcaster
	logger      zerolog.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	tx TxRunner,
	messageRepo *repositories.MessageRepository,
	userRepo *repositories.UserRepository,
	broadcaster GroupBroadcaster,
	logger zerolog.Logger,
) *MessageService {
	return &MessageService{
		tx:          tx,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// ListMyGroups retrieves the caller's groups with unread counts
func (s *MessageService) ListMyGroups(ctx context.Context, userID int64) ([]models.MessageGroup, error) {
	return s.messageRepo.ListGroupsForUser(ctx, userID)
}

// GetMessages retrieves a group's messages; the caller must be a member
func (s *MessageService) GetMessages(ctx context.Context, groupID, userID int64, page, pageSize int) ([]models.Message, int64, error) {
	if err := s.requireMembership(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}
	return s.messageRepo.ListMessages(ctx, groupID, page, pageSize)
}

// Send posts a message into a group the caller belongs to
func (s *MessageService) Send(ctx context.Context, groupID, userID int64, content string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", apperrors.ErrValidationFailed)
	}
	if err := s.requireMembership(ctx, groupID, userID); err != nil {
		return nil, err
	}

	msg := &models.Message{GroupID: groupID, SenderID: userID, Content: content}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesPosted.Inc()

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToGroup(groupID, msg)
	}

	return msg, nil
}

// MarkRead marks everything the caller has not sent in the group as read
func (s *MessageService) MarkRead(ctx context.Context, groupID, userID int64) error {
	if err := s.requireMembership(ctx, groupID, userID); err != nil {
		return err
	}
	return s.messageRepo.MarkGroupRead(ctx, groupID, userID)
}

// CreateDirectGroup opens (or returns) the direct conversation between the
// caller and another user
func (s *MessageService) CreateDirectGroup(ctx context.Context, callerUserID, otherUserID int64) (*models.MessageGroup, error) {
	if callerUserID == otherUserID {
		return nil, fmt.Errorf("%w: cannot open a conversation with yourself", apperrors.ErrValidationFailed)
	}

	other, err := s.userRepo.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, err
	}

	existing, err := s.messageRepo.FindDirectGroup(ctx, callerUserID, otherUserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrGroupNotFound) {
		return nil, err
	}

	group := &models.MessageGroup{Name: other.FirstName + " " + other.LastName}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.messageRepo.CreateGroupTx(ctx, tx, group, []int64{callerUserID, otherUserID})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("groupID", group.ID).Msg("Direct message group created")
	return group, nil
}

// IsMember exposes the membership check for the websocket upgrade path
func (s *MessageService) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.messageRepo.IsMember(ctx, groupID, userID)
}

func (s *MessageService) requireMembership(ctx context.Context, groupID, userID int64) error {
	member, err := s.messageRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrNotGroupMember
	}
	return nil
}
