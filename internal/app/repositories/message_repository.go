package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

// MessageRepository handles database operations for message groups and
// their messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateGroupTx creates a group and its initial members inside an existing
// transaction
func (r *MessageRepository) CreateGroupTx(ctx context.Context, tx pgx.Tx, group *models.MessageGroup, memberIDs []int64) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO message_groups (project_id, name) VALUES ($1, $2)
		RETURNING id, created_at
	`, group.ProjectID, group.Name).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating message group: %w", err)
	}

	for _, userID := range memberIDs {
		if err := r.AddMemberTx(ctx, tx, group.ID, userID); err != nil {
			return err
		}
	}
	group.MemberIDs = memberIDs
	return nil
}

// AddMemberTx adds a user to a group; adding an existing member is a no-op
func (r *MessageRepository) AddMemberTx(ctx context.Context, tx pgx.Tx, groupID, userID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO message_group_members (group_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, groupID, userID)
	if err != nil {
		return fmt.Errorf("error adding group member: %w", err)
	}
	return nil
}

// GetGroupByID retrieves a group by ID
func (r *MessageRepository) GetGroupByID(ctx context.Context, id int64) (*models.MessageGroup, error) {
	var g models.MessageGroup
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, name, created_at FROM message_groups WHERE id = $1
	`, id).Scan(&g.ID, &g.ProjectID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, fmt.Errorf("error retrieving message group: %w", err)
	}
	return &g, nil
}

// GetGroupByProjectID retrieves the group attached to a project
func (r *MessageRepository) GetGroupByProjectID(ctx context.Context, projectID int64) (*models.MessageGroup, error) {
	var g models.MessageGroup
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, name, created_at FROM message_groups WHERE project_id = $1
	`, projectID).Scan(&g.ID, &g.ProjectID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, fmt.Errorf("error retrieving project message group: %w", err)
	}
	return &g, nil
}

// FindDirectGroup retrieves the direct group shared by exactly two users,
// if one exists
func (r *MessageRepository) FindDirectGroup(ctx context.Context, userA, userB int64) (*models.MessageGroup, error) {
	query := `
		SELECT g.id, g.project_id, g.name, g.created_at
		FROM message_groups g
		WHERE g.project_id IS NULL
		  AND EXISTS (SELECT 1 FROM message_group_members WHERE group_id = g.id AND user_id = $1)
		  AND EXISTS (SELECT 1 FROM message_group_members WHERE group_id = g.id AND user_id = $2)
		  AND (SELECT COUNT(*) FROM message_group_members WHERE group_id = g.id) = 2
		LIMIT 1
	`

	var g models.MessageGroup
	err := r.db.QueryRow(ctx, query, userA, userB).Scan(&g.ID, &g.ProjectID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, fmt.Errorf("error finding direct group: %w", err)
	}
	return &g, nil
}

// IsMember reports whether the user belongs to the group
func (r *MessageRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var member bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM message_group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("error checking group membership: %w", err)
	}
	return member, nil
}

// ListGroupsForUser retrieves the user's groups with per-group unread counts
func (r *MessageRepository) ListGroupsForUser(ctx context.Context, userID int64) ([]models.MessageGroup, error) {
	query := `
		SELECT g.id, g.project_id, g.name, g.created_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.group_id = g.id AND m.read = FALSE AND m.sender_id <> $1) AS unread
		FROM message_groups g
		JOIN message_group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing message groups: %w", err)
	}
	defer rows.Close()

	var groups []models.MessageGroup
	for rows.Next() {
		var g models.MessageGroup
		if err := rows.Scan(&g.ID, &g.ProjectID, &g.Name, &g.CreatedAt, &g.UnreadCount); err != nil {
			return nil, fmt.Errorf("error scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	if groups == nil {
		groups = []models.MessageGroup{}
	}
	return groups, nil
}

// CreateMessage inserts a message into a group
func (r *MessageRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (group_id, sender_id, content) VALUES ($1, $2, $3)
		RETURNING id, read, created_at
	`, m.GroupID, m.SenderID, m.Content).Scan(&m.ID, &m.Read, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

// CreateMessageTx inserts a message inside an existing transaction. The
// lifecycle announcements use this path so the message commits with the
// status change.
func (r *MessageRepository) CreateMessageTx(ctx context.Context, tx pgx.Tx, m *models.Message) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO messages (group_id, sender_id, content) VALUES ($1, $2, $3)
		RETURNING id, read, created_at
	`, m.GroupID, m.SenderID, m.Content).Scan(&m.ID, &m.Read, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

// ListMessages retrieves a group's messages, newest first, with pagination
func (r *MessageRepository) ListMessages(ctx context.Context, groupID int64, page, pageSize int) ([]models.Message, int64, error) {
	query := `
		SELECT id, group_id, sender_id, content, read, created_at,
		       COUNT(*) OVER() AS total_count
		FROM messages
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, groupID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	var total int64
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.GroupID, &m.SenderID, &m.Content, &m.Read, &m.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("error scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating message rows: %w", err)
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, total, nil
}

// MarkGroupRead marks every message the user did not send as read
func (r *MessageRepository) MarkGroupRead(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE group_id = $1 AND sender_id <> $2 AND read = FALSE
	`, groupID, userID)
	if err != nil {
		return fmt.Errorf("error marking group read: %w", err)
	}
	return nil
}
