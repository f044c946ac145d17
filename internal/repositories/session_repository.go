package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripchat/internal/models/db_models"
)

type SessionRepository interface {
	GetSessionById(ctx context.Context, sessionID uuid.UUID) (*db_models.ChatSession, error)
	CreateSession(ctx context.Context, session *db_models.ChatSession) error
	ListRecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]db_models.ChatMessage, error)
	AppendMessages(ctx context.Context, messages []db_models.ChatMessage) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetSessionById(ctx context.Context, sessionID uuid.UUID) (*db_models.ChatSession, error) {
	var session db_models.ChatSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) CreateSession(ctx context.Context, session *db_models.ChatSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) ListRecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]db_models.ChatMessage, error) {
	var messages []db_models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order for prompt building.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *sessionRepository) AppendMessages(ctx context.Context, messages []db_models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&messages).Error
}
