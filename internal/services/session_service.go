package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"tripchat/internal/models/db_models"
	"tripchat/internal/models/itinerary_models"
	"tripchat/internal/repositories"
)

// Only the most recent turns are fed back into prompts.
const sessionHistoryWindow = 6

type SessionServiceInterface interface {
	// LoadHistory returns the recent conversation for a session in
	// chronological order. Unknown or malformed session ids yield no history.
	LoadHistory(ctx context.Context, sessionID string) []itinerary_models.Message

	// RecordTurn persists one user query and the assistant reply. Failures
	// are logged and swallowed; losing history must not fail the request.
	RecordTurn(ctx context.Context, sessionID, userQuery, assistantReply string)
}

type SessionService struct {
	repo repositories.SessionRepository
}

func NewSessionService(repo repositories.SessionRepository) SessionServiceInterface {
	return &SessionService{repo: repo}
}

func (s *SessionService) LoadHistory(ctx context.Context, sessionID string) []itinerary_models.Message {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil
	}

	records, err := s.repo.ListRecentMessages(ctx, id, sessionHistoryWindow)
	if err != nil {
		log.Printf("Loading session history failed for %s: %v", sessionID, err)
		return nil
	}

	messages := make([]itinerary_models.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, itinerary_models.Message{
			Role:    record.Role,
			Content: record.Content,
		})
	}
	return messages
}

func (s *SessionService) RecordTurn(ctx context.Context, sessionID, userQuery, assistantReply string) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return
	}

	session, err := s.repo.GetSessionById(ctx, id)
	if err != nil {
		log.Printf("Looking up session %s failed: %v", sessionID, err)
		return
	}
	if session == nil {
		session = &db_models.ChatSession{ID: id}
		if err := s.repo.CreateSession(ctx, session); err != nil {
			log.Printf("Creating session %s failed: %v", sessionID, err)
			return
		}
	}

	turn := []db_models.ChatMessage{
		{SessionID: session.ID, Role: "user", Content: userQuery},
		{SessionID: session.ID, Role: "assistant", Content: assistantReply},
	}
	if err := s.repo.AppendMessages(ctx, turn); err != nil {
		log.Printf("Appending messages for session %s failed: %v", sessionID, err)
	}
}
