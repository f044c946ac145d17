package request_models

import (
	"tripchat/internal/models/itinerary_models"
)

// ChatModifyRequest is the body of POST /chat/modify.
//
// VisitTimeProposals optionally carries externally suggested anchor times per
// modified day: day_number -> visit_sequence -> "HH:MM".
type ChatModifyRequest struct {
	SessionID          string                      `json:"session_id"`
	UserQuery          string                      `json:"user_query" binding:"required"`
	CurrentItinerary   *itinerary_models.Itinerary `json:"current_itinerary" binding:"required"`
	SessionHistory     []itinerary_models.Message  `json:"session_history"`
	VisitTimeProposals map[int]map[int]string      `json:"visit_time_proposals,omitempty"`
}

// ChatModifyAsyncRequest adds the callback contract for background delivery.
type ChatModifyAsyncRequest struct {
	ChatModifyRequest
	JobID       string `json:"job_id" binding:"required"`
	CallbackURL string `json:"callback_url" binding:"required,url"`
}
