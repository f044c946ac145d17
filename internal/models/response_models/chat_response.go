package response_models

import (
	"tripchat/internal/models/itinerary_models"
)

// ChatModifyResponse is the projection of a finished modification turn.
type ChatModifyResponse struct {
	Status            itinerary_models.ChatStatus `json:"status"`
	Message           string                      `json:"message"`
	ModifiedItinerary *itinerary_models.Itinerary `json:"modified_itinerary,omitempty"`
	DiffKeys          []string                    `json:"diff_keys"`
	Warnings          []string                    `json:"warnings,omitempty"`
	SuggestedKeyword  string                      `json:"suggested_keyword,omitempty"`
}

// ChatAckResponse acknowledges an accepted async modification job.
type ChatAckResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
