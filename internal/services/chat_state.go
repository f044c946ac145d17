package services

import (
	"tripchat/internal/models/itinerary_models"
)

// Intent routing outcomes produced by classification.
const (
	IntentTypeGeneralChat  = "GENERAL_CHAT"
	IntentTypeModification = "MODIFICATION"
)

// ChatState is the single value threaded through the orchestration state
// machine. Every node takes a ChatState and returns a new one; nodes never
// share mutable state, so the graph can be replayed node by node in tests.
type ChatState struct {
	// Input
	CurrentItinerary   *itinerary_models.Itinerary
	UserQuery          string
	SessionHistory     []itinerary_models.Message
	VisitTimeProposals map[int]map[int]string

	// Processing
	IntentType    string
	Intent        *itinerary_models.EditIntent
	SearchResults []itinerary_models.PlaceCandidate
	Warnings      []string

	// Output
	ModifiedItinerary *itinerary_models.Itinerary
	Status            itinerary_models.ChatStatus
	ChangeSummary     string
	Message           string
	DiffKeys          []string
	SuggestedKeyword  string

	// Err marks an internal failure; respond masks it with a generic
	// message and it is never shown to the user.
	Err string
}
