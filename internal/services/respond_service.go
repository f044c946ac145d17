package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

const respondSystemPrompt = `You are a friendly, professional travel guide.
Explain the outcome of an itinerary modification to the traveler.

Tone:
- Warm but professional.
- Lead with the key change.
- Mention that other days are unaffected.

Per status:
- SUCCESS: describe concretely what changed. If the request was compound, offer to handle the rest next.
- ASK_CLARIFICATION: ask a question that resolves the ambiguity; if a search failed, suggest the alternative keyword.
- REJECTED: state the reason clearly.

If there are schedule warnings, relay them in natural language. Suggest, never insist.`

const generalChatSystemPrompt = `You are a conversational travel itinerary coach.
Answer the traveler's question concisely and accurately.

Rules:
- Ground answers in the current itinerary and the conversation context.
- Never perform modifications; only explain, guide and recommend.
- When unsure, ask a clarifying question instead of asserting.`

type RespondServiceInterface interface {
	// Respond turns the terminal state into a user-facing message. It is the
	// only node allowed to look at Err, and it never leaks its content.
	Respond(ctx context.Context, state ChatState) ChatState
}

type RespondService struct {
	llm utils.LLMClientInterface
}

func NewRespondService(llm utils.LLMClientInterface) RespondServiceInterface {
	return &RespondService{llm: llm}
}

func (s *RespondService) Respond(ctx context.Context, state ChatState) ChatState {
	if state.Err != "" {
		log.Printf("Chat pipeline error: %s", state.Err)
		state.Status = itinerary_models.StatusRejected
		state.Message = "Something went wrong while processing your request. Please try again in a moment."
		return state
	}

	if state.IntentType == IntentTypeGeneralChat {
		return s.generalChat(ctx, state)
	}

	isCompound := state.Intent != nil && state.Intent.IsCompound

	warnings := "none"
	if len(state.Warnings) > 0 {
		warnings = strings.Join(state.Warnings, "\n")
	}
	suggested := state.SuggestedKeyword
	if suggested == "" {
		suggested = "none"
	}

	userPrompt := fmt.Sprintf(
		"Modification status: %s\nUser request: %s\nChange summary: %s\nWarnings: %s\nCompound request: %t\nAlternative keyword: %s\n\nWrite the reply to the traveler. Output the reply only.",
		state.Status, state.UserQuery, state.ChangeSummary, warnings, isCompound, suggested)

	message, err := s.llm.Complete(ctx, utils.StageRespond, respondSystemPrompt, userPrompt)
	if err != nil {
		log.Printf("Response synthesis failed: %v", err)
		message = state.ChangeSummary
		if message == "" {
			message = "An error occurred while applying the modification."
		}
	}

	if state.Status == "" {
		state.Status = itinerary_models.StatusSuccess
	}
	state.Message = strings.TrimSpace(message)
	return state
}

func buildItineraryContext(itinerary *itinerary_models.Itinerary) string {
	if itinerary == nil {
		return "no itinerary available"
	}
	title := itinerary.Title
	if title == "" {
		title = "untitled trip"
	}
	lines := []string{
		fmt.Sprintf("Title: %s", title),
		fmt.Sprintf("Dates: %s ~ %s", itinerary.StartDate, itinerary.EndDate),
	}
	for i, day := range itinerary.Days {
		if i >= 5 {
			break
		}
		var names []string
		for j, place := range day.Places {
			if j >= 4 {
				break
			}
			if place.PlaceName != "" {
				names = append(names, place.PlaceName)
			}
		}
		joined := "no place details"
		if len(names) > 0 {
			joined = strings.Join(names, ", ")
		}
		lines = append(lines, fmt.Sprintf("- Day %d: %s", day.DayNumber, joined))
	}
	return strings.Join(lines, "\n")
}

func (s *RespondService) generalChat(ctx context.Context, state ChatState) ChatState {
	query := strings.TrimSpace(state.UserQuery)
	if query == "" {
		state.Status = itinerary_models.StatusRejected
		state.Message = "I could not find anything to respond to in that message."
		return state
	}

	historyContext := buildHistoryContext(state.SessionHistory)
	if historyContext == "" {
		historyContext = "none"
	}

	userPrompt := fmt.Sprintf(
		"Current itinerary summary:\n%s\n\nRecent conversation:\n%s\n\nTraveler question:\n%s",
		buildItineraryContext(state.CurrentItinerary), historyContext, query)

	message, err := s.llm.Complete(ctx, utils.StageGeneralChat, generalChatSystemPrompt, userPrompt)
	if err != nil {
		log.Printf("General chat response failed: %v", err)
		state.Status = itinerary_models.StatusRejected
		state.Message = "I could not generate a reply just now. Please try again in a moment."
		return state
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = "I got the gist of your question. Could you tell me a bit more about what you want to know?"
	}

	state.Status = itinerary_models.StatusSuccess
	state.Message = message
	state.DiffKeys = nil
	return state
}
