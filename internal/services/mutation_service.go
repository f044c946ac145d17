package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

const dayBBoxMarginKm = 10.0

// MutationConfig selects between the two observed MOVE policies: same-day
// only (cross-day requests rejected) or full cross-day moves.
type MutationConfig struct {
	AllowCrossDayMove bool
}

func NewMutationConfigFromEnv() MutationConfig {
	return MutationConfig{
		AllowCrossDayMove: utils.GetEnvBool("CHAT_ALLOW_CROSS_DAY_MOVE", false),
	}
}

type MutationServiceInterface interface {
	// Mutate applies the analyzed intent to a deep copy of the current
	// itinerary. Pure state in, state out.
	Mutate(ctx context.Context, state ChatState) ChatState
}

type MutationService struct {
	resolver CandidateResolverInterface
	llm      utils.LLMClientInterface
	config   MutationConfig
}

func NewMutationService(resolver CandidateResolverInterface, llm utils.LLMClientInterface, config MutationConfig) MutationServiceInterface {
	return &MutationService{resolver: resolver, llm: llm, config: config}
}

func dayPoints(day *itinerary_models.Day) []utils.GeoPoint {
	var points []utils.GeoPoint
	for _, place := range day.Places {
		if place.Latitude == nil || place.Longitude == nil {
			continue
		}
		points = append(points, utils.GeoPoint{Lat: *place.Latitude, Lng: *place.Longitude})
	}
	return points
}

func dayBBox(day *itinerary_models.Day) *utils.GeoRectangle {
	rect, ok := utils.GeoRectangleFromPoints(dayPoints(day), dayBBoxMarginKm)
	if !ok {
		return nil
	}
	return &rect
}

func rejected(state ChatState, summary string) ChatState {
	state.Status = itinerary_models.StatusRejected
	state.ChangeSummary = summary
	return state
}

func (s *MutationService) Mutate(ctx context.Context, state ChatState) ChatState {
	intent := state.Intent
	if intent == nil || state.CurrentItinerary == nil {
		state.Err = "mutate requires an intent and a current itinerary"
		return state
	}

	itinerary := state.CurrentItinerary.Clone()
	day := itinerary.FindDay(intent.TargetDay)
	if day == nil {
		return rejected(state, fmt.Sprintf("Day %d does not exist in this itinerary.", intent.TargetDay))
	}

	targetPos := intent.TargetIndex - 1
	if intent.Op != itinerary_models.OpAdd {
		if targetPos < 0 || targetPos >= len(day.Places) {
			return rejected(state, fmt.Sprintf("Day %d has no place #%d.", intent.TargetDay, intent.TargetIndex))
		}
	}

	switch intent.Op {
	case itinerary_models.OpReplace:
		return s.applyReplace(ctx, state, itinerary, day, targetPos)
	case itinerary_models.OpAdd:
		return s.applyAdd(ctx, state, itinerary, day)
	case itinerary_models.OpRemove:
		return s.applyRemove(state, itinerary, day, targetPos)
	case itinerary_models.OpMove:
		return s.applyMove(state, itinerary, day, targetPos)
	default:
		return rejected(state, fmt.Sprintf("Unsupported operation %q.", intent.Op))
	}
}

// resolveOnePlace runs candidate resolution and returns either the best
// candidate or a terminal state (clarification or rejection) to hand back.
func (s *MutationService) resolveOnePlace(ctx context.Context, state ChatState, day *itinerary_models.Day) (itinerary_models.PlaceCandidate, ChatState, bool) {
	keyword := strings.TrimSpace(state.Intent.SearchKeyword)
	if keyword == "" {
		return itinerary_models.PlaceCandidate{}, rejected(state, "A search keyword is required to replace or add a place."), false
	}

	candidates, err := s.resolver.Resolve(ctx, keyword, dayBBox(day), day)
	if err != nil {
		log.Printf("Place search failed: %v", err)
		state.Err = "place search failed"
		return itinerary_models.PlaceCandidate{}, state, false
	}
	state.SearchResults = candidates

	if len(candidates) == 0 {
		suggested := s.suggestAlternativeKeyword(ctx, keyword)
		state.Status = itinerary_models.StatusAskClarification
		state.SuggestedKeyword = suggested
		state.ChangeSummary = fmt.Sprintf("No places found for %q.", keyword)
		if suggested != "" {
			state.ChangeSummary += fmt.Sprintf(" Shall I try %q instead?", suggested)
		}
		return itinerary_models.PlaceCandidate{}, state, false
	}

	return candidates[0], state, true
}

// suggestAlternativeKeyword asks the LLM for a broader category keyword when
// a search came back empty. The suggestion is advisory; an echo of the
// original keyword counts as no suggestion.
func (s *MutationService) suggestAlternativeKeyword(ctx context.Context, keyword string) string {
	content, err := s.llm.Complete(ctx, utils.StageKeywordAssist,
		"Answer with a single broader category keyword for the given search term. Example: 'omakase' -> 'japanese restaurant'. Respond with the keyword only.",
		keyword)
	if err != nil {
		log.Printf("Alternative keyword suggestion failed: %v", err)
		return ""
	}
	suggested := strings.Trim(strings.TrimSpace(content), "'\"")
	if suggested == "" || strings.EqualFold(suggested, keyword) {
		return ""
	}
	return suggested
}

func (s *MutationService) applyReplace(ctx context.Context, state ChatState, itinerary *itinerary_models.Itinerary, day *itinerary_models.Day, targetPos int) ChatState {
	candidate, next, ok := s.resolveOnePlace(ctx, state, day)
	if !ok {
		return next
	}
	state = next

	day.Places[targetPos] = candidate.ToPlace(state.Intent.TargetIndex)
	state.ModifiedItinerary = itinerary
	state.DiffKeys = append(state.DiffKeys, itinerary_models.BuildDiffKey(state.Intent.TargetDay, state.Intent.TargetIndex))
	return state
}

func (s *MutationService) applyAdd(ctx context.Context, state ChatState, itinerary *itinerary_models.Itinerary, day *itinerary_models.Day) ChatState {
	if len(day.Places) >= itinerary_models.MaxPlacesPerDay {
		return rejected(state, fmt.Sprintf("A day can hold at most %d places.", itinerary_models.MaxPlacesPerDay))
	}
	if state.Intent.TargetIndex < 1 || state.Intent.TargetIndex > len(day.Places)+1 {
		return rejected(state, fmt.Sprintf("Cannot insert at position %d on day %d.", state.Intent.TargetIndex, state.Intent.TargetDay))
	}

	candidate, next, ok := s.resolveOnePlace(ctx, state, day)
	if !ok {
		return next
	}
	state = next

	insertPos := state.Intent.TargetIndex - 1
	day.Places = append(day.Places[:insertPos],
		append([]itinerary_models.Place{candidate.ToPlace(0)}, day.Places[insertPos:]...)...)
	itinerary_models.ReorderVisitSequence(day.Places)

	state.ModifiedItinerary = itinerary
	state.DiffKeys = append(state.DiffKeys, itinerary_models.BuildDiffKey(state.Intent.TargetDay, insertPos+1))
	return state
}

func (s *MutationService) applyRemove(state ChatState, itinerary *itinerary_models.Itinerary, day *itinerary_models.Day, targetPos int) ChatState {
	if len(day.Places) <= itinerary_models.MinPlacesPerDay {
		return rejected(state, fmt.Sprintf("A day must keep at least %d place.", itinerary_models.MinPlacesPerDay))
	}

	day.Places = append(day.Places[:targetPos], day.Places[targetPos+1:]...)
	itinerary_models.ReorderVisitSequence(day.Places)

	state.ModifiedItinerary = itinerary
	state.DiffKeys = append(state.DiffKeys, itinerary_models.BuildDiffKey(state.Intent.TargetDay, state.Intent.TargetIndex))
	return state
}

func (s *MutationService) applyMove(state ChatState, itinerary *itinerary_models.Itinerary, day *itinerary_models.Day, targetPos int) ChatState {
	intent := state.Intent

	destDayNum := intent.TargetDay
	if intent.DestinationDay != nil {
		destDayNum = *intent.DestinationDay
	}
	destIndex := 1
	if intent.DestinationIndex != nil {
		destIndex = max(1, *intent.DestinationIndex)
	}
	destPos := destIndex - 1

	if destDayNum == intent.TargetDay {
		moved := day.Places[targetPos]
		day.Places = append(day.Places[:targetPos], day.Places[targetPos+1:]...)
		destPos = min(destPos, len(day.Places))
		day.Places = append(day.Places[:destPos],
			append([]itinerary_models.Place{moved}, day.Places[destPos:]...)...)
		itinerary_models.ReorderVisitSequence(day.Places)

		state.ModifiedItinerary = itinerary
		state.DiffKeys = append(state.DiffKeys, itinerary_models.BuildDiffKey(intent.TargetDay, destPos+1))
		return state
	}

	if !s.config.AllowCrossDayMove {
		return rejected(state, "Moving places between days is not supported. Only the order within a day can change.")
	}

	destDay := itinerary.FindDay(destDayNum)
	if destDay == nil {
		return rejected(state, fmt.Sprintf("Day %d does not exist in this itinerary.", destDayNum))
	}
	if len(day.Places) <= itinerary_models.MinPlacesPerDay {
		return rejected(state, fmt.Sprintf("Day %d must keep at least %d place.", intent.TargetDay, itinerary_models.MinPlacesPerDay))
	}
	if len(destDay.Places) >= itinerary_models.MaxPlacesPerDay {
		return rejected(state, fmt.Sprintf("Day %d already holds the maximum of %d places.", destDayNum, itinerary_models.MaxPlacesPerDay))
	}

	moved := day.Places[targetPos]
	day.Places = append(day.Places[:targetPos], day.Places[targetPos+1:]...)
	itinerary_models.ReorderVisitSequence(day.Places)
	state.DiffKeys = append(state.DiffKeys, itinerary_models.BuildDiffKey(intent.TargetDay, 1))

	destPos = min(destPos, len(destDay.Places))
	destDay.Places = append(destDay.Places[:destPos],
		append([]itinerary_models.Place{moved}, destDay.Places[destPos:]...)...)
	itinerary_models.ReorderVisitSequence(destDay.Places)
	state.DiffKeys = append(state.DiffKeys, itinerary_models.BuildDiffKey(destDayNum, destPos+1))

	state.ModifiedItinerary = itinerary
	return state
}
