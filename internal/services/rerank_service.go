package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/samber/lo"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

// RerankServiceInterface lets an LLM pick the best candidate for the current
// day's context. The chosen ID is validated against the original candidate
// set; any out-of-band answer falls back to "no reorder".
type RerankServiceInterface interface {
	Reorder(ctx context.Context, keyword string, candidates []itinerary_models.PlaceCandidate, day *itinerary_models.Day) []itinerary_models.PlaceCandidate
}

type RerankService struct {
	llm           utils.LLMClientInterface
	enabled       bool
	maxCandidates int
}

func NewRerankService(llm utils.LLMClientInterface) RerankServiceInterface {
	return &RerankService{
		llm:           llm,
		enabled:       utils.GetEnvBool("GOOGLE_PLACES_RERANK_ENABLED", true),
		maxCandidates: max(1, utils.GetEnvInt("GOOGLE_PLACES_RERANK_MAX_CANDIDATES", 5)),
	}
}

const rerankSystemPrompt = `You are selecting one place candidate for an itinerary edit.
Pick exactly one place_id from the given candidates that best matches the keyword and day context.
Never invent ids. Respond with JSON only: {"selected_place_id": "..."}`

type rerankOutput struct {
	SelectedPlaceID string `json:"selected_place_id"`
}

func (s *RerankService) Reorder(ctx context.Context, keyword string, candidates []itinerary_models.PlaceCandidate, day *itinerary_models.Day) []itinerary_models.PlaceCandidate {
	if !s.enabled || len(candidates) < 2 {
		return candidates
	}

	trimmed := candidates
	if len(trimmed) > s.maxCandidates {
		trimmed = trimmed[:s.maxCandidates]
	}

	var dayContext []map[string]interface{}
	if day != nil {
		for _, place := range day.Places {
			dayContext = append(dayContext, map[string]interface{}{
				"place_name": place.PlaceName,
				"latitude":   place.Latitude,
				"longitude":  place.Longitude,
			})
			if len(dayContext) >= 5 {
				break
			}
		}
	}

	prompt := map[string]interface{}{
		"search_keyword": keyword,
		"day_context":    dayContext,
		"candidates":     trimmed,
	}
	promptJSON, err := json.Marshal(prompt)
	if err != nil {
		return candidates
	}

	content, err := s.llm.Complete(ctx, utils.StagePlaceRerank, rerankSystemPrompt, string(promptJSON))
	if err != nil {
		log.Printf("Place rerank call failed, keeping search order: %v", err)
		return candidates
	}

	var parsed rerankOutput
	if !utils.DecodeJSONObject(content, &parsed) || parsed.SelectedPlaceID == "" {
		log.Printf("Place rerank parse failed, keeping search order")
		return candidates
	}

	selectedIndex := lo.IndexOf(lo.Map(trimmed, func(c itinerary_models.PlaceCandidate, _ int) string {
		return c.PlaceID
	}), parsed.SelectedPlaceID)
	if selectedIndex < 0 {
		log.Printf("Place rerank chose an unknown id, keeping search order: id=%s", parsed.SelectedPlaceID)
		return candidates
	}
	if selectedIndex == 0 {
		return candidates
	}

	reordered := make([]itinerary_models.PlaceCandidate, 0, len(candidates))
	reordered = append(reordered, candidates[selectedIndex])
	reordered = append(reordered, candidates[:selectedIndex]...)
	reordered = append(reordered, candidates[selectedIndex+1:]...)
	return reordered
}
