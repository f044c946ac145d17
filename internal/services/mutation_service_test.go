package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

func newMutationService(resolver CandidateResolverInterface, llm utils.LLMClientInterface, allowCrossDay bool) MutationServiceInterface {
	if llm == nil {
		llm = &fakeLLM{err: errors.New("llm disabled")}
	}
	return NewMutationService(resolver, llm, MutationConfig{AllowCrossDayMove: allowCrossDay})
}

func modState(intent *itinerary_models.EditIntent) ChatState {
	return ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "test request",
		IntentType:       IntentTypeModification,
		Intent:           intent,
	}
}

func cafeCandidate() itinerary_models.PlaceCandidate {
	return itinerary_models.PlaceCandidate{
		PlaceID:   "cafe-1",
		Name:      "Blue Bottle Samcheong",
		Address:   "Samcheong-ro, Jongno-gu, Seoul, South Korea",
		Latitude:  floatPtr(37.582),
		Longitude: floatPtr(126.981),
		URL:       "https://maps.example/cafe-1",
	}
}

func TestMutateReplaceSuccess(t *testing.T) {
	resolver := &fakeResolver{candidates: []itinerary_models.PlaceCandidate{cafeCandidate()}}
	svc := newMutationService(resolver, nil, false)

	state := modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpReplace, TargetDay: 1, TargetIndex: 2, SearchKeyword: "Seoul cafe",
	})
	out := svc.Mutate(context.Background(), state)

	require.Empty(t, out.Err)
	require.NotNil(t, out.ModifiedItinerary)

	day := out.ModifiedItinerary.FindDay(1)
	assert.Equal(t, "Blue Bottle Samcheong", day.Places[1].PlaceName)
	assert.Equal(t, 2, day.Places[1].VisitSequence, "replace keeps the slot's sequence")
	assert.Equal(t, []string{"day1_place2"}, out.DiffKeys)

	// The caller's itinerary is never touched.
	assert.Equal(t, "Bukchon Village", state.CurrentItinerary.FindDay(1).Places[1].PlaceName)
}

func TestMutateReplaceZeroCandidatesAsksClarification(t *testing.T) {
	resolver := &fakeResolver{}
	llm := &fakeLLM{responses: map[utils.LLMStage]string{utils.StageKeywordAssist: "coffee shop"}}
	svc := newMutationService(resolver, llm, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpReplace, TargetDay: 1, TargetIndex: 2, SearchKeyword: "omakase",
	}))

	assert.Equal(t, itinerary_models.StatusAskClarification, out.Status)
	assert.Equal(t, "coffee shop", out.SuggestedKeyword)
	assert.Nil(t, out.ModifiedItinerary)
}

func TestMutateReplaceSuggestionEchoIsDiscarded(t *testing.T) {
	resolver := &fakeResolver{}
	llm := &fakeLLM{responses: map[utils.LLMStage]string{utils.StageKeywordAssist: "Omakase"}}
	svc := newMutationService(resolver, llm, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpReplace, TargetDay: 1, TargetIndex: 2, SearchKeyword: "omakase",
	}))

	assert.Equal(t, itinerary_models.StatusAskClarification, out.Status)
	assert.Empty(t, out.SuggestedKeyword)
}

func TestMutateReplaceMissingKeywordRejected(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpReplace, TargetDay: 1, TargetIndex: 2,
	}))

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
	assert.Contains(t, out.ChangeSummary, "search keyword")
}

func TestMutateSearchFailureIsInternal(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("places quota exceeded")}
	svc := newMutationService(resolver, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpReplace, TargetDay: 1, TargetIndex: 2, SearchKeyword: "cafe",
	}))

	assert.NotEmpty(t, out.Err)
	assert.NotContains(t, out.Err, "quota", "upstream detail stays in logs")
}

func TestMutateUnknownDayRejected(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpRemove, TargetDay: 9, TargetIndex: 1,
	}))

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
	assert.Contains(t, out.ChangeSummary, "Day 9")
}

func TestMutateIndexOutOfBoundsRejected(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpRemove, TargetDay: 1, TargetIndex: 7,
	}))

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
}

func TestMutateAddInsertsAndRenumbers(t *testing.T) {
	resolver := &fakeResolver{candidates: []itinerary_models.PlaceCandidate{cafeCandidate()}}
	svc := newMutationService(resolver, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpAdd, TargetDay: 1, TargetIndex: 2, SearchKeyword: "Seoul cafe",
	}))

	require.Empty(t, out.Err)
	day := out.ModifiedItinerary.FindDay(1)
	require.Len(t, day.Places, 4)
	assert.Equal(t, "Blue Bottle Samcheong", day.Places[1].PlaceName)
	for i, place := range day.Places {
		assert.Equal(t, i+1, place.VisitSequence)
	}
	assert.Equal(t, []string{"day1_place2"}, out.DiffKeys)
}

func TestMutateAddAtEndOfDay(t *testing.T) {
	resolver := &fakeResolver{candidates: []itinerary_models.PlaceCandidate{cafeCandidate()}}
	svc := newMutationService(resolver, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpAdd, TargetDay: 1, TargetIndex: 4, SearchKeyword: "Seoul cafe",
	}))

	require.Empty(t, out.Err)
	day := out.ModifiedItinerary.FindDay(1)
	assert.Equal(t, "Blue Bottle Samcheong", day.Places[3].PlaceName)
	assert.Equal(t, []string{"day1_place4"}, out.DiffKeys)
}

func TestMutateAddPositionOutOfRangeRejected(t *testing.T) {
	resolver := &fakeResolver{candidates: []itinerary_models.PlaceCandidate{cafeCandidate()}}
	svc := newMutationService(resolver, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpAdd, TargetDay: 1, TargetIndex: 6, SearchKeyword: "Seoul cafe",
	}))

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
}

func TestMutateAddFullDayRejected(t *testing.T) {
	resolver := &fakeResolver{candidates: []itinerary_models.PlaceCandidate{cafeCandidate()}}
	svc := newMutationService(resolver, nil, false)

	state := modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpAdd, TargetDay: 1, TargetIndex: 1, SearchKeyword: "Seoul cafe",
	})
	day := state.CurrentItinerary.FindDay(1)
	for len(day.Places) < itinerary_models.MaxPlacesPerDay {
		day.Places = append(day.Places, itinerary_models.Place{
			PlaceName: "filler", VisitSequence: len(day.Places) + 1,
		})
	}

	out := svc.Mutate(context.Background(), state)

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
	assert.Contains(t, out.ChangeSummary, "at most")
	assert.Len(t, state.CurrentItinerary.FindDay(1).Places, 10, "refused edit leaves the day unchanged")
}

func TestMutateRemoveRenumbers(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpRemove, TargetDay: 1, TargetIndex: 2,
	}))

	require.Empty(t, out.Err)
	day := out.ModifiedItinerary.FindDay(1)
	require.Len(t, day.Places, 2)
	assert.Equal(t, "Gyeongbokgung", day.Places[0].PlaceName)
	assert.Equal(t, "Insadong", day.Places[1].PlaceName)
	assert.Equal(t, 2, day.Places[1].VisitSequence)
	assert.Equal(t, []string{"day1_place2"}, out.DiffKeys)
}

func TestMutateRemoveLastPlaceRejected(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpRemove, TargetDay: 2, TargetIndex: 1,
	}))

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
	assert.Contains(t, out.ChangeSummary, "at least")
}

func TestMutateMoveWithinDay(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpMove, TargetDay: 1, TargetIndex: 3,
		DestinationDay: intPtr(1), DestinationIndex: intPtr(1),
	}))

	require.Empty(t, out.Err)
	day := out.ModifiedItinerary.FindDay(1)
	assert.Equal(t, "Insadong", day.Places[0].PlaceName)
	assert.Equal(t, "Gyeongbokgung", day.Places[1].PlaceName)
	for i, place := range day.Places {
		assert.Equal(t, i+1, place.VisitSequence)
	}
	assert.Equal(t, []string{"day1_place1"}, out.DiffKeys)
}

func TestMutateMoveWithinDayClampsDestination(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpMove, TargetDay: 1, TargetIndex: 1,
		DestinationDay: intPtr(1), DestinationIndex: intPtr(99),
	}))

	require.Empty(t, out.Err)
	day := out.ModifiedItinerary.FindDay(1)
	assert.Equal(t, "Gyeongbokgung", day.Places[2].PlaceName)
	assert.Equal(t, []string{"day1_place3"}, out.DiffKeys)
}

func TestMutateCrossDayMoveRejectedByDefault(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, false)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpMove, TargetDay: 1, TargetIndex: 1,
		DestinationDay: intPtr(2), DestinationIndex: intPtr(1),
	}))

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
	assert.Contains(t, out.ChangeSummary, "between days")
}

func TestMutateCrossDayMoveWhenEnabled(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, true)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpMove, TargetDay: 1, TargetIndex: 2,
		DestinationDay: intPtr(2), DestinationIndex: intPtr(1),
	}))

	require.Empty(t, out.Err)
	source := out.ModifiedItinerary.FindDay(1)
	dest := out.ModifiedItinerary.FindDay(2)
	require.Len(t, source.Places, 2)
	require.Len(t, dest.Places, 2)
	assert.Equal(t, "Bukchon Village", dest.Places[0].PlaceName)
	assert.Equal(t, 1, dest.Places[0].VisitSequence)
	assert.Equal(t, []string{"day1_place1", "day2_place1"}, out.DiffKeys)
}

func TestMutateCrossDayMoveCannotEmptySourceDay(t *testing.T) {
	svc := newMutationService(&fakeResolver{}, nil, true)

	out := svc.Mutate(context.Background(), modState(&itinerary_models.EditIntent{
		Op: itinerary_models.OpMove, TargetDay: 2, TargetIndex: 1,
		DestinationDay: intPtr(1), DestinationIndex: intPtr(1),
	}))

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
}
