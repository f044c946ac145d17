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

func TestClassifyGeneralChat(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "GENERAL_CHAT", "reasoning": "information question"}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "why is the palace first?",
	})

	assert.Equal(t, IntentTypeGeneralChat, out.IntentType)
	assert.Empty(t, out.Status)
	assert.Nil(t, out.Intent)
}

func TestClassifyDayLevelDeleteRejected(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "DELETE", "target_scope": "DAY_LEVEL"}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "delete day 1",
	})

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
	assert.Contains(t, out.ChangeSummary, "whole day")
}

func TestClassifyAmbiguousDeleteAsksClarification(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "DELETE", "target_scope": "UNKNOWN"}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "remove a place on day 1",
	})

	assert.Equal(t, itinerary_models.StatusAskClarification, out.Status)
}

func TestClassifyDayLevelChangeRejected(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "MOVE", "target_scope": "DAY_LEVEL"}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "move day 1 to day 2",
	})

	assert.Equal(t, itinerary_models.StatusRejected, out.Status)
	assert.Contains(t, out.ChangeSummary, "cannot be changed")
}

func TestClassifyExtractsIntent(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "REPLACE", "target_scope": "ITEM_LEVEL"}`,
		utils.StageExtractIntent:  `{"op": "REPLACE", "target_day": 1, "target_index": 2, "search_keyword": "Seoul, South Korea brunch cafe", "reasoning": "swap requested"}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "swap the village for a brunch cafe",
	})

	require.NotNil(t, out.Intent)
	assert.Empty(t, out.Status)
	assert.Equal(t, itinerary_models.OpReplace, out.Intent.Op)
	assert.Equal(t, 1, out.Intent.TargetDay)
	assert.Equal(t, 2, out.Intent.TargetIndex)
}

func TestClassifyPrependsRegionHintToKeyword(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "ADD", "target_scope": "ITEM_LEVEL"}`,
		utils.StageExtractIntent:  `{"op": "ADD", "target_day": 1, "target_index": 2, "search_keyword": "brunch cafe"}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "add a brunch cafe after the palace",
	})

	require.NotNil(t, out.Intent)
	assert.Equal(t, "Seoul, South Korea brunch cafe", out.Intent.SearchKeyword)
}

func TestClassifyNeedsClarificationFromModel(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "REPLACE", "target_scope": "ITEM_LEVEL"}`,
		utils.StageExtractIntent:  `{"op": "REPLACE", "target_day": 1, "target_index": 1, "search_keyword": "restaurant", "needs_clarification": true, "reasoning": "there are two restaurants on day 1"}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "change the restaurant",
	})

	assert.Equal(t, itinerary_models.StatusAskClarification, out.Status)
	assert.Equal(t, "there are two restaurants on day 1", out.ChangeSummary)
}

func TestClassifyReplaceWithoutKeywordAsksClarification(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "REPLACE", "target_scope": "ITEM_LEVEL"}`,
		utils.StageExtractIntent:  `{"op": "REPLACE", "target_day": 1, "target_index": 1}`,
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "change the first stop",
	})

	assert.Equal(t, itinerary_models.StatusAskClarification, out.Status)
}

func TestClassifyRecoversIntentFromNoisyJSON(t *testing.T) {
	llm := &fakeLLM{responses: map[utils.LLMStage]string{
		utils.StageClassifyIntent: `{"intent_type": "MODIFICATION", "requested_action": "REMOVE", "target_scope": "ITEM_LEVEL"}`,
		utils.StageExtractIntent:  "Sure, here is the intent:\n```json\n{\"op\": \"REMOVE\", \"target_day\": 1, \"target_index\": 3}\n```",
	}}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "drop the third stop on day 1",
	})

	require.NotNil(t, out.Intent)
	assert.Equal(t, itinerary_models.OpRemove, out.Intent.Op)
	assert.Equal(t, 3, out.Intent.TargetIndex)
}

func TestClassifyLLMFailureFallsBackToHeuristics(t *testing.T) {
	llm := &fakeLLM{err: errors.New("llm down")}
	svc := NewIntentService(llm)

	out := svc.Classify(context.Background(), ChatState{
		CurrentItinerary: testItinerary(),
		UserQuery:        "what is the best season to visit?",
	})
	assert.Equal(t, IntentTypeGeneralChat, out.IntentType)
}

func TestHeuristicDayDelete(t *testing.T) {
	assert.True(t, isExplicitDayDeleteRequest("delete day 1"))
	assert.True(t, isExplicitDayDeleteRequest("please remove the entire day 2"))
	assert.False(t, isExplicitDayDeleteRequest("delete the 2nd place on day 1"))
}

func TestHeuristicAmbiguousDelete(t *testing.T) {
	assert.True(t, isAmbiguousItemDeleteRequest("remove a place on day 1"))
	assert.False(t, isAmbiguousItemDeleteRequest("remove the 2nd place on day 1"))
	assert.False(t, isAmbiguousItemDeleteRequest("what places are on day 1?"))
}

func TestHeuristicDayOrDateChange(t *testing.T) {
	assert.True(t, isDayOrDateChangeRequest("change the dates of the trip"))
	assert.True(t, isDayOrDateChangeRequest("move day 1 to day 3"))
	assert.False(t, isDayOrDateChangeRequest("move the cafe earlier"))
}

func TestHeuristicModificationKeyword(t *testing.T) {
	assert.True(t, hasModificationKeyword("replace the cafe"))
	assert.True(t, hasModificationKeyword("ADD a museum"))
	assert.False(t, hasModificationKeyword("how long is the walk?"))
}

func TestExtractRegionHintEnglishAddress(t *testing.T) {
	hint := extractRegionHint("300 Olympic-ro, Songpa-gu, Seoul, South Korea")
	assert.Equal(t, "Seoul, South Korea", hint)
}

func TestExtractRegionHintSkipsPostalCodes(t *testing.T) {
	hint := extractRegionHint("1 Chome-1-2 Oshiage, Sumida City, 131-0045, Japan")
	assert.Equal(t, "Sumida City, Japan", hint)
}

func TestExtractRegionHintEmptyAddress(t *testing.T) {
	assert.Empty(t, extractRegionHint(""))
	assert.Empty(t, extractRegionHint("   "))
}
