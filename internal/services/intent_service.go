package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

const classifierSystemPrompt = `You are a travel conversation router.
Classify the user request as exactly one of:

- GENERAL_CHAT: questions, explanations, recommendations, small talk
- MODIFICATION: an actual change request (add/remove/replace/reorder a place)

Rules:
- Pure information questions and recommendation requests are GENERAL_CHAT.
- Explicit change verbs (change, swap, add, remove, move, reorder) mean MODIFICATION.
- For MODIFICATION also classify requested_action and target_scope.
- requested_action: DELETE, ADD, REPLACE, MOVE, or UNKNOWN.
- target_scope:
  - DAY_LEVEL: the day itself ("delete day 1", "move day 2 to day 3", "change the dates")
  - ITEM_LEVEL: a place inside a day
  - UNKNOWN: the scope cannot be determined
- "delete day 1" is DAY_LEVEL DELETE; "delete the 2nd place on day 1" is ITEM_LEVEL DELETE.
- "delete a place on day 1" without a position is DELETE with target_scope UNKNOWN.
Respond with JSON only:
{"intent_type": "GENERAL_CHAT|MODIFICATION", "requested_action": "...", "target_scope": "...", "reasoning": "..."}`

const extractionSystemPrompt = `You analyze travel itinerary modification requests and extract a structured intent.

Rules:
1. op is one of REPLACE, ADD, REMOVE, MOVE.
2. Map expressions like "lunch", "the cafe", "that one" to (target_day, target_index)
   using the mapping table below and the conversation context.
3. For REPLACE/ADD, write search_keyword as a Google Places text query of the form
   "<region or neighborhood> <place name or type>", e.g. "Shibuya Tokyo sushi omakase".
   Include the target day's region context in the keyword. For REMOVE/MOVE set it to null.
4. For MOVE set destination_day and destination_index; for other ops leave them null.
5. If more than one modification is requested, extract only the FIRST and set is_compound to true.
6. If the target cannot be identified uniquely, set needs_clarification to true and
   explain the ambiguity in reasoning.

Current itinerary mapping table:
%s

Respond with JSON only:
{"op": "...", "target_day": 1, "target_index": 1, "destination_day": null, "destination_index": null, "search_keyword": null, "reasoning": "...", "is_compound": false, "needs_clarification": false}`

type intentRoute struct {
	IntentType      string `json:"intent_type"`
	RequestedAction string `json:"requested_action"`
	TargetScope     string `json:"target_scope"`
	Reasoning       string `json:"reasoning"`
}

type intentDraft struct {
	Op                 string  `json:"op"`
	TargetDay          int     `json:"target_day"`
	TargetIndex        int     `json:"target_index"`
	DestinationDay     *int    `json:"destination_day"`
	DestinationIndex   *int    `json:"destination_index"`
	SearchKeyword      *string `json:"search_keyword"`
	Reasoning          string  `json:"reasoning"`
	IsCompound         bool    `json:"is_compound"`
	NeedsClarification bool    `json:"needs_clarification"`
}

type IntentServiceInterface interface {
	// Classify routes the user query and, for modifications, extracts the
	// structured edit intent. Pure state in, state out.
	Classify(ctx context.Context, state ChatState) ChatState
}

type IntentService struct {
	llm utils.LLMClientInterface
}

func NewIntentService(llm utils.LLMClientInterface) IntentServiceInterface {
	return &IntentService{llm: llm}
}

func buildItineraryTable(itinerary *itinerary_models.Itinerary) string {
	var lines []string
	for _, day := range itinerary.Days {
		for _, place := range day.Places {
			lines = append(lines, fmt.Sprintf("- Day %d, #%d: %s (%s)",
				day.DayNumber, place.VisitSequence, place.PlaceName, place.VisitTime))
		}
	}
	if len(lines) == 0 {
		return "(the itinerary is empty)"
	}
	return strings.Join(lines, "\n")
}

func buildHistoryContext(history []itinerary_models.Message) string {
	if len(history) == 0 {
		return ""
	}
	var lines []string
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("[%s] %s", msg.Role, msg.Content))
	}
	return "Recent conversation:\n" + strings.Join(lines, "\n") + "\n\n"
}

var (
	postalCodePattern   = regexp.MustCompile(`^(\d{4,10}|\d{5}-\d{4}|[A-Z]\d[A-Z]\s?\d[A-Z]\d)$`)
	shortAbbrevPattern  = regexp.MustCompile(`^[A-Z]{2,3}$`)
	letterPattern       = regexp.MustCompile(`[A-Za-z]`)
	dayNumberPattern    = regexp.MustCompile(`day\s*\d+`)
	itemSelectorPattern = regexp.MustCompile(`\d+\s*(st|nd|rd|th|번|번째)`)
)

// extractRegionHint pulls a "city, country" style hint from a comma-separated
// address, skipping street numbers, postal codes and state abbreviations.
func extractRegionHint(address string) string {
	parts := strings.Split(address, ",")
	var cleaned []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	if len(cleaned) < 2 {
		return firstNameToken(cleaned[0])
	}

	country := cleaned[len(cleaned)-1]
	if !letterPattern.MatchString(country) {
		return ""
	}
	for i := len(cleaned) - 2; i >= 0; i-- {
		token := cleaned[i]
		if shortAbbrevPattern.MatchString(token) || postalCodePattern.MatchString(strings.ToUpper(token)) {
			continue
		}
		if token[0] >= '0' && token[0] <= '9' {
			continue
		}
		if !letterPattern.MatchString(token) {
			continue
		}
		return token + ", " + country
	}
	return country
}

func firstNameToken(segment string) string {
	for _, token := range strings.Fields(segment) {
		if token[0] >= '0' && token[0] <= '9' {
			continue
		}
		return token
	}
	return ""
}

func buildDayRegionHints(itinerary *itinerary_models.Itinerary) map[int]string {
	hints := make(map[int]string)
	for _, day := range itinerary.Days {
		for _, place := range day.Places {
			if hint := extractRegionHint(place.Address); hint != "" {
				hints[day.DayNumber] = hint
				break
			}
		}
	}
	return hints
}

func formatDayRegionContext(hints map[int]string) string {
	if len(hints) == 0 {
		return "(no address-based region hints found)"
	}
	days := make([]int, 0, len(hints))
	for day := range hints {
		days = append(days, day)
	}
	sort.Ints(days)
	var lines []string
	for _, day := range days {
		lines = append(lines, fmt.Sprintf("- Day %d: %s", day, hints[day]))
	}
	return strings.Join(lines, "\n")
}

// ensureKeywordContainsRegion prepends the target day's region hint to
// REPLACE/ADD search keywords when the model left it out.
func ensureKeywordContainsRegion(intent *itinerary_models.EditIntent, hints map[int]string) {
	if intent.Op != itinerary_models.OpReplace && intent.Op != itinerary_models.OpAdd {
		return
	}
	keyword := strings.TrimSpace(intent.SearchKeyword)
	if keyword == "" {
		return
	}
	hint, ok := hints[intent.TargetDay]
	if !ok || strings.Contains(strings.ToLower(keyword), strings.ToLower(hint)) {
		return
	}
	intent.SearchKeyword = hint + " " + keyword
}

func hasModificationKeyword(query string) bool {
	keywords := []string{"replace", "swap", "change", "add", "remove", "delete", "drop", "move", "reorder", "switch"}
	normalized := strings.ToLower(query)
	for _, keyword := range keywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

func isDayOrDateChangeRequest(query string) bool {
	text := strings.ToLower(strings.TrimSpace(query))
	if text == "" {
		return false
	}
	dayTokens := []string{"trip day", "the dates", "travel date", "whole day", "entire day"}
	changeTokens := []string{"change", "swap", "move", "shift", "reschedule"}
	hasDay := false
	for _, token := range dayTokens {
		if strings.Contains(text, token) {
			hasDay = true
			break
		}
	}
	hasChange := false
	for _, token := range changeTokens {
		if strings.Contains(text, token) {
			hasChange = true
			break
		}
	}
	if hasDay && hasChange {
		return true
	}
	// "move day 1 to day 3" style requests between day numbers
	if len(dayNumberPattern.FindAllString(text, -1)) >= 2 && hasChange && strings.Contains(text, " to ") {
		return true
	}
	return false
}

var explicitDayDeletePattern = regexp.MustCompile(`(delete|remove|drop|cancel)\s+(the\s+)?(entire\s+|whole\s+)?day\s*\d+|day\s*\d+\s+(entirely|completely)?\s*(delete|remove|drop)`)

func isExplicitDayDeleteRequest(query string) bool {
	return explicitDayDeletePattern.MatchString(strings.ToLower(strings.TrimSpace(query)))
}

// isAmbiguousItemDeleteRequest detects deletes that reference a day and a
// place but never pin down which position.
func isAmbiguousItemDeleteRequest(query string) bool {
	text := strings.ToLower(strings.TrimSpace(query))
	if text == "" || isExplicitDayDeleteRequest(text) {
		return false
	}
	if !strings.Contains(text, "day") {
		return false
	}
	hasDelete := false
	for _, token := range []string{"delete", "remove", "drop"} {
		if strings.Contains(text, token) {
			hasDelete = true
			break
		}
	}
	if !hasDelete {
		return false
	}
	hasItemWord := false
	for _, token := range []string{"place", "spot", "stop", "visit"} {
		if strings.Contains(text, token) {
			hasItemWord = true
			break
		}
	}
	return hasItemWord && !itemSelectorPattern.MatchString(text)
}

func (s *IntentService) classifyRoute(ctx context.Context, itineraryTable, historyContext, userQuery string) intentRoute {
	userPrompt := fmt.Sprintf("%sCurrent itinerary mapping:\n%s\n\nUser request: %s",
		historyContext, itineraryTable, userQuery)

	content, err := s.llm.Complete(ctx, utils.StageClassifyIntent, classifierSystemPrompt, userPrompt)
	if err == nil {
		var route intentRoute
		if utils.DecodeJSONObject(content, &route) && route.IntentType != "" {
			return route
		}
		err = fmt.Errorf("unparseable route response")
	}

	log.Printf("Intent routing failed, falling back to heuristics: %v", err)
	switch {
	case isDayOrDateChangeRequest(userQuery):
		return intentRoute{IntentType: IntentTypeModification, RequestedAction: "MOVE", TargetScope: "DAY_LEVEL"}
	case isExplicitDayDeleteRequest(userQuery):
		return intentRoute{IntentType: IntentTypeModification, RequestedAction: "DELETE", TargetScope: "DAY_LEVEL"}
	case isAmbiguousItemDeleteRequest(userQuery):
		return intentRoute{IntentType: IntentTypeModification, RequestedAction: "DELETE", TargetScope: "UNKNOWN"}
	case hasModificationKeyword(userQuery):
		return intentRoute{IntentType: IntentTypeModification, RequestedAction: "UNKNOWN", TargetScope: "UNKNOWN"}
	default:
		return intentRoute{IntentType: IntentTypeGeneralChat}
	}
}

func (s *IntentService) extractIntent(ctx context.Context, itineraryTable, historyContext, dayRegionContext, userQuery string) (*intentDraft, error) {
	systemPrompt := fmt.Sprintf(extractionSystemPrompt, itineraryTable)
	userPrompt := fmt.Sprintf("%sRegion context per day:\n%s\n\nUser request: %s",
		historyContext, dayRegionContext, userQuery)

	content, err := s.llm.Complete(ctx, utils.StageExtractIntent, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var draft intentDraft
	if !utils.DecodeJSONObject(content, &draft) {
		return nil, fmt.Errorf("could not parse modification intent response")
	}
	return &draft, nil
}

func (d *intentDraft) toEditIntent() *itinerary_models.EditIntent {
	intent := &itinerary_models.EditIntent{
		Op:                 itinerary_models.EditOperation(strings.ToUpper(strings.TrimSpace(d.Op))),
		TargetDay:          d.TargetDay,
		TargetIndex:        d.TargetIndex,
		DestinationDay:     d.DestinationDay,
		DestinationIndex:   d.DestinationIndex,
		Reasoning:          d.Reasoning,
		IsCompound:         d.IsCompound,
		NeedsClarification: d.NeedsClarification,
	}
	if d.SearchKeyword != nil {
		intent.SearchKeyword = strings.TrimSpace(*d.SearchKeyword)
	}
	if intent.TargetDay < 1 {
		intent.TargetDay = 1
	}
	if intent.TargetIndex < 1 {
		intent.TargetIndex = 1
	}
	return intent
}

func validateEditIntent(intent *itinerary_models.EditIntent) bool {
	switch intent.Op {
	case itinerary_models.OpReplace, itinerary_models.OpAdd:
		return intent.SearchKeyword != ""
	case itinerary_models.OpRemove, itinerary_models.OpMove:
		return true
	default:
		return false
	}
}

func (s *IntentService) Classify(ctx context.Context, state ChatState) ChatState {
	if state.CurrentItinerary == nil || strings.TrimSpace(state.UserQuery) == "" {
		state.Err = "classification requires a current itinerary and a user query"
		return state
	}

	itineraryTable := buildItineraryTable(state.CurrentItinerary)
	historyContext := buildHistoryContext(state.SessionHistory)
	dayRegionHints := buildDayRegionHints(state.CurrentItinerary)
	dayRegionContext := formatDayRegionContext(dayRegionHints)

	route := s.classifyRoute(ctx, itineraryTable, historyContext, state.UserQuery)
	if route.IntentType == IntentTypeGeneralChat {
		state.IntentType = IntentTypeGeneralChat
		return state
	}
	state.IntentType = IntentTypeModification

	if route.RequestedAction == "DELETE" && route.TargetScope == "DAY_LEVEL" {
		state.Status = itinerary_models.StatusRejected
		state.ChangeSummary = "Deleting a whole day is not supported. Please point at a place within a day, e.g. 'remove the 2nd place on day 1'."
		return state
	}
	if route.RequestedAction == "DELETE" && route.TargetScope == "UNKNOWN" {
		state.Status = itinerary_models.StatusAskClarification
		state.ChangeSummary = "Which place should I remove? Please give the day and the position, e.g. 'remove the 2nd place on day 1'."
		return state
	}
	if route.TargetScope == "DAY_LEVEL" || isDayOrDateChangeRequest(state.UserQuery) {
		state.Status = itinerary_models.StatusRejected
		state.ChangeSummary = "Days and dates themselves cannot be changed. Only the places within each day can be modified."
		return state
	}

	draft, err := s.extractIntent(ctx, itineraryTable, historyContext, dayRegionContext, state.UserQuery)
	if err != nil {
		log.Printf("Intent extraction failed: %v", err)
		state.Err = "modification intent analysis failed"
		return state
	}

	intent := draft.toEditIntent()
	ensureKeywordContainsRegion(intent, dayRegionHints)

	if intent.NeedsClarification {
		state.Intent = intent
		state.Status = itinerary_models.StatusAskClarification
		state.ChangeSummary = intent.Reasoning
		if state.ChangeSummary == "" {
			state.ChangeSummary = "The request is ambiguous. Could you be more specific about what to change?"
		}
		return state
	}

	if !validateEditIntent(intent) {
		state.Intent = intent
		state.Status = itinerary_models.StatusAskClarification
		state.ChangeSummary = intent.Reasoning
		if state.ChangeSummary == "" {
			state.ChangeSummary = "I need a bit more detail to identify the change. Could you rephrase the request?"
		}
		return state
	}

	state.Intent = intent
	return state
}
