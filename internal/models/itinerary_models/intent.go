package itinerary_models

// EditOperation is the structured edit extracted from a user turn.
type EditOperation string

const (
	OpReplace EditOperation = "REPLACE"
	OpAdd     EditOperation = "ADD"
	OpRemove  EditOperation = "REMOVE"
	OpMove    EditOperation = "MOVE"
)

// ChatStatus is the single outcome of one modification turn. Exactly one
// status is returned per request.
type ChatStatus string

const (
	StatusSuccess          ChatStatus = "SUCCESS"
	StatusAskClarification ChatStatus = "ASK_CLARIFICATION"
	StatusRejected         ChatStatus = "REJECTED"
)

// EditIntent is produced once per user turn by intent analysis and consumed
// once by the mutation engine. Indexes are 1-based.
type EditIntent struct {
	Op                 EditOperation `json:"op"`
	TargetDay          int           `json:"target_day"`
	TargetIndex        int           `json:"target_index"`
	DestinationDay     *int          `json:"destination_day,omitempty"`
	DestinationIndex   *int          `json:"destination_index,omitempty"`
	SearchKeyword      string        `json:"search_keyword,omitempty"`
	Reasoning          string        `json:"reasoning"`
	IsCompound         bool          `json:"is_compound"`
	NeedsClarification bool          `json:"needs_clarification"`
}

// PlaceCandidate is one result from the place-search boundary.
type PlaceCandidate struct {
	PlaceID   string   `json:"place_id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	URL       string   `json:"url"`
}

// ToPlace converts a search candidate into an itinerary place at the given
// visit sequence.
func (c PlaceCandidate) ToPlace(visitSequence int) Place {
	return Place{
		PlaceName:     c.Name,
		PlaceID:       c.PlaceID,
		Address:       c.Address,
		Latitude:      c.Latitude,
		Longitude:     c.Longitude,
		PlaceURL:      c.URL,
		Description:   c.Name,
		VisitSequence: visitSequence,
		VisitTime:     "",
	}
}

// Message is one entry of the short conversation history fed to intent
// analysis.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
