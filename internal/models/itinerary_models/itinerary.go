package itinerary_models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// PlanningMode selects how visit times are rendered: exact HH:MM clock times
// for PLANNED trips, coarse section labels otherwise.
type PlanningMode string

const (
	PlanningModePlanned  PlanningMode = "PLANNED"
	PlanningModeFlexible PlanningMode = "FLEXIBLE"
)

const (
	MinPlacesPerDay = 1
	MaxPlacesPerDay = 10
)

// ScheduleExceededSentinel marks places that could not be scheduled because
// the day's accumulated time passed midnight.
const ScheduleExceededSentinel = "SCHEDULE_EXCEEDED"

// Place is one visit entry inside a day. Latitude/longitude are optional and
// nil when unknown.
type Place struct {
	PlaceName     string   `json:"place_name" validate:"required"`
	PlaceID       string   `json:"place_id"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	PlaceURL      string   `json:"place_url"`
	Description   string   `json:"description"`
	VisitSequence int      `json:"visit_sequence" validate:"gte=1"`
	VisitTime     string   `json:"visit_time"`
	Section       string   `json:"section,omitempty"`
}

// Day is one trip day with its ordered places.
type Day struct {
	DayNumber int     `json:"day_number" validate:"gte=1"`
	DailyDate string  `json:"daily_date" validate:"required"`
	Places    []Place `json:"places" validate:"min=1,max=10,dive"`
}

// Itinerary is the root aggregate handed in and out of the modification
// pipeline. Treat values as immutable: every edit works on a Clone.
type Itinerary struct {
	StartDate    string       `json:"start_date" validate:"required"`
	EndDate      string       `json:"end_date" validate:"required"`
	TripDays     int          `json:"trip_days" validate:"gte=1"`
	Nights       int          `json:"nights" validate:"gte=0"`
	PeopleCount  int          `json:"people_count" validate:"gte=1"`
	Tags         []string     `json:"tags"`
	Title        string       `json:"title" validate:"required"`
	Summary      string       `json:"summary"`
	PlanningMode PlanningMode `json:"planning_preference" validate:"required,oneof=PLANNED FLEXIBLE"`
	Days         []Day        `json:"itinerary" validate:"min=1,dive"`
}

// Clone deep-copies the itinerary so mutations never alias the caller's
// value.
func (it *Itinerary) Clone() *Itinerary {
	if it == nil {
		return nil
	}
	out := *it

	out.Tags = append([]string(nil), it.Tags...)
	out.Days = make([]Day, len(it.Days))
	for i, day := range it.Days {
		copied := day
		copied.Places = make([]Place, len(day.Places))
		for j, place := range day.Places {
			copiedPlace := place
			if place.Latitude != nil {
				lat := *place.Latitude
				copiedPlace.Latitude = &lat
			}
			if place.Longitude != nil {
				lng := *place.Longitude
				copiedPlace.Longitude = &lng
			}
			copied.Places[j] = copiedPlace
		}
		out.Days[i] = copied
	}
	return &out
}

// FindDay returns the day with the given 1-based day number, or nil.
func (it *Itinerary) FindDay(dayNumber int) *Day {
	for i := range it.Days {
		if it.Days[i].DayNumber == dayNumber {
			return &it.Days[i]
		}
	}
	return nil
}

// ReorderVisitSequence renumbers a day's places densely 1..N in array order.
func ReorderVisitSequence(places []Place) {
	for i := range places {
		places[i].VisitSequence = i + 1
	}
}

// BuildDiffKey formats the changed-slot identifier surfaced to the caller.
// The literal format day<N>_place<M> is a UI contract; never change it.
func BuildDiffKey(dayNumber, position int) string {
	return fmt.Sprintf("day%d_place%d", dayNumber, position)
}

var itineraryValidator = validator.New()

// Validate checks the itinerary against its schema: required root fields,
// day/place bounds (1..10 places per day), positive sequences.
func (it *Itinerary) Validate() error {
	return itineraryValidator.Struct(it)
}
