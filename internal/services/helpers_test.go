package services

import (
	"context"
	"errors"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func testPolicyConfig() VisitTimePolicyConfig {
	return VisitTimePolicyConfig{
		StartMinutes:       9 * 60,
		StayMinutes:        90,
		TransitFactor:      15.0,
		TransitBaseMinutes: 10,
		LateHour:           23,
		WalkWarningMinutes: 30,
	}
}

func testItinerary() *itinerary_models.Itinerary {
	return &itinerary_models.Itinerary{
		StartDate:    "2026-09-01",
		EndDate:      "2026-09-02",
		TripDays:     2,
		Nights:       1,
		PeopleCount:  2,
		Title:        "Seoul weekend",
		PlanningMode: itinerary_models.PlanningModePlanned,
		Days: []itinerary_models.Day{
			{
				DayNumber: 1,
				DailyDate: "2026-09-01",
				Places: []itinerary_models.Place{
					{PlaceName: "Gyeongbokgung", PlaceID: "p1", Address: "161 Sajik-ro, Jongno-gu, Seoul, South Korea", VisitSequence: 1, Latitude: floatPtr(37.5796), Longitude: floatPtr(126.9770), VisitTime: "09:00"},
					{PlaceName: "Bukchon Village", PlaceID: "p2", Address: "37 Gyedong-gil, Jongno-gu, Seoul, South Korea", VisitSequence: 2, Latitude: floatPtr(37.5826), Longitude: floatPtr(126.9831), VisitTime: "11:00"},
					{PlaceName: "Insadong", PlaceID: "p3", Address: "62 Insadong-gil, Jongno-gu, Seoul, South Korea", VisitSequence: 3, Latitude: floatPtr(37.5744), Longitude: floatPtr(126.9856), VisitTime: "13:00"},
				},
			},
			{
				DayNumber: 2,
				DailyDate: "2026-09-02",
				Places: []itinerary_models.Place{
					{PlaceName: "Lotte Tower", PlaceID: "p4", Address: "300 Olympic-ro, Songpa-gu, Seoul, South Korea", VisitSequence: 1, Latitude: floatPtr(37.5125), Longitude: floatPtr(127.1025), VisitTime: "10:00"},
				},
			},
		},
	}
}

// fakeLLM returns canned responses per stage and records calls.
type fakeLLM struct {
	responses map[utils.LLMStage]string
	err       error
	calls     []utils.LLMStage
}

func (f *fakeLLM) Complete(_ context.Context, stage utils.LLMStage, _ string, _ string) (string, error) {
	f.calls = append(f.calls, stage)
	if f.err != nil {
		return "", f.err
	}
	if resp, ok := f.responses[stage]; ok {
		return resp, nil
	}
	return "", errors.New("no canned response for stage")
}

// fakePlaces replays a scripted sequence of search results, one per call.
type fakePlaces struct {
	results [][]itinerary_models.PlaceCandidate
	err     error
	calls   []PlaceSearchOptions
}

func (f *fakePlaces) Search(_ context.Context, _ string, opts PlaceSearchOptions) ([]itinerary_models.PlaceCandidate, error) {
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next, nil
}

type fakeResolver struct {
	candidates []itinerary_models.PlaceCandidate
	err        error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, _ *utils.GeoRectangle, _ *itinerary_models.Day) ([]itinerary_models.PlaceCandidate, error) {
	return f.candidates, f.err
}

type noopRerank struct{}

func (noopRerank) Reorder(_ context.Context, _ string, candidates []itinerary_models.PlaceCandidate, _ *itinerary_models.Day) []itinerary_models.PlaceCandidate {
	return candidates
}
