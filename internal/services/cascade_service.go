package services

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

const visitTimeMinuteStep = 30

// VisitTimePolicyConfig drives the schedule cascade. Built once per service
// from the environment; read-only afterwards.
type VisitTimePolicyConfig struct {
	StartMinutes       int
	StayMinutes        int
	TransitFactor      float64
	TransitBaseMinutes int
	LateHour           int
	WalkWarningMinutes int
}

func NewVisitTimePolicyConfigFromEnv() VisitTimePolicyConfig {
	startMinutes, ok := utils.ParseTimeToMinutes(utils.GetEnv("VISIT_TIME_START", "09:00"))
	if !ok {
		startMinutes = 9 * 60
	}
	return VisitTimePolicyConfig{
		StartMinutes:       startMinutes,
		StayMinutes:        max(1, utils.GetEnvInt("VISIT_TIME_STAY_MINUTES", 90)),
		TransitFactor:      math.Max(0, utils.GetEnvFloat("VISIT_TIME_TRANSIT_FACTOR", 15.0)),
		TransitBaseMinutes: max(0, utils.GetEnvInt("VISIT_TIME_TRANSIT_BASE_MINUTES", 10)),
		LateHour:           min(23, max(0, utils.GetEnvInt("VISIT_TIME_LATE_HOUR", 23))),
		WalkWarningMinutes: max(0, utils.GetEnvInt("VISIT_TIME_WALK_WARNING_MINUTES", 30)),
	}
}

type CascadeServiceInterface interface {
	// Cascade recomputes visit times for every day touched by the diff keys
	// and re-validates the itinerary schema. Pure state in, state out.
	Cascade(state ChatState) ChatState

	// ApplyVisitTimes runs the cascade over one day's places. Returns the
	// rescheduled places and any warnings, in emission order.
	ApplyVisitTimes(places []itinerary_models.Place, dayNumber int, proposals map[int]string, mode itinerary_models.PlanningMode) ([]itinerary_models.Place, []string)
}

type CascadeService struct {
	config VisitTimePolicyConfig
}

func NewCascadeService(config VisitTimePolicyConfig) CascadeServiceInterface {
	return &CascadeService{config: config}
}

// TransitMinutes estimates travel time between two coordinates with the
// policy's linear model: round(great_circle_km x factor + base).
func (s *CascadeService) TransitMinutes(lat1, lng1, lat2, lng2 float64) int {
	distKm := utils.HaversineKm(lat1, lng1, lat2, lng2)
	return int(math.Round(distKm*s.config.TransitFactor + float64(s.config.TransitBaseMinutes)))
}

// resolveAnchorMinutes picks the scheduling anchor for one place: an external
// proposal wins, then a parseable visit_time, then a section label embedded
// in visit_time, then the section hint field.
func resolveAnchorMinutes(place itinerary_models.Place, proposal string) (int, bool) {
	if proposal != "" {
		if minutes, ok := utils.ParseTimeToMinutes(proposal); ok {
			return minutes, true
		}
	}
	if minutes, ok := utils.ParseTimeToMinutes(place.VisitTime); ok {
		return minutes, true
	}
	if minutes, ok := utils.SectionToMinutes(place.VisitTime); ok {
		return minutes, true
	}
	if minutes, ok := utils.SectionToMinutes(place.Section); ok {
		return minutes, true
	}
	return 0, false
}

func formatVisitTime(totalMinutes int, mode itinerary_models.PlanningMode) string {
	if mode == itinerary_models.PlanningModePlanned {
		return utils.FormatMinutesToHHMM(totalMinutes)
	}
	return utils.FormatMinutesToSection(totalMinutes)
}

func (s *CascadeService) ApplyVisitTimes(
	places []itinerary_models.Place,
	dayNumber int,
	proposals map[int]string,
	mode itinerary_models.PlanningMode,
) ([]itinerary_models.Place, []string) {
	if len(places) == 0 {
		return places, nil
	}

	out := make([]itinerary_models.Place, len(places))
	copy(out, places)

	var warnings []string
	prevAssigned := 0

	for i := range out {
		var baseTime int
		if i == 0 {
			baseTime = s.config.StartMinutes
		} else {
			prev := out[i-1]
			cur := out[i]
			transit := 0
			if prev.Latitude != nil && prev.Longitude != nil && cur.Latitude != nil && cur.Longitude != nil {
				transit = s.TransitMinutes(*prev.Latitude, *prev.Longitude, *cur.Latitude, *cur.Longitude)
				if transit > s.config.WalkWarningMinutes {
					warnings = append(warnings, fmt.Sprintf(
						"Day %d: getting from %s to %s takes about %d minutes. Would you like to change the travel mode?",
						dayNumber, prev.PlaceName, cur.PlaceName, transit))
				}
			}
			baseTime = prevAssigned + s.config.StayMinutes + transit
		}

		sequence := out[i].VisitSequence
		if sequence < 1 {
			sequence = i + 1
		}

		assigned := baseTime
		if anchor, ok := resolveAnchorMinutes(out[i], proposals[sequence]); ok {
			assigned = max(baseTime, anchor)
		}
		assigned = utils.CeilMinutesToStep(assigned, visitTimeMinuteStep)

		if assigned >= 24*60 {
			warnings = append(warnings, fmt.Sprintf("Day %d schedule runs past midnight.", dayNumber))
			for j := i; j < len(out); j++ {
				out[j].VisitTime = itinerary_models.ScheduleExceededSentinel
				out[j].Section = ""
			}
			return out, warnings
		}

		out[i].VisitTime = formatVisitTime(assigned, mode)
		out[i].Section = ""

		if assigned/60 >= s.config.LateHour {
			warnings = append(warnings, fmt.Sprintf(
				"Day %d: %s is scheduled for %d:00, which is quite late.",
				dayNumber, out[i].PlaceName, assigned/60))
		}

		prevAssigned = assigned
	}

	return out, warnings
}

// ExtractModifiedDays pulls the distinct day numbers out of diff keys of the
// form day<N>_place<M>.
func ExtractModifiedDays(diffKeys []string) []int {
	days := lo.FilterMap(diffKeys, func(key string, _ int) (int, bool) {
		prefix, _, found := strings.Cut(key, "_")
		if !found || !strings.HasPrefix(prefix, "day") {
			return 0, false
		}
		day, err := strconv.Atoi(strings.TrimPrefix(prefix, "day"))
		if err != nil {
			return 0, false
		}
		return day, true
	})
	return lo.Uniq(days)
}

func (s *CascadeService) Cascade(state ChatState) ChatState {
	if state.ModifiedItinerary == nil {
		state.Err = "cascade requires a modified itinerary"
		return state
	}

	itinerary := state.ModifiedItinerary.Clone()
	modifiedDays := ExtractModifiedDays(state.DiffKeys)

	for _, dayNumber := range modifiedDays {
		day := itinerary.FindDay(dayNumber)
		if day == nil || len(day.Places) == 0 {
			continue
		}
		rescheduled, warnings := s.ApplyVisitTimes(
			day.Places, dayNumber, state.VisitTimeProposals[dayNumber], itinerary.PlanningMode)
		day.Places = rescheduled
		state.Warnings = append(state.Warnings, warnings...)
	}

	if err := itinerary.Validate(); err != nil {
		log.Printf("Modified itinerary failed schema validation: %v", err)
		state.Status = itinerary_models.StatusRejected
		state.Err = "modified itinerary failed schema validation"
		return state
	}

	state.ModifiedItinerary = itinerary
	return state
}
