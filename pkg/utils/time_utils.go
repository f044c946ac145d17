package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Section labels used for coarse visit times when an itinerary is not in
// PLANNED mode.
const (
	SectionMorning   = "MORNING"
	SectionLunch     = "LUNCH"
	SectionAfternoon = "AFTERNOON"
	SectionDinner    = "DINNER"
	SectionEvening   = "EVENING"
	SectionNight     = "NIGHT"
)

// sectionAnchorMinutes maps a section label to its representative
// minute-of-day, used when a section label acts as a scheduling anchor.
var sectionAnchorMinutes = map[string]int{
	SectionMorning:   9 * 60,
	SectionLunch:     12 * 60,
	SectionAfternoon: 14 * 60,
	SectionDinner:    18 * 60,
	SectionEvening:   20 * 60,
	SectionNight:     22 * 60,
}

// ParseTimeToMinutes parses "H:MM", "HH:MM" and AM/PM suffixed variants into
// minutes since midnight. Minutes default to 0 when absent. Out-of-range
// hour/minute values report ok=false instead of an error.
func ParseTimeToMinutes(value string) (int, bool) {
	text := strings.ToUpper(strings.TrimSpace(value))
	if text == "" {
		return 0, false
	}

	isPM := strings.Contains(text, "PM")
	isAM := strings.Contains(text, "AM")
	cleaned := strings.ReplaceAll(text, "AM", "")
	cleaned = strings.ReplaceAll(cleaned, "PM", "")
	cleaned = strings.TrimRight(strings.TrimSpace(cleaned), ":")

	parts := strings.Split(cleaned, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minute := 0
	if len(parts) > 1 {
		minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, false
		}
	}

	if isPM && hour != 12 {
		hour += 12
	} else if isAM && hour == 12 {
		hour = 0
	}

	if hour < 0 || hour >= 24 || minute < 0 || minute >= 60 {
		return 0, false
	}
	return hour*60 + minute, true
}

// SectionToMinutes resolves a section label to its anchor minute-of-day.
func SectionToMinutes(label string) (int, bool) {
	minutes, ok := sectionAnchorMinutes[strings.ToUpper(strings.TrimSpace(label))]
	return minutes, ok
}

// FormatMinutesToHHMM renders minutes since midnight as zero-padded 24-hour
// "HH:MM", wrapping past midnight.
func FormatMinutesToHHMM(totalMinutes int) string {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	hour := (totalMinutes / 60) % 24
	minute := totalMinutes % 60
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FormatMinutesToSection buckets minutes since midnight into a section label
// by hour: <11 MORNING, <14 LUNCH, <18 AFTERNOON, <20 DINNER, <22 EVENING,
// else NIGHT.
func FormatMinutesToSection(totalMinutes int) string {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	hour := (totalMinutes / 60) % 24
	switch {
	case hour < 11:
		return SectionMorning
	case hour < 14:
		return SectionLunch
	case hour < 18:
		return SectionAfternoon
	case hour < 20:
		return SectionDinner
	case hour < 22:
		return SectionEvening
	default:
		return SectionNight
	}
}

// CeilMinutesToStep rounds minutes up to the next multiple of step. Already
// aligned values are returned unchanged.
func CeilMinutesToStep(totalMinutes, step int) int {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	if step < 1 {
		step = 1
	}
	remainder := totalMinutes % step
	if remainder == 0 {
		return totalMinutes
	}
	return totalMinutes + (step - remainder)
}
