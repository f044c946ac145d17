package utils

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDayNotFound         = errors.New("target day not found")
	ErrPlaceIndexNotFound  = errors.New("target place index not found")
	ErrMissingKeyword      = errors.New("search keyword is missing")
	ErrPlacesSearchFailed  = errors.New("place search failed")
	ErrLLMUnavailable      = errors.New("llm call failed")
	ErrSessionNotFound     = errors.New("chat session not found")
	ErrInvalidCallbackURL  = errors.New("invalid callback url")
	ErrItineraryValidation = errors.New("itinerary failed schema validation")
	ErrDatabaseError       = errors.New("database error")
)
