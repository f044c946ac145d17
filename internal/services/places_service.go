package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/utils"
)

// PlaceSearchOptions narrows a text search. LocationRestriction and
// LocationBias are mutually exclusive: a restriction excludes results outside
// the rectangle, a bias only prefers them.
type PlaceSearchOptions struct {
	PriceLevels         []string
	MinRating           *float64
	LocationRestriction *utils.GeoRectangle
	LocationBias        *utils.GeoRectangle
}

type PlacesServiceInterface interface {
	Search(ctx context.Context, query string, opts PlaceSearchOptions) ([]itinerary_models.PlaceCandidate, error)
}

// GooglePlacesService calls the Places text-search API.
type GooglePlacesService struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	pageSize     int
	languageCode string
}

const placesSearchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.googleMapsUri"

func NewGooglePlacesService() *GooglePlacesService {
	apiKey := utils.GetEnv("GOOGLE_PLACES_API_KEY", "")
	if apiKey == "" {
		log.Println("GOOGLE_PLACES_API_KEY is not configured")
	}
	return &GooglePlacesService{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		baseURL:      "https://places.googleapis.com/v1",
		pageSize:     5,
		languageCode: utils.GetEnv("GOOGLE_PLACES_LANGUAGE_CODE", "ko"),
	}
}

type placesRectanglePayload struct {
	Rectangle struct {
		Low  placesLatLng `json:"low"`
		High placesLatLng `json:"high"`
	} `json:"rectangle"`
}

type placesLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func rectanglePayload(rect utils.GeoRectangle) placesRectanglePayload {
	var payload placesRectanglePayload
	payload.Rectangle.Low = placesLatLng{Latitude: rect.MinLat, Longitude: rect.MinLng}
	payload.Rectangle.High = placesLatLng{Latitude: rect.MaxLat, Longitude: rect.MaxLng}
	return payload
}

type placesSearchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		Location         *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		GoogleMapsURI string `json:"googleMapsUri"`
	} `json:"places"`
}

func (s *GooglePlacesService) Search(ctx context.Context, query string, opts PlaceSearchOptions) ([]itinerary_models.PlaceCandidate, error) {
	if query == "" {
		return nil, nil
	}
	if opts.LocationRestriction != nil && opts.LocationBias != nil {
		return nil, fmt.Errorf("locationRestriction and locationBias cannot both be set")
	}

	payload := map[string]interface{}{
		"textQuery": query,
		"pageSize":  s.pageSize,
	}
	if s.languageCode != "" {
		payload["languageCode"] = s.languageCode
	}
	if opts.MinRating != nil {
		payload["minRating"] = math.Min(5.0, math.Max(0.0, *opts.MinRating))
	}
	if len(opts.PriceLevels) > 0 {
		payload["priceLevels"] = opts.PriceLevels
	}
	if opts.LocationRestriction != nil {
		payload["locationRestriction"] = rectanglePayload(*opts.LocationRestriction)
	} else if opts.LocationBias != nil {
		payload["locationBias"] = rectanglePayload(*opts.LocationBias)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.apiKey)
	req.Header.Set("X-Goog-FieldMask", placesSearchFieldMask)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPlacesSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Google Places API error: status=%d", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", utils.ErrPlacesSearchFailed, resp.StatusCode)
	}

	var decoded placesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPlacesSearchFailed, err)
	}

	candidates := make([]itinerary_models.PlaceCandidate, 0, len(decoded.Places))
	for _, raw := range decoded.Places {
		if raw.ID == "" || raw.DisplayName.Text == "" || raw.Location == nil {
			continue
		}
		lat := raw.Location.Latitude
		lng := raw.Location.Longitude
		candidates = append(candidates, itinerary_models.PlaceCandidate{
			PlaceID:   raw.ID,
			Name:      raw.DisplayName.Text,
			Address:   raw.FormattedAddress,
			Latitude:  &lat,
			Longitude: &lng,
			URL:       raw.GoogleMapsURI,
		})
	}

	log.Printf("Google Places search completed: query=%q geo_restricted=%t geo_biased=%t candidate_count=%d",
		query, opts.LocationRestriction != nil, opts.LocationBias != nil, len(candidates))
	return candidates, nil
}
