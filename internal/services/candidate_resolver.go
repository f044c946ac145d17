package services

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/lo"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/memcache"
	"tripchat/pkg/utils"
)

// CandidateResolverInterface turns a search keyword plus a day's geography
// into a ranked candidate list. An empty list with a nil error means the
// keyword genuinely found nothing; callers must not fabricate a place.
type CandidateResolverInterface interface {
	Resolve(ctx context.Context, keyword string, rect *utils.GeoRectangle, day *itinerary_models.Day) ([]itinerary_models.PlaceCandidate, error)
}

type CandidateResolver struct {
	places    PlacesServiceInterface
	rerank    RerankServiceInterface
	cache     *memcache.SearchCache
	minRating *float64
}

func NewCandidateResolver(places PlacesServiceInterface, rerank RerankServiceInterface, cache *memcache.SearchCache) CandidateResolverInterface {
	resolver := &CandidateResolver{
		places: places,
		rerank: rerank,
		cache:  cache,
	}
	if rating := utils.GetEnvFloat("GOOGLE_PLACES_MIN_RATING", 0); rating > 0 {
		resolver.minRating = &rating
	}
	return resolver
}

func cacheKey(keyword string, rect *utils.GeoRectangle) string {
	if rect == nil {
		return keyword
	}
	return fmt.Sprintf("%s|%.5f,%.5f,%.5f,%.5f", keyword, rect.MinLat, rect.MinLng, rect.MaxLat, rect.MaxLng)
}

// hardFilter drops candidates outside the rectangle. Candidates without
// coordinates never pass a geographic filter.
func hardFilter(candidates []itinerary_models.PlaceCandidate, rect *utils.GeoRectangle) []itinerary_models.PlaceCandidate {
	if rect == nil {
		return candidates
	}
	return lo.Filter(candidates, func(c itinerary_models.PlaceCandidate, _ int) bool {
		return c.Latitude != nil && c.Longitude != nil && rect.Contains(*c.Latitude, *c.Longitude)
	})
}

// Resolve runs the search fallback chain: geo-restricted with filters, then
// the rectangle as a soft bias, then filters dropped, then fully unfiltered.
// Every stage is re-filtered client-side against the original rectangle.
// Stages run sequentially; each fallback fires only after the previous stage
// came back empty.
func (r *CandidateResolver) Resolve(ctx context.Context, keyword string, rect *utils.GeoRectangle, day *itinerary_models.Day) ([]itinerary_models.PlaceCandidate, error) {
	if keyword == "" {
		return nil, utils.ErrMissingKeyword
	}

	key := cacheKey(keyword, rect)
	if cached, ok := r.cache.Get(key); ok {
		if candidates, ok := cached.([]itinerary_models.PlaceCandidate); ok {
			return candidates, nil
		}
	}

	stages := []struct {
		scope string
		opts  PlaceSearchOptions
	}{
		{scope: "restricted", opts: PlaceSearchOptions{MinRating: r.minRating, LocationRestriction: rect}},
		{scope: "biased", opts: PlaceSearchOptions{MinRating: r.minRating, LocationBias: rect}},
		{scope: "unrated", opts: PlaceSearchOptions{LocationBias: rect}},
		{scope: "unfiltered", opts: PlaceSearchOptions{}},
	}

	var candidates []itinerary_models.PlaceCandidate
	for _, stage := range stages {
		if rect == nil && (stage.scope == "biased" || stage.scope == "unrated") {
			continue
		}

		found, err := r.places.Search(ctx, keyword, stage.opts)
		if err != nil {
			return nil, err
		}

		candidates = hardFilter(found, rect)
		log.Printf("Candidate search stage: keyword=%q scope=%s raw=%d accepted=%d",
			keyword, stage.scope, len(found), len(candidates))
		if len(candidates) > 0 {
			break
		}
	}

	r.cache.Set(key, candidates)

	if len(candidates) > 1 && r.rerank != nil {
		candidates = r.rerank.Reorder(ctx, keyword, candidates, day)
	}
	return candidates, nil
}
