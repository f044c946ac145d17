package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripchat/internal/models/itinerary_models"
	"tripchat/pkg/memcache"
	"tripchat/pkg/utils"
)

func newTestResolver(places PlacesServiceInterface) CandidateResolverInterface {
	return NewCandidateResolver(places, noopRerank{}, memcache.NewSearchCache(time.Minute))
}

func insideCandidate(id string) itinerary_models.PlaceCandidate {
	return itinerary_models.PlaceCandidate{
		PlaceID: id, Name: id,
		Latitude: floatPtr(37.5), Longitude: floatPtr(127.0),
	}
}

func outsideCandidate(id string) itinerary_models.PlaceCandidate {
	return itinerary_models.PlaceCandidate{
		PlaceID: id, Name: id,
		Latitude: floatPtr(35.0), Longitude: floatPtr(129.0),
	}
}

func testRect() *utils.GeoRectangle {
	rect := utils.NewGeoRectangle(37.4, 126.9, 37.6, 127.1)
	return &rect
}

func TestResolveEmptyKeyword(t *testing.T) {
	resolver := newTestResolver(&fakePlaces{})

	_, err := resolver.Resolve(context.Background(), "", testRect(), nil)
	assert.ErrorIs(t, err, utils.ErrMissingKeyword)
}

func TestResolveFirstStageHit(t *testing.T) {
	places := &fakePlaces{results: [][]itinerary_models.PlaceCandidate{
		{insideCandidate("a"), insideCandidate("b")},
	}}
	resolver := newTestResolver(places)

	candidates, err := resolver.Resolve(context.Background(), "cafe", testRect(), nil)

	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	require.Len(t, places.calls, 1)
	assert.NotNil(t, places.calls[0].LocationRestriction, "first stage is geo-restricted")
	assert.Nil(t, places.calls[0].LocationBias)
}

func TestResolveFallsThroughStages(t *testing.T) {
	places := &fakePlaces{results: [][]itinerary_models.PlaceCandidate{
		{},                         // restricted
		{},                         // biased
		{},                         // unrated
		{insideCandidate("found")}, // unfiltered
	}}
	resolver := newTestResolver(places)

	candidates, err := resolver.Resolve(context.Background(), "cafe", testRect(), nil)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "found", candidates[0].PlaceID)
	require.Len(t, places.calls, 4, "each fallback fires only after the previous came back empty")
	assert.NotNil(t, places.calls[1].LocationBias)
	assert.Nil(t, places.calls[3].LocationRestriction)
	assert.Nil(t, places.calls[3].LocationBias)
}

func TestResolveHardFiltersEveryStage(t *testing.T) {
	places := &fakePlaces{results: [][]itinerary_models.PlaceCandidate{
		{outsideCandidate("far")},
		{outsideCandidate("far2"), insideCandidate("near")},
	}}
	resolver := newTestResolver(places)

	candidates, err := resolver.Resolve(context.Background(), "cafe", testRect(), nil)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "near", candidates[0].PlaceID)
}

func TestResolveDropsCandidatesWithoutCoordinates(t *testing.T) {
	places := &fakePlaces{results: [][]itinerary_models.PlaceCandidate{
		{{PlaceID: "nowhere", Name: "nowhere"}, insideCandidate("near")},
	}}
	resolver := newTestResolver(places)

	candidates, err := resolver.Resolve(context.Background(), "cafe", testRect(), nil)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "near", candidates[0].PlaceID)
}

func TestResolveAllStagesEmpty(t *testing.T) {
	places := &fakePlaces{}
	resolver := newTestResolver(places)

	candidates, err := resolver.Resolve(context.Background(), "unfindable", testRect(), nil)

	require.NoError(t, err)
	assert.Empty(t, candidates, "no candidates is a valid outcome, never fabricated")
	assert.Len(t, places.calls, 4)
}

func TestResolveNilRectSkipsBiasStages(t *testing.T) {
	places := &fakePlaces{}
	resolver := newTestResolver(places)

	_, err := resolver.Resolve(context.Background(), "cafe", nil, nil)

	require.NoError(t, err)
	assert.Len(t, places.calls, 2, "restricted and unfiltered only when no rectangle exists")
}

func TestResolveSearchErrorPropagates(t *testing.T) {
	places := &fakePlaces{err: errors.New("upstream down")}
	resolver := newTestResolver(places)

	_, err := resolver.Resolve(context.Background(), "cafe", testRect(), nil)
	assert.Error(t, err)
}

func TestResolveCachesResults(t *testing.T) {
	places := &fakePlaces{results: [][]itinerary_models.PlaceCandidate{
		{insideCandidate("a")},
	}}
	resolver := newTestResolver(places)

	first, err := resolver.Resolve(context.Background(), "cafe", testRect(), nil)
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), "cafe", testRect(), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, places.calls, 1, "second lookup is served from cache")
}
