package places_fx

import (
	"time"

	"go.uber.org/fx"
	"tripchat/internal/services"
	mem "tripchat/pkg/memcache"
	"tripchat/pkg/utils"
)

var Module = fx.Provide(
	providePlacesService, provideSearchCache, provideRerankService, provideCandidateResolver)

func providePlacesService() services.PlacesServiceInterface {
	return services.NewGooglePlacesService()
}

func provideSearchCache() *mem.SearchCache {
	ttl := time.Duration(utils.GetEnvInt("SEARCH_CACHE_TTL_SECONDS", 600)) * time.Second
	return mem.NewSearchCache(ttl)
}

func provideRerankService(llm utils.LLMClientInterface) services.RerankServiceInterface {
	return services.NewRerankService(llm)
}

func provideCandidateResolver(places services.PlacesServiceInterface, rerank services.RerankServiceInterface, cache *mem.SearchCache) services.CandidateResolverInterface {
	return services.NewCandidateResolver(places, rerank, cache)
}
