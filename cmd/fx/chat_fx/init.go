package chat_fx

import (
	"go.uber.org/fx"
	"tripchat/internal/api/controllers"
	"tripchat/internal/services"
	"tripchat/pkg/utils"
)

var Module = fx.Provide(
	provideIntentService,
	provideMutationService,
	provideCascadeService,
	provideRespondService,
	provideChatService,
	controllers.NewChatController)

func provideIntentService(llm utils.LLMClientInterface) services.IntentServiceInterface {
	return services.NewIntentService(llm)
}

func provideMutationService(resolver services.CandidateResolverInterface, llm utils.LLMClientInterface) services.MutationServiceInterface {
	return services.NewMutationService(resolver, llm, services.NewMutationConfigFromEnv())
}

func provideCascadeService() services.CascadeServiceInterface {
	return services.NewCascadeService(services.NewVisitTimePolicyConfigFromEnv())
}

func provideRespondService(llm utils.LLMClientInterface) services.RespondServiceInterface {
	return services.NewRespondService(llm)
}

func provideChatService(
	intents services.IntentServiceInterface,
	mutations services.MutationServiceInterface,
	cascades services.CascadeServiceInterface,
	responses services.RespondServiceInterface,
) services.ChatServiceInterface {
	return services.NewChatService(intents, mutations, cascades, responses)
}
