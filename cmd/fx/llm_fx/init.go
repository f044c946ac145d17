package llm_fx

import (
	"go.uber.org/fx"
	"tripchat/pkg/utils"
)

var Module = fx.Provide(
	provideLLMClient)

func provideLLMClient() utils.LLMClientInterface {
	return utils.NewLLMRouterFromEnv()
}
