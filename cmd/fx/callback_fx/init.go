package callback_fx

import (
	"go.uber.org/fx"
	"tripchat/internal/services"
)

var Module = fx.Provide(
	provideCallbackService)

func provideCallbackService() services.CallbackServiceInterface {
	return services.NewCallbackService(services.NewCallbackConfigFromEnv())
}
