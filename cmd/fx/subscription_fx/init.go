package subscription_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"rightmycv/internal/repositories"
	"rightmycv/internal/services"
)

var Module = fx.Provide(
	services.SystemClock, provideSubscriptionService)

func provideSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	planRepo repositories.IPlanRepository,
	clock services.Clock,
	log *zap.Logger,
) services.SubscriptionServiceInterface {
	return services.NewSubscriptionService(subRepo, planRepo, clock, log)
}
