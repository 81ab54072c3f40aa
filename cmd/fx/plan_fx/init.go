package plan_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"rightmycv/internal/repositories"
	"rightmycv/internal/services"
	"rightmycv/pkg/config"
)

var Module = fx.Options(
	fx.Provide(providePlanService),
	fx.Invoke(seedPlans),
)

func providePlanService(planRepo repositories.IPlanRepository, log *zap.Logger) services.PlanServiceInterface {
	return services.NewPlanService(planRepo, log)
}

func seedPlans(lc fx.Lifecycle, cfg *config.Config, planService services.PlanServiceInterface, log *zap.Logger) {
	if !cfg.SeedPlans {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			created, err := planService.SeedDefaultPlans(ctx)
			if err != nil {
				return err
			}
			log.Info("plan catalog seeded", zap.Int("created", len(created)))
			return nil
		},
	})
}
