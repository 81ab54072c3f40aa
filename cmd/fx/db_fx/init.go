package db_fx

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"rightmycv/internal/infra"
	"rightmycv/internal/repositories"
	"rightmycv/pkg/config"
)

var Module = fx.Provide(provideRepositories)

// Repositories exposes one backend's repositories to the graph, chosen by DB_DRIVER.
type Repositories struct {
	fx.Out

	Accounts      repositories.AccountRepository
	Plans         repositories.IPlanRepository
	Subscriptions repositories.SubscriptionRepository
	Resumes       repositories.ResumeRepository
}

func provideRepositories(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (Repositories, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := infra.InitPostgresql(cfg.PostgresURL, log)
		if err != nil {
			return Repositories{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				infra.ClosePostgresql(db, log)
				return nil
			},
		})
		return Repositories{
			Accounts:      repositories.NewAccountRepository(db),
			Plans:         repositories.NewPlanRepository(db),
			Subscriptions: repositories.NewSubscriptionRepository(db),
			Resumes:       repositories.NewResumeRepository(db),
		}, nil

	case config.DriverMongo:
		client, database, err := infra.InitMongo(context.Background(), cfg.MongoURL, cfg.MongoDatabase, log)
		if err != nil {
			return Repositories{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Disconnect(ctx)
			},
		})
		return Repositories{
			Accounts:      repositories.NewMongoAccountRepository(database),
			Plans:         repositories.NewMongoPlanRepository(database),
			Subscriptions: repositories.NewMongoSubscriptionRepository(database),
			Resumes:       repositories.NewMongoResumeRepository(database),
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return Repositories{
			Accounts:      repositories.NewMemoryAccountRepository(),
			Plans:         repositories.NewMemoryPlanRepository(),
			Subscriptions: repositories.NewMemorySubscriptionRepository(),
			Resumes:       repositories.NewMemoryResumeRepository(),
		}, nil
	}
	return Repositories{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}
