package resume_fx

import (
	"go.uber.org/fx"
	"rightmycv/internal/repositories"
	"rightmycv/internal/services"
)

var Module = fx.Provide(provideResumeLimitService)

func provideResumeLimitService(accountRepo repositories.AccountRepository, resumeRepo repositories.ResumeRepository) services.ResumeLimitServiceInterface {
	return services.NewResumeLimitService(accountRepo, resumeRepo)
}
