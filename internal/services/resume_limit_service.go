package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"rightmycv/internal/models/response_models"
	"rightmycv/internal/repositories"
	"rightmycv/pkg/entitlement"
	"rightmycv/pkg/utils"
)

type ResumeLimitServiceInterface interface {
	GetResumeLimits(ctx context.Context, userID uuid.UUID) (response_models.ResumeLimits, error)
	// CheckCanCreate returns ErrResumeLimitReached when the user's plan does not allow another resume.
	CheckCanCreate(ctx context.Context, userID uuid.UUID) error
}

type ResumeLimitService struct {
	accountRepo repositories.AccountRepository
	resumeRepo  repositories.ResumeRepository
}

func NewResumeLimitService(accountRepo repositories.AccountRepository, resumeRepo repositories.ResumeRepository) ResumeLimitServiceInterface {
	return &ResumeLimitService{
		accountRepo: accountRepo,
		resumeRepo:  resumeRepo,
	}
}

func (r *ResumeLimitService) GetResumeLimits(ctx context.Context, userID uuid.UUID) (response_models.ResumeLimits, error) {
	account, err := r.accountRepo.FindById(ctx, userID.String())
	if err != nil {
		return response_models.ResumeLimits{}, dbErr("find account", err)
	}
	if account == nil {
		return response_models.ResumeLimits{}, utils.ErrAccountNotFound
	}

	used, err := r.resumeRepo.CountByUser(ctx, userID)
	if err != nil {
		return response_models.ResumeLimits{}, dbErr("count resumes", err)
	}

	plan := account.Plan()
	limits := entitlement.LimitsFor(plan)
	result := response_models.ResumeLimits{
		PlanName:  plan,
		CanCreate: entitlement.IsWithinLimit(plan, used),
		Used:      used,
	}
	if !limits.IsUnlimited() {
		total := limits.Ceiling
		remaining := total - used
		if remaining < 0 {
			remaining = 0
		}
		result.Total = &total
		result.Remaining = &remaining
	}
	return result, nil
}

func (r *ResumeLimitService) CheckCanCreate(ctx context.Context, userID uuid.UUID) error {
	limits, err := r.GetResumeLimits(ctx, userID)
	if err != nil {
		return err
	}
	if !limits.CanCreate {
		return fmt.Errorf("%w: %s plan", utils.ErrResumeLimitReached, limits.PlanName)
	}
	return nil
}
