package services

import (
	"context"

	"go.uber.org/zap"
	"rightmycv/internal/models/db_models"
	"rightmycv/internal/models/response_models"
	"rightmycv/internal/repositories"
	"rightmycv/pkg/entitlement"
	"rightmycv/pkg/utils"
)

type PlanServiceInterface interface {
	GetPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
	GetPlanInfoById(ctx context.Context, planId string) (response_models.SubscriptionPlan, error)
	// SeedDefaultPlans inserts every catalog plan missing by name and returns the ones it created.
	SeedDefaultPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
}

func NewPlanService(planRepo repositories.IPlanRepository, log *zap.Logger) PlanServiceInterface {
	return &PlanService{
		planRepo: planRepo,
		log:      log.Named("plans"),
	}
}

type PlanService struct {
	planRepo repositories.IPlanRepository
	log      *zap.Logger
}

func (p *PlanService) GetPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	plans, err := p.planRepo.GetActivePlans(ctx)
	if err != nil {
		return nil, dbErr("list plans", err)
	}

	result := make([]response_models.SubscriptionPlan, 0, len(plans))
	for i := range plans {
		result = append(result, response_models.NewSubscriptionPlan(&plans[i]))
	}
	return result, nil
}

func (p *PlanService) GetPlanInfoById(ctx context.Context, planId string) (response_models.SubscriptionPlan, error) {

	plan, err := p.planRepo.GetPlanInfoById(ctx, planId)
	if err != nil {
		return response_models.SubscriptionPlan{}, dbErr("find plan", err)
	}

	if plan == nil {
		return response_models.SubscriptionPlan{}, utils.ErrPlanNotFound
	}

	return response_models.NewSubscriptionPlan(plan), nil
}

func (p *PlanService) SeedDefaultPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	created := make([]response_models.SubscriptionPlan, 0)
	for _, plan := range DefaultPlans() {
		existing, err := p.planRepo.GetPlanByName(ctx, plan.Name)
		if err != nil {
			return nil, dbErr("find plan by name", err)
		}
		if existing != nil {
			continue
		}

		plan := plan
		if err := p.planRepo.Insert(ctx, &plan); err != nil {
			return nil, dbErr("insert plan", err)
		}
		created = append(created, response_models.NewSubscriptionPlan(&plan))
	}

	if len(created) > 0 {
		p.log.Info("seeded default plans", zap.Int("created", len(created)))
	}
	return created, nil
}

var (
	premiumFeatures = []string{
		"All templates (15+)",
		"Advanced AI suggestions",
		"Up to 10 resumes",
		"Cover letter builder",
		"Export as PDF, DOCX, TXT",
		"Full customization",
		"No watermark",
	}
	professionalFeatures = []string{
		"Everything in Premium",
		"Unlimited resumes",
		"LinkedIn profile optimization",
		"Expert resume review",
		"Priority AI suggestions",
		"Job application tracking",
		"Interview preparation",
		"Priority support",
	}
)

// DefaultPlans is the catalog shipped with the product, one plan per tier.
func DefaultPlans() []db_models.Plan {
	return []db_models.Plan{
		{
			Name:         string(entitlement.TierFree),
			Description:  "Basic resume creation",
			BillingCycle: entitlement.CycleFor(entitlement.TierFree),
			Features:     []string{"1 resume template", "Basic AI suggestions", "Download as PDF", "Limited customization"},
			IsActive:     true,
		},
		{
			Name:         string(entitlement.TierPremiumAnnual),
			Description:  "Advanced features for job seekers",
			PriceUSD:     7.99,
			PriceNGN:     13188,
			BillingCycle: entitlement.CycleFor(entitlement.TierPremiumAnnual),
			Features:     premiumFeatures,
			IsActive:     true,
		},
		{
			Name:         string(entitlement.TierPremium),
			Description:  "Advanced features for job seekers",
			PriceUSD:     9.99,
			PriceNGN:     16485,
			BillingCycle: entitlement.CycleFor(entitlement.TierPremium),
			Features:     premiumFeatures,
			IsActive:     true,
		},
		{
			Name:         string(entitlement.TierProfessionalAnnual),
			Description:  "For career professionals",
			PriceUSD:     16.99,
			PriceNGN:     28019,
			BillingCycle: entitlement.CycleFor(entitlement.TierProfessionalAnnual),
			Features:     professionalFeatures,
			IsActive:     true,
		},
		{
			Name:         string(entitlement.TierProfessional),
			Description:  "For career professionals",
			PriceUSD:     19.99,
			PriceNGN:     32970,
			BillingCycle: entitlement.CycleFor(entitlement.TierProfessional),
			Features:     professionalFeatures,
			IsActive:     true,
		},
	}
}
