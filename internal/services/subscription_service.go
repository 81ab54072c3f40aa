package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"rightmycv/internal/models/db_models"
	"rightmycv/internal/repositories"
	"rightmycv/pkg/entitlement"
	"rightmycv/pkg/utils"
)

const (
	DefaultUpcomingRenewalDays = 7
	SupersededReason           = "superseded"

	maxRenewalAttempts = 3
)

type CreateSubscriptionInput struct {
	UserID           uuid.UUID
	PlanID           uuid.UUID
	PlanName         string
	BillingCycle     entitlement.BillingCycle
	Amount           float64
	Currency         string
	PaymentReference string
	PaymentDate      time.Time
	Metadata         map[string]interface{}
}

type SubscriptionServiceInterface interface {
	CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*db_models.Subscription, error)
	RecordRenewalPayment(ctx context.Context, subscriptionID string, reference string, paymentDate time.Time) (*db_models.Subscription, error)
	SetStatus(ctx context.Context, subscriptionID string, status db_models.SubscriptionStatus, reason string) (*db_models.Subscription, error)
	CancelForUser(ctx context.Context, userID uuid.UUID, reason string) (*db_models.Subscription, error)
	ReactivateForUser(ctx context.Context, userID uuid.UUID) (*db_models.Subscription, error)
	// GetActiveFor returns nil, nil when the user has no active subscription.
	GetActiveFor(ctx context.Context, userID uuid.UUID) (*db_models.Subscription, error)
	// FindByPaymentReference returns the record, of any status, that already
	// holds reference in its payment history, or nil, nil.
	FindByPaymentReference(ctx context.Context, reference string) (*db_models.Subscription, error)
	GetExpired(ctx context.Context) ([]db_models.Subscription, error)
	GetUpcomingRenewals(ctx context.Context, daysAhead int) ([]db_models.Subscription, error)
	Stats(ctx context.Context) (repositories.SubscriptionStats, error)
}

type SubscriptionService struct {
	subRepo  repositories.SubscriptionRepository
	planRepo repositories.IPlanRepository
	clock    Clock
	log      *zap.Logger
}

func NewSubscriptionService(subRepo repositories.SubscriptionRepository, planRepo repositories.IPlanRepository, clock Clock, log *zap.Logger) SubscriptionServiceInterface {
	if clock == nil {
		clock = SystemClock()
	}
	return &SubscriptionService{
		subRepo:  subRepo,
		planRepo: planRepo,
		clock:    clock,
		log:      log.Named("subscriptions"),
	}
}

func dbErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", utils.ErrDatabaseError, op, err)
}

func (s *SubscriptionService) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*db_models.Subscription, error) {
	if in.UserID == uuid.Nil || in.PaymentReference == "" {
		return nil, fmt.Errorf("%w: user id and payment reference are required", utils.ErrInvalidInput)
	}
	if !in.BillingCycle.Valid() {
		return nil, fmt.Errorf("%w: billing cycle %q", utils.ErrInvalidInput, in.BillingCycle)
	}

	plan, err := s.planRepo.GetPlanInfoById(ctx, in.PlanID.String())
	if err != nil {
		return nil, dbErr("find plan", err)
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}

	start := in.PaymentDate
	end := utils.AddBillingPeriod(start, in.BillingCycle)
	paid, next := start, end

	sub := &db_models.Subscription{
		UserID:             in.UserID,
		PlanID:             in.PlanID,
		PlanName:           in.PlanName,
		Status:             db_models.SubStatusActive,
		BillingCycle:       in.BillingCycle,
		Amount:             in.Amount,
		Currency:           in.Currency,
		PaymentReference:   in.PaymentReference,
		PaymentDate:        in.PaymentDate,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		NextBillingDate:    end,
		AutoRenew:          true,
		PaymentHistory:     []string{in.PaymentReference},
		LastPaymentDate:    &paid,
		NextPaymentDate:    &next,
	}
	sub.CreatedAt = s.clock()
	sub.UpdatedAt = sub.CreatedAt
	if len(in.Metadata) > 0 {
		if b, err := json.Marshal(in.Metadata); err == nil {
			sub.Metadata = datatypes.JSON(b)
		}
	}

	if err := s.subRepo.CreateSuperseding(ctx, sub, SupersededReason); err != nil {
		return nil, dbErr("create subscription", err)
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("user_id", sub.UserID.String()),
		zap.String("plan_name", sub.PlanName),
		zap.Time("period_end", sub.CurrentPeriodEnd))
	return sub, nil
}

func (s *SubscriptionService) RecordRenewalPayment(ctx context.Context, subscriptionID string, reference string, paymentDate time.Time) (*db_models.Subscription, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", utils.ErrInvalidInput)
	}

	for attempt := 0; attempt < maxRenewalAttempts; attempt++ {
		sub, err := s.subRepo.FindById(ctx, subscriptionID)
		if err != nil {
			return nil, dbErr("find subscription", err)
		}
		if sub == nil {
			return nil, utils.ErrSubscriptionNotFound
		}

		adv := repositories.PeriodAdvance{
			Reference:   reference,
			Start:       sub.CurrentPeriodEnd,
			End:         utils.AddBillingPeriod(sub.CurrentPeriodEnd, sub.BillingCycle),
			PaymentDate: paymentDate,
			UpdatedAt:   s.clock(),
		}
		ok, err := s.subRepo.AdvancePeriod(ctx, sub.ID, sub.CurrentPeriodEnd, adv)
		if err != nil {
			return nil, dbErr("advance period", err)
		}
		if !ok {
			continue
		}

		end, paid := adv.End, adv.PaymentDate
		sub.PaymentHistory = append(sub.PaymentHistory, reference)
		sub.CurrentPeriodStart = adv.Start
		sub.CurrentPeriodEnd = end
		sub.NextBillingDate = end
		sub.NextPaymentDate = &end
		sub.LastPaymentDate = &paid
		sub.UpdatedAt = adv.UpdatedAt

		s.log.Info("renewal recorded",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("reference", reference),
			zap.Time("period_end", end))
		return sub, nil
	}

	return nil, utils.ErrConcurrentUpdate
}

func (s *SubscriptionService) SetStatus(ctx context.Context, subscriptionID string, status db_models.SubscriptionStatus, reason string) (*db_models.Subscription, error) {
	// expired is derived from the period end, never stored
	if !status.Valid() || status == db_models.SubStatusExpired {
		return nil, utils.ErrInvalidStatus
	}

	sub, err := s.subRepo.FindById(ctx, subscriptionID)
	if err != nil {
		return nil, dbErr("find subscription", err)
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}

	now := s.clock()
	upd := repositories.StatusUpdate{Status: status, UpdatedAt: now}
	if status == db_models.SubStatusCancelled {
		upd.CancelledAt = &now
		if reason != "" {
			r := reason
			upd.Reason = &r
		}
	}

	ok, err := s.subRepo.UpdateStatus(ctx, sub.ID, upd)
	if err != nil {
		return nil, dbErr("update status", err)
	}
	if !ok {
		return nil, utils.ErrSubscriptionNotFound
	}

	sub.Status = status
	sub.UpdatedAt = now
	if upd.CancelledAt != nil {
		sub.CancelledAt = upd.CancelledAt
		sub.CancellationReason = upd.Reason
	}
	return sub, nil
}

func (s *SubscriptionService) CancelForUser(ctx context.Context, userID uuid.UUID, reason string) (*db_models.Subscription, error) {
	active, err := s.GetActiveFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	return s.SetStatus(ctx, active.ID.String(), db_models.SubStatusCancelled, reason)
}

// ReactivateForUser reopens the user's most recently created cancelled
// subscription. It refuses when the user already has an active one.
func (s *SubscriptionService) ReactivateForUser(ctx context.Context, userID uuid.UUID) (*db_models.Subscription, error) {
	active, err := s.GetActiveFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: user already has an active subscription", utils.ErrInvalidStatus)
	}

	cancelled, err := s.subRepo.FindLatestByUser(ctx, userID, db_models.SubStatusCancelled)
	if err != nil {
		return nil, dbErr("find cancelled subscription", err)
	}
	if cancelled == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	return s.SetStatus(ctx, cancelled.ID.String(), db_models.SubStatusActive, "")
}

func (s *SubscriptionService) FindByPaymentReference(ctx context.Context, reference string) (*db_models.Subscription, error) {
	sub, err := s.subRepo.FindByPaymentReference(ctx, reference)
	if err != nil {
		return nil, dbErr("find subscription by payment reference", err)
	}
	return sub, nil
}

func (s *SubscriptionService) GetActiveFor(ctx context.Context, userID uuid.UUID) (*db_models.Subscription, error) {
	sub, err := s.subRepo.FindLatestByUser(ctx, userID, db_models.SubStatusActive)
	if err != nil {
		return nil, dbErr("find active subscription", err)
	}
	return sub, nil
}

func (s *SubscriptionService) GetExpired(ctx context.Context) ([]db_models.Subscription, error) {
	subs, err := s.subRepo.ListActiveEndingBefore(ctx, s.clock())
	if err != nil {
		return nil, dbErr("list expired", err)
	}
	return subs, nil
}

func (s *SubscriptionService) GetUpcomingRenewals(ctx context.Context, daysAhead int) ([]db_models.Subscription, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultUpcomingRenewalDays
	}
	now := s.clock()
	subs, err := s.subRepo.ListActiveRenewingBetween(ctx, now, now.AddDate(0, 0, daysAhead))
	if err != nil {
		return nil, dbErr("list upcoming renewals", err)
	}
	return subs, nil
}

func (s *SubscriptionService) Stats(ctx context.Context) (repositories.SubscriptionStats, error) {
	stats, err := s.subRepo.ActiveStats(ctx)
	if err != nil {
		return repositories.SubscriptionStats{}, dbErr("subscription stats", err)
	}
	return stats, nil
}
