package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"rightmycv/internal/models/db_models"
	"rightmycv/pkg/entitlement"
)

// PeriodAdvance is the set of fields a renewal rewrites in one step.
type PeriodAdvance struct {
	Reference   string
	Start       time.Time
	End         time.Time
	PaymentDate time.Time
	UpdatedAt   time.Time
}

type StatusUpdate struct {
	Status      db_models.SubscriptionStatus
	CancelledAt *time.Time
	Reason      *string
	UpdatedAt   time.Time
}

type SubscriptionStats struct {
	TotalActive    int64   `json:"total_active"`
	TotalRevenue   float64 `json:"total_revenue"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
	AnnualRevenue  float64 `json:"annual_revenue"`
}

// SubscriptionRepository persists subscription records. Finders return nil, nil on a miss.
type SubscriptionRepository interface {
	// CreateSuperseding inserts sub and, in the same unit of work, cancels every
	// other active subscription of the same user with the given reason.
	CreateSuperseding(ctx context.Context, sub *db_models.Subscription, reason string) error
	FindById(ctx context.Context, id string) (*db_models.Subscription, error)
	// FindLatestByUser returns the most recently created record with the status.
	FindLatestByUser(ctx context.Context, userID uuid.UUID, status db_models.SubscriptionStatus) (*db_models.Subscription, error)
	// FindByPaymentReference returns the most recent record of any status whose
	// payment history contains reference.
	FindByPaymentReference(ctx context.Context, reference string) (*db_models.Subscription, error)
	// AdvancePeriod applies adv only if the stored period end still equals
	// expectedEnd. It reports whether the row was updated.
	AdvancePeriod(ctx context.Context, id uuid.UUID, expectedEnd time.Time, adv PeriodAdvance) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (bool, error)
	ListActiveEndingBefore(ctx context.Context, t time.Time) ([]db_models.Subscription, error)
	ListActiveRenewingBetween(ctx context.Context, from, to time.Time) ([]db_models.Subscription, error)
	ActiveStats(ctx context.Context) (SubscriptionStats, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (s *subscriptionRepository) CreateSuperseding(ctx context.Context, sub *db_models.Subscription, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&db_models.Subscription{}).
			Where("user_id = ? AND status = ?", sub.UserID, db_models.SubStatusActive).
			Updates(map[string]interface{}{
				"status":              db_models.SubStatusCancelled,
				"cancelled_at":        sub.CreatedAt,
				"cancellation_reason": reason,
				"updated_at":          sub.CreatedAt,
			}).Error
		if err != nil {
			return err
		}
		return tx.Create(sub).Error
	})
}

func (s *subscriptionRepository) FindById(ctx context.Context, id string) (*db_models.Subscription, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var sub db_models.Subscription
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID, status db_models.SubscriptionStatus) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Order("id DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionRepository) FindByPaymentReference(ctx context.Context, reference string) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := s.db.WithContext(ctx).
		Where("? = ANY(payment_history)", reference).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionRepository) AdvancePeriod(ctx context.Context, id uuid.UUID, expectedEnd time.Time, adv PeriodAdvance) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ? AND current_period_end = ?", id, expectedEnd).
		Updates(map[string]interface{}{
			"payment_history":      gorm.Expr("array_append(payment_history, ?)", adv.Reference),
			"current_period_start": adv.Start,
			"current_period_end":   adv.End,
			"next_billing_date":    adv.End,
			"next_payment_date":    adv.End,
			"last_payment_date":    adv.PaymentDate,
			"updated_at":           adv.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *subscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (bool, error) {
	fields := map[string]interface{}{
		"status":     upd.Status,
		"updated_at": upd.UpdatedAt,
	}
	if upd.CancelledAt != nil {
		fields["cancelled_at"] = *upd.CancelledAt
		fields["cancellation_reason"] = upd.Reason
	}

	res := s.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *subscriptionRepository) ListActiveEndingBefore(ctx context.Context, t time.Time) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND current_period_end < ?", db_models.SubStatusActive, t).
		Order("current_period_end ASC").
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionRepository) ListActiveRenewingBetween(ctx context.Context, from, to time.Time) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND next_payment_date >= ? AND next_payment_date <= ?", db_models.SubStatusActive, from, to).
		Order("next_payment_date ASC").
		Find(&subs).Error
	return subs, err
}

func (s *subscriptionRepository) ActiveStats(ctx context.Context) (SubscriptionStats, error) {
	var stats SubscriptionStats
	err := s.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Select(`COUNT(*) AS total_active,
			COALESCE(SUM(amount), 0) AS total_revenue,
			COALESCE(SUM(CASE WHEN billing_cycle = ? THEN amount ELSE 0 END), 0) AS monthly_revenue,
			COALESCE(SUM(CASE WHEN billing_cycle = ? THEN amount ELSE 0 END), 0) AS annual_revenue`,
			entitlement.CycleMonthly, entitlement.CycleAnnual).
		Where("status = ?", db_models.SubStatusActive).
		Scan(&stats).Error
	return stats, err
}
