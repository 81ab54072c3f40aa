package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"rightmycv/internal/models/db_models"
	"rightmycv/pkg/entitlement"
)

// In-memory backends selected with DB_DRIVER=memory. They keep the same
// contracts as the gorm and mongo repositories and copy records in and out so
// callers never share state with the store.

type memoryAccountRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]db_models.Account
}

func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{byID: make(map[uuid.UUID]db_models.Account)}
}

func (m *memoryAccountRepository) Insert(_ context.Context, account *db_models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.byID {
		if a.Email == account.Email {
			return fmt.Errorf("account with email %q already exists", account.Email)
		}
	}
	account.EnsureDefaults(time.Now())
	if account.SubscriptionPlan == "" {
		account.SubscriptionPlan = string(entitlement.TierFree)
	}
	m.byID[account.ID] = *account
	return nil
}

func (m *memoryAccountRepository) FindById(_ context.Context, id string) (*db_models.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[uid]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memoryAccountRepository) FindByEmail(_ context.Context, email string) (*db_models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.byID {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memoryAccountRepository) UpdateSubscriptionPlan(_ context.Context, id uuid.UUID, plan string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	a.SubscriptionPlan = plan
	a.UpdatedAt = time.Now()
	m.byID[id] = a
	return true, nil
}

type memoryPlanRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]db_models.Plan
}

func NewMemoryPlanRepository() IPlanRepository {
	return &memoryPlanRepository{byID: make(map[uuid.UUID]db_models.Plan)}
}

func (m *memoryPlanRepository) GetPlanInfoById(_ context.Context, planID string) (*db_models.Plan, error) {
	uid, err := uuid.Parse(planID)
	if err != nil {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[uid]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memoryPlanRepository) GetPlanByName(_ context.Context, name string) (*db_models.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.byID {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memoryPlanRepository) GetActivePlans(_ context.Context) ([]db_models.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plans := make([]db_models.Plan, 0, len(m.byID))
	for _, p := range m.byID {
		if p.IsActive {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].PriceUSD < plans[j].PriceUSD })
	return plans, nil
}

func (m *memoryPlanRepository) Insert(_ context.Context, plan *db_models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.byID {
		if p.Name == plan.Name {
			return fmt.Errorf("plan %q already exists", plan.Name)
		}
	}
	plan.EnsureDefaults(time.Now())
	m.byID[plan.ID] = *plan
	return nil
}

type memorySubscriptionRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]db_models.Subscription
}

func NewMemorySubscriptionRepository() SubscriptionRepository {
	return &memorySubscriptionRepository{byID: make(map[uuid.UUID]db_models.Subscription)}
}

func cloneSubscription(s db_models.Subscription) db_models.Subscription {
	s.PaymentHistory = append([]string(nil), s.PaymentHistory...)
	return s
}

func (m *memorySubscriptionRepository) CreateSuperseding(_ context.Context, sub *db_models.Subscription, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub.EnsureDefaults(time.Now())
	for id, s := range m.byID {
		if s.UserID == sub.UserID && s.Status == db_models.SubStatusActive {
			at := sub.CreatedAt
			r := reason
			s.Status = db_models.SubStatusCancelled
			s.CancelledAt = &at
			s.CancellationReason = &r
			s.UpdatedAt = at
			m.byID[id] = s
		}
	}
	m.byID[sub.ID] = cloneSubscription(*sub)
	return nil
}

func (m *memorySubscriptionRepository) FindById(_ context.Context, id string) (*db_models.Subscription, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[uid]
	if !ok {
		return nil, nil
	}
	c := cloneSubscription(s)
	return &c, nil
}

func (m *memorySubscriptionRepository) FindLatestByUser(_ context.Context, userID uuid.UUID, status db_models.SubscriptionStatus) (*db_models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *db_models.Subscription
	for _, s := range m.byID {
		if s.UserID != userID || s.Status != status {
			continue
		}
		if latest == nil || newerThan(s, *latest) {
			c := cloneSubscription(s)
			latest = &c
		}
	}
	return latest, nil
}

func (m *memorySubscriptionRepository) FindByPaymentReference(_ context.Context, reference string) (*db_models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *db_models.Subscription
	for _, s := range m.byID {
		if !s.HasPayment(reference) {
			continue
		}
		if latest == nil || newerThan(s, *latest) {
			c := cloneSubscription(s)
			latest = &c
		}
	}
	return latest, nil
}

func newerThan(a, b db_models.Subscription) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

func (m *memorySubscriptionRepository) AdvancePeriod(_ context.Context, id uuid.UUID, expectedEnd time.Time, adv PeriodAdvance) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok || !s.CurrentPeriodEnd.Equal(expectedEnd) {
		return false, nil
	}
	pd, end := adv.PaymentDate, adv.End
	s = cloneSubscription(s)
	s.PaymentHistory = append(s.PaymentHistory, adv.Reference)
	s.CurrentPeriodStart = adv.Start
	s.CurrentPeriodEnd = adv.End
	s.NextBillingDate = adv.End
	s.NextPaymentDate = &end
	s.LastPaymentDate = &pd
	s.UpdatedAt = adv.UpdatedAt
	m.byID[id] = s
	return true, nil
}

func (m *memorySubscriptionRepository) UpdateStatus(_ context.Context, id uuid.UUID, upd StatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	s.Status = upd.Status
	s.UpdatedAt = upd.UpdatedAt
	if upd.CancelledAt != nil {
		at := *upd.CancelledAt
		s.CancelledAt = &at
		s.CancellationReason = upd.Reason
	}
	m.byID[id] = s
	return true, nil
}

func (m *memorySubscriptionRepository) filterActive(keep func(db_models.Subscription) bool, less func(a, b db_models.Subscription) bool) []db_models.Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]db_models.Subscription, 0)
	for _, s := range m.byID {
		if s.Status == db_models.SubStatusActive && keep(s) {
			out = append(out, cloneSubscription(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (m *memorySubscriptionRepository) ListActiveEndingBefore(_ context.Context, t time.Time) ([]db_models.Subscription, error) {
	return m.filterActive(
		func(s db_models.Subscription) bool { return s.CurrentPeriodEnd.Before(t) },
		func(a, b db_models.Subscription) bool { return a.CurrentPeriodEnd.Before(b.CurrentPeriodEnd) },
	), nil
}

func (m *memorySubscriptionRepository) ListActiveRenewingBetween(_ context.Context, from, to time.Time) ([]db_models.Subscription, error) {
	return m.filterActive(
		func(s db_models.Subscription) bool {
			return s.NextPaymentDate != nil && !s.NextPaymentDate.Before(from) && !s.NextPaymentDate.After(to)
		},
		func(a, b db_models.Subscription) bool { return a.NextPaymentDate.Before(*b.NextPaymentDate) },
	), nil
}

func (m *memorySubscriptionRepository) ActiveStats(_ context.Context) (SubscriptionStats, error) {
	all := m.filterActive(
		func(db_models.Subscription) bool { return true },
		func(a, b db_models.Subscription) bool { return false },
	)
	return summarize(all), nil
}

func summarize(active []db_models.Subscription) SubscriptionStats {
	stats := SubscriptionStats{TotalActive: int64(len(active))}
	for _, s := range active {
		stats.TotalRevenue += s.Amount
		switch s.BillingCycle {
		case entitlement.CycleMonthly:
			stats.MonthlyRevenue += s.Amount
		case entitlement.CycleAnnual:
			stats.AnnualRevenue += s.Amount
		}
	}
	return stats
}

type memoryResumeRepository struct {
	mu     sync.RWMutex
	counts map[uuid.UUID]int64
}

// MemoryResumeRepository also exposes Add so tests and local runs can seed resumes.
type MemoryResumeRepository interface {
	ResumeRepository
	Add(userID uuid.UUID, n int64)
}

func NewMemoryResumeRepository() MemoryResumeRepository {
	return &memoryResumeRepository{counts: make(map[uuid.UUID]int64)}
}

func (m *memoryResumeRepository) Add(userID uuid.UUID, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[userID] += n
}

func (m *memoryResumeRepository) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[userID], nil
}
