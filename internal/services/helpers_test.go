package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rightmycv/internal/models/db_models"
	"rightmycv/internal/repositories"
	"rightmycv/internal/services"
	mem "rightmycv/pkg/memcache"
	"rightmycv/pkg/paystack"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGateway struct {
	configured bool
	calls      atomic.Int32

	mu       sync.Mutex
	response string
	err      error
	release  chan struct{}
	ctxErrs  []error
	initReqs []paystack.InitializeRequest
}

func (g *fakeGateway) IsConfigured() bool { return g.configured }
func (g *fakeGateway) PublicKey() string  { return "pk_test" }

func (g *fakeGateway) Initialize(_ context.Context, in paystack.InitializeRequest) (*paystack.InitializeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initReqs = append(g.initReqs, in)
	if g.err != nil {
		return nil, g.err
	}
	return &paystack.InitializeResponse{
		Status: true,
		Data:   paystack.InitializeData{AuthorizationURL: "https://checkout/abc", AccessCode: "abc", Reference: "ref_new"},
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, _ string) (*paystack.VerifyResponse, error) {
	g.calls.Add(1)
	if g.release != nil {
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	if g.err != nil {
		return nil, g.err
	}
	var resp paystack.VerifyResponse
	if err := json.Unmarshal([]byte(g.response), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *fakeGateway) setResponse(body string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.response = body
	g.err = err
}

type fixture struct {
	clock    *testClock
	gateway  *fakeGateway
	cache    *mem.VerificationCache
	accounts repositories.AccountRepository
	plans    repositories.IPlanRepository
	subs     repositories.SubscriptionRepository
	resumes  repositories.MemoryResumeRepository
	ledger   services.SubscriptionServiceInterface
	payments services.PaymentService
}

func newFixture(t *testing.T, serialize bool) *fixture {
	t.Helper()

	f := &fixture{
		clock:    newTestClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)),
		gateway:  &fakeGateway{configured: true},
		accounts: repositories.NewMemoryAccountRepository(),
		plans:    repositories.NewMemoryPlanRepository(),
		subs:     repositories.NewMemorySubscriptionRepository(),
		resumes:  repositories.NewMemoryResumeRepository(),
	}
	log := zap.NewNop()

	f.cache = mem.NewVerificationCache(mem.DefaultCacheConfig(), f.clock.Now)
	f.ledger = services.NewSubscriptionService(f.subs, f.plans, f.clock.Now, log)
	f.payments = services.NewPaymentService(f.gateway, f.cache, f.accounts, f.ledger, services.PaymentConfig{
		MinorUnitDivisor:       100,
		SerializeConfirmations: serialize,
		FrontendURL:            "https://app.rightmycv.test",
	}, f.clock.Now, log)

	_, err := services.NewPlanService(f.plans, log).SeedDefaultPlans(context.Background())
	require.NoError(t, err)
	return f
}

func (f *fixture) plan(t *testing.T, name string) *db_models.Plan {
	t.Helper()
	p, err := f.plans.GetPlanByName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (f *fixture) account(t *testing.T, email string) *db_models.Account {
	t.Helper()
	a := &db_models.Account{Email: email, FirstName: "Ada", LastName: "Obi"}
	require.NoError(t, f.accounts.Insert(context.Background(), a))
	return a
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *db_models.Account {
	t.Helper()
	a, err := f.accounts.FindById(context.Background(), id.String())
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func zapNop() *zap.Logger { return zap.NewNop() }
