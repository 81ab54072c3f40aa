package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rightmycv/internal/api/controllers"
	"rightmycv/internal/models/db_models"
	"rightmycv/internal/repositories"
	"rightmycv/internal/services"
	mem "rightmycv/pkg/memcache"
	"rightmycv/pkg/middleware"
	"rightmycv/pkg/paystack"
	"rightmycv/pkg/utils"
)

var jwtSecret = []byte("test-secret")

type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	TraceID string          `json:"trace_id"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router      *gin.Engine
	gatewayHits *atomic.Int32
	gatewayBody *atomic.Value
	accounts    repositories.AccountRepository
	plans       repositories.IPlanRepository
	resumes     repositories.MemoryResumeRepository
	ledger      services.SubscriptionServiceInterface
}

func newTestServer(t *testing.T, configured bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		gatewayHits: &atomic.Int32{},
		gatewayBody: &atomic.Value{},
		accounts:    repositories.NewMemoryAccountRepository(),
		resumes:     repositories.NewMemoryResumeRepository(),
	}
	ts.gatewayBody.Store(`{"status":true,"message":"ok","data":{"status":"abandoned"}}`)

	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.gatewayHits.Add(1)
		body := ts.gatewayBody.Load().(string)
		if body == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(gw.Close)

	secret := ""
	if configured {
		secret = "sk_test"
	}
	client := paystack.NewClient(paystack.Config{SecretKey: secret, PublicKey: "pk_test", BaseURL: gw.URL, Timeout: 2 * time.Second})

	log := zap.NewNop()
	plans := repositories.NewMemoryPlanRepository()
	ts.plans = plans
	planService := services.NewPlanService(plans, log)
	_, err := planService.SeedDefaultPlans(context.Background())
	require.NoError(t, err)

	ts.ledger = services.NewSubscriptionService(repositories.NewMemorySubscriptionRepository(), plans, services.SystemClock(), log)
	payments := services.NewPaymentService(client, mem.NewVerificationCache(mem.DefaultCacheConfig(), time.Now),
		ts.accounts, ts.ledger, services.PaymentConfig{MinorUnitDivisor: 100, SerializeConfirmations: true, FrontendURL: "https://app.test"},
		services.SystemClock(), log)

	paymentController := controllers.NewPaymentController(payments)
	subscriptionController := controllers.NewSubscriptionController(ts.ledger)
	planController := controllers.NewPlanController(planService)
	resumeController := controllers.NewResumeController(services.NewResumeLimitService(ts.accounts, ts.resumes))

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log))
	auth := middleware.JWTAuthMiddleware(jwtSecret)
	admin := middleware.RoleMiddleware(utils.RoleAdmin)

	r.POST("/payments/initialize", paymentController.InitializePayment)
	r.GET("/payments/verify/:reference", paymentController.VerifyPayment)
	r.GET("/payments/status/:reference", paymentController.GetPaymentStatus)
	r.GET("/payments/config", paymentController.GetPaymentConfig)

	subs := r.Group("/subscriptions", auth)
	subs.GET("/my-subscription", subscriptionController.GetMySubscription)
	subs.POST("/cancel", subscriptionController.CancelSubscription)
	subs.POST("/reactivate", subscriptionController.ReactivateSubscription)
	subs.POST("/:id/renewals", admin, subscriptionController.RecordRenewal)
	subs.GET("/stats", admin, subscriptionController.GetStats)
	subs.GET("/upcoming-renewals", admin, subscriptionController.GetUpcomingRenewals)

	r.GET("/subscription-plans", planController.ListPlans)
	r.GET("/subscription-plans/:id", planController.GetPlan)
	r.GET("/resumes/limits", auth, resumeController.GetResumeLimits)
	r.GET("/resumes/can-create", auth, resumeController.CheckCanCreate)

	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (ts *testServer) user(t *testing.T, email string) (*db_models.Account, string) {
	t.Helper()
	a := &db_models.Account{Email: email, FirstName: "Ada", LastName: "Obi"}
	require.NoError(t, ts.accounts.Insert(context.Background(), a))
	token, err := utils.CreateToken(jwtSecret, a.ID, "user", time.Hour)
	require.NoError(t, err)
	return a, token
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := utils.CreateToken(jwtSecret, uuid.New(), utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) successBody(t *testing.T, reference, email, planName string) string {
	t.Helper()
	plan, err := ts.plans.GetPlanByName(context.Background(), planName)
	require.NoError(t, err)
	require.NotNil(t, plan)

	return `{"status":true,"message":"Verification successful","data":{"status":"success","reference":"` + reference +
		`","amount":999900,"currency":"NGN","paid_at":"` + time.Now().UTC().Format(time.RFC3339) +
		`","metadata":{"planId":"` + plan.ID.String() + `","planName":"` + planName + `","email":"` + email + `"}}}`
}

func TestVerifyPaymentUpgradesAccount(t *testing.T) {
	ts := newTestServer(t, true)
	account, token := ts.user(t, "ada@example.com")
	ts.gatewayBody.Store(ts.successBody(t, "ref_1", account.Email, "Premium"))

	code, env := ts.do(t, http.MethodGet, "/payments/verify/ref_1", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, env.TraceID)

	var result struct {
		Success bool `json:"success"`
		Cached  bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Success)
	assert.False(t, result.Cached)

	code, env = ts.do(t, http.MethodGet, "/payments/verify/ref_1", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Cached)
	assert.Equal(t, int32(1), ts.gatewayHits.Load())

	code, env = ts.do(t, http.MethodGet, "/subscriptions/my-subscription", token, nil)
	require.Equal(t, http.StatusOK, code)
	var sub struct {
		PlanName       string   `json:"plan_name"`
		Status         string   `json:"status"`
		Amount         float64  `json:"amount"`
		PaymentHistory []string `json:"payment_history"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, "Premium", sub.PlanName)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, 9999.0, sub.Amount)
	assert.Equal(t, []string{"ref_1"}, sub.PaymentHistory)

	ts.resumes.Add(account.ID, 3)
	code, env = ts.do(t, http.MethodGet, "/resumes/limits", token, nil)
	require.Equal(t, http.StatusOK, code)
	var limits struct {
		PlanName  string `json:"plan_name"`
		CanCreate bool   `json:"can_create"`
		Used      int64  `json:"used"`
		Total     *int64 `json:"total"`
		Remaining *int64 `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &limits))
	assert.Equal(t, "Premium", limits.PlanName)
	assert.True(t, limits.CanCreate)
	require.NotNil(t, limits.Total)
	assert.Equal(t, int64(10), *limits.Total)
	require.NotNil(t, limits.Remaining)
	assert.Equal(t, int64(7), *limits.Remaining)
}

func TestVerifyPaymentFailedChargeReportsUnsuccessful(t *testing.T) {
	ts := newTestServer(t, true)

	code, env := ts.do(t, http.MethodGet, "/payments/verify/ref_x", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Payment was not successful", env.Message)

	var result struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Success)
}

func TestVerifyPaymentGatewayErrorIsBadGateway(t *testing.T) {
	ts := newTestServer(t, true)
	ts.gatewayBody.Store("")

	code, env := ts.do(t, http.MethodGet, "/payments/verify/ref_1", "", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "error", env.Status)

	// not cached: the retry reaches the gateway again
	ts.do(t, http.MethodGet, "/payments/verify/ref_1", "", nil)
	assert.Equal(t, int32(2), ts.gatewayHits.Load())
}

func TestVerifyPaymentUnconfigured(t *testing.T) {
	ts := newTestServer(t, false)

	code, _ := ts.do(t, http.MethodGet, "/payments/verify/ref_1", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Zero(t, ts.gatewayHits.Load())

	code, env := ts.do(t, http.MethodGet, "/payments/config", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"is_configured":false,"public_key":"pk_test"}`, string(env.Data))
}

func TestPaymentStatus(t *testing.T) {
	ts := newTestServer(t, true)

	code, env := ts.do(t, http.MethodGet, "/payments/status/ref_9", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":true,"status":"abandoned","reference":"ref_9"}`, string(env.Data))
}

func TestInitializePaymentValidation(t *testing.T) {
	ts := newTestServer(t, true)

	code, _ := ts.do(t, http.MethodPost, "/payments/initialize", "", map[string]any{
		"plan_id": "p", "plan_name": "Premium", "email": "not-an-email", "amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/payments/initialize", "", map[string]any{
		"plan_id": "p", "plan_name": "Gold", "email": "ada@example.com", "amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSubscriptionLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t, true)
	account, token := ts.user(t, "ada@example.com")

	code, _ := ts.do(t, http.MethodPost, "/subscriptions/cancel", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	ts.gatewayBody.Store(ts.successBody(t, "ref_1", account.Email, "Premium"))
	code, _ = ts.do(t, http.MethodGet, "/payments/verify/ref_1", "", nil)
	require.Equal(t, http.StatusOK, code)

	code, env := ts.do(t, http.MethodPost, "/subscriptions/cancel", token, map[string]string{"reason": "too pricey"})
	require.Equal(t, http.StatusOK, code)
	var sub struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, "cancelled", sub.Status)

	code, env = ts.do(t, http.MethodGet, "/subscriptions/my-subscription", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "No active subscription found", env.Message)
	assert.Equal(t, "success", env.Status)
	assert.Empty(t, env.Data)

	code, env = ts.do(t, http.MethodPost, "/subscriptions/reactivate", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, "active", sub.Status)

	code, _ = ts.do(t, http.MethodPost, "/subscriptions/"+sub.ID+"/renewals", token, map[string]string{"payment_reference": "ref_2"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = ts.do(t, http.MethodPost, "/subscriptions/"+sub.ID+"/renewals", adminToken(t), map[string]string{"payment_reference": "ref_2"})
	require.Equal(t, http.StatusOK, code)
	var renewed struct {
		PaymentHistory []string `json:"payment_history"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &renewed))
	assert.Equal(t, []string{"ref_1", "ref_2"}, renewed.PaymentHistory)

	code, env = ts.do(t, http.MethodGet, "/subscriptions/stats", adminToken(t), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "9999")
}

func TestSubscriptionEndpointsRequireToken(t *testing.T) {
	ts := newTestServer(t, true)

	code, _ := ts.do(t, http.MethodGet, "/subscriptions/my-subscription", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.do(t, http.MethodGet, "/resumes/limits", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUpcomingRenewalsRejectsBadDays(t *testing.T) {
	ts := newTestServer(t, true)

	for _, days := range []string{"0", "abc", "400"} {
		code, _ := ts.do(t, http.MethodGet, "/subscriptions/upcoming-renewals?days="+days, adminToken(t), nil)
		assert.Equal(t, http.StatusBadRequest, code, days)
	}

	code, env := ts.do(t, http.MethodGet, "/subscriptions/upcoming-renewals", adminToken(t), nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestListAndGetPlans(t *testing.T) {
	ts := newTestServer(t, true)

	code, env := ts.do(t, http.MethodGet, "/subscription-plans", "", nil)
	require.Equal(t, http.StatusOK, code)
	var plans []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &plans))
	require.Len(t, plans, 5)
	assert.Equal(t, "Free", plans[0].Name)

	code, env = ts.do(t, http.MethodGet, "/subscription-plans/"+plans[1].ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), plans[1].Name)

	code, _ = ts.do(t, http.MethodGet, "/subscription-plans/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestResumeCanCreateOnFreePlan(t *testing.T) {
	ts := newTestServer(t, true)
	account, token := ts.user(t, "free@example.com")

	code, _ := ts.do(t, http.MethodGet, "/resumes/can-create", token, nil)
	assert.Equal(t, http.StatusOK, code)

	ts.resumes.Add(account.ID, 1)
	code, env := ts.do(t, http.MethodGet, "/resumes/can-create", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "error", env.Status)
}
