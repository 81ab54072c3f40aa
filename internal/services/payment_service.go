package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"rightmycv/internal/models/response_models"
	"rightmycv/internal/repositories"
	"rightmycv/pkg/entitlement"
	mem "rightmycv/pkg/memcache"
	"rightmycv/pkg/paystack"
	"rightmycv/pkg/utils"
)

const (
	DefaultCurrency     = "NGN"
	subscriptionSuccess = "/subscription-success"
	statusUnknown       = "unknown"
)

// PaymentGateway is the part of the gateway client the payment service drives.
type PaymentGateway interface {
	IsConfigured() bool
	PublicKey() string
	Initialize(ctx context.Context, in paystack.InitializeRequest) (*paystack.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResponse, error)
}

type PaymentConfig struct {
	MinorUnitDivisor int64
	// SerializeConfirmations collapses concurrent confirmations of one reference into a single run.
	SerializeConfirmations bool
	FrontendURL            string
}

type InitializePaymentInput struct {
	PlanID      string
	PlanName    string
	Email       string
	Amount      float64 // major units
	Currency    string
	CallbackURL string
}

type PaymentService interface {
	// Confirm resolves the outcome of a gateway reference and, on first success,
	// moves the account and ledger onto the purchased plan.
	Confirm(ctx context.Context, reference string) (*response_models.ConfirmationResult, error)
	GetTransactionStatus(ctx context.Context, reference string) string
	InitializePayment(ctx context.Context, in InitializePaymentInput) (*response_models.InitializePaymentResponse, error)
	GatewayConfig() response_models.GatewayConfigResponse
}

type paymentService struct {
	gateway     PaymentGateway
	cache       mem.VerificationStore
	accountRepo repositories.AccountRepository
	ledger      SubscriptionServiceInterface
	cfg         PaymentConfig
	clock       Clock
	log         *zap.Logger
	flights     singleflight.Group
}

func NewPaymentService(
	gateway PaymentGateway,
	cache mem.VerificationStore,
	accountRepo repositories.AccountRepository,
	ledger SubscriptionServiceInterface,
	cfg PaymentConfig,
	clock Clock,
	log *zap.Logger,
) PaymentService {
	if cfg.MinorUnitDivisor <= 0 {
		cfg.MinorUnitDivisor = 100
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &paymentService{
		gateway:     gateway,
		cache:       cache,
		accountRepo: accountRepo,
		ledger:      ledger,
		cfg:         cfg,
		clock:       clock,
		log:         log.Named("payments"),
	}
}

func (p *paymentService) Confirm(ctx context.Context, reference string) (*response_models.ConfirmationResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", utils.ErrInvalidInput)
	}

	// a client hanging up must not abort a confirmation already talking to the gateway
	ctx = context.WithoutCancel(ctx)

	if !p.cfg.SerializeConfirmations {
		return p.confirm(ctx, reference)
	}

	v, err, _ := p.flights.Do(reference, func() (interface{}, error) {
		return p.confirm(ctx, reference)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*response_models.ConfirmationResult)
	return &res, nil
}

func (p *paymentService) confirm(ctx context.Context, reference string) (*response_models.ConfirmationResult, error) {
	if e, ok := p.cache.Get(ctx, reference); ok {
		return &response_models.ConfirmationResult{
			Success: e.Outcome == mem.OutcomeSuccess,
			Data:    e.Payload,
			Cached:  true,
		}, nil
	}

	resp, err := p.verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	outcome := mem.OutcomeFailure
	if resp.Succeeded() {
		outcome = mem.OutcomeSuccess
		p.applyPayment(ctx, reference, resp)
	} else {
		tx, _ := resp.Transaction()
		p.log.Info("payment not successful",
			zap.String("reference", reference),
			zap.Bool("gateway_status", resp.Status),
			zap.String("transaction_status", tx.Status))
	}

	if err := p.cache.Put(ctx, reference, outcome, resp.Data); err != nil {
		p.log.Warn("cache verification outcome", zap.String("reference", reference), zap.Error(err))
	}

	return &response_models.ConfirmationResult{
		Success: outcome == mem.OutcomeSuccess,
		Data:    resp.Data,
		Cached:  false,
	}, nil
}

func (p *paymentService) verify(ctx context.Context, reference string) (*paystack.VerifyResponse, error) {
	if !p.gateway.IsConfigured() {
		return nil, utils.ErrGatewayUnconfigured
	}

	resp, err := p.gateway.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrNotConfigured) {
			return nil, utils.ErrGatewayUnconfigured
		}
		return nil, fmt.Errorf("%w: verify %s: %v", utils.ErrGatewayError, reference, err)
	}
	return resp, nil
}

// applyPayment records a settled charge against the account and the ledger.
// Failures here never change the payment outcome; they are logged instead.
func (p *paymentService) applyPayment(ctx context.Context, reference string, resp *paystack.VerifyResponse) {
	tx, meta := resp.Transaction()
	log := p.log.With(
		zap.String("reference", reference),
		zap.String("email", meta.Email),
		zap.String("plan_name", meta.PlanName))

	// a reference recorded on any subscription, even a cancelled or superseded
	// one, has already been applied; replaying it must not touch account or ledger
	recorded, err := p.ledger.FindByPaymentReference(ctx, reference)
	if err != nil {
		log.Warn("look up payment reference in ledger", zap.Error(err))
		return
	}
	if recorded != nil {
		log.Info("payment already recorded, skipping subscription update",
			zap.String("subscription_id", recorded.ID.String()),
			zap.String("subscription_status", string(recorded.Status)))
		return
	}

	account, err := p.accountRepo.FindByEmail(ctx, meta.Email)
	if err != nil {
		log.Warn("look up account for payment", zap.Error(err))
		return
	}
	if account == nil {
		log.Warn("no account for payment email, skipping subscription update")
		return
	}

	tier, ok := entitlement.ParseTier(meta.PlanName)
	if !ok {
		log.Warn("payment carries unknown plan name, skipping subscription update")
		return
	}

	if found, err := p.accountRepo.UpdateSubscriptionPlan(ctx, account.ID, string(tier)); err != nil || !found {
		log.Warn("update account plan", zap.Bool("found", found), zap.Error(err))
	}

	planID, err := uuid.Parse(meta.PlanID)
	if err != nil {
		log.Warn("payment carries malformed plan id, ledger will not resolve it",
			zap.String("plan_id", meta.PlanID), zap.Error(err))
	}
	cycle := entitlement.CycleFor(tier)
	paymentDate := utils.ParseGatewayTime(tx.PaidAt, p.clock())

	active, err := p.ledger.GetActiveFor(ctx, account.ID)
	if err != nil {
		log.Warn("look up active subscription", zap.Error(err))
		return
	}

	switch {
	case active != nil && active.PlanID == planID && active.BillingCycle == cycle:
		if _, err := p.ledger.RecordRenewalPayment(ctx, active.ID.String(), reference, paymentDate); err != nil {
			log.Warn("record renewal payment", zap.Error(err))
		}

	default:
		currency := tx.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
		_, err := p.ledger.CreateSubscription(ctx, CreateSubscriptionInput{
			UserID:           account.ID,
			PlanID:           planID,
			PlanName:         string(tier),
			BillingCycle:     cycle,
			Amount:           float64(tx.Amount) / float64(p.cfg.MinorUnitDivisor),
			Currency:         currency,
			PaymentReference: reference,
			PaymentDate:      paymentDate,
			Metadata:         map[string]interface{}{"gateway": "paystack", "email": meta.Email},
		})
		if errors.Is(err, utils.ErrPlanNotFound) {
			log.Warn("plan id on payment not found, ledger not updated", zap.String("plan_id", meta.PlanID))
		} else if err != nil {
			log.Warn("create subscription", zap.Error(err))
		}
	}
}

func (p *paymentService) GetTransactionStatus(ctx context.Context, reference string) string {
	resp, err := p.verify(ctx, reference)
	if err != nil {
		p.log.Debug("transaction status lookup failed", zap.String("reference", reference), zap.Error(err))
		return statusUnknown
	}
	tx, _ := resp.Transaction()
	if tx.Status == "" {
		return statusUnknown
	}
	return tx.Status
}

func (p *paymentService) InitializePayment(ctx context.Context, in InitializePaymentInput) (*response_models.InitializePaymentResponse, error) {
	if !p.gateway.IsConfigured() {
		return nil, utils.ErrGatewayUnconfigured
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: email is invalid", utils.ErrInvalidInput)
	}
	if _, ok := entitlement.ParseTier(in.PlanName); !ok {
		return nil, utils.ErrInvalidPlanName
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", utils.ErrInvalidInput)
	}

	callback := in.CallbackURL
	if callback == "" {
		callback = strings.TrimRight(p.cfg.FrontendURL, "/") + subscriptionSuccess
	}
	currency := in.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	resp, err := p.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       in.Email,
		Amount:      int64(math.Round(in.Amount * float64(p.cfg.MinorUnitDivisor))),
		Currency:    currency,
		CallbackURL: callback,
		Metadata: paystack.Metadata{
			PlanID:   in.PlanID,
			PlanName: in.PlanName,
			Email:    in.Email,
		},
	})
	if err != nil {
		if errors.Is(err, paystack.ErrNotConfigured) {
			return nil, utils.ErrGatewayUnconfigured
		}
		return nil, fmt.Errorf("%w: initialize: %v", utils.ErrGatewayError, err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: initialize rejected: %s", utils.ErrGatewayError, resp.Message)
	}

	return &response_models.InitializePaymentResponse{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        resp.Data.Reference,
	}, nil
}

func (p *paymentService) GatewayConfig() response_models.GatewayConfigResponse {
	return response_models.GatewayConfigResponse{
		IsConfigured: p.gateway.IsConfigured(),
		PublicKey:    p.gateway.PublicKey(),
	}
}
