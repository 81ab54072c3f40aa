package payment_service_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"rightmycv/internal/repositories"
	"rightmycv/internal/services"
	"rightmycv/pkg/config"
	mem "rightmycv/pkg/memcache"
	"rightmycv/pkg/paystack"
)

var Module = fx.Provide(
	provideGateway, providePaymentService,
)

func provideGateway(cfg *config.Config, log *zap.Logger) services.PaymentGateway {
	client := paystack.NewClient(paystack.Config{
		SecretKey: cfg.Paystack.SecretKey,
		PublicKey: cfg.Paystack.PublicKey,
		BaseURL:   cfg.Paystack.BaseURL,
		Timeout:   cfg.Paystack.Timeout,
	})
	if !client.IsConfigured() {
		log.Warn("PAYSTACK_SECRET_KEY is not set, payment verification is disabled")
	}
	return client
}

func providePaymentService(
	gateway services.PaymentGateway,
	cache mem.VerificationStore,
	accountRepo repositories.AccountRepository,
	ledger services.SubscriptionServiceInterface,
	cfg *config.Config,
	clock services.Clock,
	log *zap.Logger,
) services.PaymentService {
	return services.NewPaymentService(gateway, cache, accountRepo, ledger, services.PaymentConfig{
		MinorUnitDivisor:       cfg.Payments.MinorUnitDivisor,
		SerializeConfirmations: cfg.Payments.SerializeConfirmations,
		FrontendURL:            cfg.Payments.FrontendURL,
	}, clock, log)
}
