package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"rightmycv/cmd/fx/config_fx"
	"rightmycv/cmd/fx/controllers_fx"
	"rightmycv/cmd/fx/db_fx"
	"rightmycv/cmd/fx/logger_fx"
	"rightmycv/cmd/fx/memcache_fx"
	"rightmycv/cmd/fx/payment_service_fx"
	"rightmycv/cmd/fx/plan_fx"
	"rightmycv/cmd/fx/resume_fx"
	"rightmycv/cmd/fx/subscription_fx"
	"rightmycv/internal/api/controllers"
	"rightmycv/pkg/config"
	"rightmycv/pkg/middleware"
	"rightmycv/pkg/utils"
)

func main() {
	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		db_fx.Module,
		subscription_fx.Module,
		plan_fx.Module,
		resume_fx.Module,
		memcache_fx.Module,
		payment_service_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type Controllers struct {
	fx.In

	Payment      *controllers.PaymentController
	Subscription *controllers.SubscriptionController
	Plan         *controllers.PlanController
	Resume       *controllers.ResumeController
}

func ProvideRouter(cfg *config.Config, log *zap.Logger, ctrls Controllers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Payments.FrontendURL))

	throttle := middleware.NewThrottler(cfg.Throttle.Limit, cfg.Throttle.Window)
	RegisterRoutes(r, []byte(cfg.JWTSecret), throttle, ctrls)

	return r
}

func RegisterRoutes(r *gin.Engine, jwtSecret []byte, throttle *middleware.Throttler, ctrls Controllers) {
	auth := middleware.JWTAuthMiddleware(jwtSecret)
	admin := middleware.RoleMiddleware(utils.RoleAdmin)

	r.GET("/health", func(c *gin.Context) {
		utils.RespondSuccess(c, nil, "ok")
	})

	paymentsGroup := r.Group("/payments", throttle.Middleware())
	paymentsGroup.POST("/initialize", ctrls.Payment.InitializePayment)
	paymentsGroup.GET("/verify/:reference", ctrls.Payment.VerifyPayment)
	paymentsGroup.GET("/status/:reference", ctrls.Payment.GetPaymentStatus)
	paymentsGroup.GET("/config", ctrls.Payment.GetPaymentConfig)

	subscriptionsGroup := r.Group("/subscriptions", auth)
	subscriptionsGroup.GET("/my-subscription", ctrls.Subscription.GetMySubscription)
	subscriptionsGroup.POST("/cancel", ctrls.Subscription.CancelSubscription)
	subscriptionsGroup.POST("/reactivate", ctrls.Subscription.ReactivateSubscription)
	subscriptionsGroup.POST("/:id/renewals", admin, ctrls.Subscription.RecordRenewal)
	subscriptionsGroup.GET("/stats", admin, ctrls.Subscription.GetStats)
	subscriptionsGroup.GET("/expired", admin, ctrls.Subscription.GetExpired)
	subscriptionsGroup.GET("/upcoming-renewals", admin, ctrls.Subscription.GetUpcomingRenewals)

	plansGroup := r.Group("/subscription-plans")
	plansGroup.GET("", ctrls.Plan.ListPlans)
	plansGroup.GET("/:id", ctrls.Plan.GetPlan)
	plansGroup.POST("/seed", auth, admin, ctrls.Plan.SeedPlans)

	resumesGroup := r.Group("/resumes", auth)
	resumesGroup.GET("/limits", ctrls.Resume.GetResumeLimits)
	resumesGroup.GET("/can-create", ctrls.Resume.CheckCanCreate)
}
