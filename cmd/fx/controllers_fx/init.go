package controllers_fx

import (
	"go.uber.org/fx"
	"rightmycv/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewPaymentController),
	fx.Provide(controllers.NewSubscriptionController),
	fx.Provide(controllers.NewPlanController),
	fx.Provide(controllers.NewResumeController))
