package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"rightmycv/internal/models/request_models"
	"rightmycv/internal/models/response_models"
	"rightmycv/internal/services"
	"rightmycv/pkg/utils"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionServiceInterface
}

func NewSubscriptionController(subscriptionService services.SubscriptionServiceInterface) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "user_id is missing from token")
		return uuid.Nil, false
	}
	return userID, true
}

// GetMySubscription godoc
// @Summary Current user's active subscription
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/my-subscription [get]
func (s *SubscriptionController) GetMySubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sub, err := s.subscriptionService.GetActiveFor(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if sub == nil {
		utils.RespondSuccess(c, nil, "No active subscription found")
		return
	}

	utils.RespondSuccess(c, response_models.NewSubscriptionResponse(sub), "Subscription retrieved successfully")
}

// CancelSubscription godoc
// @Summary Cancel the current user's active subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.CancelSubscriptionRequest false "Cancellation reason"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/cancel [post]
func (s *SubscriptionController) CancelSubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request request_models.CancelSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	sub, err := s.subscriptionService.CancelForUser(c.Request.Context(), userID, request.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.NewSubscriptionResponse(sub), "Subscription cancelled successfully")
}

// ReactivateSubscription godoc
// @Summary Reactivate the current user's most recently cancelled subscription
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/reactivate [post]
func (s *SubscriptionController) ReactivateSubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sub, err := s.subscriptionService.ReactivateForUser(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.NewSubscriptionResponse(sub), "Subscription reactivated successfully")
}

// RecordRenewal godoc
// @Summary Record a renewal payment against a subscription (admin)
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body request_models.RecordRenewalRequest true "Renewal payment"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/renewals [post]
func (s *SubscriptionController) RecordRenewal(c *gin.Context) {
	var request request_models.RecordRenewalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	paymentDate := time.Now()
	if request.PaymentDate != nil {
		paymentDate = *request.PaymentDate
	}

	sub, err := s.subscriptionService.RecordRenewalPayment(c.Request.Context(), c.Param("id"), request.PaymentReference, paymentDate)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.NewSubscriptionResponse(sub), "Renewal recorded successfully")
}

// GetStats godoc
// @Summary Revenue and count over active subscriptions (admin)
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/stats [get]
func (s *SubscriptionController) GetStats(c *gin.Context) {
	stats, err := s.subscriptionService.Stats(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, stats, "Subscription statistics retrieved successfully")
}

// GetExpired godoc
// @Summary Active subscriptions whose period has ended (admin)
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/expired [get]
func (s *SubscriptionController) GetExpired(c *gin.Context) {
	subs, err := s.subscriptionService.GetExpired(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSubscriptionResponses(subs), "Expired subscriptions retrieved")
}

// GetUpcomingRenewals godoc
// @Summary Active subscriptions renewing within the next days (admin)
// @Tags Subscriptions
// @Produce json
// @Param days query int false "Days ahead" default(7)
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/upcoming-renewals [get]
func (s *SubscriptionController) GetUpcomingRenewals(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(services.DefaultUpcomingRenewalDays)))
	if err != nil || days < 1 || days > 366 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid days (must be 1-366)")
		return
	}

	subs, err := s.subscriptionService.GetUpcomingRenewals(c.Request.Context(), days)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSubscriptionResponses(subs), "Upcoming renewals retrieved")
}
