package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"rightmycv/internal/models/request_models"
	"rightmycv/internal/models/response_models"
	"rightmycv/internal/services"
	"rightmycv/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// InitializePayment godoc
// @Summary Start a gateway checkout for a subscription plan
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.InitializePaymentRequest true "Initialize Payment Request"
// @Success 200 {object} utils.APIResponse
// @Router /payments/initialize [post]
func (p *PaymentController) InitializePayment(c *gin.Context) {

	var request request_models.InitializePaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := p.paymentService.InitializePayment(c.Request.Context(), services.InitializePaymentInput{
		PlanID:      request.PlanID,
		PlanName:    request.PlanName,
		Email:       request.Email,
		Amount:      request.Amount,
		Currency:    request.Currency,
		CallbackURL: request.CallbackURL,
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Payment initialized successfully")
}

// VerifyPayment godoc
// @Summary Confirm a payment by gateway reference
// @Description Idempotent: repeat calls within the cache window are served without contacting the gateway.
// @Tags Payments
// @Produce json
// @Param reference path string true "Gateway reference"
// @Success 200 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /payments/verify/{reference} [get]
func (p *PaymentController) VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")

	result, err := p.paymentService.Confirm(c.Request.Context(), reference)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	message := "Payment verified successfully"
	if !result.Success {
		message = "Payment was not successful"
	}
	utils.RespondSuccess(c, result, message)
}

// GetPaymentStatus godoc
// @Summary Look up the gateway status of a transaction
// @Tags Payments
// @Produce json
// @Param reference path string true "Gateway reference"
// @Success 200 {object} utils.APIResponse
// @Router /payments/status/{reference} [get]
func (p *PaymentController) GetPaymentStatus(c *gin.Context) {
	reference := c.Param("reference")
	status := p.paymentService.GetTransactionStatus(c.Request.Context(), reference)

	utils.RespondSuccess(c, response_models.TransactionStatusResponse{
		Success:   true,
		Status:    status,
		Reference: reference,
	}, "Transaction status retrieved")
}

// GetPaymentConfig godoc
// @Summary Public gateway configuration for the checkout widget
// @Tags Payments
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /payments/config [get]
func (p *PaymentController) GetPaymentConfig(c *gin.Context) {
	utils.RespondSuccess(c, p.paymentService.GatewayConfig(), "Payment configuration retrieved")
}
