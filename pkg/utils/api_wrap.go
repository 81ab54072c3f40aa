package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// HandleServiceError maps service sentinel errors onto HTTP responses.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrGatewayUnconfigured):
		RespondError(c, http.StatusServiceUnavailable, "Payment gateway is not configured")
	case errors.Is(err, ErrGatewayError):
		logFromContext(c).Warn("payment gateway error", zap.Error(err))
		RespondError(c, http.StatusBadGateway, "Payment gateway request failed")
	case errors.Is(err, ErrPlanNotFound):
		RespondError(c, http.StatusNotFound, "Subscription plan not found")
	case errors.Is(err, ErrSubscriptionNotFound):
		RespondError(c, http.StatusNotFound, "Subscription not found")
	case errors.Is(err, ErrAccountNotFound):
		RespondError(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, ErrInvalidPlanName):
		RespondError(c, http.StatusBadRequest, "Invalid plan name")
	case errors.Is(err, ErrInvalidStatus):
		RespondError(c, http.StatusBadRequest, "Invalid subscription status")
	case errors.Is(err, ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrResumeLimitReached):
		RespondError(c, http.StatusForbidden, "Resume limit reached. Please upgrade your plan to create more resumes.")
	case errors.Is(err, ErrConcurrentUpdate):
		RespondError(c, http.StatusConflict, "Subscription was modified concurrently, retry the request")
	case errors.Is(err, ErrDatabaseError):
		logFromContext(c).Error("database error", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		logFromContext(c).Error("unhandled service error", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// LoggerKey is the gin context key the request logger middleware stores its *zap.Logger under.
const LoggerKey = "logger"

func logFromContext(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}
