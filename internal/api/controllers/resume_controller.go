package controllers

import (
	"github.com/gin-gonic/gin"
	"rightmycv/internal/services"
	"rightmycv/pkg/utils"
)

type ResumeController struct {
	resumeLimitService services.ResumeLimitServiceInterface
}

func NewResumeController(resumeLimitService services.ResumeLimitServiceInterface) *ResumeController {
	return &ResumeController{
		resumeLimitService: resumeLimitService,
	}
}

// GetResumeLimits godoc
// @Summary Resume allowance for the current user's plan
// @Tags Resumes
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /resumes/limits [get]
func (r *ResumeController) GetResumeLimits(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limits, err := r.resumeLimitService.GetResumeLimits(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, limits, "Resume limits retrieved")
}

// CheckCanCreate godoc
// @Summary 403 when the current user's plan does not allow another resume
// @Tags Resumes
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /resumes/can-create [get]
func (r *ResumeController) CheckCanCreate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := r.resumeLimitService.CheckCanCreate(c.Request.Context(), userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Resume can be created")
}
