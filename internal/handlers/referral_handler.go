package handlers

import (
	"gohire/internal/services"
	"gohire/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralService services.ReferralService
}

func NewReferralHandler(referralService services.ReferralService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
	}
}

// GetMyReferralStats returns the caller's referral code and aggregate
// commission figures with a per-referral breakdown
func (h *ReferralHandler) GetMyReferralStats(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	stats, err := h.referralService.GetReferralStats(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral stats retrieved successfully", stats)
}
