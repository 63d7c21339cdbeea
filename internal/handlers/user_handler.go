package handlers

import (
	"gohire/internal/models"
	"gohire/internal/services"
	"gohire/internal/utils"
	"gohire/internal/validators"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register creates a user and, when a referral code is supplied, links the
// new user into the referrer's chain
func (h *UserHandler) Register(c *gin.Context) {
	var request validators.UserRegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		details := make(map[string]string, len(errs))
		for _, e := range errs {
			details[e.Field] = e.Message
		}
		utils.ValidationErrorResponse(c, details)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterUserInput{
		FirstName:    request.FirstName,
		LastName:     request.LastName,
		Email:        request.Email,
		UserType:     models.UserType(request.UserType),
		ReferralCode: request.ReferralCode,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "User registered successfully", user)
}

// GetProfile returns the caller's user record
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}
