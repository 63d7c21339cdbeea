package handlers

import (
	"errors"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/services"
	"gohire/internal/utils"
	"gohire/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WithdrawalHandler struct {
	withdrawalService services.WithdrawalService
}

func NewWithdrawalHandler(withdrawalService services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

// RequestWithdrawal reserves funds and opens a payout request
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request validators.WithdrawalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}
	bankAccountID, err := primitive.ObjectIDFromHex(request.BankAccountID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid bank account ID")
		return
	}

	withdrawal, err := h.withdrawalService.RequestWithdrawal(c.Request.Context(), userID, request.Amount, bankAccountID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Withdrawal requested successfully", withdrawal)
}

// GetWithdrawal returns one withdrawal for its owner or an admin
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	withdrawalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid withdrawal ID")
		return
	}
	actorID, actorType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	withdrawal, err := h.withdrawalService.GetWithdrawal(c.Request.Context(), withdrawalID, actorID, actorType)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Withdrawal retrieved successfully", withdrawal)
}

// GetMyWithdrawals lists the caller's withdrawals
func (h *WithdrawalHandler) GetMyWithdrawals(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	params := utils.GetPaginationParams(c)

	withdrawals, total, err := h.withdrawalService.GetUserWithdrawals(c.Request.Context(), userID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Withdrawals retrieved successfully", withdrawals, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// CancelWithdrawal lets the owner withdraw a request before processing
func (h *WithdrawalHandler) CancelWithdrawal(c *gin.Context) {
	withdrawalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid withdrawal ID")
		return
	}
	actorID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	withdrawal, err := h.withdrawalService.CancelWithdrawal(c.Request.Context(), withdrawalID, actorID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Withdrawal cancelled successfully", withdrawal)
}

// StartProcessing hands a pending withdrawal to the payout gateway
func (h *WithdrawalHandler) StartProcessing(c *gin.Context) {
	withdrawalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid withdrawal ID")
		return
	}

	withdrawal, err := h.withdrawalService.StartProcessing(c.Request.Context(), withdrawalID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Withdrawal processing started", withdrawal)
}

// SettlementCallback records the payout collaborator's outcome. Replayed
// callbacks return the prior result as success.
func (h *WithdrawalHandler) SettlementCallback(c *gin.Context) {
	var request validators.SettlementCallbackRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}

	var (
		withdrawal *models.Withdrawal
		err        error
	)
	if request.Outcome == "success" {
		withdrawal, err = h.withdrawalService.CompleteWithdrawal(c.Request.Context(), request.Reference)
	} else {
		withdrawal, err = h.withdrawalService.FailWithdrawal(c.Request.Context(), request.Reference, request.Reason)
	}
	if err != nil && !errors.Is(err, apperrors.ErrDuplicateOperation) {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Settlement recorded", withdrawal)
}

// AddBankAccount registers a payout destination for the caller
func (h *WithdrawalHandler) AddBankAccount(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request validators.BankAccountCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}

	account, err := h.withdrawalService.AddBankAccount(c.Request.Context(), &models.BankAccount{
		UserID:        userID,
		BankName:      request.BankName,
		AccountName:   request.AccountName,
		AccountNumber: request.AccountNumber,
		IsDefault:     request.IsDefault,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Bank account added successfully", account)
}

// VerifyBankAccount marks a payout destination as verified
func (h *WithdrawalHandler) VerifyBankAccount(c *gin.Context) {
	bankAccountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid bank account ID")
		return
	}

	account, err := h.withdrawalService.VerifyBankAccount(c.Request.Context(), bankAccountID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Bank account verified successfully", account)
}

// GetBankAccounts lists the caller's payout destinations
func (h *WithdrawalHandler) GetBankAccounts(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	accounts, err := h.withdrawalService.GetBankAccounts(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Bank accounts retrieved successfully", accounts)
}
