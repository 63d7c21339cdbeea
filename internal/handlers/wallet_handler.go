package handlers

import (
	"errors"

	"gohire/internal/apperrors"
	"gohire/internal/models"
	"gohire/internal/repositories/interfaces"
	"gohire/internal/services"
	"gohire/internal/utils"
	"gohire/internal/validators"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetWallet returns the caller's wallet snapshot
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Wallet retrieved successfully", wallet)
}

// GetTransactions lists the caller's ledger history, filterable by
// type, category and status
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var query validators.TransactionHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(query); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}

	filter := &interfaces.TransactionFilter{
		Type:     models.TransactionType(query.Type),
		Category: models.TransactionCategory(query.Category),
		Status:   models.TransactionStatus(query.Status),
	}
	params := utils.GetPaginationParams(c)

	transactions, total, err := h.walletService.GetTransactions(c.Request.Context(), userID, filter, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Transactions retrieved successfully", transactions, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// FundWallet opens a pending funding credit awaiting gateway confirmation
func (h *WalletHandler) FundWallet(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request validators.WalletFundRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}

	tx, err := h.walletService.FundWallet(c.Request.Context(), userID, request.Amount)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Funding initiated", tx)
}

// FundingCallback settles a pending funding transaction. The gateway may
// replay it; a duplicate confirmation returns the prior result as success.
func (h *WalletHandler) FundingCallback(c *gin.Context) {
	var request validators.FundingCallbackRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}

	var (
		tx  *models.Transaction
		err error
	)
	if request.Outcome == "success" {
		tx, err = h.walletService.ConfirmFunding(c.Request.Context(), request.Reference)
	} else {
		tx, err = h.walletService.FailFunding(c.Request.Context(), request.Reference, request.Reason)
	}
	if err != nil && !errors.Is(err, apperrors.ErrDuplicateOperation) {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Funding settled", tx)
}
