package handlers

import (
	"gohire/internal/services"
	"gohire/internal/utils"
	"gohire/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// CreateService adds a bookable service to the caller's catalog
func (h *CatalogHandler) CreateService(c *gin.Context) {
	providerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request validators.ServiceCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}

	svc, err := h.catalogService.CreateService(c.Request.Context(), services.CreateServiceInput{
		ProviderID: providerID,
		Title:      request.Title,
		Category:   request.Category,
		Price:      request.Price,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Service created successfully", svc)
}

// GetService returns one catalog entry
func (h *CatalogHandler) GetService(c *gin.Context) {
	serviceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid service ID")
		return
	}

	svc, err := h.catalogService.GetService(c.Request.Context(), serviceID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Service retrieved successfully", svc)
}

// GetMyServices lists the caller's catalog
func (h *CatalogHandler) GetMyServices(c *gin.Context) {
	providerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	list, err := h.catalogService.GetProviderServices(c.Request.Context(), providerID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Services retrieved successfully", list)
}
