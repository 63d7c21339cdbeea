package handlers

import (
	"context"

	"gohire/internal/models"
	"gohire/internal/services"
	"gohire/internal/utils"
	"gohire/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// CreateBooking opens a new pending booking against a catalog service
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var request validators.BookingCreateRequest
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

	customerID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	serviceID, err := primitive.ObjectIDFromHex(request.ServiceID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid service ID")
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), services.CreateBookingInput{
		CustomerID:      customerID,
		ServiceID:       serviceID,
		ScheduledDate:   request.ScheduledDate,
		ScheduledTime:   request.ScheduledTime,
		Description:     request.Description,
		LocationAddress: request.LocationAddress,
		Latitude:        request.Latitude,
		Longitude:       request.Longitude,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Booking created successfully", booking)
}

// GetBooking retrieves one booking for its customer, provider or an admin
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}
	actorID, actorType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID, actorID, actorType)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved successfully", booking)
}

// GetMyBookings lists the caller's bookings on the side matching their role
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	actorID, actorType, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}
	params := utils.GetPaginationParams(c)

	var (
		bookings interface{}
		total    int64
		err      error
	)
	if actorType == models.UserTypeProvider {
		bookings, total, err = h.bookingService.GetProviderBookings(c.Request.Context(), actorID, params)
	} else {
		bookings, total, err = h.bookingService.GetCustomerBookings(c.Request.Context(), actorID, params)
	}
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved successfully", bookings, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// AcceptBooking commits pending -> accepted and funds escrow
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	h.transition(c, h.bookingService.AcceptBooking)
}

// StartBooking commits accepted -> in_progress
func (h *BookingHandler) StartBooking(c *gin.Context) {
	h.transition(c, h.bookingService.StartBooking)
}

// CompleteBooking commits in_progress -> completed and settles payments
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, h.bookingService.CompleteBooking)
}

// CancelBooking commits the current status -> cancelled
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var request validators.BookingCancelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.BadRequestResponse(c, errs.Error())
		return
	}

	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}
	actorID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, actorID, request.Reason)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled successfully", booking)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(ctx context.Context, bookingID, actorID primitive.ObjectID) (*models.Booking, error)) {
	bookingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid booking ID")
		return
	}
	actorID, _, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	booking, err := fn(c.Request.Context(), bookingID, actorID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking updated successfully", booking)
}
