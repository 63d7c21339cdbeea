package validators

import "time"

type BookingCreateRequest struct {
	ServiceID       string    `json:"service_id" validate:"required,object_id"`
	ScheduledDate   time.Time `json:"scheduled_date" validate:"required,future_date"`
	ScheduledTime   string    `json:"scheduled_time" validate:"omitempty,time_of_day"`
	Description     string    `json:"description" validate:"omitempty,max=2000"`
	LocationAddress string    `json:"location_address" validate:"required,min=3,max=255"`
	Latitude        *float64  `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude       *float64  `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

type BookingCancelRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}
