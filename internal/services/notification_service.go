package services

import (
	"context"

	"gohire/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService is the seam to the notification collaborator. Delivery
// is fire-and-forget: implementations must never return an error into a
// ledger operation, only log their own failures.
type NotificationService interface {
	Notify(ctx context.Context, userID primitive.ObjectID, event string, data map[string]interface{})
}

type logNotificationService struct {
	logger *logger.Logger
}

// NewLogNotificationService records events to the structured log. The real
// delivery pipeline lives with the notification collaborator.
func NewLogNotificationService(log *logger.Logger) NotificationService {
	return &logNotificationService{logger: log}
}

func (s *logNotificationService) Notify(ctx context.Context, userID primitive.ObjectID, event string, data map[string]interface{}) {
	fields := map[string]interface{}{
		"user_id": userID.Hex(),
		"event":   event,
	}
	for k, v := range data {
		fields[k] = v
	}
	s.logger.WithFields(fields).Info("notification event emitted")
}
