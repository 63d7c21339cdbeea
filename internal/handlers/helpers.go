package handlers

import (
	"gohire/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUser pulls the authenticated actor out of the gin context, where
// the auth middleware placed it.
func currentUser(c *gin.Context) (primitive.ObjectID, models.UserType, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return primitive.NilObjectID, "", false
	}
	userID, ok := raw.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, "", false
	}
	return userID, models.UserType(c.GetString("user_type")), true
}
