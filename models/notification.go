package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is one in-app notification row. Pushes go out over FCM at the
// same time; this copy is what the notification screen lists.
type Notification struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID  `json:"userId" bson:"userId"`
	DealID    *primitive.ObjectID `json:"dealId,omitempty" bson:"dealId,omitempty"`
	Title     string              `json:"title" bson:"title"`
	Message   string              `json:"message" bson:"message"`
	Type      string              `json:"type" bson:"type"`
	Data      interface{}         `json:"data,omitempty" bson:"data"`
	IsRead    bool                `json:"isRead" bson:"isRead"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}
