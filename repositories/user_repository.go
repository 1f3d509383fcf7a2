package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/models"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Client) *UserRepository {
	return &UserRepository{
		collection: db.Database("rooftrack").Collection("users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfilePicture points the account avatar at a freshly uploaded file.
func (r *UserRepository) UpdateProfilePicture(ctx context.Context, userID primitive.ObjectID, profileURL string) error {
	update := bson.M{
		"$set": bson.M{
			"profilePic": profileURL,
			"updatedAt":  time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// SetFCMToken stores the device push token captured at login. An empty token
// clears it so a logged-out device stops receiving pushes.
func (r *UserRepository) SetFCMToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	update := bson.M{
		"$set": bson.M{
			"fcmToken":  token,
			"updatedAt": time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}
