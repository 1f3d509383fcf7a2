package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rooftrack/rooftrack_backend/models"
)

type RepRepository struct {
	collection *mongo.Collection
}

func NewRepRepository(db *mongo.Client) *RepRepository {
	return &RepRepository{
		collection: db.Database("rooftrack").Collection("reps"),
	}
}

func (r *RepRepository) Create(ctx context.Context, rep *models.Rep) error {
	if rep.ID.IsZero() {
		rep.ID = primitive.NewObjectID()
	}
	now := time.Now()
	rep.CreatedAt = now
	rep.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, rep)
	return err
}

func (r *RepRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Rep, error) {
	var rep models.Rep
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// FindByUserID resolves the rep profile behind a login account.
func (r *RepRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Rep, error) {
	var rep models.Rep
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *RepRepository) FindByEmail(ctx context.Context, email string) (*models.Rep, error) {
	var rep models.Rep
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *RepRepository) FindAll(ctx context.Context, activeOnly bool) ([]models.Rep, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reps []models.Rep
	if err := cursor.All(ctx, &reps); err != nil {
		return nil, err
	}
	return reps, nil
}

// FindByManager lists the reps reporting to a manager.
func (r *RepRepository) FindByManager(ctx context.Context, managerID primitive.ObjectID) ([]models.Rep, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"managerId": managerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reps []models.Rep
	if err := cursor.All(ctx, &reps); err != nil {
		return nil, err
	}
	return reps, nil
}

// UpdateSet applies a $set patch and returns the updated rep.
func (r *RepRepository) UpdateSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Rep, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rep models.Rep
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&rep)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// Deactivate retires a rep without deleting history tied to them.
func (r *RepRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"active":    false,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
