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

type PinRepository struct {
	collection *mongo.Collection
}

func NewPinRepository(db *mongo.Client) *PinRepository {
	return &PinRepository{
		collection: db.Database("rooftrack").Collection("pins"),
	}
}

func (r *PinRepository) Create(ctx context.Context, pin *models.Pin) error {
	if pin.ID.IsZero() {
		pin.ID = primitive.NewObjectID()
	}
	now := time.Now()
	pin.CreatedAt = now
	pin.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, pin)
	return err
}

func (r *PinRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Pin, error) {
	var pin models.Pin
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pin); err != nil {
		return nil, err
	}
	return &pin, nil
}

// FindForRep returns pins the rep dropped plus pins assigned to them as
// closer. An empty status narrows nothing.
func (r *PinRepository) FindForRep(ctx context.Context, repID primitive.ObjectID, status string) ([]models.Pin, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"repId": repID},
			{"assignedCloserId": repID},
		},
	}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pins []models.Pin
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

func (r *PinRepository) FindAll(ctx context.Context, status string) ([]models.Pin, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pins []models.Pin
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

// FindInBounds returns pins inside a map viewport. repID narrows to one
// rep's pins when non-nil; admins pass nil to see the whole territory.
func (r *PinRepository) FindInBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64, repID *primitive.ObjectID) ([]models.Pin, error) {
	filter := bson.M{
		"lat": bson.M{"$gte": minLat, "$lte": maxLat},
		"lng": bson.M{"$gte": minLng, "$lte": maxLng},
	}
	if repID != nil {
		filter["$or"] = []bson.M{
			{"repId": *repID},
			{"assignedCloserId": *repID},
		}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pins []models.Pin
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

// UpdateSet applies a $set patch and returns the updated pin.
func (r *PinRepository) UpdateSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Pin, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var pin models.Pin
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&pin)
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

// PushPhotos appends photo URLs to a pin without racing concurrent uploads.
func (r *PinRepository) PushPhotos(ctx context.Context, id primitive.ObjectID, urls []string) (*models.Pin, error) {
	update := bson.M{
		"$push": bson.M{"photos": bson.M{"$each": urls}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var pin models.Pin
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&pin); err != nil {
		return nil, err
	}
	return &pin, nil
}

func (r *PinRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AttachDeal links a pin to the deal created from it. The filter only
// matches pins with no deal yet, so a second conversion attempt matches
// nothing and the caller can report the conflict.
func (r *PinRepository) AttachDeal(ctx context.Context, pinID, dealID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":    pinID,
		"dealId": nil,
	}
	update := bson.M{
		"$set": bson.M{
			"dealId":    dealID,
			"updatedAt": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// CountsByStatus groups pins by status for the canvassing funnel on the
// admin dashboard.
func (r *PinRepository) CountsByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.Count
	}
	return counts, cursor.Err()
}
