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

type DealRepository struct {
	client      *mongo.Client
	collection  *mongo.Collection
	commissions *mongo.Collection
}

func NewDealRepository(db *mongo.Client) *DealRepository {
	return &DealRepository{
		client:      db,
		collection:  db.Database("rooftrack").Collection("deals"),
		commissions: db.Database("rooftrack").Collection("commissions"),
	}
}

func (r *DealRepository) Create(ctx context.Context, deal *models.Deal) error {
	if deal.ID.IsZero() {
		deal.ID = primitive.NewObjectID()
	}
	now := time.Now()
	deal.CreatedAt = now
	deal.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, deal)
	return err
}

func (r *DealRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Deal, error) {
	var deal models.Deal
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// FindForRep returns the deals a rep can see: deals the rep owns directly
// plus deals linked through a commission row (setter, closer or self-gen).
// An empty status narrows nothing.
func (r *DealRepository) FindForRep(ctx context.Context, repID primitive.ObjectID, status string) ([]models.Deal, error) {
	linkedIDs, err := r.commissions.Distinct(ctx, "dealId", bson.M{"repId": repID})
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"$or": []bson.M{
			{"repId": repID},
			{"_id": bson.M{"$in": linkedIDs}},
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

	var deals []models.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// FindAll lists deals for admins, newest activity first. An empty status
// narrows nothing.
func (r *DealRepository) FindAll(ctx context.Context, status string) ([]models.Deal, error) {
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

	var deals []models.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// UpdateSet applies a $set patch and returns the updated deal. The patch
// always gets a fresh updatedAt.
func (r *DealRepository) UpdateSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Deal, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var deal models.Deal
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&deal)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// PushMedia appends URLs to one of the deal's media arrays without racing
// concurrent uploads.
func (r *DealRepository) PushMedia(ctx context.Context, id primitive.ObjectID, field string, urls []string) (*models.Deal, error) {
	update := bson.M{
		"$push": bson.M{field: bson.M{"$each": urls}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var deal models.Deal
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// PullMedia removes one URL from a media array.
func (r *DealRepository) PullMedia(ctx context.Context, id primitive.ObjectID, field, url string) (*models.Deal, error) {
	update := bson.M{
		"$pull": bson.M{field: url},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var deal models.Deal
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// Delete removes a deal together with its commission rows. The two deletes
// sit in one transaction so a failure leaves both collections untouched.
func (r *DealRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return InTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		result, err := r.collection.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if result.DeletedCount == 0 {
			return mongo.ErrNoDocuments
		}

		_, err = r.commissions.DeleteMany(sc, bson.M{"dealId": id})
		return err
	})
}

// CountsByStatus groups active deals by status for the admin dashboard.
func (r *DealRepository) CountsByStatus(ctx context.Context) (map[string]int64, error) {
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

// FindStale returns deals that are not complete and have had no writes since
// the cutoff. The reminder job uses this for the weekly digest.
func (r *DealRepository) FindStale(ctx context.Context, cutoff time.Time) ([]models.Deal, error) {
	filter := bson.M{
		"status":    bson.M{"$ne": string(models.StatusComplete)},
		"updatedAt": bson.M{"$lt": cutoff},
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var deals []models.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}
