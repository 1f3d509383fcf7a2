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

type CommissionRepository struct {
	collection *mongo.Collection
}

func NewCommissionRepository(db *mongo.Client) *CommissionRepository {
	return &CommissionRepository{
		collection: db.Database("rooftrack").Collection("commissions"),
	}
}

// Create inserts a commission row. The unique index on (dealId, repId, type)
// rejects duplicates; callers map that to a conflict response.
func (r *CommissionRepository) Create(ctx context.Context, commission *models.Commission) error {
	if commission.ID.IsZero() {
		commission.ID = primitive.NewObjectID()
	}
	now := time.Now()
	commission.CreatedAt = now
	commission.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, commission)
	return err
}

func (r *CommissionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	var commission models.Commission
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&commission); err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *CommissionRepository) FindByDeal(ctx context.Context, dealID primitive.ObjectID) ([]models.Commission, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"dealId": dealID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var commissions []models.Commission
	if err := cursor.All(ctx, &commissions); err != nil {
		return nil, err
	}
	return commissions, nil
}

// FindForRep lists a rep's commission rows, optionally narrowed by paid
// state. Pass nil to see everything.
func (r *CommissionRepository) FindForRep(ctx context.Context, repID primitive.ObjectID, paid *bool) ([]models.Commission, error) {
	filter := bson.M{"repId": repID}
	if paid != nil {
		filter["paid"] = *paid
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var commissions []models.Commission
	if err := cursor.All(ctx, &commissions); err != nil {
		return nil, err
	}
	return commissions, nil
}

// FindAll lists every commission row, optionally narrowed by paid state.
// Admin payout screens use this; reps go through FindForRep.
func (r *CommissionRepository) FindAll(ctx context.Context, paid *bool) ([]models.Commission, error) {
	filter := bson.M{}
	if paid != nil {
		filter["paid"] = *paid
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var commissions []models.Commission
	if err := cursor.All(ctx, &commissions); err != nil {
		return nil, err
	}
	return commissions, nil
}

// UpdateSet applies a $set patch and returns the updated row.
func (r *CommissionRepository) UpdateSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Commission, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var commission models.Commission
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&commission)
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// MarkPaid flips an unpaid row to paid. The filter only matches unpaid rows,
// so repeating the call changes nothing and reports false.
func (r *CommissionRepository) MarkPaid(ctx context.Context, id, paidBy primitive.ObjectID) (bool, error) {
	now := time.Now()
	filter := bson.M{"_id": id, "paid": false}
	update := bson.M{
		"$set": bson.M{
			"paid":      true,
			"paidAt":    now,
			"paidBy":    paidBy,
			"updatedAt": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *CommissionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Totals sums all commission amounts split by paid state, for the admin
// dashboard.
func (r *CommissionRepository) Totals(ctx context.Context) (paid float64, pending float64, err error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$paid", "total": bson.M{"$sum": "$amount"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			Paid  bool    `bson:"_id"`
			Total float64 `bson:"total"`
		}
		if err := cursor.Decode(&row); err != nil {
			return 0, 0, err
		}
		if row.Paid {
			paid = row.Total
		} else {
			pending = row.Total
		}
	}
	return paid, pending, cursor.Err()
}

// EarningsForRep sums a rep's commission amounts split by paid state.
func (r *CommissionRepository) EarningsForRep(ctx context.Context, repID primitive.ObjectID) (paid float64, pending float64, err error) {
	pipeline := []bson.M{
		{"$match": bson.M{"repId": repID}},
		{"$group": bson.M{"_id": "$paid", "total": bson.M{"$sum": "$amount"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			Paid  bool    `bson:"_id"`
			Total float64 `bson:"total"`
		}
		if err := cursor.Decode(&row); err != nil {
			return 0, 0, err
		}
		if row.Paid {
			paid = row.Total
		} else {
			pending = row.Total
		}
	}
	return paid, pending, cursor.Err()
}
