package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// InTransaction runs fn inside a mongo session so every write it performs
// commits or rolls back as one unit. fn must route its repository calls
// through the session context, and it can run more than once when the driver
// retries a transient error.
func InTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
