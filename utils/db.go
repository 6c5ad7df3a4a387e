// utils/db.go
package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DatabaseName is the single database every collection lives in.
const DatabaseName = "UnityShopDB"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// Connect returns the process-wide Mongo client, dialing on first use.
// Concurrent first callers share one connection attempt. The client is
// never closed per-request; call Disconnect on shutdown.
func Connect(uri string) (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		serverAPI := options.ServerAPI(options.ServerAPIVersion1)
		opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

		client, clientErr = mongo.Connect(ctx, opts)
		if clientErr != nil {
			return
		}
		clientErr = client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	})
	if clientErr != nil {
		return nil, fmt.Errorf("mongo connect: %w", clientErr)
	}
	return client, nil
}

// Disconnect tears the shared client down. Used on graceful shutdown.
func Disconnect(ctx context.Context, c *mongo.Client) error {
	if c == nil {
		return nil
	}
	return c.Disconnect(ctx)
}

// Collection is a shorthand for a collection in the app database.
func Collection(c *mongo.Client, name string) *mongo.Collection {
	return c.Database(DatabaseName).Collection(name)
}

// EnsureIndexes creates the indexes correctness depends on: the unique
// transitionId backstop for idempotent order inserts, one review per
// (product, user), and the notification listing order.
func EnsureIndexes(ctx context.Context, c *mongo.Client) error {
	unique := options.Index().SetUnique(true)

	_, err := Collection(c, "paidOrders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "transitionId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("paidOrders index: %w", err)
	}

	_, err = Collection(c, "reviews").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "userId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("reviews indexes: %w", err)
	}

	_, err = Collection(c, "notifications").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("notifications index: %w", err)
	}

	_, err = Collection(c, "promoCodes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("promoCodes index: %w", err)
	}
	return nil
}
