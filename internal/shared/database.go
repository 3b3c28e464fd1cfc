// ============================================================================
// internal/shared/database.go
// MongoDB connection, index bootstrap, and shared persistence helpers
// ============================================================================

package shared

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// ConnectMongoDB establishes a connection to MongoDB with pooling configured
// and verifies it with a ping.
func ConnectMongoDB(config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout).
		SetSocketTimeout(30 * time.Second).
		SetHeartbeatInterval(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(config.Database)
	return client, db, nil
}

// DisconnectMongoDB gracefully closes the MongoDB connection.
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	return nil
}

// EnsureIndexes creates the indexes the service depends on. Text indexes back
// the search endpoints; the username index enforces registration uniqueness.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := db.Collection(ColUsers).Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}

	_, err = db.Collection(ColCourses).Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "courseCode", Value: "text"},
			{Key: "courseName", Value: "text"},
			{Key: "schoolName", Value: "text"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create course text index: %w", err)
	}

	_, err = db.Collection(ColGradeSystems).Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: "text"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create grade system text index: %w", err)
	}

	return nil
}

// ============================================================================
// Usage Counter Helpers
// ============================================================================

// IncrementUsage atomically increments the usedBy counter of a shared entity.
func IncrementUsage(ctx context.Context, col *mongo.Collection, id string) error {
	_, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"usedBy": 1}})
	return err
}

// DecrementUsage atomically decrements the usedBy counter of a shared entity.
// The filter guards against underflow: a counter already at zero is left
// untouched rather than driven negative by a racing detach.
func DecrementUsage(ctx context.Context, col *mongo.Collection, id string) error {
	_, err := col.UpdateOne(ctx,
		bson.M{"_id": id, "usedBy": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"usedBy": -1}},
	)
	return err
}

// CounterOps reports which usage counters an attach has to move when the
// owner currently references prev and attaches next. Re-attaching the same
// entity moves neither counter.
func CounterOps(prev, next string) (inc, dec bool) {
	if prev == next {
		return false, false
	}
	return true, prev != ""
}

// ============================================================================
// ID Generation Helpers
// ============================================================================

// GenerateID generates a unique ID with prefix and timestamp.
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
