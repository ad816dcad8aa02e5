package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

type DeviceRepository struct {
	col *mongo.Collection
}

func NewDeviceRepository(db *mongo.Database) *DeviceRepository {
	return &DeviceRepository{col: db.Collection(collectionDevices)}
}

// Upsert records a login from the device identified by user agent and IP.
func (r *DeviceRepository) Upsert(ctx context.Context, accountID string, info domain.DeviceInfo, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"account_id": accountID, "user_agent": info.UserAgent, "ip": info.IP}
	update := bson.M{
		"$set":         bson.M{"last_seen_at": at},
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "first_seen_at": at},
	}
	if _, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert device: %w", err)
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the devices collection.
func (r *DeviceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "user_agent", Value: 1}, {Key: "ip", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
