package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// BillingRepository stores subscriptions (one per account) and the payment
// ledger revenue is computed from.
type BillingRepository struct {
	db *mongo.Database
}

func NewBillingRepository(db *mongo.Database) *BillingRepository {
	return &BillingRepository{db: db}
}

func (r *BillingRepository) UpsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.Collection(collectionSubscriptions).ReplaceOne(ctx,
		bson.M{"account_id": sub.AccountID}, sub, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// InsertPayment appends to the ledger. Replays of the same event are no-ops.
func (r *BillingRepository) InsertPayment(ctx context.Context, p *domain.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *p
	doc.PaidAt = doc.PaidAt.UTC()
	if _, err := r.db.Collection(collectionPayments).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *BillingRepository) findSubscription(ctx context.Context, filter bson.M) (*domain.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var sub domain.Subscription
	if err := r.db.Collection(collectionSubscriptions).FindOne(ctx, filter).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return &sub, nil
}

func (r *BillingRepository) FindSubscription(ctx context.Context, accountID string) (*domain.Subscription, error) {
	return r.findSubscription(ctx, bson.M{"account_id": accountID})
}

func (r *BillingRepository) FindSubscriptionByProviderRef(ctx context.Context, ref string) (*domain.Subscription, error) {
	return r.findSubscription(ctx, bson.M{"provider_ref": ref})
}

// SaveDeadLetter keeps a billing event the dispatcher gave up on.
func (r *BillingRepository) SaveDeadLetter(ctx context.Context, f domain.FailedBillingEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	f.FailedAt = f.FailedAt.UTC()
	if _, err := r.db.Collection(collectionDeadLetters).InsertOne(ctx, f); err != nil {
		return fmt.Errorf("save dead letter: %w", err)
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the billing collections.
func (r *BillingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	if _, err := r.db.Collection(collectionSubscriptions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := r.db.Collection(collectionSubscriptions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "provider_ref", Value: 1}},
	}); err != nil {
		return err
	}
	if _, err := r.db.Collection(collectionDeadLetters).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "event.id", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := r.db.Collection(collectionPayments).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "paid_at", Value: -1}}},
	})
	return err
}
