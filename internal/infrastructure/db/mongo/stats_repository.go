package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

// StatsRepository runs the dashboard aggregations.
type StatsRepository struct {
	db *mongo.Database
}

func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountAccounts(ctx context.Context) (int64, map[domain.Role]int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	col := r.db.Collection(collectionAccounts)
	cur, err := col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return 0, nil, 0, fmt.Errorf("count accounts by role: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, nil, 0, fmt.Errorf("decode role counts: %w", err)
	}

	byRole := make(map[domain.Role]int64, len(rows))
	var total int64
	for _, row := range rows {
		byRole[domain.Role(row.Role)] = row.Count
		total += row.Count
	}

	active, err := col.CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		return 0, nil, 0, fmt.Errorf("count active accounts: %w", err)
	}
	return total, byRole, active, nil
}

func (r *StatsRepository) CountAccountsCreated(ctx context.Context, from, to time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.db.Collection(collectionAccounts).CountDocuments(ctx, bson.M{"created_at": timeRange(from, to)})
	if err != nil {
		return 0, fmt.Errorf("count new accounts: %w", err)
	}
	return n, nil
}

func (r *StatsRepository) CountMovies(ctx context.Context) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	col := r.db.Collection(collectionMovies)
	total, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, fmt.Errorf("count movies: %w", err)
	}
	published, err := col.CountDocuments(ctx, bson.M{"published": true})
	if err != nil {
		return 0, 0, fmt.Errorf("count published movies: %w", err)
	}
	return total, published, nil
}

func (r *StatsRepository) CountDevices(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.db.Collection(collectionDevices).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	return n, nil
}

func (r *StatsRepository) SumRevenue(ctx context.Context, from, to time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{}
	if rng := timeRange(from, to); len(rng) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"paid_at": rng}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount_cents"}}},
	}}})

	cur, err := r.db.Collection(collectionPayments).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// timeRange builds a [from, to) filter; zero bounds are left open.
func timeRange(from, to time.Time) bson.M {
	rng := bson.M{}
	if !from.IsZero() {
		rng["$gte"] = from.UTC()
	}
	if !to.IsZero() {
		rng["$lt"] = to.UTC()
	}
	return rng
}
