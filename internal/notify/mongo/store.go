// Package mongo provides the durable MongoDB implementation of the delivery
// history store.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Godatcode/DevFlow-sub004/internal/notify"
)

const defaultCollection = "notification_deliveries"

// DeliveryStore keeps delivery history in a MongoDB collection so it
// survives restarts.
type DeliveryStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewDeliveryStore connects to MongoDB and prepares the delivery collection
// with its query indexes.
func NewDeliveryStore(ctx context.Context, uri, dbName, collectionName string) (*DeliveryStore, error) {
	if collectionName == "" {
		collectionName = defaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &DeliveryStore{
		client: client,
		coll:   client.Database(dbName).Collection(collectionName),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DeliveryStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "eventId", Value: 1}}},
		{Keys: bson.D{{Key: "ruleId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (s *DeliveryStore) Create(ctx context.Context, d notify.Delivery) error {
	_, err := s.coll.InsertOne(ctx, d)
	return err
}

func (s *DeliveryStore) Update(ctx context.Context, d notify.Delivery) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", notify.ErrDeliveryNotFound, d.ID)
	}
	return nil
}

func (s *DeliveryStore) Get(ctx context.Context, id string) (notify.Delivery, error) {
	var d notify.Delivery
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notify.Delivery{}, fmt.Errorf("%w: %s", notify.ErrDeliveryNotFound, id)
	}
	return d, err
}

func (s *DeliveryStore) List(ctx context.Context, filter notify.DeliveryFilter) ([]notify.Delivery, error) {
	query := bson.M{}
	if filter.EventID != "" {
		query["eventId"] = filter.EventID
	}
	if filter.RuleID != "" {
		query["ruleId"] = filter.RuleID
	}

	cursor, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "lastAttempt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	deliveries := []notify.Delivery{}
	if err := cursor.All(ctx, &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (s *DeliveryStore) Stats(ctx context.Context) (notify.DeliveryStats, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return notify.DeliveryStats{}, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return notify.DeliveryStats{}, err
	}

	var stats notify.DeliveryStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case notify.StatusSent:
			stats.Sent = row.Count
		case notify.StatusFailed:
			stats.Failed = row.Count
		case notify.StatusPending:
			stats.Pending = row.Count
		case notify.StatusRetrying:
			stats.Retrying = row.Count
		}
	}
	return stats, nil
}

// Close disconnects the underlying client.
func (s *DeliveryStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
