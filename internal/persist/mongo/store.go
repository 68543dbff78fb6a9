// Package mongo implements persist.Store on MongoDB. Players embed their
// child collections in one document; the relational cascades and unique
// constraints are reproduced with indexes and multi-document transactions,
// so a replica set (or a single-node replica set) is required.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/fusiongo/server/internal/config"
	"github.com/fusiongo/server/internal/persist"
)

const (
	collAccounts      = "accounts"
	collPlayers       = "players"
	collBuddyships    = "buddyships"
	collBlocks        = "blocks"
	collEmails        = "emails"
	collRaceResults   = "race_results"
	collRedeemedCodes = "redeemed_codes"
	collMeta          = "meta"
	collCounters      = "counters"
)

// Store wraps a mongo client and its database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

var _ persist.Store = (*Store)(nil)

// Open connects to MongoDB, verifies the connection, and ensures the
// unique indexes that stand in for the relational constraints.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI()).
		SetConnectTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect: %v: %w", err, persist.ErrConnectivity)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %v: %w", err, persist.ErrConnectivity)
	}

	s := &Store{client: client, db: client.Database(cfg.Name), log: log}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info("mongo store ready",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name))

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collAccounts: {
			{Keys: bson.D{{Key: "login", Value: 1}}, Options: unique},
		},
		collPlayers: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "slot_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "first_name", Value: 1}, {Key: "last_name", Value: 1}}, Options: unique},
		},
		collBuddyships: {
			{Keys: bson.D{{Key: "player_a", Value: 1}, {Key: "player_b", Value: 1}}, Options: unique},
		},
		collBlocks: {
			{Keys: bson.D{{Key: "player_id", Value: 1}, {Key: "blocked_id", Value: 1}}, Options: unique},
		},
		collEmails: {
			{Keys: bson.D{{Key: "player_id", Value: 1}, {Key: "msg_index", Value: 1}}, Options: unique},
		},
		collRaceResults: {
			{Keys: bson.D{{Key: "ep_id", Value: 1}, {Key: "score", Value: -1}}},
		},
		collRedeemedCodes: {
			{Keys: bson.D{{Key: "player_id", Value: 1}, {Key: "code", Value: 1}}, Options: unique},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return mapErr("ensure indexes", err)
		}
	}
	return nil
}

// nextID returns the next value of a named id sequence, mirroring the
// autoincrement keys of the relational backends.
func (s *Store) nextID(ctx context.Context, sequence string) (int64, error) {
	var doc counterDoc
	err := s.db.Collection(collCounters).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: sequence}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, mapErr("next id", err)
	}
	return doc.Seq, nil
}

// withTx runs fn inside a multi-document transaction.
func (s *Store) withTx(ctx context.Context, op string, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return mapErr(op, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return mapErr(op, err)
}

func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.log.Warn("mongo disconnect", zap.Error(err))
	}
}
