package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) InitMeta(ctx context.Context, protocolVersion, databaseVersion int32) error {
	return s.withTx(ctx, "init meta", func(sc mongo.SessionContext) error {
		docs := []any{
			metaDoc{Key: persist.MetaKeyProtocolVersion, Value: int64(protocolVersion)},
			metaDoc{Key: persist.MetaKeyDatabaseVersion, Value: int64(databaseVersion)},
		}
		_, err := s.db.Collection(collMeta).InsertMany(sc, docs)
		return err
	})
}

func (s *Store) MetaValue(ctx context.Context, key string) (int64, error) {
	var doc metaDoc
	err := s.db.Collection(collMeta).FindOne(ctx,
		bson.D{{Key: "_id", Value: key}},
	).Decode(&doc)
	if err != nil {
		return 0, mapErr("meta value", err)
	}
	return doc.Value, nil
}
