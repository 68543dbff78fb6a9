package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) NextEmailIndex(ctx context.Context, playerID int64) (int32, error) {
	var top struct {
		MsgIndex int32 `bson:"msg_index"`
	}
	err := s.db.Collection(collEmails).FindOne(ctx,
		bson.D{{Key: "player_id", Value: playerID}},
		options.FindOne().SetSort(bson.D{{Key: "msg_index", Value: -1}}),
	).Decode(&top)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, mapErr("next email index", err)
	}
	return top.MsgIndex + 1, nil
}

func (s *Store) SaveEmail(ctx context.Context, msg *persist.EmailMessage) error {
	_, err := s.db.Collection(collEmails).InsertOne(ctx, newEmailDoc(msg))
	return mapErr("save email", err)
}

func (s *Store) Emails(ctx context.Context, playerID int64) ([]persist.EmailMessage, error) {
	cur, err := s.db.Collection(collEmails).Find(ctx,
		bson.D{{Key: "player_id", Value: playerID}},
		options.Find().SetSort(bson.D{{Key: "msg_index", Value: -1}}),
	)
	if err != nil {
		return nil, mapErr("emails", err)
	}
	var docs []emailDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("emails", err)
	}

	msgs := []persist.EmailMessage{}
	for i := range docs {
		msgs = append(msgs, docs[i].message(false))
	}
	return msgs, nil
}

func (s *Store) Email(ctx context.Context, playerID int64, msgIndex int32) (*persist.EmailMessage, error) {
	var doc emailDoc
	err := s.db.Collection(collEmails).FindOne(ctx,
		bson.D{{Key: "player_id", Value: playerID}, {Key: "msg_index", Value: msgIndex}},
	).Decode(&doc)
	if err != nil {
		return nil, mapErr("email", err)
	}
	m := doc.message(true)
	return &m, nil
}

func (s *Store) MarkEmailRead(ctx context.Context, playerID int64, msgIndex int32) error {
	res, err := s.db.Collection(collEmails).UpdateOne(ctx,
		bson.D{{Key: "player_id", Value: playerID}, {Key: "msg_index", Value: msgIndex}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read_flag", Value: int32(1)}}}},
	)
	if err != nil {
		return mapErr("mark email read", err)
	}
	if res.MatchedCount == 0 {
		return mapErr("mark email read", mongo.ErrNoDocuments)
	}
	return nil
}

func (s *Store) DeleteEmail(ctx context.Context, playerID int64, msgIndex int32) error {
	res, err := s.db.Collection(collEmails).DeleteOne(ctx,
		bson.D{{Key: "player_id", Value: playerID}, {Key: "msg_index", Value: msgIndex}},
	)
	if err != nil {
		return mapErr("delete email", err)
	}
	if res.DeletedCount == 0 {
		return mapErr("delete email", mongo.ErrNoDocuments)
	}
	return nil
}
