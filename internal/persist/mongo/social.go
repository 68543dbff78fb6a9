package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// buddyPair normalizes the unordered relationship so each pair is stored
// exactly once.
func buddyPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

func (s *Store) AddBuddy(ctx context.Context, playerA, playerB int64) error {
	a, b := buddyPair(playerA, playerB)
	_, err := s.db.Collection(collBuddyships).InsertOne(ctx,
		buddyshipDoc{PlayerA: a, PlayerB: b})
	return mapErr("add buddy", err)
}

func (s *Store) RemoveBuddy(ctx context.Context, playerA, playerB int64) error {
	a, b := buddyPair(playerA, playerB)
	res, err := s.db.Collection(collBuddyships).DeleteOne(ctx,
		bson.D{{Key: "player_a", Value: a}, {Key: "player_b", Value: b}})
	if err != nil {
		return mapErr("remove buddy", err)
	}
	if res.DeletedCount == 0 {
		return mapErr("remove buddy", mongo.ErrNoDocuments)
	}
	return nil
}

func (s *Store) Buddies(ctx context.Context, playerID int64) ([]int64, error) {
	cur, err := s.db.Collection(collBuddyships).Find(ctx,
		bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "player_a", Value: playerID}},
			bson.D{{Key: "player_b", Value: playerID}},
		}}})
	if err != nil {
		return nil, mapErr("buddies", err)
	}
	var docs []buddyshipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("buddies", err)
	}

	ids := []int64{}
	for _, d := range docs {
		if d.PlayerA == playerID {
			ids = append(ids, d.PlayerB)
		} else {
			ids = append(ids, d.PlayerA)
		}
	}
	return ids, nil
}

func (s *Store) BlockPlayer(ctx context.Context, playerID, blockedID int64) error {
	_, err := s.db.Collection(collBlocks).InsertOne(ctx,
		blockDoc{PlayerID: playerID, BlockedID: blockedID})
	return mapErr("block player", err)
}

func (s *Store) UnblockPlayer(ctx context.Context, playerID, blockedID int64) error {
	res, err := s.db.Collection(collBlocks).DeleteOne(ctx,
		bson.D{{Key: "player_id", Value: playerID}, {Key: "blocked_id", Value: blockedID}})
	if err != nil {
		return mapErr("unblock player", err)
	}
	if res.DeletedCount == 0 {
		return mapErr("unblock player", mongo.ErrNoDocuments)
	}
	return nil
}

func (s *Store) Blocks(ctx context.Context, playerID int64) ([]int64, error) {
	cur, err := s.db.Collection(collBlocks).Find(ctx,
		bson.D{{Key: "player_id", Value: playerID}})
	if err != nil {
		return nil, mapErr("blocks", err)
	}
	var docs []blockDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("blocks", err)
	}

	ids := []int64{}
	for _, d := range docs {
		ids = append(ids, d.BlockedID)
	}
	return ids, nil
}
