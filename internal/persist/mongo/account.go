package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) FindAccount(ctx context.Context, login string) (*persist.Account, error) {
	var doc accountDoc
	err := s.db.Collection(collAccounts).FindOne(ctx,
		bson.D{{Key: "login", Value: login}},
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("find account", err)
	}
	return doc.account(), nil
}

func (s *Store) CreateAccount(ctx context.Context, login, password string) (*persist.Account, error) {
	id, err := s.nextID(ctx, collAccounts)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	doc := accountDoc{
		ID:           id,
		Login:        login,
		Password:     password,
		Selected:     1,
		AccountLevel: persist.DefaultAccountLevel,
		Created:      now,
		LastLogin:    now,
	}
	if _, err := s.db.Collection(collAccounts).InsertOne(ctx, doc); err != nil {
		return nil, mapErr("create account", err)
	}
	return doc.account(), nil
}

func (s *Store) AccountForPlayer(ctx context.Context, playerID int64) (*persist.Account, error) {
	var p struct {
		AccountID int64 `bson:"account_id"`
	}
	err := s.db.Collection(collPlayers).FindOne(ctx,
		bson.D{{Key: "_id", Value: playerID}},
	).Decode(&p)
	if err != nil {
		return nil, mapErr("account for player", err)
	}

	var doc accountDoc
	err = s.db.Collection(collAccounts).FindOne(ctx,
		bson.D{{Key: "_id", Value: p.AccountID}},
	).Decode(&doc)
	if err != nil {
		return nil, mapErr("account for player", err)
	}
	return doc.account(), nil
}

// updateOneAccount applies an update that must match exactly one account.
func (s *Store) updateOneAccount(ctx context.Context, op string, accountID int64, update bson.D) error {
	res, err := s.db.Collection(collAccounts).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: accountID}}, update)
	if err != nil {
		return mapErr(op, err)
	}
	if res.MatchedCount == 0 {
		return mapErr(op, mongo.ErrNoDocuments)
	}
	return nil
}

func (s *Store) ChangeAccountLevel(ctx context.Context, accountID int64, level int32) error {
	return s.updateOneAccount(ctx, "change account level", accountID,
		bson.D{{Key: "$set", Value: bson.D{{Key: "account_level", Value: level}}}})
}

func (s *Store) BanAccount(ctx context.Context, accountID int64, bannedUntil int64, reason string) error {
	return s.updateOneAccount(ctx, "ban account", accountID,
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "banned_until_time", Value: bannedUntil},
			{Key: "banned_since_time", Value: time.Now().Unix()},
			{Key: "ban_reason", Value: reason},
		}}})
}

func (s *Store) UnbanAccount(ctx context.Context, accountID int64) error {
	return s.updateOneAccount(ctx, "unban account", accountID,
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "banned_until_time", Value: int64(0)},
			{Key: "banned_since_time", Value: int64(0)},
			{Key: "ban_reason", Value: ""},
		}}})
}

func (s *Store) UpdateSelectedPlayer(ctx context.Context, accountID int64, slot int32) error {
	return s.updateOneAccount(ctx, "update selected player", accountID,
		bson.D{{Key: "$set", Value: bson.D{{Key: "selected_slot", Value: slot}}}})
}

func (s *Store) TouchLastLogin(ctx context.Context, accountID int64) error {
	return s.updateOneAccount(ctx, "touch last login", accountID,
		bson.D{{Key: "$set", Value: bson.D{{Key: "last_login_time", Value: time.Now().Unix()}}}})
}

func (s *Store) DeleteAccount(ctx context.Context, accountID int64) error {
	return s.withTx(ctx, "delete account", func(sc mongo.SessionContext) error {
		cur, err := s.db.Collection(collPlayers).Find(sc,
			bson.D{{Key: "account_id", Value: accountID}})
		if err != nil {
			return err
		}
		var players []struct {
			ID int64 `bson:"_id"`
		}
		if err := cur.All(sc, &players); err != nil {
			return err
		}
		ids := make([]int64, 0, len(players))
		for _, p := range players {
			ids = append(ids, p.ID)
		}
		if err := s.deletePlayersCascade(sc, ids); err != nil {
			return err
		}

		res, err := s.db.Collection(collAccounts).DeleteOne(sc,
			bson.D{{Key: "_id", Value: accountID}})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	})
}

// deletePlayersCascade removes the given players and every document that
// references them, inside the caller's transaction. This reproduces the
// relational ON DELETE CASCADE behavior.
func (s *Store) deletePlayersCascade(sc mongo.SessionContext, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	in := bson.D{{Key: "$in", Value: ids}}
	deletes := []struct {
		coll   string
		filter bson.D
	}{
		{collBuddyships, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "player_a", Value: in}},
			bson.D{{Key: "player_b", Value: in}},
		}}}},
		{collBlocks, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "player_id", Value: in}},
			bson.D{{Key: "blocked_id", Value: in}},
		}}}},
		{collEmails, bson.D{{Key: "player_id", Value: in}}},
		{collRaceResults, bson.D{{Key: "player_id", Value: in}}},
		{collRedeemedCodes, bson.D{{Key: "player_id", Value: in}}},
		{collPlayers, bson.D{{Key: "_id", Value: in}}},
	}
	for _, d := range deletes {
		if _, err := s.db.Collection(d.coll).DeleteMany(sc, d.filter); err != nil {
			return err
		}
	}
	return nil
}
