package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) RecordRace(ctx context.Context, res *persist.RaceResult) error {
	_, err := s.db.Collection(collRaceResults).InsertOne(ctx, raceResultDoc{
		EPID:      res.EPID,
		PlayerID:  res.PlayerID,
		Score:     res.Score,
		RingCount: res.RingCount,
		Time:      res.Time,
		Timestamp: res.Timestamp,
	})
	return mapErr("record race", err)
}

func (s *Store) TopRaceResults(ctx context.Context, epID int32, limit int) ([]persist.RaceResult, error) {
	cur, err := s.db.Collection(collRaceResults).Find(ctx,
		bson.D{{Key: "ep_id", Value: epID}},
		options.Find().
			SetSort(bson.D{{Key: "score", Value: -1}, {Key: "timestamp", Value: 1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, mapErr("top race results", err)
	}
	var docs []raceResultDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("top race results", err)
	}

	results := []persist.RaceResult{}
	for _, d := range docs {
		results = append(results, persist.RaceResult{
			EPID:      d.EPID,
			PlayerID:  d.PlayerID,
			Score:     d.Score,
			RingCount: d.RingCount,
			Time:      d.Time,
			Timestamp: d.Timestamp,
		})
	}
	return results, nil
}

func (s *Store) RedeemCode(ctx context.Context, playerID int64, code string) error {
	_, err := s.db.Collection(collRedeemedCodes).InsertOne(ctx,
		redeemedCodeDoc{PlayerID: playerID, Code: code})
	return mapErr("redeem code", err)
}

func (s *Store) RedeemedCodes(ctx context.Context, playerID int64) ([]string, error) {
	cur, err := s.db.Collection(collRedeemedCodes).Find(ctx,
		bson.D{{Key: "player_id", Value: playerID}})
	if err != nil {
		return nil, mapErr("redeemed codes", err)
	}
	var docs []redeemedCodeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("redeemed codes", err)
	}

	codes := []string{}
	for _, d := range docs {
		codes = append(codes, d.Code)
	}
	return codes, nil
}
