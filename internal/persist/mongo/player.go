package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) CreatePlayer(ctx context.Context, p *persist.Player) error {
	p.NormalizeFlags()
	now := time.Now().Unix()
	if p.Created == 0 {
		p.Created = now
	}
	if p.LastLogin == 0 {
		p.LastLogin = now
	}
	if p.ID == 0 {
		id, err := s.nextID(ctx, collPlayers)
		if err != nil {
			return err
		}
		p.ID = id
	}

	if _, err := s.db.Collection(collPlayers).InsertOne(ctx, newPlayerDoc(p)); err != nil {
		return mapErr("create player", err)
	}
	return nil
}

func (s *Store) ListCharacters(ctx context.Context, accountID int64) ([]persist.CharacterSummary, error) {
	cur, err := s.db.Collection(collPlayers).Find(ctx,
		bson.D{{Key: "account_id", Value: accountID}},
		options.Find().SetSort(bson.D{{Key: "slot_number", Value: 1}}),
	)
	if err != nil {
		return nil, mapErr("list characters", err)
	}
	var docs []playerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("list characters", err)
	}

	result := []persist.CharacterSummary{}
	for i := range docs {
		if docs[i].Appearance == nil {
			return nil, mapErr("list characters: player missing appearance",
				persist.ErrIntegrity)
		}
		result = append(result, docs[i].summary())
	}
	return result, nil
}

func (s *Store) LoadPlayer(ctx context.Context, playerID int64) (*persist.Player, error) {
	var doc playerDoc
	err := s.db.Collection(collPlayers).FindOne(ctx,
		bson.D{{Key: "_id", Value: playerID}},
	).Decode(&doc)
	if err != nil {
		return nil, mapErr("load player", err)
	}
	if doc.Appearance == nil {
		return nil, mapErr("load player: player missing appearance", persist.ErrIntegrity)
	}
	return doc.player(), nil
}

func (s *Store) SavePlayer(ctx context.Context, p *persist.Player) error {
	return s.savePlayerOne(ctx, "save player", p)
}

func (s *Store) SavePlayers(ctx context.Context, players []*persist.Player) error {
	return s.withTx(ctx, "save players", func(sc mongo.SessionContext) error {
		for _, p := range players {
			if err := s.savePlayerOne(sc, "save players", p); err != nil {
				return err
			}
		}
		return nil
	})
}

// savePlayerOne replaces the mutable fields and embedded collections of one
// player document. Identity and creation fields stay untouched.
func (s *Store) savePlayerOne(ctx context.Context, op string, p *persist.Player) error {
	p.NormalizeFlags()
	p.LastSave = time.Now().Unix()

	doc := newPlayerDoc(p)
	res, err := s.db.Collection(collPlayers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: p.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "level", Value: doc.Level},
			{Key: "equipped_nano_ids", Value: doc.EquippedNanos},
			{Key: "tutorial_flag", Value: doc.TutorialFlag},
			{Key: "payzone_flag", Value: doc.PayZoneFlag},
			{Key: "pos", Value: doc.Pos},
			{Key: "angle", Value: doc.Angle},
			{Key: "hp", Value: doc.HP},
			{Key: "fusion_matter", Value: doc.FusionMatter},
			{Key: "taros", Value: doc.Taros},
			{Key: "battery_w", Value: doc.BatteryW},
			{Key: "battery_n", Value: doc.BatteryN},
			{Key: "mentor", Value: doc.Mentor},
			{Key: "active_mission_id", Value: doc.CurrentMissionID},
			{Key: "warp_location_flag", Value: doc.WarpLocationFlag},
			{Key: "skyway_bytes", Value: doc.SkywayFlags},
			{Key: "first_use_bytes", Value: doc.FirstUseFlags},
			{Key: "quest_bytes", Value: doc.QuestFlags},
			{Key: "nanos", Value: doc.Nanos},
			{Key: "items", Value: doc.Inventory},
			{Key: "quest_items", Value: doc.QuestItems},
			{Key: "running_quests", Value: doc.RunningQuests},
			{Key: "last_save_time", Value: doc.LastSave},
		}}},
	)
	if err != nil {
		return mapErr(op, err)
	}
	if res.MatchedCount == 0 {
		return mapErr(op, mongo.ErrNoDocuments)
	}
	return nil
}

func (s *Store) UpdateAppearance(ctx context.Context, playerID int64, style persist.Appearance) error {
	res, err := s.db.Collection(collPlayers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: playerID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "style", Value: newAppearanceDoc(style)},
			{Key: "appearance_flag", Value: int32(1)},
		}}},
	)
	if err != nil {
		return mapErr("update appearance", err)
	}
	if res.MatchedCount == 0 {
		return mapErr("update appearance", mongo.ErrNoDocuments)
	}
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, playerID int64) error {
	return s.withTx(ctx, "delete player", func(sc mongo.SessionContext) error {
		res := s.db.Collection(collPlayers).FindOne(sc,
			bson.D{{Key: "_id", Value: playerID}})
		if err := res.Err(); err != nil {
			return err
		}
		return s.deletePlayersCascade(sc, []int64{playerID})
	})
}
