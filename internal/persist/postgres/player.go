package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

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

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapErr("create player", err)
	}
	defer tx.Rollback(ctx)

	if p.ID == 0 {
		err = tx.QueryRow(ctx,
			`INSERT INTO "Players" (
				"AccountID", "Slot", "FirstName", "LastName", "NameCheck",
				"Created", "LastLogin", "XCoordinate", "YCoordinate", "ZCoordinate",
				"Angle", "HP", "SkywayLocationFlag", "FirstUseFlag", "Quests"
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			RETURNING "PlayerID"`,
			p.AccountID, p.Slot, p.FirstName, p.LastName, p.NameCheck,
			p.Created, p.LastLogin, p.X, p.Y, p.Z,
			p.Angle, p.HP, p.SkywayFlags, p.FirstUseFlags, p.QuestFlags,
		).Scan(&p.ID)
	} else {
		_, err = tx.Exec(ctx,
			`INSERT INTO "Players" (
				"PlayerID", "AccountID", "Slot", "FirstName", "LastName", "NameCheck",
				"Created", "LastLogin", "XCoordinate", "YCoordinate", "ZCoordinate",
				"Angle", "HP", "SkywayLocationFlag", "FirstUseFlag", "Quests"
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			p.ID, p.AccountID, p.Slot, p.FirstName, p.LastName, p.NameCheck,
			p.Created, p.LastLogin, p.X, p.Y, p.Z,
			p.Angle, p.HP, p.SkywayFlags, p.FirstUseFlags, p.QuestFlags,
		)
	}
	if err != nil {
		return mapErr("create player", err)
	}

	// Default appearance row; cosmetics arrive later via UpdateAppearance.
	if _, err := tx.Exec(ctx,
		`INSERT INTO "Appearances" (
			"PlayerID", "Body", "EyeColor", "FaceStyle", "Gender",
			"HairColor", "HairStyle", "Height", "SkinColor"
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Appearance.Body, p.Appearance.EyeColor, p.Appearance.FaceStyle,
		p.Appearance.Gender, p.Appearance.HairColor, p.Appearance.HairStyle,
		p.Appearance.Height, p.Appearance.SkinColor,
	); err != nil {
		return mapErr("create appearance", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapErr("create player", err)
	}
	return nil
}

func (s *Store) ListCharacters(ctx context.Context, accountID int64) ([]persist.CharacterSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p."PlayerID", p."Slot", p."FirstName", p."LastName", p."NameCheck",
		        p."Level", p."AppearanceFlag", p."TutorialFlag", p."PayZoneFlag",
		        p."XCoordinate", p."YCoordinate", p."ZCoordinate", p."HP",
		        p."Nano1", p."Nano2", p."Nano3",
		        a."PlayerID", a."Body", a."EyeColor", a."FaceStyle", a."Gender",
		        a."HairColor", a."HairStyle", a."Height", a."SkinColor"
		 FROM "Players" p
		 LEFT JOIN "Appearances" a ON a."PlayerID" = p."PlayerID"
		 WHERE p."AccountID" = $1
		 ORDER BY p."Slot"`, accountID,
	)
	if err != nil {
		return nil, mapErr("list characters", err)
	}
	defer rows.Close()

	result := []persist.CharacterSummary{}
	for rows.Next() {
		var c persist.CharacterSummary
		var appID *int64
		var body, eye, face, gender, hairC, hairS, height, skin *int16
		if err := rows.Scan(
			&c.PlayerID, &c.Slot, &c.FirstName, &c.LastName, &c.NameCheck,
			&c.Level, &c.AppearanceFlag, &c.TutorialFlag, &c.PayZoneFlag,
			&c.X, &c.Y, &c.Z, &c.HP,
			&c.EquippedNanos[0], &c.EquippedNanos[1], &c.EquippedNanos[2],
			&appID, &body, &eye, &face, &gender, &hairC, &hairS, &height, &skin,
		); err != nil {
			return nil, mapErr("list characters", err)
		}
		if appID == nil {
			return nil, mapErr("list characters: player missing appearance",
				persist.ErrIntegrity)
		}
		c.Appearance = persist.Appearance{
			Body: *body, EyeColor: *eye, FaceStyle: *face, Gender: *gender,
			HairColor: *hairC, HairStyle: *hairS, Height: *height, SkinColor: *skin,
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list characters", err)
	}
	return result, nil
}

func (s *Store) LoadPlayer(ctx context.Context, playerID int64) (*persist.Player, error) {
	p := &persist.Player{}
	var appID *int64
	var body, eye, face, gender, hairC, hairS, height, skin *int16
	err := s.db.QueryRow(ctx,
		`SELECT p."PlayerID", p."AccountID", p."Slot", p."FirstName", p."LastName",
		        p."NameCheck", p."AppearanceFlag", p."TutorialFlag", p."PayZoneFlag",
		        p."Created", p."LastLogin", p."LastSave", p."Level",
		        p."Nano1", p."Nano2", p."Nano3",
		        p."XCoordinate", p."YCoordinate", p."ZCoordinate", p."Angle", p."HP",
		        p."FusionMatter", p."Taros", p."BatteryW", p."BatteryN",
		        p."Mentor", p."CurrentMissionID", p."WarpLocationFlag",
		        p."SkywayLocationFlag", p."FirstUseFlag", p."Quests",
		        a."PlayerID", a."Body", a."EyeColor", a."FaceStyle", a."Gender",
		        a."HairColor", a."HairStyle", a."Height", a."SkinColor"
		 FROM "Players" p
		 LEFT JOIN "Appearances" a ON a."PlayerID" = p."PlayerID"
		 WHERE p."PlayerID" = $1`, playerID,
	).Scan(
		&p.ID, &p.AccountID, &p.Slot, &p.FirstName, &p.LastName,
		&p.NameCheck, &p.AppearanceFlag, &p.TutorialFlag, &p.PayZoneFlag,
		&p.Created, &p.LastLogin, &p.LastSave, &p.Level,
		&p.EquippedNanos[0], &p.EquippedNanos[1], &p.EquippedNanos[2],
		&p.X, &p.Y, &p.Z, &p.Angle, &p.HP,
		&p.FusionMatter, &p.Taros, &p.BatteryW, &p.BatteryN,
		&p.Mentor, &p.CurrentMissionID, &p.WarpLocationFlag,
		&p.SkywayFlags, &p.FirstUseFlags, &p.QuestFlags,
		&appID, &body, &eye, &face, &gender, &hairC, &hairS, &height, &skin,
	)
	if err != nil {
		return nil, mapErr("load player", err)
	}
	if appID == nil {
		return nil, mapErr("load player: player missing appearance", persist.ErrIntegrity)
	}
	p.Appearance = persist.Appearance{
		Body: *body, EyeColor: *eye, FaceStyle: *face, Gender: *gender,
		HairColor: *hairC, HairStyle: *hairS, Height: *height, SkinColor: *skin,
	}

	if p.Nanos, err = s.loadNanos(ctx, playerID); err != nil {
		return nil, err
	}
	if p.Inventory, err = s.loadItems(ctx, `Inventory`, playerID); err != nil {
		return nil, err
	}
	if p.QuestItems, err = s.loadItems(ctx, `QuestItems`, playerID); err != nil {
		return nil, err
	}
	if p.RunningQuests, err = s.loadRunningQuests(ctx, playerID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) loadNanos(ctx context.Context, playerID int64) ([]persist.Nano, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "ID", "Skill", "Stamina" FROM "Nanos" WHERE "PlayerID" = $1 ORDER BY "ID"`,
		playerID,
	)
	if err != nil {
		return nil, mapErr("load nanos", err)
	}
	defer rows.Close()

	var nanos []persist.Nano
	for rows.Next() {
		var n persist.Nano
		if err := rows.Scan(&n.ID, &n.Skill, &n.Stamina); err != nil {
			return nil, mapErr("load nanos", err)
		}
		nanos = append(nanos, n)
	}
	return nanos, mapErr("load nanos", rows.Err())
}

// loadItems reads the Inventory or QuestItems table; both share a shape.
func (s *Store) loadItems(ctx context.Context, table string, playerID int64) ([]persist.Item, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "Slot", "ID", "Type", "Opt", "TimeLimit" FROM "`+table+`"
		 WHERE "PlayerID" = $1 ORDER BY "Slot"`, playerID,
	)
	if err != nil {
		return nil, mapErr("load items", err)
	}
	defer rows.Close()

	var items []persist.Item
	for rows.Next() {
		var it persist.Item
		if err := rows.Scan(&it.Slot, &it.ID, &it.Type, &it.Opt, &it.TimeLimit); err != nil {
			return nil, mapErr("load items", err)
		}
		items = append(items, it)
	}
	return items, mapErr("load items", rows.Err())
}

func (s *Store) loadRunningQuests(ctx context.Context, playerID int64) ([]persist.RunningQuest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "TaskID", "RemainingNPCCount1", "RemainingNPCCount2", "RemainingNPCCount3"
		 FROM "RunningQuests" WHERE "PlayerID" = $1 ORDER BY "TaskID"`, playerID,
	)
	if err != nil {
		return nil, mapErr("load running quests", err)
	}
	defer rows.Close()

	var quests []persist.RunningQuest
	for rows.Next() {
		var q persist.RunningQuest
		if err := rows.Scan(&q.TaskID,
			&q.RemainingNPCCount[0], &q.RemainingNPCCount[1], &q.RemainingNPCCount[2],
		); err != nil {
			return nil, mapErr("load running quests", err)
		}
		quests = append(quests, q)
	}
	return quests, mapErr("load running quests", rows.Err())
}

func (s *Store) SavePlayer(ctx context.Context, p *persist.Player) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapErr("save player", err)
	}
	defer tx.Rollback(ctx)

	if err := savePlayerTx(ctx, tx, p); err != nil {
		return err
	}
	return mapErr("save player", tx.Commit(ctx))
}

func (s *Store) SavePlayers(ctx context.Context, players []*persist.Player) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapErr("save players", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range players {
		if err := savePlayerTx(ctx, tx, p); err != nil {
			return err
		}
	}
	return mapErr("save players", tx.Commit(ctx))
}

// savePlayerTx updates the mutable player fields and replaces every child
// collection inside the caller's transaction.
func savePlayerTx(ctx context.Context, tx pgx.Tx, p *persist.Player) error {
	p.NormalizeFlags()
	p.LastSave = time.Now().Unix()

	tag, err := tx.Exec(ctx,
		`UPDATE "Players" SET
			"Level" = $2, "Nano1" = $3, "Nano2" = $4, "Nano3" = $5,
			"TutorialFlag" = $6, "PayZoneFlag" = $7,
			"XCoordinate" = $8, "YCoordinate" = $9, "ZCoordinate" = $10,
			"Angle" = $11, "HP" = $12,
			"FusionMatter" = $13, "Taros" = $14, "BatteryW" = $15, "BatteryN" = $16,
			"Mentor" = $17, "CurrentMissionID" = $18, "WarpLocationFlag" = $19,
			"SkywayLocationFlag" = $20, "FirstUseFlag" = $21, "Quests" = $22,
			"LastSave" = $23
		 WHERE "PlayerID" = $1`,
		p.ID, p.Level, p.EquippedNanos[0], p.EquippedNanos[1], p.EquippedNanos[2],
		p.TutorialFlag, p.PayZoneFlag,
		p.X, p.Y, p.Z,
		p.Angle, p.HP,
		p.FusionMatter, p.Taros, p.BatteryW, p.BatteryN,
		p.Mentor, p.CurrentMissionID, p.WarpLocationFlag,
		p.SkywayFlags, p.FirstUseFlags, p.QuestFlags,
		p.LastSave,
	)
	if err != nil {
		return mapErr("save player", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("save player", pgx.ErrNoRows)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM "Nanos" WHERE "PlayerID" = $1`, p.ID); err != nil {
		return mapErr("save nanos", err)
	}
	for _, n := range p.Nanos {
		if _, err := tx.Exec(ctx,
			`INSERT INTO "Nanos" ("PlayerID", "ID", "Skill", "Stamina") VALUES ($1,$2,$3,$4)`,
			p.ID, n.ID, n.Skill, n.Stamina,
		); err != nil {
			return mapErr("save nanos", err)
		}
	}

	if err := saveItemsTx(ctx, tx, `Inventory`, p.ID, p.Inventory); err != nil {
		return err
	}
	if err := saveItemsTx(ctx, tx, `QuestItems`, p.ID, p.QuestItems); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM "RunningQuests" WHERE "PlayerID" = $1`, p.ID); err != nil {
		return mapErr("save running quests", err)
	}
	for _, q := range p.RunningQuests {
		if _, err := tx.Exec(ctx,
			`INSERT INTO "RunningQuests" (
				"PlayerID", "TaskID",
				"RemainingNPCCount1", "RemainingNPCCount2", "RemainingNPCCount3"
			) VALUES ($1,$2,$3,$4,$5)`,
			p.ID, q.TaskID,
			q.RemainingNPCCount[0], q.RemainingNPCCount[1], q.RemainingNPCCount[2],
		); err != nil {
			return mapErr("save running quests", err)
		}
	}
	return nil
}

func saveItemsTx(ctx context.Context, tx pgx.Tx, table string, playerID int64, items []persist.Item) error {
	if _, err := tx.Exec(ctx, `DELETE FROM "`+table+`" WHERE "PlayerID" = $1`, playerID); err != nil {
		return mapErr("save items", err)
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO "`+table+`" ("PlayerID", "Slot", "ID", "Type", "Opt", "TimeLimit")
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			playerID, it.Slot, it.ID, it.Type, it.Opt, it.TimeLimit,
		); err != nil {
			return mapErr("save items", err)
		}
	}
	return nil
}

func (s *Store) UpdateAppearance(ctx context.Context, playerID int64, style persist.Appearance) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapErr("update appearance", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE "Appearances" SET
			"Body" = $2, "EyeColor" = $3, "FaceStyle" = $4, "Gender" = $5,
			"HairColor" = $6, "HairStyle" = $7, "Height" = $8, "SkinColor" = $9
		 WHERE "PlayerID" = $1`,
		playerID, style.Body, style.EyeColor, style.FaceStyle, style.Gender,
		style.HairColor, style.HairStyle, style.Height, style.SkinColor,
	)
	if err != nil {
		return mapErr("update appearance", err)
	}
	if tag.RowsAffected() == 0 {
		// Player row may still exist; its missing appearance is corruption,
		// a missing player is a plain NotFound.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM "Players" WHERE "PlayerID" = $1)`, playerID,
		).Scan(&exists); err != nil {
			return mapErr("update appearance", err)
		}
		if exists {
			return mapErr("update appearance: player missing appearance", persist.ErrIntegrity)
		}
		return mapErr("update appearance", pgx.ErrNoRows)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE "Players" SET "AppearanceFlag" = 1 WHERE "PlayerID" = $1`, playerID,
	)
	if err != nil {
		return mapErr("update appearance", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("update appearance", pgx.ErrNoRows)
	}
	return mapErr("update appearance", tx.Commit(ctx))
}

func (s *Store) DeletePlayer(ctx context.Context, playerID int64) error {
	return s.execOne(ctx, "delete player",
		`DELETE FROM "Players" WHERE "PlayerID" = $1`, playerID)
}
