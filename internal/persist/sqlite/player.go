package sqlite

import (
	"context"
	"database/sql"
	"time"

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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("create player", err)
	}
	defer tx.Rollback()

	if p.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO "Players" (
				"AccountID", "Slot", "FirstName", "LastName", "NameCheck",
				"Created", "LastLogin", "XCoordinate", "YCoordinate", "ZCoordinate",
				"Angle", "HP", "SkywayLocationFlag", "FirstUseFlag", "Quests"
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.AccountID, p.Slot, p.FirstName, p.LastName, p.NameCheck,
			p.Created, p.LastLogin, p.X, p.Y, p.Z,
			p.Angle, p.HP, p.SkywayFlags, p.FirstUseFlags, p.QuestFlags,
		)
		if err != nil {
			return mapErr("create player", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return mapErr("create player", err)
		}
	} else {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO "Players" (
				"PlayerID", "AccountID", "Slot", "FirstName", "LastName", "NameCheck",
				"Created", "LastLogin", "XCoordinate", "YCoordinate", "ZCoordinate",
				"Angle", "HP", "SkywayLocationFlag", "FirstUseFlag", "Quests"
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.ID, p.AccountID, p.Slot, p.FirstName, p.LastName, p.NameCheck,
			p.Created, p.LastLogin, p.X, p.Y, p.Z,
			p.Angle, p.HP, p.SkywayFlags, p.FirstUseFlags, p.QuestFlags,
		)
		if err != nil {
			return mapErr("create player", err)
		}
	}

	// Default appearance row; cosmetics arrive later via UpdateAppearance.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO "Appearances" (
			"PlayerID", "Body", "EyeColor", "FaceStyle", "Gender",
			"HairColor", "HairStyle", "Height", "SkinColor"
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Appearance.Body, p.Appearance.EyeColor, p.Appearance.FaceStyle,
		p.Appearance.Gender, p.Appearance.HairColor, p.Appearance.HairStyle,
		p.Appearance.Height, p.Appearance.SkinColor,
	); err != nil {
		return mapErr("create appearance", err)
	}

	return mapErr("create player", tx.Commit())
}

func (s *Store) ListCharacters(ctx context.Context, accountID int64) ([]persist.CharacterSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p."PlayerID", p."Slot", p."FirstName", p."LastName", p."NameCheck",
		        p."Level", p."AppearanceFlag", p."TutorialFlag", p."PayZoneFlag",
		        p."XCoordinate", p."YCoordinate", p."ZCoordinate", p."HP",
		        p."Nano1", p."Nano2", p."Nano3",
		        a."PlayerID", a."Body", a."EyeColor", a."FaceStyle", a."Gender",
		        a."HairColor", a."HairStyle", a."Height", a."SkinColor"
		 FROM "Players" p
		 LEFT JOIN "Appearances" a ON a."PlayerID" = p."PlayerID"
		 WHERE p."AccountID" = ?
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
	err := s.db.QueryRowContext(ctx,
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
		 WHERE p."PlayerID" = ?`, playerID,
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT "ID", "Skill", "Stamina" FROM "Nanos" WHERE "PlayerID" = ? ORDER BY "ID"`,
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT "Slot", "ID", "Type", "Opt", "TimeLimit" FROM "`+table+`"
		 WHERE "PlayerID" = ? ORDER BY "Slot"`, playerID,
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT "TaskID", "RemainingNPCCount1", "RemainingNPCCount2", "RemainingNPCCount3"
		 FROM "RunningQuests" WHERE "PlayerID" = ? ORDER BY "TaskID"`, playerID,
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("save player", err)
	}
	defer tx.Rollback()

	if err := savePlayerTx(ctx, tx, p); err != nil {
		return err
	}
	return mapErr("save player", tx.Commit())
}

func (s *Store) SavePlayers(ctx context.Context, players []*persist.Player) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("save players", err)
	}
	defer tx.Rollback()

	for _, p := range players {
		if err := savePlayerTx(ctx, tx, p); err != nil {
			return err
		}
	}
	return mapErr("save players", tx.Commit())
}

// savePlayerTx updates the mutable player fields and replaces every child
// collection inside the caller's transaction.
func savePlayerTx(ctx context.Context, tx *sql.Tx, p *persist.Player) error {
	p.NormalizeFlags()
	p.LastSave = time.Now().Unix()

	res, err := tx.ExecContext(ctx,
		`UPDATE "Players" SET
			"Level" = ?, "Nano1" = ?, "Nano2" = ?, "Nano3" = ?,
			"TutorialFlag" = ?, "PayZoneFlag" = ?,
			"XCoordinate" = ?, "YCoordinate" = ?, "ZCoordinate" = ?,
			"Angle" = ?, "HP" = ?,
			"FusionMatter" = ?, "Taros" = ?, "BatteryW" = ?, "BatteryN" = ?,
			"Mentor" = ?, "CurrentMissionID" = ?, "WarpLocationFlag" = ?,
			"SkywayLocationFlag" = ?, "FirstUseFlag" = ?, "Quests" = ?,
			"LastSave" = ?
		 WHERE "PlayerID" = ?`,
		p.Level, p.EquippedNanos[0], p.EquippedNanos[1], p.EquippedNanos[2],
		p.TutorialFlag, p.PayZoneFlag,
		p.X, p.Y, p.Z,
		p.Angle, p.HP,
		p.FusionMatter, p.Taros, p.BatteryW, p.BatteryN,
		p.Mentor, p.CurrentMissionID, p.WarpLocationFlag,
		p.SkywayFlags, p.FirstUseFlags, p.QuestFlags,
		p.LastSave,
		p.ID,
	)
	if err != nil {
		return mapErr("save player", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("save player", err)
	}
	if n == 0 {
		return mapErr("save player", sql.ErrNoRows)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM "Nanos" WHERE "PlayerID" = ?`, p.ID); err != nil {
		return mapErr("save nanos", err)
	}
	for _, nano := range p.Nanos {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "Nanos" ("PlayerID", "ID", "Skill", "Stamina") VALUES (?,?,?,?)`,
			p.ID, nano.ID, nano.Skill, nano.Stamina,
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM "RunningQuests" WHERE "PlayerID" = ?`, p.ID); err != nil {
		return mapErr("save running quests", err)
	}
	for _, q := range p.RunningQuests {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "RunningQuests" (
				"PlayerID", "TaskID",
				"RemainingNPCCount1", "RemainingNPCCount2", "RemainingNPCCount3"
			) VALUES (?,?,?,?,?)`,
			p.ID, q.TaskID,
			q.RemainingNPCCount[0], q.RemainingNPCCount[1], q.RemainingNPCCount[2],
		); err != nil {
			return mapErr("save running quests", err)
		}
	}
	return nil
}

func saveItemsTx(ctx context.Context, tx *sql.Tx, table string, playerID int64, items []persist.Item) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM "`+table+`" WHERE "PlayerID" = ?`, playerID); err != nil {
		return mapErr("save items", err)
	}
	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "`+table+`" ("PlayerID", "Slot", "ID", "Type", "Opt", "TimeLimit")
			 VALUES (?,?,?,?,?,?)`,
			playerID, it.Slot, it.ID, it.Type, it.Opt, it.TimeLimit,
		); err != nil {
			return mapErr("save items", err)
		}
	}
	return nil
}

func (s *Store) UpdateAppearance(ctx context.Context, playerID int64, style persist.Appearance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("update appearance", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE "Appearances" SET
			"Body" = ?, "EyeColor" = ?, "FaceStyle" = ?, "Gender" = ?,
			"HairColor" = ?, "HairStyle" = ?, "Height" = ?, "SkinColor" = ?
		 WHERE "PlayerID" = ?`,
		style.Body, style.EyeColor, style.FaceStyle, style.Gender,
		style.HairColor, style.HairStyle, style.Height, style.SkinColor,
		playerID,
	)
	if err != nil {
		return mapErr("update appearance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("update appearance", err)
	}
	if n == 0 {
		// Player row may still exist; its missing appearance is corruption,
		// a missing player is a plain NotFound.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM "Players" WHERE "PlayerID" = ?)`, playerID,
		).Scan(&exists); err != nil {
			return mapErr("update appearance", err)
		}
		if exists {
			return mapErr("update appearance: player missing appearance", persist.ErrIntegrity)
		}
		return mapErr("update appearance", sql.ErrNoRows)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE "Players" SET "AppearanceFlag" = 1 WHERE "PlayerID" = ?`, playerID,
	); err != nil {
		return mapErr("update appearance", err)
	}
	return mapErr("update appearance", tx.Commit())
}

func (s *Store) DeletePlayer(ctx context.Context, playerID int64) error {
	return s.execOne(ctx, "delete player",
		`DELETE FROM "Players" WHERE "PlayerID" = ?`, playerID)
}
