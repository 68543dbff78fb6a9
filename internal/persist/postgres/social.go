package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
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
	_, err := s.db.Exec(ctx,
		`INSERT INTO "Buddyships" ("PlayerAID", "PlayerBID") VALUES ($1, $2)`, a, b)
	return mapErr("add buddy", err)
}

func (s *Store) RemoveBuddy(ctx context.Context, playerA, playerB int64) error {
	a, b := buddyPair(playerA, playerB)
	return s.execOne(ctx, "remove buddy",
		`DELETE FROM "Buddyships" WHERE "PlayerAID" = $1 AND "PlayerBID" = $2`, a, b)
}

func (s *Store) Buddies(ctx context.Context, playerID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT CASE WHEN "PlayerAID" = $1 THEN "PlayerBID" ELSE "PlayerAID" END
		 FROM "Buddyships"
		 WHERE "PlayerAID" = $1 OR "PlayerBID" = $1`, playerID,
	)
	if err != nil {
		return nil, mapErr("buddies", err)
	}
	defer rows.Close()
	return scanIDs(rows, "buddies")
}

func (s *Store) BlockPlayer(ctx context.Context, playerID, blockedID int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO "Blocks" ("PlayerID", "BlockedPlayerID") VALUES ($1, $2)`,
		playerID, blockedID)
	return mapErr("block player", err)
}

func (s *Store) UnblockPlayer(ctx context.Context, playerID, blockedID int64) error {
	return s.execOne(ctx, "unblock player",
		`DELETE FROM "Blocks" WHERE "PlayerID" = $1 AND "BlockedPlayerID" = $2`,
		playerID, blockedID)
}

func (s *Store) Blocks(ctx context.Context, playerID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "BlockedPlayerID" FROM "Blocks" WHERE "PlayerID" = $1`, playerID,
	)
	if err != nil {
		return nil, mapErr("blocks", err)
	}
	defer rows.Close()
	return scanIDs(rows, "blocks")
}

func scanIDs(rows pgx.Rows, op string) ([]int64, error) {
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return ids, nil
}
