package postgres

import (
	"context"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) RecordRace(ctx context.Context, res *persist.RaceResult) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO "RaceResults" ("EPID", "PlayerID", "Score", "RingCount", "Time", "Timestamp")
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		res.EPID, res.PlayerID, res.Score, res.RingCount, res.Time, res.Timestamp,
	)
	return mapErr("record race", err)
}

func (s *Store) TopRaceResults(ctx context.Context, epID int32, limit int) ([]persist.RaceResult, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "EPID", "PlayerID", "Score", "RingCount", "Time", "Timestamp"
		 FROM "RaceResults"
		 WHERE "EPID" = $1
		 ORDER BY "Score" DESC, "Timestamp" ASC
		 LIMIT $2`,
		epID, limit,
	)
	if err != nil {
		return nil, mapErr("top race results", err)
	}
	defer rows.Close()

	results := []persist.RaceResult{}
	for rows.Next() {
		var r persist.RaceResult
		if err := rows.Scan(&r.EPID, &r.PlayerID, &r.Score, &r.RingCount, &r.Time, &r.Timestamp); err != nil {
			return nil, mapErr("top race results", err)
		}
		results = append(results, r)
	}
	return results, mapErr("top race results", rows.Err())
}

func (s *Store) RedeemCode(ctx context.Context, playerID int64, code string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO "RedeemedCodes" ("PlayerID", "Code") VALUES ($1, $2)`,
		playerID, code,
	)
	return mapErr("redeem code", err)
}

func (s *Store) RedeemedCodes(ctx context.Context, playerID int64) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "Code" FROM "RedeemedCodes" WHERE "PlayerID" = $1`, playerID,
	)
	if err != nil {
		return nil, mapErr("redeemed codes", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, mapErr("redeemed codes", err)
		}
		codes = append(codes, c)
	}
	return codes, mapErr("redeemed codes", rows.Err())
}
