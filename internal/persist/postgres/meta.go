package postgres

import (
	"context"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) InitMeta(ctx context.Context, protocolVersion, databaseVersion int32) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapErr("init meta", err)
	}
	defer tx.Rollback(ctx)

	stamps := []struct {
		key   string
		value int64
	}{
		{persist.MetaKeyProtocolVersion, int64(protocolVersion)},
		{persist.MetaKeyDatabaseVersion, int64(databaseVersion)},
	}
	for _, st := range stamps {
		_, err := tx.Exec(ctx,
			`INSERT INTO "Meta" ("Key", "Value") VALUES ($1, $2)`, st.key, st.value)
		if err != nil {
			return mapErr("init meta", err)
		}
	}
	return mapErr("init meta", tx.Commit(ctx))
}

func (s *Store) MetaValue(ctx context.Context, key string) (int64, error) {
	var v int64
	err := s.db.QueryRow(ctx,
		`SELECT "Value" FROM "Meta" WHERE "Key" = $1`, key,
	).Scan(&v)
	if err != nil {
		return 0, mapErr("meta value", err)
	}
	return v, nil
}
