package sqlite

import (
	"context"

	"github.com/fusiongo/server/internal/persist"
)

func (s *Store) InitMeta(ctx context.Context, protocolVersion, databaseVersion int32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("init meta", err)
	}
	defer tx.Rollback()

	stamps := []struct {
		key   string
		value int64
	}{
		{persist.MetaKeyProtocolVersion, int64(protocolVersion)},
		{persist.MetaKeyDatabaseVersion, int64(databaseVersion)},
	}
	for _, st := range stamps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "Meta" ("Key", "Value") VALUES (?, ?)`, st.key, st.value,
		); err != nil {
			return mapErr("init meta", err)
		}
	}
	return mapErr("init meta", tx.Commit())
}

func (s *Store) MetaValue(ctx context.Context, key string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`SELECT "Value" FROM "Meta" WHERE "Key" = ?`, key,
	).Scan(&v)
	if err != nil {
		return 0, mapErr("meta value", err)
	}
	return v, nil
}
