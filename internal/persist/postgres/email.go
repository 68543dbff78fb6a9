package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fusiongo/server/internal/persist"
)

const emailCols = `"PlayerID", "MsgIndex", "ReadFlag", "ItemFlag", "SenderID",
	"SenderFirstName", "SenderLastName", "SubjectLine", "MsgBody", "Taros",
	"SendTime", "DeleteTime"`

func (s *Store) NextEmailIndex(ctx context.Context, playerID int64) (int32, error) {
	var next int32
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX("MsgIndex"), 0) + 1 FROM "EMails" WHERE "PlayerID" = $1`,
		playerID,
	).Scan(&next)
	if err != nil {
		return 0, mapErr("next email index", err)
	}
	return next, nil
}

func (s *Store) SaveEmail(ctx context.Context, msg *persist.EmailMessage) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapErr("save email", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO "EMails" (`+emailCols+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		msg.PlayerID, msg.MsgIndex, msg.ReadFlag, msg.ItemFlag, msg.SenderID,
		msg.SenderFirstName, msg.SenderLastName, msg.SubjectLine, msg.MsgBody,
		msg.Taros, msg.SendTime, msg.DeleteTime,
	)
	if err != nil {
		return mapErr("save email", err)
	}
	for _, it := range msg.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO "EMailItems" ("PlayerID", "MsgIndex", "Slot", "ID", "Type", "Opt", "TimeLimit")
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			msg.PlayerID, msg.MsgIndex, it.Slot, it.ID, it.Type, it.Opt, it.TimeLimit,
		)
		if err != nil {
			return mapErr("save email item", err)
		}
	}
	return mapErr("save email", tx.Commit(ctx))
}

func (s *Store) Emails(ctx context.Context, playerID int64) ([]persist.EmailMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+emailCols+` FROM "EMails" WHERE "PlayerID" = $1 ORDER BY "MsgIndex" DESC`,
		playerID,
	)
	if err != nil {
		return nil, mapErr("emails", err)
	}
	defer rows.Close()

	msgs := []persist.EmailMessage{}
	for rows.Next() {
		var m persist.EmailMessage
		if err := scanEmail(rows, &m); err != nil {
			return nil, mapErr("emails", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, mapErr("emails", rows.Err())
}

func (s *Store) Email(ctx context.Context, playerID int64, msgIndex int32) (*persist.EmailMessage, error) {
	var m persist.EmailMessage
	err := scanEmail(s.db.QueryRow(ctx,
		`SELECT `+emailCols+` FROM "EMails" WHERE "PlayerID" = $1 AND "MsgIndex" = $2`,
		playerID, msgIndex,
	), &m)
	if err != nil {
		return nil, mapErr("email", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT "Slot", "ID", "Type", "Opt", "TimeLimit"
		 FROM "EMailItems"
		 WHERE "PlayerID" = $1 AND "MsgIndex" = $2
		 ORDER BY "Slot"`,
		playerID, msgIndex,
	)
	if err != nil {
		return nil, mapErr("email items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it persist.Item
		if err := rows.Scan(&it.Slot, &it.ID, &it.Type, &it.Opt, &it.TimeLimit); err != nil {
			return nil, mapErr("email items", err)
		}
		m.Items = append(m.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("email items", err)
	}
	return &m, nil
}

func (s *Store) MarkEmailRead(ctx context.Context, playerID int64, msgIndex int32) error {
	return s.execOne(ctx, "mark email read",
		`UPDATE "EMails" SET "ReadFlag" = 1 WHERE "PlayerID" = $1 AND "MsgIndex" = $2`,
		playerID, msgIndex)
}

func (s *Store) DeleteEmail(ctx context.Context, playerID int64, msgIndex int32) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapErr("delete email", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM "EMailItems" WHERE "PlayerID" = $1 AND "MsgIndex" = $2`,
		playerID, msgIndex)
	if err != nil {
		return mapErr("delete email", err)
	}
	tag, err := tx.Exec(ctx,
		`DELETE FROM "EMails" WHERE "PlayerID" = $1 AND "MsgIndex" = $2`,
		playerID, msgIndex)
	if err != nil {
		return mapErr("delete email", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("delete email", pgx.ErrNoRows)
	}
	return mapErr("delete email", tx.Commit(ctx))
}

func scanEmail(row pgx.Row, m *persist.EmailMessage) error {
	return row.Scan(
		&m.PlayerID, &m.MsgIndex, &m.ReadFlag, &m.ItemFlag, &m.SenderID,
		&m.SenderFirstName, &m.SenderLastName, &m.SubjectLine, &m.MsgBody,
		&m.Taros, &m.SendTime, &m.DeleteTime,
	)
}
