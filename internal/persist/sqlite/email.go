package sqlite

import (
	"context"
	"database/sql"

	"github.com/fusiongo/server/internal/persist"
)

const emailCols = `"PlayerID", "MsgIndex", "ReadFlag", "ItemFlag", "SenderID",
	"SenderFirstName", "SenderLastName", "SubjectLine", "MsgBody", "Taros",
	"SendTime", "DeleteTime"`

func (s *Store) NextEmailIndex(ctx context.Context, playerID int64) (int32, error) {
	var next int32
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX("MsgIndex"), 0) + 1 FROM "EMails" WHERE "PlayerID" = ?`,
		playerID,
	).Scan(&next)
	if err != nil {
		return 0, mapErr("next email index", err)
	}
	return next, nil
}

func (s *Store) SaveEmail(ctx context.Context, msg *persist.EmailMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("save email", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO "EMails" (`+emailCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.PlayerID, msg.MsgIndex, msg.ReadFlag, msg.ItemFlag, msg.SenderID,
		msg.SenderFirstName, msg.SenderLastName, msg.SubjectLine, msg.MsgBody,
		msg.Taros, msg.SendTime, msg.DeleteTime,
	)
	if err != nil {
		return mapErr("save email", err)
	}
	for _, it := range msg.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO "EMailItems" ("PlayerID", "MsgIndex", "Slot", "ID", "Type", "Opt", "TimeLimit")
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.PlayerID, msg.MsgIndex, it.Slot, it.ID, it.Type, it.Opt, it.TimeLimit,
		)
		if err != nil {
			return mapErr("save email item", err)
		}
	}
	return mapErr("save email", tx.Commit())
}

func (s *Store) Emails(ctx context.Context, playerID int64) ([]persist.EmailMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+emailCols+` FROM "EMails" WHERE "PlayerID" = ? ORDER BY "MsgIndex" DESC`,
		playerID,
	)
	if err != nil {
		return nil, mapErr("emails", err)
	}
	defer rows.Close()

	msgs := []persist.EmailMessage{}
	for rows.Next() {
		var m persist.EmailMessage
		if err := rows.Scan(
			&m.PlayerID, &m.MsgIndex, &m.ReadFlag, &m.ItemFlag, &m.SenderID,
			&m.SenderFirstName, &m.SenderLastName, &m.SubjectLine, &m.MsgBody,
			&m.Taros, &m.SendTime, &m.DeleteTime,
		); err != nil {
			return nil, mapErr("emails", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, mapErr("emails", rows.Err())
}

func (s *Store) Email(ctx context.Context, playerID int64, msgIndex int32) (*persist.EmailMessage, error) {
	var m persist.EmailMessage
	err := s.db.QueryRowContext(ctx,
		`SELECT `+emailCols+` FROM "EMails" WHERE "PlayerID" = ? AND "MsgIndex" = ?`,
		playerID, msgIndex,
	).Scan(
		&m.PlayerID, &m.MsgIndex, &m.ReadFlag, &m.ItemFlag, &m.SenderID,
		&m.SenderFirstName, &m.SenderLastName, &m.SubjectLine, &m.MsgBody,
		&m.Taros, &m.SendTime, &m.DeleteTime,
	)
	if err != nil {
		return nil, mapErr("email", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT "Slot", "ID", "Type", "Opt", "TimeLimit"
		 FROM "EMailItems"
		 WHERE "PlayerID" = ? AND "MsgIndex" = ?
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
		`UPDATE "EMails" SET "ReadFlag" = 1 WHERE "PlayerID" = ? AND "MsgIndex" = ?`,
		playerID, msgIndex)
}

func (s *Store) DeleteEmail(ctx context.Context, playerID int64, msgIndex int32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("delete email", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM "EMailItems" WHERE "PlayerID" = ? AND "MsgIndex" = ?`,
		playerID, msgIndex,
	); err != nil {
		return mapErr("delete email", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM "EMails" WHERE "PlayerID" = ? AND "MsgIndex" = ?`,
		playerID, msgIndex,
	)
	if err != nil {
		return mapErr("delete email", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("delete email", err)
	}
	if n == 0 {
		return mapErr("delete email", sql.ErrNoRows)
	}
	return mapErr("delete email", tx.Commit())
}
