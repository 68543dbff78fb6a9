package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fusiongo/server/internal/persist"
)

const accountCols = `"AccountID", "Login", "Password", "Selected", "AccountLevel",
	"Created", "LastLogin", "BannedUntil", "BannedSince", "BanReason"`

func scanAccount(row *sql.Row) (*persist.Account, error) {
	acc := &persist.Account{}
	err := row.Scan(
		&acc.ID, &acc.Login, &acc.Password, &acc.Selected, &acc.AccountLevel,
		&acc.Created, &acc.LastLogin, &acc.BannedUntil, &acc.BannedSince, &acc.BanReason,
	)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Store) FindAccount(ctx context.Context, login string) (*persist.Account, error) {
	acc, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM "Accounts" WHERE "Login" = ?`, login,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("find account", err)
	}
	return acc, nil
}

func (s *Store) CreateAccount(ctx context.Context, login, password string) (*persist.Account, error) {
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO "Accounts" ("Login", "Password", "Created", "LastLogin")
		 VALUES (?, ?, ?, ?)`,
		login, password, now, now,
	)
	if err != nil {
		return nil, mapErr("create account", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, mapErr("create account", err)
	}
	return &persist.Account{
		ID:           id,
		Login:        login,
		Password:     password,
		Selected:     1,
		AccountLevel: persist.DefaultAccountLevel,
		Created:      now,
		LastLogin:    now,
	}, nil
}

func (s *Store) AccountForPlayer(ctx context.Context, playerID int64) (*persist.Account, error) {
	acc, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT a."AccountID", a."Login", a."Password", a."Selected", a."AccountLevel",
		        a."Created", a."LastLogin", a."BannedUntil", a."BannedSince", a."BanReason"
		 FROM "Accounts" a
		 JOIN "Players" p ON p."AccountID" = a."AccountID"
		 WHERE p."PlayerID" = ?`, playerID,
	))
	if err != nil {
		return nil, mapErr("account for player", err)
	}
	return acc, nil
}

// execOne runs a statement that must touch exactly one row; zero rows maps
// to ErrNotFound.
func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(op, err)
	}
	if n == 0 {
		return mapErr(op, sql.ErrNoRows)
	}
	return nil
}

func (s *Store) ChangeAccountLevel(ctx context.Context, accountID int64, level int32) error {
	return s.execOne(ctx, "change account level",
		`UPDATE "Accounts" SET "AccountLevel" = ? WHERE "AccountID" = ?`,
		level, accountID)
}

func (s *Store) BanAccount(ctx context.Context, accountID int64, bannedUntil int64, reason string) error {
	return s.execOne(ctx, "ban account",
		`UPDATE "Accounts"
		 SET "BannedUntil" = ?, "BannedSince" = ?, "BanReason" = ?
		 WHERE "AccountID" = ?`,
		bannedUntil, time.Now().Unix(), reason, accountID)
}

func (s *Store) UnbanAccount(ctx context.Context, accountID int64) error {
	return s.execOne(ctx, "unban account",
		`UPDATE "Accounts"
		 SET "BannedUntil" = 0, "BannedSince" = 0, "BanReason" = ''
		 WHERE "AccountID" = ?`,
		accountID)
}

func (s *Store) UpdateSelectedPlayer(ctx context.Context, accountID int64, slot int32) error {
	return s.execOne(ctx, "update selected player",
		`UPDATE "Accounts" SET "Selected" = ? WHERE "AccountID" = ?`,
		slot, accountID)
}

func (s *Store) TouchLastLogin(ctx context.Context, accountID int64) error {
	return s.execOne(ctx, "touch last login",
		`UPDATE "Accounts" SET "LastLogin" = ? WHERE "AccountID" = ?`,
		time.Now().Unix(), accountID)
}

func (s *Store) DeleteAccount(ctx context.Context, accountID int64) error {
	return s.execOne(ctx, "delete account",
		`DELETE FROM "Accounts" WHERE "AccountID" = ?`, accountID)
}
