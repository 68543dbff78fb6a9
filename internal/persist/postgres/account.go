package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fusiongo/server/internal/persist"
)

const accountCols = `"AccountID", "Login", "Password", "Selected", "AccountLevel",
	       "Created", "LastLogin", "BannedUntil", "BannedSince", "BanReason"`

func scanAccount(row pgx.Row) (*persist.Account, error) {
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
	acc, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountCols+` FROM "Accounts" WHERE "Login" = $1`, login,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("find account", err)
	}
	return acc, nil
}

func (s *Store) CreateAccount(ctx context.Context, login, password string) (*persist.Account, error) {
	now := time.Now().Unix()
	acc := &persist.Account{
		Login:     login,
		Password:  password,
		Created:   now,
		LastLogin: now,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO "Accounts" ("Login", "Password", "Created", "LastLogin")
		 VALUES ($1, $2, $3, $4)
		 RETURNING "AccountID", "Selected", "AccountLevel"`,
		login, password, now, now,
	).Scan(&acc.ID, &acc.Selected, &acc.AccountLevel)
	if err != nil {
		return nil, mapErr("create account", err)
	}
	return acc, nil
}

func (s *Store) AccountForPlayer(ctx context.Context, playerID int64) (*persist.Account, error) {
	acc, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT a."AccountID", a."Login", a."Password", a."Selected", a."AccountLevel",
		        a."Created", a."LastLogin", a."BannedUntil", a."BannedSince", a."BanReason"
		 FROM "Accounts" a
		 JOIN "Players" p ON p."AccountID" = a."AccountID"
		 WHERE p."PlayerID" = $1`, playerID,
	))
	if err != nil {
		return nil, mapErr("account for player", err)
	}
	return acc, nil
}

// execOne runs a statement that must touch exactly one row; zero rows maps
// to ErrNotFound.
func (s *Store) execOne(ctx context.Context, op, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(op, pgx.ErrNoRows)
	}
	return nil
}

func (s *Store) ChangeAccountLevel(ctx context.Context, accountID int64, level int32) error {
	return s.execOne(ctx, "change account level",
		`UPDATE "Accounts" SET "AccountLevel" = $2 WHERE "AccountID" = $1`,
		accountID, level)
}

func (s *Store) BanAccount(ctx context.Context, accountID int64, bannedUntil int64, reason string) error {
	return s.execOne(ctx, "ban account",
		`UPDATE "Accounts"
		 SET "BannedUntil" = $2, "BannedSince" = $3, "BanReason" = $4
		 WHERE "AccountID" = $1`,
		accountID, bannedUntil, time.Now().Unix(), reason)
}

func (s *Store) UnbanAccount(ctx context.Context, accountID int64) error {
	return s.execOne(ctx, "unban account",
		`UPDATE "Accounts"
		 SET "BannedUntil" = 0, "BannedSince" = 0, "BanReason" = ''
		 WHERE "AccountID" = $1`,
		accountID)
}

func (s *Store) UpdateSelectedPlayer(ctx context.Context, accountID int64, slot int32) error {
	return s.execOne(ctx, "update selected player",
		`UPDATE "Accounts" SET "Selected" = $2 WHERE "AccountID" = $1`,
		accountID, slot)
}

func (s *Store) TouchLastLogin(ctx context.Context, accountID int64) error {
	return s.execOne(ctx, "touch last login",
		`UPDATE "Accounts" SET "LastLogin" = $2 WHERE "AccountID" = $1`,
		accountID, time.Now().Unix())
}

func (s *Store) DeleteAccount(ctx context.Context, accountID int64) error {
	return s.execOne(ctx, "delete account",
		`DELETE FROM "Accounts" WHERE "AccountID" = $1`, accountID)
}
