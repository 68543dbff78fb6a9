package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"

	"github.com/fusiongo/server/internal/persist"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return &Store{db: mock, log: zap.NewNop()}, mock
}

func checkExpectations(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

var accountRowCols = []string{
	"AccountID", "Login", "Password", "Selected", "AccountLevel",
	"Created", "LastLogin", "BannedUntil", "BannedSince", "BanReason",
}

func TestFindAccount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "Accounts" WHERE "Login" = $1`)).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(accountRowCols).
			AddRow(int64(7), "alice", "hash", int32(1), int32(99),
				int64(100), int64(200), int64(0), int64(0), ""))

	acc, err := s.FindAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindAccount: %v", err)
	}
	if acc.ID != 7 || acc.Login != "alice" || acc.AccountLevel != 99 {
		t.Errorf("unexpected account: %+v", acc)
	}
	checkExpectations(t, mock)
}

func TestFindAccountAbsent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "Accounts" WHERE "Login" = $1`)).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	acc, err := s.FindAccount(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FindAccount: %v", err)
	}
	if acc != nil {
		t.Errorf("expected nil account for unknown login, got %+v", acc)
	}
	checkExpectations(t, mock)
}

func TestCreateAccountDuplicateLogin(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Accounts"`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "Accounts_Login_key"})

	_, err := s.CreateAccount(context.Background(), "alice", "hash")
	if !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	checkExpectations(t, mock)
}

func TestChangeAccountLevelMissingAccount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "Accounts" SET "AccountLevel" = $2`)).
		WithArgs(int64(42), int32(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.ChangeAccountLevel(context.Background(), 42, 1)
	if !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	checkExpectations(t, mock)
}

func TestUpdateSelectedPlayer(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "Accounts" SET "Selected" = $2`)).
		WithArgs(int64(7), int32(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := s.UpdateSelectedPlayer(context.Background(), 7, 3); err != nil {
		t.Fatalf("UpdateSelectedPlayer: %v", err)
	}
	checkExpectations(t, mock)
}

func TestAddBuddyNormalizesPair(t *testing.T) {
	s, mock := newMockStore(t)

	// Arguments arrive low-ID first regardless of call order.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "Buddyships"`)).
		WithArgs(int64(3), int64(9)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := s.AddBuddy(context.Background(), 9, 3); err != nil {
		t.Fatalf("AddBuddy: %v", err)
	}
	checkExpectations(t, mock)
}

func TestAddBuddyDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "Buddyships"`)).
		WithArgs(int64(3), int64(9)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "Buddyships_pair_key"})

	err := s.AddBuddy(context.Background(), 3, 9)
	if !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	checkExpectations(t, mock)
}

func TestNextEmailIndex(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX("MsgIndex"), 0) + 1 FROM "EMails"`)).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(int32(4)))

	next, err := s.NextEmailIndex(context.Background(), 5)
	if err != nil {
		t.Fatalf("NextEmailIndex: %v", err)
	}
	if next != 4 {
		t.Errorf("next index = %d, want 4", next)
	}
	checkExpectations(t, mock)
}

func TestSaveEmailWithAttachments(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "EMails"`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "EMailItems"`)).
		WithArgs(int64(5), int32(1), int32(0), int16(100), int16(7), int32(0), int32(0)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	msg := &persist.EmailMessage{
		PlayerID: 5,
		MsgIndex: 1,
		SenderID: 9,
		Items:    []persist.Item{{Slot: 0, ID: 100, Type: 7}},
	}
	if err := s.SaveEmail(context.Background(), msg); err != nil {
		t.Fatalf("SaveEmail: %v", err)
	}
	checkExpectations(t, mock)
}

func TestDeleteEmailMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "EMailItems"`)).
		WithArgs(int64(5), int32(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "EMails"`)).
		WithArgs(int64(5), int32(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := s.DeleteEmail(context.Background(), 5, 9)
	if !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	checkExpectations(t, mock)
}

func TestTopRaceResults(t *testing.T) {
	s, mock := newMockStore(t)

	cols := []string{"EPID", "PlayerID", "Score", "RingCount", "Time", "Timestamp"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "RaceResults" WHERE "EPID" = $1`)).
		WithArgs(int32(3), 2).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int32(3), int64(11), int32(900), int32(20), int32(45), int64(1000)).
			AddRow(int32(3), int64(12), int32(850), int32(18), int32(51), int64(1001)))

	results, err := s.TopRaceResults(context.Background(), 3, 2)
	if err != nil {
		t.Fatalf("TopRaceResults: %v", err)
	}
	if len(results) != 2 || results[0].Score != 900 || results[1].PlayerID != 12 {
		t.Errorf("unexpected results: %+v", results)
	}
	checkExpectations(t, mock)
}

func TestRedeemCodeTwice(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "RedeemedCodes"`)).
		WithArgs(int64(5), "WELCOME").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "RedeemedCodes"`)).
		WithArgs(int64(5), "WELCOME").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "RedeemedCodes_pkey"})

	if err := s.RedeemCode(context.Background(), 5, "WELCOME"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	err := s.RedeemCode(context.Background(), 5, "WELCOME")
	if !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey on repeat redemption, got %v", err)
	}
	checkExpectations(t, mock)
}

func TestInitMetaAlreadyStamped(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "Meta"`)).
		WithArgs(persist.MetaKeyProtocolVersion, int64(104)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "Meta_Key_key"})
	mock.ExpectRollback()

	err := s.InitMeta(context.Background(), 104, 2)
	if !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	checkExpectations(t, mock)
}

func TestMetaValueAbsent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "Value" FROM "Meta"`)).
		WithArgs(persist.MetaKeyDatabaseVersion).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.MetaValue(context.Background(), persist.MetaKeyDatabaseVersion)
	if !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	checkExpectations(t, mock)
}
