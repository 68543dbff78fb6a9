package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/fusiongo/server/internal/config"
	"github.com/fusiongo/server/internal/persist"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.DatabaseConfig{
		Backend: "sqlite",
		Path:    filepath.Join(t.TempDir(), "test.db"),
	}
	s, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func mustCreateAccount(t *testing.T, s *Store, login string) *persist.Account {
	t.Helper()
	acc, err := s.CreateAccount(context.Background(), login, "hash")
	if err != nil {
		t.Fatalf("CreateAccount(%q): %v", login, err)
	}
	return acc
}

func mustCreatePlayer(t *testing.T, s *Store, accountID int64, slot int32, first, last string) *persist.Player {
	t.Helper()
	p := &persist.Player{
		AccountID: accountID,
		Slot:      slot,
		FirstName: first,
		LastName:  last,
		HP:        100,
	}
	if err := s.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("CreatePlayer(%q %q): %v", first, last, err)
	}
	return p
}

func TestCreateAccountDefaults(t *testing.T) {
	s := openTestStore(t)

	acc := mustCreateAccount(t, s, "alice")
	if acc.ID == 0 {
		t.Error("account id not assigned")
	}
	if acc.Selected != 1 {
		t.Errorf("selected slot = %d, want 1", acc.Selected)
	}
	if acc.AccountLevel != persist.DefaultAccountLevel {
		t.Errorf("account level = %d, want %d", acc.AccountLevel, persist.DefaultAccountLevel)
	}

	found, err := s.FindAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindAccount: %v", err)
	}
	if found == nil || found.ID != acc.ID || found.Password != "hash" {
		t.Errorf("found account = %+v", found)
	}
}

func TestFindAccountAbsentIsNotAnError(t *testing.T) {
	s := openTestStore(t)

	acc, err := s.FindAccount(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FindAccount: %v", err)
	}
	if acc != nil {
		t.Errorf("expected nil for unknown login, got %+v", acc)
	}
}

func TestCreateAccountDuplicateLogin(t *testing.T) {
	s := openTestStore(t)

	mustCreateAccount(t, s, "alice")
	_, err := s.CreateAccount(context.Background(), "alice", "other")
	if !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPlayerUniqueness(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	other := mustCreateAccount(t, s, "bob")
	mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")

	// Same (account, slot).
	err := s.CreatePlayer(ctx, &persist.Player{
		AccountID: acc.ID, Slot: 1, FirstName: "Other", LastName: "Name",
	})
	if !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("duplicate slot: expected ErrDuplicateKey, got %v", err)
	}

	// Same name pair across accounts.
	err = s.CreatePlayer(ctx, &persist.Player{
		AccountID: other.ID, Slot: 1, FirstName: "Bob", LastName: "Smith",
	})
	if !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("duplicate name: expected ErrDuplicateKey, got %v", err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")

	p.Nanos = []persist.Nano{{ID: 1, Skill: 2, Stamina: persist.DefaultNanoStamina}}
	p.Inventory = []persist.Item{{Slot: 0, ID: 100, Type: 7}}
	if err := s.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}
	if err := s.SaveEmail(ctx, &persist.EmailMessage{
		PlayerID: p.ID, MsgIndex: 1, SubjectLine: "hi",
		Items: []persist.Item{{Slot: 0, ID: 5, Type: 1}},
	}); err != nil {
		t.Fatalf("SaveEmail: %v", err)
	}

	if err := s.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	for _, table := range []string{
		"Players", "Appearances", "Inventory", "Nanos", "EMails", "EMailItems",
	} {
		var n int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM "`+table+`"`,
		).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after account delete", table, n)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p := mustCreatePlayer(t, s, acc.ID, 2, "Bob", "Smith")

	p.Level = 12
	p.EquippedNanos = [3]int16{1, 0, 3}
	p.TutorialFlag = 1
	p.PayZoneFlag = 1
	p.X, p.Y, p.Z, p.Angle = 1000, -2000, 30, 180
	p.HP = 925
	p.FusionMatter, p.Taros = 5000, 12345
	p.BatteryW, p.BatteryN = 100, 50
	p.Mentor = 3
	p.CurrentMissionID = 255
	p.WarpLocationFlag = 7
	p.SkywayFlags = bytes.Repeat([]byte{0xAB}, persist.SkywayFlagBytes)
	p.FirstUseFlags = bytes.Repeat([]byte{0x01}, persist.FirstUseFlagBytes)
	p.QuestFlags = bytes.Repeat([]byte{0x5C}, persist.QuestFlagBytes)
	p.Nanos = []persist.Nano{
		{ID: 1, Skill: 2, Stamina: 90},
		{ID: 3, Skill: 0, Stamina: persist.DefaultNanoStamina},
	}
	p.Inventory = []persist.Item{
		{Slot: 0, ID: 100, Type: 7, Opt: 1},
		{Slot: 5, ID: 233, Type: 1, TimeLimit: 9999},
	}
	p.QuestItems = []persist.Item{{Slot: 0, ID: 42, Type: 9}}
	p.RunningQuests = []persist.RunningQuest{
		{TaskID: 301, RemainingNPCCount: [3]int32{2, 0, 1}},
	}

	if err := s.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	got, err := s.LoadPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if got.Level != 12 || got.HP != 925 || got.Taros != 12345 ||
		got.X != 1000 || got.Y != -2000 || got.Z != 30 || got.Angle != 180 ||
		got.Mentor != 3 || got.CurrentMissionID != 255 || got.WarpLocationFlag != 7 {
		t.Errorf("scalar fields mismatch: %+v", got)
	}
	if got.EquippedNanos != p.EquippedNanos {
		t.Errorf("equipped nanos = %v, want %v", got.EquippedNanos, p.EquippedNanos)
	}
	if !bytes.Equal(got.SkywayFlags, p.SkywayFlags) ||
		!bytes.Equal(got.FirstUseFlags, p.FirstUseFlags) ||
		!bytes.Equal(got.QuestFlags, p.QuestFlags) {
		t.Error("flag blobs not byte-identical after round trip")
	}
	if len(got.Nanos) != 2 || got.Nanos[0] != p.Nanos[0] || got.Nanos[1] != p.Nanos[1] {
		t.Errorf("nanos = %+v", got.Nanos)
	}
	if len(got.Inventory) != 2 || got.Inventory[1] != p.Inventory[1] {
		t.Errorf("inventory = %+v", got.Inventory)
	}
	if len(got.QuestItems) != 1 || got.QuestItems[0] != p.QuestItems[0] {
		t.Errorf("quest items = %+v", got.QuestItems)
	}
	if len(got.RunningQuests) != 1 || got.RunningQuests[0] != p.RunningQuests[0] {
		t.Errorf("running quests = %+v", got.RunningQuests)
	}
	if got.LastSave == 0 {
		t.Error("last save not stamped")
	}
}

func TestLoadPlayerMissingAppearance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")

	// Simulate corruption: remove the appearance row out of band.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM "Appearances" WHERE "PlayerID" = ?`, p.ID,
	); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LoadPlayer(ctx, p.ID); !errors.Is(err, persist.ErrIntegrity) {
		t.Errorf("LoadPlayer: expected ErrIntegrity, got %v", err)
	}
	if _, err := s.ListCharacters(ctx, acc.ID); !errors.Is(err, persist.ErrIntegrity) {
		t.Errorf("ListCharacters: expected ErrIntegrity, got %v", err)
	}
	if err := s.UpdateAppearance(ctx, p.ID, persist.Appearance{Gender: 1}); !errors.Is(err, persist.ErrIntegrity) {
		t.Errorf("UpdateAppearance: expected ErrIntegrity, got %v", err)
	}
}

func TestListCharactersEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")

	first, err := s.ListCharacters(ctx, acc.ID)
	if err != nil {
		t.Fatalf("ListCharacters: %v", err)
	}
	if first == nil || len(first) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", first)
	}

	second, err := s.ListCharacters(ctx, acc.ID)
	if err != nil {
		t.Fatalf("ListCharacters again: %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("repeat listing differs: %d vs %d", len(second), len(first))
	}
}

func TestListCharactersOrderedBySlot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	mustCreatePlayer(t, s, acc.ID, 3, "Third", "Char")
	mustCreatePlayer(t, s, acc.ID, 1, "First", "Char")

	chars, err := s.ListCharacters(ctx, acc.ID)
	if err != nil {
		t.Fatalf("ListCharacters: %v", err)
	}
	if len(chars) != 2 || chars[0].Slot != 1 || chars[1].Slot != 3 {
		t.Errorf("characters not ordered by slot: %+v", chars)
	}
	if chars[0].FirstName != "First" {
		t.Errorf("first entry = %+v", chars[0])
	}
}

func TestUpdateAppearanceSetsFlag(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")

	style := persist.Appearance{
		Body: 1, EyeColor: 2, FaceStyle: 3, Gender: 1,
		HairColor: 4, HairStyle: 5, Height: 2, SkinColor: 6,
	}
	if err := s.UpdateAppearance(ctx, p.ID, style); err != nil {
		t.Fatalf("UpdateAppearance: %v", err)
	}

	got, err := s.LoadPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if got.Appearance != style {
		t.Errorf("appearance = %+v, want %+v", got.Appearance, style)
	}
	if got.AppearanceFlag != 1 {
		t.Errorf("appearance flag = %d, want 1", got.AppearanceFlag)
	}
}

func TestRedeemCodeGuard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p1 := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")
	p2 := mustCreatePlayer(t, s, acc.ID, 2, "Ann", "Jones")

	if err := s.RedeemCode(ctx, p1.ID, "WELCOME"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if err := s.RedeemCode(ctx, p1.ID, "WELCOME"); !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("repeat redeem: expected ErrDuplicateKey, got %v", err)
	}
	// Same code, different player.
	if err := s.RedeemCode(ctx, p2.ID, "WELCOME"); err != nil {
		t.Errorf("other player redeem: %v", err)
	}

	codes, err := s.RedeemedCodes(ctx, p1.ID)
	if err != nil {
		t.Fatalf("RedeemedCodes: %v", err)
	}
	if len(codes) != 1 || codes[0] != "WELCOME" {
		t.Errorf("codes = %v", codes)
	}
}

func TestAccountScenario(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	if err := s.ChangeAccountLevel(ctx, acc.ID, 50); err != nil {
		t.Fatalf("ChangeAccountLevel: %v", err)
	}

	p := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")

	got, err := s.LoadPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if got.FirstName != "Bob" || got.LastName != "Smith" || got.HP != 100 {
		t.Errorf("loaded player = %+v", got)
	}

	got.HP = 80
	if err := s.SavePlayer(ctx, got); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}
	again, err := s.LoadPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadPlayer after save: %v", err)
	}
	if again.HP != 80 {
		t.Errorf("hp = %d, want 80", again.HP)
	}

	owner, err := s.AccountForPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("AccountForPlayer: %v", err)
	}
	if owner.ID != acc.ID || owner.AccountLevel != 50 {
		t.Errorf("owner = %+v", owner)
	}
}

func TestSavePlayersBatchAtomicity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p1 := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")
	p2 := mustCreatePlayer(t, s, acc.ID, 2, "Ann", "Jones")

	p1.HP = 55
	p2.HP = 66
	ghost := &persist.Player{ID: 99999, FirstName: "No", LastName: "One"}

	err := s.SavePlayers(ctx, []*persist.Player{p1, p2, ghost})
	if !errors.Is(err, persist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown player in batch, got %v", err)
	}

	// The failed batch must leave earlier members untouched.
	got, err := s.LoadPlayer(ctx, p1.ID)
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if got.HP != 100 {
		t.Errorf("hp = %d after rolled-back batch, want 100", got.HP)
	}

	if err := s.SavePlayers(ctx, []*persist.Player{p1, p2}); err != nil {
		t.Fatalf("SavePlayers: %v", err)
	}
	got, err = s.LoadPlayer(ctx, p2.ID)
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if got.HP != 66 {
		t.Errorf("hp = %d, want 66", got.HP)
	}
}

func TestBanAndUnban(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	until := acc.Created + 3600
	if err := s.BanAccount(ctx, acc.ID, until, "rmt"); err != nil {
		t.Fatalf("BanAccount: %v", err)
	}

	banned, err := s.FindAccount(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !banned.Banned(acc.Created) || banned.BanReason != "rmt" {
		t.Errorf("account not banned: %+v", banned)
	}

	if err := s.UnbanAccount(ctx, acc.ID); err != nil {
		t.Fatalf("UnbanAccount: %v", err)
	}
	clear, err := s.FindAccount(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if clear.Banned(acc.Created) || clear.BannedUntil != 0 {
		t.Errorf("account still banned: %+v", clear)
	}
}

func TestBuddyships(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p1 := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")
	p2 := mustCreatePlayer(t, s, acc.ID, 2, "Ann", "Jones")

	if err := s.AddBuddy(ctx, p2.ID, p1.ID); err != nil {
		t.Fatalf("AddBuddy: %v", err)
	}
	// The pair is unordered; adding it again in either order conflicts.
	if err := s.AddBuddy(ctx, p1.ID, p2.ID); !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	buddies, err := s.Buddies(ctx, p1.ID)
	if err != nil {
		t.Fatalf("Buddies: %v", err)
	}
	if len(buddies) != 1 || buddies[0] != p2.ID {
		t.Errorf("buddies = %v", buddies)
	}

	if err := s.RemoveBuddy(ctx, p1.ID, p2.ID); err != nil {
		t.Fatalf("RemoveBuddy: %v", err)
	}
	if err := s.RemoveBuddy(ctx, p1.ID, p2.ID); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEmailFlow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")

	idx, err := s.NextEmailIndex(ctx, p.ID)
	if err != nil {
		t.Fatalf("NextEmailIndex: %v", err)
	}
	if idx != 1 {
		t.Errorf("first index = %d, want 1", idx)
	}

	msg := &persist.EmailMessage{
		PlayerID:    p.ID,
		MsgIndex:    idx,
		SubjectLine: "welcome",
		MsgBody:     "hello",
		Taros:       500,
		ItemFlag:    1,
		Items:       []persist.Item{{Slot: 0, ID: 77, Type: 2}},
	}
	if err := s.SaveEmail(ctx, msg); err != nil {
		t.Fatalf("SaveEmail: %v", err)
	}
	if err := s.SaveEmail(ctx, &persist.EmailMessage{PlayerID: p.ID, MsgIndex: 2}); err != nil {
		t.Fatalf("SaveEmail second: %v", err)
	}

	list, err := s.Emails(ctx, p.ID)
	if err != nil {
		t.Fatalf("Emails: %v", err)
	}
	if len(list) != 2 || list[0].MsgIndex != 2 {
		t.Errorf("emails not newest-first: %+v", list)
	}
	if len(list[1].Items) != 0 {
		t.Error("listing hydrated attachments")
	}

	one, err := s.Email(ctx, p.ID, 1)
	if err != nil {
		t.Fatalf("Email: %v", err)
	}
	if one.SubjectLine != "welcome" || len(one.Items) != 1 || one.Items[0].ID != 77 {
		t.Errorf("message = %+v", one)
	}

	if err := s.MarkEmailRead(ctx, p.ID, 1); err != nil {
		t.Fatalf("MarkEmailRead: %v", err)
	}
	one, err = s.Email(ctx, p.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if one.ReadFlag != 1 {
		t.Errorf("read flag = %d", one.ReadFlag)
	}

	if err := s.DeleteEmail(ctx, p.ID, 1); err != nil {
		t.Fatalf("DeleteEmail: %v", err)
	}
	if _, err := s.Email(ctx, p.ID, 1); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	next, err := s.NextEmailIndex(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if next != 3 {
		t.Errorf("next index = %d, want 3", next)
	}
}

func TestRaceLeaderboard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p1 := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")
	p2 := mustCreatePlayer(t, s, acc.ID, 2, "Ann", "Jones")

	for _, r := range []persist.RaceResult{
		{EPID: 3, PlayerID: p1.ID, Score: 800, RingCount: 15, Time: 62, Timestamp: 10},
		{EPID: 3, PlayerID: p2.ID, Score: 950, RingCount: 20, Time: 55, Timestamp: 11},
		{EPID: 4, PlayerID: p1.ID, Score: 999, RingCount: 22, Time: 48, Timestamp: 12},
	} {
		r := r
		if err := s.RecordRace(ctx, &r); err != nil {
			t.Fatalf("RecordRace: %v", err)
		}
	}

	top, err := s.TopRaceResults(ctx, 3, 10)
	if err != nil {
		t.Fatalf("TopRaceResults: %v", err)
	}
	if len(top) != 2 || top[0].PlayerID != p2.ID || top[1].Score != 800 {
		t.Errorf("leaderboard = %+v", top)
	}
}

func TestInitMetaOneShot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InitMeta(ctx, 104, 2); err != nil {
		t.Fatalf("InitMeta: %v", err)
	}
	if err := s.InitMeta(ctx, 104, 2); !errors.Is(err, persist.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey on re-init, got %v", err)
	}

	proto, err := s.MetaValue(ctx, persist.MetaKeyProtocolVersion)
	if err != nil {
		t.Fatalf("MetaValue: %v", err)
	}
	if proto != 104 {
		t.Errorf("protocol version = %d", proto)
	}
	if _, err := s.MetaValue(ctx, "Unknown"); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePlayerKeepsSiblings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := mustCreateAccount(t, s, "alice")
	p1 := mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")
	p2 := mustCreatePlayer(t, s, acc.ID, 2, "Ann", "Jones")

	if err := s.DeletePlayer(ctx, p1.ID); err != nil {
		t.Fatalf("DeletePlayer: %v", err)
	}
	if _, err := s.LoadPlayer(ctx, p1.ID); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	chars, err := s.ListCharacters(ctx, acc.ID)
	if err != nil {
		t.Fatalf("ListCharacters: %v", err)
	}
	if len(chars) != 1 || chars[0].PlayerID != p2.ID {
		t.Errorf("characters = %+v", chars)
	}

	// The freed slot and name are reusable.
	mustCreatePlayer(t, s, acc.ID, 1, "Bob", "Smith")
}
