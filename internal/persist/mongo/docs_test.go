package mongo

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/fusiongo/server/internal/persist"
)

func TestPlayerDocRoundTrip(t *testing.T) {
	p := &persist.Player{
		ID:        7,
		AccountID: 3,
		Slot:      2,
		FirstName: "Bob",
		LastName:  "Smith",
		NameCheck: 1,
		Created:   100,
		LastLogin: 200,
		LastSave:  300,

		Level:          12,
		EquippedNanos:  [3]int16{1, 0, 3},
		AppearanceFlag: 1,
		TutorialFlag:   1,

		X: 1000, Y: -2000, Z: 30, Angle: 180, HP: 925,
		FusionMatter: 5000, Taros: 12345, BatteryW: 100, BatteryN: 50,
		Mentor: 3, CurrentMissionID: 255, WarpLocationFlag: 7,

		SkywayFlags:   bytes.Repeat([]byte{0xAB}, persist.SkywayFlagBytes),
		FirstUseFlags: bytes.Repeat([]byte{0x01}, persist.FirstUseFlagBytes),
		QuestFlags:    bytes.Repeat([]byte{0x5C}, persist.QuestFlagBytes),

		Appearance: persist.Appearance{Body: 1, Gender: 1, HairStyle: 5},

		Nanos:      []persist.Nano{{ID: 1, Skill: 2, Stamina: 90}},
		Inventory:  []persist.Item{{Slot: 0, ID: 100, Type: 7, Opt: 1}},
		QuestItems: []persist.Item{{Slot: 0, ID: 42, Type: 9}},
		RunningQuests: []persist.RunningQuest{
			{TaskID: 301, RemainingNPCCount: [3]int32{2, 0, 1}},
		},
	}

	got := newPlayerDoc(p).player()
	if !reflect.DeepEqual(got, p) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}

func TestPlayerDocSummary(t *testing.T) {
	d := newPlayerDoc(&persist.Player{
		ID: 7, Slot: 2, FirstName: "Bob", LastName: "Smith",
		Level: 12, HP: 925, X: 1, Y: 2, Z: 3,
		EquippedNanos: [3]int16{1, 0, 3},
		Appearance:    persist.Appearance{Gender: 1},
	})
	c := d.summary()
	if c.PlayerID != 7 || c.Slot != 2 || c.FirstName != "Bob" || c.HP != 925 {
		t.Errorf("summary = %+v", c)
	}
	if c.Appearance.Gender != 1 {
		t.Errorf("summary appearance = %+v", c.Appearance)
	}
}

func TestPlayerDocMissingStyle(t *testing.T) {
	d := &playerDoc{ID: 7}
	if d.Appearance != nil {
		t.Fatal("zero doc should have nil style")
	}
	// Conversion must not panic; the store checks the nil before using it.
	p := d.player()
	if p.Appearance != (persist.Appearance{}) {
		t.Errorf("appearance = %+v", p.Appearance)
	}
}

func TestBuddyPairNormalization(t *testing.T) {
	a, b := buddyPair(9, 3)
	if a != 3 || b != 9 {
		t.Errorf("buddyPair(9,3) = %d,%d", a, b)
	}
	a, b = buddyPair(3, 9)
	if a != 3 || b != 9 {
		t.Errorf("buddyPair(3,9) = %d,%d", a, b)
	}
}
