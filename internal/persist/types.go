package persist

// Sizes of the opaque per-player flag blobs. Their internal bit layout
// belongs to the game-state encoder; the store reads and writes them as
// uninterpreted byte sequences.
const (
	SkywayFlagBytes   = 16  // two little-endian int64 sections
	FirstUseFlagBytes = 16  // one little-endian 128-bit field
	QuestFlagBytes    = 128 // thirty-two little-endian int32 sections
)

const (
	// MaxPlayerSlots is the number of character slots per account.
	// Slot numbers are 1-based.
	MaxPlayerSlots = 4

	// DefaultNanoStamina is the stamina a freshly acquired nano starts with.
	DefaultNanoStamina = 150

	// DefaultAccountLevel is the permission level assigned to new accounts.
	// Lower values carry more privileges; 1 is the master level.
	DefaultAccountLevel = 99
)

// Meta table keys stamped at store creation.
const (
	MetaKeyProtocolVersion = "ProtocolVersion"
	MetaKeyDatabaseVersion = "DatabaseVersion"
)

// DatabaseVersion is the schema generation this code writes. It is stamped
// into the Meta table at store creation and checked at startup.
const DatabaseVersion = 2

// Account is a login credential record, parent of up to MaxPlayerSlots
// players. Timestamps are unix seconds.
type Account struct {
	ID           int64
	Login        string
	Password     string // opaque; hashing happens at the caller boundary
	Selected     int32  // last selected character slot
	AccountLevel int32
	Created      int64
	LastLogin    int64
	BannedUntil  int64 // 0 = not banned
	BannedSince  int64
	BanReason    string
}

// Banned reports whether the account ban is still in effect at the given
// unix time.
func (a *Account) Banned(now int64) bool {
	return a.BannedUntil > now
}

// Appearance holds the cosmetic attributes of a player. Exactly one row
// exists per player; a player without one is a corrupted store.
type Appearance struct {
	Body      int16
	EyeColor  int16
	FaceStyle int16
	Gender    int16
	HairColor int16
	HairStyle int16
	Height    int16
	SkinColor int16
}

// Item is one inventory, quest-item, or email-attachment slot.
type Item struct {
	Slot      int32
	ID        int16
	Type      int16
	Opt       int32 // option/rarity value
	TimeLimit int32 // expiry timestamp, 0 = never
}

// Nano is one acquired nano.
type Nano struct {
	ID      int16
	Skill   int16
	Stamina int16
}

// RunningQuest tracks the remaining NPC interaction counters of an
// in-progress mission task.
type RunningQuest struct {
	TaskID            int32
	RemainingNPCCount [3]int32
}

// Player is one character owned by an Account, together with every child
// row SavePlayer and LoadPlayer move as a unit.
type Player struct {
	ID        int64
	AccountID int64
	FirstName string
	LastName  string
	NameCheck int32
	Slot      int32
	Created   int64
	LastLogin int64
	LastSave  int64

	Level          int16
	EquippedNanos  [3]int16 // nano ids, 0 = empty slot
	AppearanceFlag int32
	TutorialFlag   int32
	PayZoneFlag    int32

	X     int32
	Y     int32
	Z     int32
	Angle int32
	HP    int32

	FusionMatter int32
	Taros        int32
	BatteryW     int32
	BatteryN     int32

	Mentor           int16
	CurrentMissionID int32
	WarpLocationFlag int32

	// Opaque flag blobs; nil means all-zero on create.
	SkywayFlags   []byte
	FirstUseFlags []byte
	QuestFlags    []byte

	Appearance Appearance

	// Child collections, replaced wholesale on SavePlayer.
	Nanos         []Nano
	Inventory     []Item
	QuestItems    []Item
	RunningQuests []RunningQuest
}

// NormalizeFlags pads or allocates the opaque blobs to their wire sizes.
// Backends call this before writing so a zero-value Player persists cleanly.
func (p *Player) NormalizeFlags() {
	p.SkywayFlags = padBlob(p.SkywayFlags, SkywayFlagBytes)
	p.FirstUseFlags = padBlob(p.FirstUseFlags, FirstUseFlagBytes)
	p.QuestFlags = padBlob(p.QuestFlags, QuestFlagBytes)
}

func padBlob(b []byte, size int) []byte {
	if len(b) == size {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

// CharacterSummary is one entry of the character selection list: identity,
// level, flags, position, and appearance via the Players-Appearances join.
type CharacterSummary struct {
	PlayerID       int64
	Slot           int32
	FirstName      string
	LastName       string
	NameCheck      int32
	Level          int16
	AppearanceFlag int32
	TutorialFlag   int32
	PayZoneFlag    int32
	X              int32
	Y              int32
	Z              int32
	HP             int32
	EquippedNanos  [3]int16
	Appearance     Appearance
}

// EmailMessage is one in-game email belonging to a recipient player.
// Items are only populated by single-message reads.
type EmailMessage struct {
	PlayerID        int64
	MsgIndex        int32
	ReadFlag        int32
	ItemFlag        int32
	SenderID        int64
	SenderFirstName string
	SenderLastName  string
	SubjectLine     string
	MsgBody         string
	Taros           int32
	SendTime        int64
	DeleteTime      int64

	Items []Item
}

// RaceResult is a player's recorded outcome for one race instance.
type RaceResult struct {
	EPID      int32
	PlayerID  int64
	Score     int32
	RingCount int32
	Time      int32 // completion time in seconds
	Timestamp int64
}
