// Package persist defines the backend-agnostic persistence contract of the
// emulator: the row types shared by the login and shard roles, the error
// taxonomy, and the Store interface implemented by the postgres, sqlite,
// and mongo backends.
package persist

import "context"

// AccountStore covers login credential records.
type AccountStore interface {
	// FindAccount looks an account up by login name. Absence is a normal
	// outcome here (auto-creation decision belongs to the caller), so a
	// missing account returns (nil, nil) rather than ErrNotFound.
	FindAccount(ctx context.Context, login string) (*Account, error)

	// CreateAccount inserts a new account with default slot selection and
	// permission level. The password is stored as given; hash it first.
	CreateAccount(ctx context.Context, login, password string) (*Account, error)

	// AccountForPlayer resolves the owning account of a player via the
	// Accounts-Players join.
	AccountForPlayer(ctx context.Context, playerID int64) (*Account, error)

	ChangeAccountLevel(ctx context.Context, accountID int64, level int32) error
	BanAccount(ctx context.Context, accountID int64, bannedUntil int64, reason string) error
	UnbanAccount(ctx context.Context, accountID int64) error

	// UpdateSelectedPlayer records which slot the account last selected.
	UpdateSelectedPlayer(ctx context.Context, accountID int64, slot int32) error

	// TouchLastLogin stamps the account's last-login time.
	TouchLastLogin(ctx context.Context, accountID int64) error

	// DeleteAccount removes the account and, through cascades, every
	// dependent player and per-player row.
	DeleteAccount(ctx context.Context, accountID int64) error
}

// PlayerStore covers character records and their child collections.
type PlayerStore interface {
	// CreatePlayer inserts the player row plus a default Appearance row in
	// one transaction. When p.ID is zero the backend assigns it. Conflicts
	// on (account, slot) or (first, last) name surface as ErrDuplicateKey.
	CreatePlayer(ctx context.Context, p *Player) error

	// ListCharacters returns the account's characters ordered by slot.
	// An account with no characters yields an empty slice, not an error.
	// A character missing its Appearance row yields ErrIntegrity.
	ListCharacters(ctx context.Context, accountID int64) ([]CharacterSummary, error)

	// LoadPlayer hydrates the full player snapshot: base row, appearance,
	// nanos, inventory, quest items, and running quests.
	LoadPlayer(ctx context.Context, playerID int64) (*Player, error)

	// SavePlayer overwrites all mutable player fields and replaces the
	// child collections in one transaction. Last writer wins: the schema
	// carries no version token, so concurrent saves for the same player
	// must be serialized by the caller (one writer per player).
	SavePlayer(ctx context.Context, p *Player) error

	// SavePlayers saves a batch of players atomically, used by the
	// periodic flush and shutdown paths of the shard.
	SavePlayers(ctx context.Context, players []*Player) error

	// UpdateAppearance writes the cosmetic fields and raises the player's
	// appearance flag in the same unit of work.
	UpdateAppearance(ctx context.Context, playerID int64, style Appearance) error

	DeletePlayer(ctx context.Context, playerID int64) error
}

// SocialStore covers buddyships and blocks.
type SocialStore interface {
	// AddBuddy records the unordered buddy relationship between two
	// players. Adding an existing pair returns ErrDuplicateKey.
	AddBuddy(ctx context.Context, playerA, playerB int64) error
	RemoveBuddy(ctx context.Context, playerA, playerB int64) error
	Buddies(ctx context.Context, playerID int64) ([]int64, error)

	// BlockPlayer records the directed block relationship.
	BlockPlayer(ctx context.Context, playerID, blockedID int64) error
	UnblockPlayer(ctx context.Context, playerID, blockedID int64) error
	Blocks(ctx context.Context, playerID int64) ([]int64, error)
}

// EmailStore covers in-game mail.
type EmailStore interface {
	// NextEmailIndex returns the next free message index for a recipient.
	NextEmailIndex(ctx context.Context, playerID int64) (int32, error)

	// SaveEmail writes the message and its attached items in one
	// transaction.
	SaveEmail(ctx context.Context, msg *EmailMessage) error

	// Emails lists a player's messages newest-first, without attachments.
	Emails(ctx context.Context, playerID int64) ([]EmailMessage, error)

	// Email loads one message including its attached items.
	Email(ctx context.Context, playerID int64, msgIndex int32) (*EmailMessage, error)

	MarkEmailRead(ctx context.Context, playerID int64, msgIndex int32) error

	// DeleteEmail removes the message and its attachments.
	DeleteEmail(ctx context.Context, playerID int64, msgIndex int32) error
}

// RaceStore covers infected-zone race results and one-time code redemption.
type RaceStore interface {
	RecordRace(ctx context.Context, res *RaceResult) error
	TopRaceResults(ctx context.Context, epID int32, limit int) ([]RaceResult, error)

	// RedeemCode marks a one-time code as consumed by a player. A second
	// redemption of the same code by the same player returns
	// ErrDuplicateKey.
	RedeemCode(ctx context.Context, playerID int64, code string) error
	RedeemedCodes(ctx context.Context, playerID int64) ([]string, error)
}

// MetaStore covers the version stamp written at store creation.
type MetaStore interface {
	// InitMeta stamps a freshly created store with the protocol and
	// database versions. Stamping an already-initialized store returns
	// ErrDuplicateKey; callers treat that as fatal at startup.
	InitMeta(ctx context.Context, protocolVersion, databaseVersion int32) error

	// MetaValue reads a single version stamp, ErrNotFound if absent.
	MetaValue(ctx context.Context, key string) (int64, error)
}

// Store is the full persistence contract. Every operation is one atomic
// unit of work against the backend and may block on the underlying
// connection; callers must not hold world or entity locks across calls.
type Store interface {
	AccountStore
	PlayerStore
	SocialStore
	EmailStore
	RaceStore
	MetaStore

	Close()
}
