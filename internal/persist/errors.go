package persist

import "errors"

// Error taxonomy for the persistence layer. Every backend maps its native
// failure modes onto these sentinels so callers can branch with errors.Is
// regardless of which backend is configured.
var (
	// ErrNotFound means the requested account/player/row has no matching
	// entry. Normal absence, never retried automatically.
	ErrNotFound = errors.New("persist: not found")

	// ErrDuplicateKey means a uniqueness constraint rejected a write
	// (login, (account,slot), (firstName,lastName), (player,code), ...).
	// The caller picks a different value and tries again.
	ErrDuplicateKey = errors.New("persist: duplicate key")

	// ErrIntegrity means a mandatory relation is missing or broken, e.g. a
	// Player without its Appearance row. Indicates a corrupted store, not a
	// normal absence; fatal for the load that hit it.
	ErrIntegrity = errors.New("persist: integrity violation")

	// ErrConnectivity means the backend is unreachable or the connection
	// dropped mid-operation. Retry/backoff policy belongs to the caller.
	ErrConnectivity = errors.New("persist: connectivity failure")
)
