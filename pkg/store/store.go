package store

import "errors"

// ErrNotFound is returned when a key, hash field or sorted-set member is
// absent (or has expired).
var ErrNotFound = errors.New("store: not found")

// ScoredMember is one member of a sorted set with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// KV is the shared key-value capability the engine is written against. It
// mirrors the subset of a redis-style store the game needs: scalar keys with
// optional expiry, hash fields, and one sorted set used as the XP ledger.
//
// SetNX is the one extension over the minimal surface: an atomic
// set-if-absent used to close the first-solver and fragment-assignment
// check-then-set races. Implementations must make it atomic with respect to
// concurrent SetNX/Set calls for the same key.
type KV interface {
	// Get returns the value for key, or ErrNotFound when absent or expired.
	Get(key string) (string, error)
	// Set writes key unconditionally, clearing any expiry.
	Set(key, value string) error
	// SetNX writes key only when absent; reports whether the write happened.
	SetNX(key, value string) (bool, error)
	// SetNXTTL is SetNX with the expiry deadline armed in the same record
	// write, so a claimed key can never outlive its window.
	SetNXTTL(key, value string, seconds int) (bool, error)
	// Expire sets a time-to-live in seconds on an existing key. Expired keys
	// behave as absent on all reads.
	Expire(key string, seconds int) error

	// HGet returns the value of a hash field, or ErrNotFound.
	HGet(hash, field string) (string, error)
	// HSet writes the given fields into a hash.
	HSet(hash string, fields map[string]string) error

	// ZIncrBy adds delta to a member's score, creating it at delta when
	// absent, and returns the new score.
	ZIncrBy(set, member string, delta float64) (float64, error)
	// ZScore returns a member's score, or ErrNotFound.
	ZScore(set, member string) (float64, error)
	// ZRank returns a member's 0-based ascending rank, or ErrNotFound.
	ZRank(set, member string) (int, error)
	// ZCard returns the number of members in the set.
	ZCard(set string) (int, error)
	// ZRange returns members ordered ascending by score (member name breaks
	// ties) for the inclusive index range [start, stop]. Negative indices
	// count from the end, -1 being the last member.
	ZRange(set string, start, stop int) ([]ScoredMember, error)
}
