package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/VulcanWM/threadofclues/pkg/logger"
)

// Key namespaces inside the pebble keyspace. Logical scalar keys, hash fields
// and sorted-set members each live under their own prefix so they can be
// scanned independently.
const (
	scalarPrefix = "kv:"
	hashPrefix   = "hash:"
	zsetPrefix   = "zset:"
)

// Pebble is a KV backed by a pebble database. A store-level mutex serializes
// read-modify-write operations (SetNX, Expire, ZIncrBy) so check-then-set
// sequences are atomic within the process.
type Pebble struct {
	db   *pebble.DB
	path string

	mu sync.Mutex

	// now is the clock used for expiry checks; tests may replace it.
	now func() time.Time
}

// scalarRecord is the stored form of a scalar key. Exp is a unix-nano
// deadline; zero means no expiry.
type scalarRecord struct {
	Value string `json:"v"`
	Exp   int64  `json:"exp,omitempty"`
}

// Open opens (or creates) a pebble database at the given path.
func Open(path string) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Pebble{db: db, path: path, now: time.Now}, nil
}

// Close closes the underlying pebble database.
func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return err
	}
	p.db = nil
	logger.Info("pebble_closed", "path", p.path)
	return nil
}

// Ready reports whether the store is open.
func (p *Pebble) Ready() bool {
	return p != nil && p.db != nil
}

func (p *Pebble) getRaw(key []byte) ([]byte, error) {
	v, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// getScalar loads and decodes a scalar record, treating expired records as
// absent (and deleting them best-effort).
func (p *Pebble) getScalar(key string) (scalarRecord, error) {
	raw, err := p.getRaw([]byte(scalarPrefix + key))
	if err != nil {
		return scalarRecord{}, err
	}
	var rec scalarRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return scalarRecord{}, fmt.Errorf("corrupt scalar record for %q: %w", key, err)
	}
	if rec.Exp > 0 && p.now().UnixNano() >= rec.Exp {
		_ = p.db.Delete([]byte(scalarPrefix+key), pebble.NoSync)
		return scalarRecord{}, ErrNotFound
	}
	return rec, nil
}

func (p *Pebble) setScalar(key string, rec scalarRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.db.Set([]byte(scalarPrefix+key), b, pebble.Sync)
}

// Get returns the value for key, or ErrNotFound when absent or expired.
func (p *Pebble) Get(key string) (string, error) {
	rec, err := p.getScalar(key)
	if err != nil {
		return "", err
	}
	return rec.Value, nil
}

// Set writes key unconditionally, clearing any expiry.
func (p *Pebble) Set(key, value string) error {
	if err := p.setScalar(key, scalarRecord{Value: value}); err != nil {
		logger.Error("set_key_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// SetNX writes key only when absent (or expired) and reports whether the
// write happened. Atomic with respect to other SetNX/Expire/ZIncrBy calls.
func (p *Pebble) SetNX(key, value string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.getScalar(key)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrNotFound):
		// fallthrough to write
	default:
		return false, err
	}
	if err := p.setScalar(key, scalarRecord{Value: value}); err != nil {
		logger.Error("setnx_failed", "key", key, "error", err)
		return false, err
	}
	return true, nil
}

// SetNXTTL writes key with an expiry deadline only when absent (or expired)
// and reports whether the write happened. Value and deadline land in one
// record write, so there is no window where the claim has no TTL.
func (p *Pebble) SetNXTTL(key, value string, seconds int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.getScalar(key)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrNotFound):
		// fallthrough to write
	default:
		return false, err
	}
	rec := scalarRecord{
		Value: value,
		Exp:   p.now().Add(time.Duration(seconds) * time.Second).UnixNano(),
	}
	if err := p.setScalar(key, rec); err != nil {
		logger.Error("setnx_ttl_failed", "key", key, "error", err)
		return false, err
	}
	return true, nil
}

// Expire sets a TTL in seconds on an existing key.
func (p *Pebble) Expire(key string, seconds int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.getScalar(key)
	if err != nil {
		return err
	}
	rec.Exp = p.now().Add(time.Duration(seconds) * time.Second).UnixNano()
	return p.setScalar(key, rec)
}

// HGet returns a hash field value, or ErrNotFound.
func (p *Pebble) HGet(hash, field string) (string, error) {
	raw, err := p.getRaw([]byte(hashPrefix + hash + ":" + field))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// HSet writes the given fields into a hash.
func (p *Pebble) HSet(hash string, fields map[string]string) error {
	for f, v := range fields {
		key := []byte(hashPrefix + hash + ":" + f)
		if err := p.db.Set(key, []byte(v), pebble.Sync); err != nil {
			logger.Error("hset_failed", "hash", hash, "field", f, "error", err)
			return err
		}
	}
	return nil
}

func (p *Pebble) zKey(set, member string) []byte {
	return []byte(zsetPrefix + set + ":" + member)
}

// zMembers returns all members of a set ordered ascending by score, member
// name breaking ties.
func (p *Pebble) zMembers(set string) ([]ScoredMember, error) {
	prefix := []byte(zsetPrefix + set + ":")
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []ScoredMember
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		member := string(iter.Key()[len(prefix):])
		score, perr := strconv.ParseFloat(string(iter.Value()), 64)
		if perr != nil {
			return nil, fmt.Errorf("corrupt score for %s/%s: %w", set, member, perr)
		}
		out = append(out, ScoredMember{Member: member, Score: score})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out, nil
}

// ZIncrBy adds delta to a member's score and returns the new score.
func (p *Pebble) ZIncrBy(set, member string, delta float64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var cur float64
	raw, err := p.getRaw(p.zKey(set, member))
	switch {
	case err == nil:
		cur, err = strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt score for %s/%s: %w", set, member, err)
		}
	case errors.Is(err, ErrNotFound):
		cur = 0
	default:
		return 0, err
	}
	next := cur + delta
	val := strconv.FormatFloat(next, 'f', -1, 64)
	if err := p.db.Set(p.zKey(set, member), []byte(val), pebble.Sync); err != nil {
		logger.Error("zincrby_failed", "set", set, "member", member, "error", err)
		return 0, err
	}
	return next, nil
}

// ZScore returns a member's score, or ErrNotFound.
func (p *Pebble) ZScore(set, member string) (float64, error) {
	raw, err := p.getRaw(p.zKey(set, member))
	if err != nil {
		return 0, err
	}
	score, perr := strconv.ParseFloat(string(raw), 64)
	if perr != nil {
		return 0, fmt.Errorf("corrupt score for %s/%s: %w", set, member, perr)
	}
	return score, nil
}

// ZRank returns a member's 0-based ascending rank, or ErrNotFound.
func (p *Pebble) ZRank(set, member string) (int, error) {
	members, err := p.zMembers(set)
	if err != nil {
		return 0, err
	}
	for i, m := range members {
		if m.Member == member {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

// ZCard returns the number of members in the set.
func (p *Pebble) ZCard(set string) (int, error) {
	members, err := p.zMembers(set)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// ZRange returns the inclusive index range [start, stop] of the ascending
// ordering. Negative indices count from the end.
func (p *Pebble) ZRange(set string, start, stop int) ([]ScoredMember, error) {
	members, err := p.zMembers(set)
	if err != nil {
		return nil, err
	}
	return sliceRange(members, start, stop), nil
}

// sliceRange applies redis-style inclusive range semantics with negative
// index support to an already-sorted member slice.
func sliceRange(members []ScoredMember, start, stop int) []ScoredMember {
	n := len(members)
	if n == 0 {
		return nil
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil
	}
	out := make([]ScoredMember, stop-start+1)
	copy(out, members[start:stop+1])
	return out
}

// PurgeExpired deletes scalar records whose expiry deadline has passed and
// returns how many were removed. Expiry is otherwise lazy (checked on read),
// so a periodic purge keeps dead rate-limit tokens from accumulating.
func (p *Pebble) PurgeExpired() (int, error) {
	if p.db == nil {
		return 0, fmt.Errorf("pebble not opened")
	}
	prefix := []byte(scalarPrefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	nowNano := p.now().UnixNano()
	var dead [][]byte
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var rec scalarRecord
		if json.Unmarshal(iter.Value(), &rec) != nil {
			continue
		}
		if rec.Exp > 0 && nowNano >= rec.Exp {
			dead = append(dead, append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}
	for _, k := range dead {
		if err := p.db.Delete(k, pebble.Sync); err != nil {
			return 0, err
		}
	}
	if len(dead) > 0 {
		logger.Info("expired_keys_purged", "count", len(dead))
	}
	return len(dead), nil
}

// ListKeys returns all logical scalar keys with the given prefix. Used by the
// inspect tool; not part of the KV port.
func (p *Pebble) ListKeys(prefix string) ([]string, error) {
	pfx := []byte(scalarPrefix + prefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(iter.Key()[len(scalarPrefix):]))
	}
	return out, iter.Error()
}
