package store

import (
	"sort"
	"sync"
	"time"
)

// Memory is a map-backed KV with the same semantics as Pebble, for tests and
// local experiments.
type Memory struct {
	mu      sync.Mutex
	scalars map[string]scalarRecord
	hashes  map[string]map[string]string
	zsets   map[string]map[string]float64

	// Now is the clock used for expiry; nil means time.Now.
	Now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		scalars: make(map[string]scalarRecord),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
	}
}

func (m *Memory) clock() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// getLocked returns the live record for key, pruning it when expired.
// Caller must hold m.mu.
func (m *Memory) getLocked(key string) (scalarRecord, bool) {
	rec, ok := m.scalars[key]
	if !ok {
		return scalarRecord{}, false
	}
	if rec.Exp > 0 && m.clock().UnixNano() >= rec.Exp {
		delete(m.scalars, key)
		return scalarRecord{}, false
	}
	return rec, true
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.getLocked(key)
	if !ok {
		return "", ErrNotFound
	}
	return rec.Value, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scalars[key] = scalarRecord{Value: value}
	return nil
}

func (m *Memory) SetNX(key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.getLocked(key); ok {
		return false, nil
	}
	m.scalars[key] = scalarRecord{Value: value}
	return true, nil
}

func (m *Memory) SetNXTTL(key, value string, seconds int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.getLocked(key); ok {
		return false, nil
	}
	m.scalars[key] = scalarRecord{
		Value: value,
		Exp:   m.clock().Add(time.Duration(seconds) * time.Second).UnixNano(),
	}
	return true, nil
}

func (m *Memory) Expire(key string, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.getLocked(key)
	if !ok {
		return ErrNotFound
	}
	rec.Exp = m.clock().Add(time.Duration(seconds) * time.Second).UnixNano()
	m.scalars[key] = rec
	return nil
}

func (m *Memory) HGet(hash, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[hash]
	if !ok {
		return "", ErrNotFound
	}
	v, ok := h[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) HSet(hash string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[hash]
	if !ok {
		h = make(map[string]string)
		m.hashes[hash] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *Memory) ZIncrBy(set, member string, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zsets[set]
	if !ok {
		z = make(map[string]float64)
		m.zsets[set] = z
	}
	z[member] += delta
	return z[member], nil
}

func (m *Memory) ZScore(set, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zsets[set]
	if !ok {
		return 0, ErrNotFound
	}
	s, ok := z[member]
	if !ok {
		return 0, ErrNotFound
	}
	return s, nil
}

// sortedLocked returns the set ordered ascending by score then member.
// Caller must hold m.mu.
func (m *Memory) sortedLocked(set string) []ScoredMember {
	z := m.zsets[set]
	out := make([]ScoredMember, 0, len(z))
	for member, score := range z {
		out = append(out, ScoredMember{Member: member, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out
}

func (m *Memory) ZRank(set, member string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sm := range m.sortedLocked(set) {
		if sm.Member == member {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Memory) ZCard(set string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.zsets[set]), nil
}

func (m *Memory) ZRange(set string, start, stop int) ([]ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sliceRange(m.sortedLocked(set), start, stop), nil
}
