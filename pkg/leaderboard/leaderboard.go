// Package leaderboard serves ranked views over the global XP ledger.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/VulcanWM/threadofclues/pkg/engine"
	"github.com/VulcanWM/threadofclues/pkg/models"
	"github.com/VulcanWM/threadofclues/pkg/store"
)

// Service reads the XP ledger. It never writes; awards go through the engine.
type Service struct {
	kv store.KV
}

// New returns a leaderboard service over the given store.
func New(kv store.KV) *Service {
	return &Service{kv: kv}
}

// Top returns the n highest-XP users, descending. Ties break by username
// ascending for a stable order.
func (s *Service) Top(n int) ([]models.LeaderboardEntry, error) {
	if n <= 0 {
		return []models.LeaderboardEntry{}, nil
	}
	all, err := s.kv.ZRange(engine.LeaderboardKey, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Member < all[j].Member
	})
	if n > len(all) {
		n = len(all)
	}
	out := make([]models.LeaderboardEntry, 0, n)
	for _, m := range all[:n] {
		out = append(out, models.LeaderboardEntry{Username: m.Member, XP: int64(m.Score)})
	}
	return out, nil
}

// Rank returns a user's 1-based descending leaderboard position, or a
// Ranked=false response when they have no ledger entry.
func (s *Service) Rank(username string) (models.RankResponse, error) {
	resp := models.RankResponse{Username: username}

	total, err := s.kv.ZCard(engine.LeaderboardKey)
	if err != nil {
		return resp, fmt.Errorf("read ledger size: %w", err)
	}
	asc, err := s.kv.ZRank(engine.LeaderboardKey, username)
	if errors.Is(err, store.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return resp, fmt.Errorf("read rank for %s: %w", username, err)
	}

	resp.Ranked = true
	resp.Rank = total - asc
	return resp, nil
}

// XP returns a user's cumulative XP, zero when they have no ledger entry.
func (s *Service) XP(username string) (int64, error) {
	score, err := s.kv.ZScore(engine.LeaderboardKey, username)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read xp for %s: %w", username, err)
	}
	return int64(score), nil
}
