package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/metrics"
)

// Rankings orders teams by their most recent power rating.
//
// Ordering: rating DESC, then team ASC. The tree is a treap whose BST order is that
// ranking, so an in-order walk yields the board from best to worst and subtree
// sizes give a team's rank in O(log n).

// Standing is one row of the power rankings.
type Standing struct {
	Rank   int     `json:"rank"`
	Team   string  `json:"team"`
	Rating float64 `json:"rating"`
	Season int     `json:"season"`
	Week   int     `json:"week"`
}

type standing struct {
	rating float64
	season int
	week   int
}

type node struct {
	team   string
	rating float64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// ahead reports whether (aRating, aTeam) ranks before (bRating, bTeam).
func ahead(aRating float64, aTeam string, bRating float64, bTeam string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aTeam < bTeam
}

// priority is a deterministic heap key so the same inserts build the same tree.
func priority(team string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(team))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, team string, rating float64) *node {
	if n == nil {
		return &node{team: team, rating: rating, prio: priority(team), size: 1}
	}
	if ahead(rating, team, n.rating, n.team) {
		n.left = insert(n.left, team, rating)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, team, rating)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, team string, rating float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.team == team && n.rating == rating:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, team, rating)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, team, rating)
		}
	case ahead(rating, team, n.rating, n.team):
		n.left = remove(n.left, team, rating)
	default:
		n.right = remove(n.right, team, rating)
	}
	fix(n)
	return n
}

// position returns how many teams rank strictly before (rating, team).
func position(n *node, team string, rating float64) int {
	var before int
	for n != nil {
		if ahead(rating, team, n.rating, n.team) {
			n = n.left
			continue
		}
		if n.team == team && n.rating == rating {
			return before + nsize(n.left)
		}
		before += nsize(n.left) + 1
		n = n.right
	}
	return before
}

func collect(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	collect(n.right, limit, out)
}

// Rankings is an in-memory, concurrency-safe power rankings board.
type Rankings struct {
	mu     sync.RWMutex
	root   *node
	byTeam map[string]standing
}

// NewRankings returns an empty board.
func NewRankings() *Rankings {
	return &Rankings{byTeam: make(map[string]standing)}
}

// Set records team's latest rating, replacing any earlier one. Ratings from an
// earlier season or week than the stored one are ignored; it reports whether the
// board changed.
func (r *Rankings) Set(_ context.Context, team string, rating float64, season, week int) bool {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return false
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("rankings_set", float64(time.Since(start).Microseconds())/1000)
	}()

	team = model.NormalizeTeam(team)
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byTeam[team]; ok {
		if season < old.season || (season == old.season && week < old.week) {
			return false
		}
		r.root = remove(r.root, team, old.rating)
	}
	r.byTeam[team] = standing{rating: rating, season: season, week: week}
	r.root = insert(r.root, team, rating)
	return true
}

// Rank returns team's standing. Teams with equal ratings share a rank.
func (r *Rankings) Rank(_ context.Context, team string) (Standing, error) {
	team = model.NormalizeTeam(team)
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.byTeam[team]
	if !ok {
		return Standing{}, ErrNotFound
	}
	// The first team holding this rating sorts before every other with it.
	rank := position(r.root, "", st.rating) + 1
	return Standing{Rank: rank, Team: team, Rating: st.rating, Season: st.season, Week: st.week}, nil
}

// TopN returns the best n teams, ranked with ties sharing a rank.
func (r *Rankings) TopN(_ context.Context, n int) ([]Standing, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(r.byTeam)))
	collect(r.root, n, &nodes)
	out := make([]Standing, len(nodes))
	for i, nd := range nodes {
		st := r.byTeam[nd.team]
		out[i] = Standing{Team: nd.team, Rating: st.rating, Season: st.season, Week: st.week}
		switch {
		case i == 0:
			out[i].Rank = 1
		case nd.rating == out[i-1].Rating:
			out[i].Rank = out[i-1].Rank
		default:
			out[i].Rank = i + 1
		}
	}
	return out, nil
}

// Count returns the number of ranked teams.
func (r *Rankings) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTeam)
}
