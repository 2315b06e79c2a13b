package loadtest

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/subscore"
)

const maxWeek = 18

var teamIDs = []string{
	"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE",
	"DAL", "DEN", "DET", "GB", "HOU", "IND", "JAX", "KC",
	"LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG",
	"NYJ", "PHI", "PIT", "SEA", "SF", "TB", "TEN", "WAS",
}

// Generation ranges.
const (
	passShare        = 0.6
	epaSpread        = 0.5
	epaNoise         = 1.0
	meanYards        = 4.5
	yardsSpread      = 6.0
	yardsNoise       = 5.0
	minYards         = -8.0
	turnoverBase     = 0.03
	turnoverSpread   = 0.03
	meanPoints       = 21.0
	pointsSpread     = 20.0
	pointsNoise      = 7.0
	strongestPercent = 0.5
)

// Team is a generated team with a hidden strength in [0, 1].
type Team struct {
	ID       string
	Strength float64
}

// Fixture is one scheduled game.
type Fixture struct {
	GameID string
	Week   int
	Home   string
	Away   string
}

// League is everything generated for one run.
type League struct {
	Season   int
	Teams    []Team
	Fixtures []Fixture
	Plays    []model.PlayRecord
}

// Strongest returns the team with the highest hidden strength.
func (l *League) Strongest() Team {
	best := l.Teams[0]
	for _, t := range l.Teams[1:] {
		if t.Strength > best.Strength {
			best = t
		}
	}
	return best
}

// Week returns the fixtures of week as prediction games.
func (l *League) Week(week int) []model.Game {
	var games []model.Game
	for _, f := range l.Fixtures {
		if f.Week == week {
			games = append(games, model.Game{Home: f.Home, Away: f.Away})
		}
	}
	return games
}

// PlaysByGame groups plays by game id in fixture order.
func (l *League) PlaysByGame() [][]model.PlayRecord {
	byGame := make(map[string][]model.PlayRecord, len(l.Fixtures))
	for _, p := range l.Plays {
		byGame[p.GameID] = append(byGame[p.GameID], p)
	}
	out := make([][]model.PlayRecord, 0, len(l.Fixtures))
	for _, f := range l.Fixtures {
		out = append(out, byGame[f.GameID])
	}
	return out
}

// Generate builds a deterministic league for cfg.
func Generate(cfg *Config) *League {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(cfg.Season)))

	l := &League{Season: cfg.Season, Teams: make([]Team, cfg.Teams)}
	for i := range l.Teams {
		l.Teams[i] = Team{ID: teamIDs[i], Strength: rng.Float64()}
	}
	strength := make(map[string]float64, len(l.Teams))
	for _, t := range l.Teams {
		strength[t.ID] = t.Strength
	}

	ids := make([]string, len(l.Teams))
	for i, t := range l.Teams {
		ids[i] = t.ID
	}
	for week := 1; week <= cfg.Weeks; week++ {
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		for i := 0; i+1 < len(ids); i += 2 {
			f := Fixture{Week: week, Home: ids[i], Away: ids[i+1]}
			f.GameID = uuid.NewSHA1(uuid.NameSpaceOID,
				[]byte(fmt.Sprintf("%d/%d/%s/%s", cfg.Season, week, f.Home, f.Away))).String()
			l.Fixtures = append(l.Fixtures, f)
			for _, team := range []string{f.Home, f.Away} {
				for range cfg.PlaysPerGame {
					l.Plays = append(l.Plays, play(rng, cfg.Season, f, team, strength[team]))
				}
			}
		}
	}
	return l
}

func play(rng *rand.Rand, season int, f Fixture, team string, strength float64) model.PlayRecord {
	edge := strength - 0.5
	epa := edge*epaSpread + rng.NormFloat64()*epaNoise
	yards := math.Max(minYards, meanYards+edge*yardsSpread+rng.NormFloat64()*yardsNoise)
	kind := model.PlayRun
	if rng.Float64() < passShare {
		kind = model.PlayPass
	}
	down, distance := 1+rng.IntN(4), 1+rng.IntN(15)
	yards = math.Round(yards)
	return model.PlayRecord{
		GameID:              f.GameID,
		Team:                team,
		Season:              season,
		Week:                f.Week,
		Down:                down,
		DistanceToGo:        distance,
		YardlineFromGoal100: 1 + rng.IntN(99),
		PlayType:            kind,
		YardsGained:         yards,
		EfficiencyAdded:     epa,
		IsSuccess:           subscore.DeriveSuccess(down, distance, yards, epa, true),
		IsTurnover:          rng.Float64() < turnoverBase-edge*turnoverSpread,
	}
}

// Score draws a final score for a fixture from the teams' hidden strengths.
func (l *League) Score(rng *rand.Rand, f Fixture) (home, away int) {
	s := make(map[string]float64, len(l.Teams))
	for _, t := range l.Teams {
		s[t.ID] = t.Strength
	}
	points := func(own, opp float64) int {
		return max(0, int(math.Round(meanPoints+(own-opp)*pointsSpread+rng.NormFloat64()*pointsNoise)))
	}
	return points(s[f.Home], s[f.Away]), points(s[f.Away], s[f.Home])
}

// topHalf reports whether team appears in the better half of ids.
func topHalf(ids []string, team string) bool {
	limit := int(math.Ceil(float64(len(ids)) * strongestPercent))
	for i, id := range ids {
		if id == team {
			return i < limit
		}
	}
	return false
}

// byStrength returns team ids, strongest first.
func byStrength(teams []Team) []string {
	sorted := append([]Team(nil), teams...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Strength > sorted[j].Strength })
	ids := make([]string, len(sorted))
	for i, t := range sorted {
		ids[i] = t.ID
	}
	return ids
}
