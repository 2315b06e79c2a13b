// Package feeds loads grade and injury snapshots from files or HTTP endpoints.
package feeds

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/okian/gridiron/internal/domain/grades"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/snapshot"
)

// Feed names used in logs and metrics.
const (
	FeedGrades   = "grades"
	FeedInjuries = "injuries"
)

// versionSpace namespaces content-derived snapshot versions.
var versionSpace = uuid.MustParse("4f0e6c52-6a61-4bd8-9a59-4b1c3f1f8e2d")

// GradesDocument is the wire shape of the grade feed.
type GradesDocument struct {
	Season  int                           `koanf:"season" json:"season"`
	Week    int                           `koanf:"week" json:"week"`
	AsOf    time.Time                     `koanf:"as_of" json:"as_of"`
	Teams   map[string]map[string]float64 `koanf:"teams" json:"teams"`
	Players []grades.PlayerGrade          `koanf:"players" json:"players"`
}

// InjuryEntry is one raw injury-report line before status normalisation.
type InjuryEntry struct {
	Team     string `koanf:"team" json:"team"`
	Player   string `koanf:"player" json:"player"`
	Position string `koanf:"position" json:"position"`
	Status   string `koanf:"status" json:"status"`
}

// InjuryDocument is the wire shape of the injury feed.
type InjuryDocument struct {
	Injuries []InjuryEntry `koanf:"injuries" json:"injuries"`
}

// bytesProvider feeds an in-memory document to koanf.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) { return b, nil }

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, fmt.Errorf("bytes provider does not support Read")
}

// parserFor picks a koanf parser from a file name or content type.
func parserFor(name string) koanf.Parser {
	lower := strings.ToLower(name)
	if filepath.Ext(lower) == ".json" || strings.Contains(lower, "json") {
		return json.Parser()
	}
	return yaml.Parser()
}

func decode(p koanf.Provider, parser koanf.Parser, out any) error {
	k := koanf.New(".")
	if err := k.Load(p, parser); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := k.UnmarshalWithConf("", out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// Build turns decoded feed documents into snapshot data. Injury lines with a
// status that is not recognised are dropped and counted in skipped. raw is hashed
// into the version so identical feeds produce identical versions.
func Build(g GradesDocument, inj InjuryDocument, raw ...[]byte) (data *snapshot.Data, skipped int) {
	teams := make(map[string]map[model.Unit]float64, len(g.Teams))
	for team, units := range g.Teams {
		dst := make(map[model.Unit]float64, len(units))
		for u, v := range units {
			dst[model.Unit(strings.ToLower(u))] = v
		}
		teams[team] = dst
	}

	injuries := make(map[string][]model.InjuryRecord)
	for _, e := range inj.Injuries {
		status, ok := model.ParseStatus(e.Status)
		if !ok {
			skipped++
			continue
		}
		team := model.NormalizeTeam(e.Team)
		injuries[team] = append(injuries[team], model.InjuryRecord{
			Team:     team,
			Player:   strings.TrimSpace(e.Player),
			Position: e.Position,
			Status:   status,
		})
	}

	var content []byte
	for _, r := range raw {
		content = append(content, r...)
		content = append(content, 0)
	}

	return &snapshot.Data{
		Grades:   grades.NewSnapshot(g.Season, g.Week, g.AsOf, teams, g.Players),
		Injuries: injuries,
		Version:  uuid.NewSHA1(versionSpace, content).String(),
	}, skipped
}
