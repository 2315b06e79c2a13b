package feeds

import (
	"context"
	"fmt"
	"os"

	"github.com/knadh/koanf/providers/file"

	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

// FileSource reads grade and injury documents from YAML or JSON files.
type FileSource struct {
	GradesPath   string
	InjuriesPath string
}

// Load implements snapshot.Loader. An empty path yields an empty document for that feed.
func (s FileSource) Load(ctx context.Context) (*snapshot.Data, error) {
	if s.GradesPath == "" && s.InjuriesPath == "" {
		return nil, ErrNoFeeds
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		g   GradesDocument
		inj InjuryDocument
		raw [][]byte
	)
	if s.GradesPath != "" {
		b, err := readFile(FeedGrades, s.GradesPath, &g)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	if s.InjuriesPath != "" {
		b, err := readFile(FeedInjuries, s.InjuriesPath, &inj)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}

	data, skipped := Build(g, inj, raw...)
	if skipped > 0 {
		logger.Named("feeds").Warn(ctx, "dropped injury lines with unknown status",
			logger.String("path", s.InjuriesPath), logger.Int("skipped", skipped))
	}
	return data, nil
}

func readFile(feed, path string, out any) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		metrics.RecordFeedError(feed)
		return nil, fmt.Errorf("read %s feed %s: %w", feed, path, err)
	}
	if err := decode(file.Provider(path), parserFor(path), out); err != nil {
		metrics.RecordFeedError(feed)
		return nil, fmt.Errorf("%s feed %s: %w", feed, path, err)
	}
	return b, nil
}
