package feeds

import (
	"context"
	"errors"

	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
)

// Fallback tries Primary and, when it fails, Secondary.
type Fallback struct {
	Primary   snapshot.Loader
	Secondary snapshot.Loader
}

// Load implements snapshot.Loader.
func (f Fallback) Load(ctx context.Context) (*snapshot.Data, error) {
	if f.Primary == nil {
		return f.secondary(ctx)
	}
	d, err := f.Primary.Load(ctx)
	if err == nil {
		return d, nil
	}
	if f.Secondary == nil {
		return nil, err
	}
	logger.Named("feeds").Warn(ctx, "primary feed failed, using fallback", logger.Error(err))
	d, err2 := f.Secondary.Load(ctx)
	if err2 != nil {
		return nil, errors.Join(err, err2)
	}
	return d, nil
}

func (f Fallback) secondary(ctx context.Context) (*snapshot.Data, error) {
	if f.Secondary == nil {
		return nil, ErrNoFeeds
	}
	return f.Secondary.Load(ctx)
}
