package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

const (
	defaultHTTPTimeout   = 10 * time.Second
	maxDocumentBytes     = 16 << 20
	breakerMinRequests   = 3
	breakerFailureRatio  = 0.6
	breakerOpenTimeout   = time.Minute
	breakerHalfOpenProbe = 1
)

// HTTPSource fetches grade and injury documents from URLs. Each feed sits behind
// its own circuit breaker so a failing provider is not hammered every refresh.
type HTTPSource struct {
	gradesURL   string
	injuriesURL string
	client      *http.Client
	timeout     time.Duration
	breakers    map[string]*gobreaker.CircuitBreaker
	log         logger.Logger
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithFetchTimeout bounds each request.
func WithFetchTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewHTTPSource returns a source for the given URLs; either may be empty.
func NewHTTPSource(gradesURL, injuriesURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		gradesURL:   gradesURL,
		injuriesURL: injuriesURL,
		client:      &http.Client{},
		timeout:     defaultHTTPTimeout,
		log:         logger.Named("feeds"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.breakers = map[string]*gobreaker.CircuitBreaker{
		FeedGrades:   s.newBreaker(FeedGrades),
		FeedInjuries: s.newBreaker(FeedInjuries),
	}
	return s
}

func (s *HTTPSource) newBreaker(feed string) *gobreaker.CircuitBreaker {
	metrics.UpdateBreakerState(feed, int(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        feed,
		MaxRequests: breakerHalfOpenProbe,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= breakerMinRequests && failureRatio >= breakerFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			s.log.Warn(context.Background(), "feed circuit breaker state changed",
				logger.String("feed", name), logger.String("from", from.String()), logger.String("to", to.String()))
		},
	})
}

// State reports the breaker state of a feed.
func (s *HTTPSource) State(feed string) gobreaker.State {
	if b, ok := s.breakers[feed]; ok {
		return b.State()
	}
	return gobreaker.StateClosed
}

// Load implements snapshot.Loader.
func (s *HTTPSource) Load(ctx context.Context) (*snapshot.Data, error) {
	if s.gradesURL == "" && s.injuriesURL == "" {
		return nil, ErrNoFeeds
	}

	var (
		g   GradesDocument
		inj InjuryDocument
		raw [][]byte
	)
	if s.gradesURL != "" {
		b, err := s.fetch(ctx, FeedGrades, s.gradesURL, &g)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	if s.injuriesURL != "" {
		b, err := s.fetch(ctx, FeedInjuries, s.injuriesURL, &inj)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}

	data, skipped := Build(g, inj, raw...)
	if skipped > 0 {
		s.log.Warn(ctx, "dropped injury lines with unknown status", logger.Int("skipped", skipped))
	}
	return data, nil
}

type fetched struct {
	body        []byte
	contentType string
}

func (s *HTTPSource) fetch(ctx context.Context, feed, url string, out any) ([]byte, error) {
	res, err := s.breakers[feed].Execute(func() (interface{}, error) {
		return s.get(ctx, url)
	})
	if err != nil {
		metrics.RecordFeedError(feed)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %w", ErrBreakerOpen, feed, err)
		}
		return nil, fmt.Errorf("fetch %s feed: %w", feed, err)
	}
	f := res.(fetched)

	if err := decode(bytesProvider(f.body), parserFor(f.contentType+" "+url), out); err != nil {
		metrics.RecordFeedError(feed)
		return nil, fmt.Errorf("%s feed: %w", feed, err)
	}
	return f.body, nil
}

func (s *HTTPSource) get(ctx context.Context, url string) (fetched, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fetched{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := s.client.Do(req)
	if err != nil {
		return fetched{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fetched{}, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return fetched{}, fmt.Errorf("read %s: %w", url, err)
	}
	return fetched{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}
