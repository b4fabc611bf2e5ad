package search

import (
	"context"
	"log/slog"
	"net/url"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// DefaultRows is the page size used when neither the query nor the
// searcher sets one.
const DefaultRows = 10

// Transport executes one select request and returns the raw JSON body.
type Transport interface {
	Select(ctx context.Context, params url.Values) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, params url.Values) ([]byte, error)

func (f TransportFunc) Select(ctx context.Context, params url.Values) ([]byte, error) {
	return f(ctx, params)
}

// Searcher sends select requests through a Transport.
//
// Identical concurrent selects are collapsed into one transport call, and
// with WithCache raw bodies are kept in an LRU keyed by the encoded
// parameters.
//
// Thread-safety: Searcher is safe for concurrent use.
type Searcher struct {
	transport Transport
	defaults  url.Values
	rows      int
	logger    *slog.Logger
	cache     *lru.Cache
	ids       IDGenerator
	flight    singleflight.Group
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithDefaultParams sets parameters sent with every request. Query
// parameters with the same name replace them.
func WithDefaultParams(p url.Values) Option {
	return func(s *Searcher) {
		s.defaults = cloneValues(p)
	}
}

// WithRows sets the default page size.
func WithRows(n int) Option {
	return func(s *Searcher) {
		s.rows = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache keeps up to size response bodies. A size of zero or less
// disables the cache.
func WithCache(size int) Option {
	return func(s *Searcher) {
		if size <= 0 {
			s.cache = nil
			return
		}
		c, err := lru.New(size)
		if err != nil {
			s.logger.Warn("response cache disabled", "size", size, "error", err)
			return
		}
		s.cache = c
	}
}

// WithIDGenerator sets the request ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Searcher) {
		if g != nil {
			s.ids = g
		}
	}
}

// New creates a Searcher over t.
func New(t Transport, opts ...Option) *Searcher {
	s := &Searcher{
		transport: t,
		rows:      DefaultRows,
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns an empty query bound to s.
func (s *Searcher) Query() *Query {
	return &Query{searcher: s, fetch: &fetchState{}}
}

// Rows returns the default page size.
func (s *Searcher) Rows() int { return s.rows }

// Select sends params and decodes the response.
func (s *Searcher) Select(ctx context.Context, params url.Values) (*Response, error) {
	if s == nil || s.transport == nil {
		return nil, ErrNoTransport
	}

	key := params.Encode()
	id := s.ids.Generate()
	log := s.logger.With("request_id", id)

	body, cached := s.cached(key)
	if cached {
		log.Debug("select served from cache", "params", key)
	} else {
		// The shared call outlives any single caller; each caller
		// still stops waiting when its own context ends.
		flight := s.flight.DoChan(key, func() (any, error) {
			b, err := s.transport.Select(context.WithoutCancel(ctx), params)
			if err != nil {
				return nil, err
			}
			if s.cache != nil {
				s.cache.Add(key, b)
			}
			return b, nil
		})
		var res singleflight.Result
		select {
		case res = <-flight:
		case <-ctx.Done():
			res.Err = ctx.Err()
		}
		if res.Err != nil {
			log.Warn("select failed", "params", key, "error", res.Err)
			return nil, &TransportError{RequestID: id, Params: key, Err: res.Err}
		}
		body = res.Val.([]byte)
		log.Debug("select", "params", key, "bytes", len(body), "shared", res.Shared)
	}

	resp, err := ParseResponse(body)
	if err != nil {
		log.Warn("undecodable response", "error", err)
		return nil, err
	}
	resp.RequestID = id
	return resp, nil
}

func (s *Searcher) cached(key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
