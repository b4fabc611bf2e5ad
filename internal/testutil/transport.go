package testutil

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// StaticTransport serves canned response bodies and records every request.
//
// Bodies registered with Respond are matched by the "q" parameter; the
// fallback body answers everything else.
//
// Thread-safety: StaticTransport is safe for concurrent use.
type StaticTransport struct {
	mu       sync.Mutex
	fallback []byte
	byQuery  map[string][]byte
	err      error
	requests []url.Values
}

// NewStaticTransport returns a transport answering every request with body.
func NewStaticTransport(body string) *StaticTransport {
	return &StaticTransport{fallback: []byte(body), byQuery: map[string][]byte{}}
}

// Respond registers the body returned for requests whose q equals q.
func (t *StaticTransport) Respond(q, body string) *StaticTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byQuery[q] = []byte(body)
	return t
}

// FailWith makes every later request fail with err.
func (t *StaticTransport) FailWith(err error) *StaticTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	return t
}

// Select implements search.Transport.
func (t *StaticTransport) Select(ctx context.Context, params url.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, params)
	if t.err != nil {
		return nil, t.err
	}
	if body, ok := t.byQuery[params.Get("q")]; ok {
		return body, nil
	}
	if t.fallback == nil {
		return nil, fmt.Errorf("no canned response for q=%q", params.Get("q"))
	}
	return t.fallback, nil
}

// Requests returns the recorded requests in order.
func (t *StaticTransport) Requests() []url.Values {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]url.Values(nil), t.requests...)
}

// Calls returns the number of recorded requests.
func (t *StaticTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}
