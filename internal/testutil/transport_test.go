package testutil

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTransport_FallbackAndByQuery(t *testing.T) {
	tr := NewStaticTransport(`{"fallback":true}`).Respond("name:phone", `{"phone":true}`)
	ctx := context.Background()

	body, err := tr.Select(ctx, url.Values{"q": {"*:*"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fallback":true}`, string(body))

	body, err = tr.Select(ctx, url.Values{"q": {"name:phone"}, "rows": {"0"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone":true}`, string(body))

	require.Equal(t, 2, tr.Calls())
	assert.Equal(t, "0", tr.Requests()[1].Get("rows"))
}

func TestStaticTransport_NoFallback(t *testing.T) {
	tr := &StaticTransport{byQuery: map[string][]byte{}}
	_, err := tr.Select(context.Background(), url.Values{"q": {"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `q="x"`)
}

func TestStaticTransport_FailWith(t *testing.T) {
	boom := errors.New("connection refused")
	tr := NewStaticTransport("{}").FailWith(boom)

	_, err := tr.Select(context.Background(), url.Values{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, tr.Calls())
}

func TestStaticTransport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticTransport("{}").Select(ctx, url.Values{})
	require.ErrorIs(t, err, context.Canceled)
}
