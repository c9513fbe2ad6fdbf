package reputation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeed struct {
	name  string
	body  []byte
	err   error
	calls atomic.Int32
}

func (s *stubFeed) Name() string { return s.name }

func (s *stubFeed) Fetch(context.Context) ([]byte, error) {
	s.calls.Add(1)
	return s.body, s.err
}

func TestParseFeed(t *testing.T) {
	body := []byte(`# Spamhaus DROP
; comment
192.0.2.0/24 ; SBL123
198.51.100.7
2001:db8::/32
::ffff:203.0.113.5
garbage line
10.0.0.1/99
`)
	prefixes := ParseFeed(body)
	require.Len(t, prefixes, 4)
	assert.Equal(t, "192.0.2.0/24", prefixes[0].String())
	assert.Equal(t, "198.51.100.7/32", prefixes[1].String())
	assert.Equal(t, "2001:db8::/32", prefixes[2].String())
	assert.Equal(t, "203.0.113.5/32", prefixes[3].String())
}

func TestFeedSet_RefreshAndMatch(t *testing.T) {
	drop := &stubFeed{name: "drop", body: []byte("192.0.2.0/24\n")}
	tor := &stubFeed{name: "tor", body: []byte("192.0.2.10\n198.51.100.1\n")}
	fs := NewFeedSet([]FeedSource{drop, tor}, logger.Discard())

	assert.Empty(t, fs.Match("192.0.2.10"))

	n, err := fs.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, fs.Len())

	assert.Equal(t, []string{"drop", "tor"}, fs.Match("192.0.2.10"))
	assert.Equal(t, []string{"tor"}, fs.Match("198.51.100.1"))
	assert.Empty(t, fs.Match("203.0.113.1"))
	assert.Empty(t, fs.Match("bogus"))
}

func TestFeedSet_FailingFeedKeepsPreviousEntries(t *testing.T) {
	feed := &stubFeed{name: "drop", body: []byte("192.0.2.0/24\n")}
	fs := NewFeedSet([]FeedSource{feed}, logger.Discard())

	_, err := fs.Refresh(context.Background())
	require.NoError(t, err)

	feed.err = errors.New("502 bad gateway")
	n, err := fs.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"drop"}, fs.Match("192.0.2.44"))
}

func TestFeedSet_ConcurrentRefresh(t *testing.T) {
	feed := &stubFeed{name: "drop", body: []byte("192.0.2.0/24\n")}
	fs := NewFeedSet([]FeedSource{feed}, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = fs.Refresh(context.Background())
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, feed.calls.Load(), int32(1))
	assert.Equal(t, []string{"drop"}, fs.Match("192.0.2.1"))
}
