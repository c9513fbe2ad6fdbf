package reputation

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// FeedSource yields a plain text list of IPs or CIDRs, one per line.
//
//go:generate mockery --name=FeedSource --dir=. --output=./mocks --filename=feed_source_mock.go --case=underscore --with-expecter
type FeedSource interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

type FeedConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
	Path string `mapstructure:"path"`
}

var feedLine = regexp.MustCompile(`^\s*([0-9A-Fa-f:.]+(?:/\d{1,3})?)`)

type httpFeed struct {
	name   string
	url    string
	client httpx.Client
}

func NewHTTPFeed(name, url string, client httpx.Client) FeedSource {
	return &httpFeed{name: name, url: url, client: client}
}

func (f *httpFeed) Name() string { return f.name }

func (f *httpFeed) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := f.client.Do(ctx, &httpx.Request{Method: http.MethodGet, URL: f.url})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: status %d", f.name, resp.StatusCode)
	}
	return resp.Body, nil
}

type fileFeed struct {
	name string
	path string
}

func NewFileFeed(name, path string) FeedSource {
	return &fileFeed{name: name, path: path}
}

func (f *fileFeed) Name() string { return f.name }

func (f *fileFeed) Fetch(context.Context) ([]byte, error) {
	return os.ReadFile(f.path)
}

// SourcesFromConfig builds one source per configured feed. Entries with a
// URL are fetched over HTTP, the rest are read from disk.
func SourcesFromConfig(cfgs []FeedConfig, client httpx.Client) []FeedSource {
	sources := make([]FeedSource, 0, len(cfgs))
	for _, c := range cfgs {
		switch {
		case c.URL != "":
			sources = append(sources, NewHTTPFeed(c.Name, c.URL, client))
		case c.Path != "":
			sources = append(sources, NewFileFeed(c.Name, c.Path))
		}
	}
	return sources
}

type feedIndex struct {
	names    []string
	prefixes [][]netip.Prefix
}

// FeedSet holds the most recently fetched copy of every feed.
type FeedSet struct {
	sources []FeedSource
	logger  *logrus.Logger
	index   atomic.Pointer[feedIndex]
	group   singleflight.Group

	mu   sync.Mutex
	last map[string][]netip.Prefix
}

func NewFeedSet(sources []FeedSource, logger *logrus.Logger) *FeedSet {
	fs := &FeedSet{
		sources: sources,
		logger:  logger,
		last:    make(map[string][]netip.Prefix),
	}
	fs.index.Store(&feedIndex{})
	return fs
}

// Refresh re-pulls every feed. A failing feed keeps its previous entries.
// Concurrent callers share a single refresh. It returns the number of
// entries now loaded and the first fetch error, if any.
func (fs *FeedSet) Refresh(ctx context.Context) (int, error) {
	v, err, _ := fs.group.Do("refresh", func() (interface{}, error) {
		return fs.refresh(ctx)
	})
	n, _ := v.(int)
	return n, err
}

func (fs *FeedSet) refresh(ctx context.Context) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var firstErr error
	for _, src := range fs.sources {
		body, err := src.Fetch(ctx)
		if err != nil {
			fs.logger.WithError(err).WithField("feed", src.Name()).Warn("threat feed refresh failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("feed %s: %w", src.Name(), err)
			}
			continue
		}
		prefixes := ParseFeed(body)
		fs.last[src.Name()] = prefixes
		fs.logger.WithFields(logrus.Fields{
			"feed":    src.Name(),
			"entries": len(prefixes),
		}).Info("threat feed refreshed")
	}

	idx := &feedIndex{}
	total := 0
	for _, src := range fs.sources {
		p, ok := fs.last[src.Name()]
		if !ok {
			continue
		}
		idx.names = append(idx.names, src.Name())
		idx.prefixes = append(idx.prefixes, p)
		total += len(p)
	}
	fs.index.Store(idx)
	return total, firstErr
}

// Match returns the names of every feed listing ip.
func (fs *FeedSet) Match(ip string) []string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil
	}
	addr = addr.Unmap()
	idx := fs.index.Load()
	var hits []string
	for i, prefixes := range idx.prefixes {
		for _, p := range prefixes {
			if p.Contains(addr) {
				hits = append(hits, idx.names[i])
				break
			}
		}
	}
	return hits
}

func (fs *FeedSet) Len() int {
	idx := fs.index.Load()
	n := 0
	for _, p := range idx.prefixes {
		n += len(p)
	}
	return n
}

// ParseFeed extracts IPs and CIDRs from a feed body, skipping comments and
// anything it cannot parse.
func ParseFeed(body []byte) []netip.Prefix {
	var out []netip.Prefix
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}
		m := feedLine.FindSubmatch(line)
		if m == nil {
			continue
		}
		token := string(m[1])
		if bytes.IndexByte(m[1], '/') >= 0 {
			if p, err := netip.ParsePrefix(token); err == nil {
				out = append(out, p.Masked())
			}
			continue
		}
		if a, err := netip.ParseAddr(token); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}
