package apikit

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// singleGroup tracks in-flight SingleGet requests keyed by normalized URL.
// A new request for a key cancels the previous one, so only the latest
// request per URL survives.
type singleGroup struct {
	mu      sync.Mutex
	pending map[string]*pendingGet
	cache   *gocache.Cache
	ttl     time.Duration
}

type pendingGet struct {
	cancel context.CancelFunc
}

func newSingleGroup(ttl time.Duration) *singleGroup {
	g := &singleGroup{
		pending: make(map[string]*pendingGet),
		ttl:     ttl,
	}
	if ttl > 0 {
		g.cache = gocache.New(ttl, 2*ttl)
	}
	return g
}

// SingleGet issues a GET request deduplicated by URL: any still-pending
// SingleGet for the same path and params is cancelled first. When the
// client was built with WithSingleTTL, successful responses are answered
// from memory for the TTL window.
func (c *Client) SingleGet(ctx context.Context, path string, params map[string]string) (*Response, error) {
	key := singleKey(path, params)

	if c.single.cache != nil {
		if v, found := c.single.cache.Get(key); found {
			c.log.Debug().Str("key", key).Msg("SingleGet served from cache")
			return v.(*Response), nil
		}
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := &pendingGet{cancel: cancel}

	c.single.mu.Lock()
	if prev, ok := c.single.pending[key]; ok {
		c.log.Debug().Str("key", key).Msg("Superseding pending singleGet")
		prev.cancel()
	}
	c.single.pending[key] = p
	c.single.mu.Unlock()

	res, err := c.Do(cctx, Request{Method: http.MethodGet, Path: path, Params: params})

	c.single.mu.Lock()
	// A newer call may already own the key.
	if c.single.pending[key] == p {
		delete(c.single.pending, key)
	}
	c.single.mu.Unlock()

	if err == nil && c.single.cache != nil {
		c.single.cache.Set(key, res, gocache.DefaultExpiration)
	}

	return res, err
}

// singleKey normalizes path plus params into a stable dedup key.
func singleKey(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
