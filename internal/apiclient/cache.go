package apiclient

import (
	"context"
	"encoding/json"
	"sync"
)

// Status is the lifecycle state of a cached query.
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

// Result is one settled (or pending) outcome of a query, delivered to
// every subscriber of the same key.
type Result struct {
	Status Status
	Data   json.RawMessage
	Err    error
}

// FetchFunc performs the network call for a query key.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Cache is a normalized request cache keyed by endpoint plus serialized
// arguments. Identical in-flight queries are deduplicated into a single
// network call, and mutations invalidate queries by tag: subscribed
// queries refetch, unsubscribed ones are evicted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	key   string
	tags  map[string]struct{}
	fetch FetchFunc

	// inflight is non-nil while a fetch runs and is closed when it
	// settles; waiters block on it instead of issuing their own call.
	inflight chan struct{}
	// refetchQueued marks an invalidation that arrived mid-flight.
	refetchQueued bool
	// discard marks a mid-flight invalidation with no subscribers; the
	// running fetch still resolves its waiters but the entry is evicted
	// instead of cached.
	discard bool

	settled bool
	result  Result

	subs map[*Subscription]struct{}
}

// Subscription delivers results for one query key to a mounted consumer.
type Subscription struct {
	cache   *Cache
	key     string
	updates chan Result
	once    sync.Once
}

// NewCache creates an empty query cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]*entry{}}
}

// Fetch resolves a query, reusing a cached value or an in-flight call for
// the same key. Concurrent callers with the same key share one network
// call and receive the same resolved bytes.
func (c *Cache) Fetch(ctx context.Context, key string, tags []string, fetch FetchFunc) (json.RawMessage, error) {
	c.mu.Lock()
	e := c.ensureEntry(key, tags, fetch)

	if e.settled && e.inflight == nil {
		res := e.result
		c.mu.Unlock()
		return res.Data, res.Err
	}

	if e.inflight != nil {
		wait := e.inflight
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
		res := e.result
		c.mu.Unlock()
		return res.Data, res.Err
	}

	// This caller leads the fetch.
	done := make(chan struct{})
	e.inflight = done
	c.mu.Unlock()

	c.runFetch(ctx, e, done)

	c.mu.Lock()
	res := e.result
	c.mu.Unlock()
	return res.Data, res.Err
}

// Subscribe registers a consumer for a query key. The initial result and
// every refetch triggered by invalidation arrive on Updates, each refetch
// preceded by a Loading notification. Subscription fetches are detached
// from any caller context and run until they settle; Close the
// subscription when the consumer unmounts.
func (c *Cache) Subscribe(key string, tags []string, fetch FetchFunc) *Subscription {
	sub := &Subscription{
		cache:   c,
		key:     key,
		updates: make(chan Result, 16),
	}

	c.mu.Lock()
	e := c.ensureEntry(key, tags, fetch)
	e.subs[sub] = struct{}{}

	if e.settled && e.inflight == nil {
		sub.push(e.result)
		c.mu.Unlock()
		return sub
	}

	sub.push(Result{Status: StatusLoading})
	if e.inflight != nil {
		// The running fetch will notify all subscribers when it settles.
		c.mu.Unlock()
		return sub
	}

	done := make(chan struct{})
	e.inflight = done
	c.mu.Unlock()

	go c.runFetch(context.Background(), e, done)
	return sub
}

// Invalidate drops or refreshes every query carrying one of the tags.
// Queries with live subscribers refetch immediately; the rest are
// evicted so the next subscriber starts cold.
func (c *Cache) Invalidate(tags ...string) {
	tagSet := map[string]struct{}{}
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	c.mu.Lock()
	var refetch []*entry
	for key, e := range c.entries {
		if !e.hasAnyTag(tagSet) {
			continue
		}
		if len(e.subs) == 0 {
			if e.inflight == nil {
				delete(c.entries, key)
			} else {
				e.refetchQueued = false
				e.discard = true
			}
			continue
		}
		if e.inflight != nil {
			e.refetchQueued = true
			continue
		}
		done := make(chan struct{})
		e.inflight = done
		for sub := range e.subs {
			sub.push(Result{Status: StatusLoading})
		}
		refetch = append(refetch, e)
	}
	c.mu.Unlock()

	for _, e := range refetch {
		e := e
		go c.runFetch(context.Background(), e, e.inflight)
	}
}

// runFetch executes the entry's fetch, settles the result and notifies
// subscribers. Queued invalidations chain a follow-up fetch.
func (c *Cache) runFetch(ctx context.Context, e *entry, done chan struct{}) {
	data, err := e.fetch(ctx)

	res := Result{Status: StatusSuccess, Data: data}
	if err != nil {
		res = Result{Status: StatusError, Err: err}
	}

	c.mu.Lock()
	e.result = res
	e.settled = true
	e.inflight = nil
	for sub := range e.subs {
		sub.push(res)
	}
	again := (e.refetchQueued || e.discard) && len(e.subs) > 0
	if e.discard && len(e.subs) == 0 {
		// Invalidated mid-flight with nobody subscribed: waiters on this
		// flight get the result above, but the entry is evicted so the
		// next Fetch starts cold.
		if cur, ok := c.entries[e.key]; ok && cur == e {
			delete(c.entries, e.key)
		}
	}
	e.refetchQueued = false
	e.discard = false
	if again {
		next := make(chan struct{})
		e.inflight = next
		for sub := range e.subs {
			sub.push(Result{Status: StatusLoading})
		}
		c.mu.Unlock()
		close(done)
		go c.runFetch(context.Background(), e, next)
		return
	}
	c.mu.Unlock()
	close(done)
}

func (c *Cache) ensureEntry(key string, tags []string, fetch FetchFunc) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:   key,
			tags:  map[string]struct{}{},
			fetch: fetch,
			subs:  map[*Subscription]struct{}{},
		}
		c.entries[key] = e
	}
	for _, t := range tags {
		e.tags[t] = struct{}{}
	}
	return e
}

func (e *entry) hasAnyTag(tags map[string]struct{}) bool {
	for t := range tags {
		if _, ok := e.tags[t]; ok {
			return true
		}
	}
	return false
}

// Updates is the stream of results for the subscribed query.
func (s *Subscription) Updates() <-chan Result {
	return s.updates
}

// Close detaches the subscription. Cached data stays until an
// invalidation finds the key without subscribers.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cache.mu.Lock()
		if e, ok := s.cache.entries[s.key]; ok {
			delete(e.subs, s)
		}
		s.cache.mu.Unlock()
	})
}

// push delivers without blocking; a consumer that stopped draining loses
// the oldest pending notification, never the newest.
func (s *Subscription) push(r Result) {
	for {
		select {
		case s.updates <- r:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}
