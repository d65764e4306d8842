package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/ledger"
)

// CreateFunc builds the ledger client for a key. It performs network state
// sync and is expensive; the cache guarantees it runs at most once per key
// across all concurrent callers.
type CreateFunc func(ctx context.Context, key Key) (ledger.Client, error)

// CreationError wraps a failed client creation. Every caller awaiting the
// same creation attempt receives the same CreationError; the cache entry is
// removed so a later call can retry.
type CreationError struct {
	Key Key
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("session creation for %s failed: %v", e.Key.Fingerprint(), e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// entry is one cache slot. Until done is closed the slot is pending and
// carries neither session nor error; afterwards exactly one of sess/err is
// set and never changes.
type entry struct {
	done chan struct{}
	sess *Session
	err  error
}

// Cache is the keyed session registry. The mutex guards only the map; it is
// never held across client creation, so a slow creation for one key cannot
// delay lookups or creations for any other key.
type Cache struct {
	create  CreateFunc
	timeout time.Duration
	log     *logrus.Entry

	mu      sync.Mutex
	entries map[Key]*entry
}

// NewCache builds a session cache around the given creation routine.
// timeout bounds each creation attempt; zero means no bound.
func NewCache(create CreateFunc, timeout time.Duration, log *logrus.Entry) *Cache {
	return &Cache{
		create:  create,
		timeout: timeout,
		log:     log,
		entries: make(map[Key]*entry),
	}
}

// GetOrCreate returns the session for key, creating it if needed. Concurrent
// callers for the same key share one creation attempt and one resulting
// session or error. ctx cancellation abandons the caller's wait only: the
// creation itself runs to completion because other callers may be awaiting it.
func (c *Cache) GetOrCreate(ctx context.Context, key Key) (*Session, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return c.await(ctx, e)
	}

	e := &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	go c.runCreate(key, e)

	return c.await(ctx, e)
}

// runCreate performs the expensive creation outside any lock and publishes
// the outcome. It is deliberately detached from every caller's context.
func (c *Cache) runCreate(key Key, e *entry) {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	client, err := c.create(ctx, key)

	c.mu.Lock()
	if err != nil {
		delete(c.entries, key)
		e.err = &CreationError{Key: key, Err: err}
	} else {
		e.sess = &Session{key: key, client: client, createdAt: time.Now()}
	}
	close(e.done)
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).WithField("key", key.Fingerprint()).Warn("session creation failed")
	} else {
		c.log.WithFields(logrus.Fields{
			"key":     key.Fingerprint(),
			"took_ms": time.Since(start).Milliseconds(),
		}).Info("session created")
	}
}

// await blocks until the slot resolves or the caller's context is done.
func (c *Cache) await(ctx context.Context, e *entry) (*Session, error) {
	select {
	case <-e.done:
		return e.sess, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Evict removes the session for key, if present and resolved. A pending
// creation is left alone so its waiters resolve normally. Returns whether
// an entry was removed.
func (c *Cache) Evict(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	select {
	case <-e.done:
	default:
		return false
	}

	delete(c.entries, key)
	if e.sess != nil {
		_ = e.sess.client.Close()
	}
	return true
}

// Flush drops every resolved session and returns how many were dropped.
// Pending creations survive a flush for the same reason they survive Evict.
func (c *Cache) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key, e := range c.entries {
		select {
		case <-e.done:
		default:
			continue
		}
		delete(c.entries, key)
		if e.sess != nil {
			_ = e.sess.client.Close()
		}
		dropped++
	}
	return dropped
}

// Len returns the number of cache slots, pending ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
