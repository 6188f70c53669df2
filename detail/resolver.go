package detail

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/posts"
)

// Status of an on-demand post.
type Status int

const (
	Pending Status = iota
	Resolved
	NotFound
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not_found"
	default:
		return "pending"
	}
}

// Snapshot persists resolved posts across restarts. LoadPost returns
// ErrNotFound when nothing is stored.
type Snapshot interface {
	LoadPost(uid string) (posts.Detail, time.Time, error)
	SavePost(d posts.Detail) error
	DeletePost(uid string) error
}

// Logger is satisfied by echo.Logger and gommon's log.Logger.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Snapshot   Snapshot      // optional
	TTL        time.Duration // how long a resolution is reused, default 5min
	Timeout    time.Duration // per background resolution, default 10s
	MaxEntries int           // UIDs held in memory, default 1024
	Logger     Logger        // optional
}

// Result is a resolver answer. Err is set for transient failures, which
// keep the post Pending so the next lookup retries.
type Result struct {
	Status Status
	Post   posts.Detail
	Err    error
}

type entry struct {
	result     Result
	resolvedAt time.Time
	inFlight   bool
}

// Resolver materializes posts lazily. The first lookup of an unknown UID
// starts a background fetch and reports Pending; later lookups see Resolved
// or NotFound. Concurrent fetches of one UID are collapsed, and at most
// MaxEntries UIDs are remembered, least recently used first out.
type Resolver struct {
	src         Source
	opts        ResolverOptions
	group       singleflight.Group
	mu          sync.Mutex
	entries     *lru.Cache[string, *entry]
	staleBefore time.Time
	wg          sync.WaitGroup
}

// NewResolver returns a Resolver reading from src.
func NewResolver(src Source, opts ResolverOptions) *Resolver {
	if opts.TTL == 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 1024
	}
	entries, err := lru.New[string, *entry](opts.MaxEntries)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Resolver{src: src, opts: opts, entries: entries}
}

// Lookup returns the current state of uid without blocking on the network.
// Stale resolved posts are served while a refresh runs in the background.
func (r *Resolver) Lookup(uid string) Result {
	r.mu.Lock()
	e, ok := r.entries.Get(uid)
	if !ok && r.opts.Snapshot != nil {
		if d, at, err := r.opts.Snapshot.LoadPost(uid); err == nil {
			e = &entry{result: Result{Status: Resolved, Post: d}, resolvedAt: at}
			r.entries.Add(uid, e)
			ok = true
		}
	}
	if !ok {
		e = &entry{result: Result{Status: Pending}}
		r.entries.Add(uid, e)
	}
	res := e.result
	fresh := e.result.Err == nil && e.result.Status != Pending &&
		e.resolvedAt.After(r.staleBefore) && time.Since(e.resolvedAt) < r.opts.TTL
	start := !fresh && !e.inFlight
	if start {
		e.inFlight = true
	}
	r.mu.Unlock()

	if start {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
			defer cancel()
			r.Resolve(ctx, uid)
		}()
	}
	if res.Err != nil {
		// A failed attempt is retried; until then the page keeps loading.
		res = Result{Status: Pending, Err: res.Err}
	}
	return res
}

// Resolve fetches uid now and records the outcome.
func (r *Resolver) Resolve(ctx context.Context, uid string) Result {
	v, _, _ := r.group.Do(uid, func() (interface{}, error) {
		d, err := Fetch(ctx, r.src, uid)
		var res Result
		switch {
		case errors.Is(err, ErrNotFound):
			res = Result{Status: NotFound}
			if r.opts.Snapshot != nil {
				if err := r.opts.Snapshot.DeletePost(uid); err != nil && r.opts.Logger != nil {
					r.opts.Logger.Warnf("drop snapshot %s: %v", uid, err)
				}
			}
		case err != nil:
			res = Result{Status: Pending, Err: err}
			if r.opts.Logger != nil {
				r.opts.Logger.Warnf("resolve post %s: %v", uid, err)
			}
		default:
			res = Result{Status: Resolved, Post: d}
			if r.opts.Snapshot != nil {
				if err := r.opts.Snapshot.SavePost(d); err != nil && r.opts.Logger != nil {
					r.opts.Logger.Warnf("snapshot post %s: %v", uid, err)
				}
			}
		}
		r.record(uid, res)
		return res, nil
	})
	return v.(Result)
}

func (r *Resolver) record(uid string, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries.Peek(uid)
	if !ok {
		// Evicted while in flight. Only a found post is worth a slot.
		if res.Status != Resolved {
			return
		}
		e = &entry{}
		r.entries.Add(uid, e)
	}
	e.inFlight = false
	if res.Err != nil && e.result.Status == Resolved {
		// Keep serving the stale copy; the failure is only logged.
		return
	}
	e.result = res
	e.resolvedAt = time.Now()
}

// Warm resolves every uid synchronously, the way known routes are
// pre-rendered. Failures are left for on-demand retries.
func (r *Resolver) Warm(ctx context.Context, uids []string) (resolved int) {
	for _, uid := range uids {
		if ctx.Err() != nil {
			return resolved
		}
		if r.Resolve(ctx, uid).Status == Resolved {
			resolved++
		}
	}
	return resolved
}

// Known reports whether uid is held in memory, without touching its
// recency. Lookups of unknown UIDs cost a content request.
func (r *Resolver) Known(uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Contains(uid)
}

// Invalidate marks every remembered and snapshotted post stale. Lookups keep
// serving what they have while a refresh runs.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.staleBefore = time.Now()
	r.mu.Unlock()
}

// Wait blocks until background resolutions finish.
func (r *Resolver) Wait() {
	r.wg.Wait()
}
