// Package leaselock serializes work on a graph tag across processes with an
// expiring lease row in Postgres. Local provides the same contract inside
// one process for deployments without Postgres.
package leaselock

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrBusy  = errors.New("graph lease busy")
	ErrLost  = errors.New("graph lease lost")
	ErrNoTag = errors.New("graph lease needs a tag")
)

const (
	renewTries          = 3
	defaultTTL          = 5 * time.Minute
	defaultWaitInterval = 250 * time.Millisecond
	renewTimeout        = 15 * time.Second
	renewBackoff        = 200 * time.Millisecond
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Locker runs fn while holding the lease of a graph tag. fn receives a
// context that is canceled when the lease is lost.
type Locker interface {
	WithLease(ctx context.Context, tag string, opts Options, fn func(ctx context.Context) error) error
}

// Options tune lease acquisition. Holder names the job taking the lease,
// e.g. "merge" or "delete", and shows up in the lease token. Zero durations
// fall back to a five minute TTL renewed at half its length and a 250ms
// wait interval.
type Options struct {
	Holder string

	TTL        time.Duration
	RenewEvery time.Duration

	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration
}

// GraphOptions returns options for holder that wait for a busy tag and
// renew the lease at half of ttl.
func GraphOptions(holder string, ttl time.Duration) Options {
	return Options{Holder: holder, TTL: ttl, RenewEvery: ttl / 2, Wait: true}
}

func (o Options) normalized() Options {
	if o.TTL <= 0 || o.TTL.Milliseconds() <= 0 {
		o.TTL = defaultTTL
	}
	if o.RenewEvery <= 0 || o.RenewEvery >= o.TTL {
		o.RenewEvery = max(o.TTL/2, time.Second)
	}
	if o.WaitInterval <= 0 {
		o.WaitInterval = defaultWaitInterval
	}
	o.WaitJitter = max(o.WaitJitter, 0)
	return o
}

// token identifies one lease of tag as "<holder>/<tag>/<id>".
func (o Options) token(tag string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	holder := o.Holder
	if holder == "" {
		holder = "lease"
	}
	return holder + "/" + tag + "/" + id, nil
}

// Client acquires leases stored in the graph_leases table.
type Client struct {
	db dbConn
}

var _ Locker = (*Client)(nil)

// Lease is a held graph lease. Context is canceled once the lease is
// released or lost.
type Lease struct {
	Tag   string
	Token string

	Context context.Context

	client *Client
	ttlMs  int64
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a Client on pool. The graph_leases table is created by the
// graph store migrations.
func New(pool *pgxpool.Pool) *Client {
	return &Client{db: pool}
}

func (c *Client) WithLease(ctx context.Context, tag string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, tag, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	return fn(lease.Context)
}

// Acquire takes the lease of tag. Without opts.Wait a held lease fails with
// ErrBusy; with it Acquire polls until the lease is free or ctx ends.
func (c *Client) Acquire(ctx context.Context, tag string, opts Options) (*Lease, error) {
	if tag == "" {
		return nil, ErrNoTag
	}
	opts = opts.normalized()
	token, err := opts.token(tag)
	if err != nil {
		return nil, err
	}
	ttlMs := opts.TTL.Milliseconds()

	for {
		ok, err := c.tryAcquire(ctx, tag, token, ttlMs)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Tag:     tag,
		Token:   token,
		Context: leaseCtx,
		client:  c,
		ttlMs:   ttlMs,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}
	go l.renewLoop(opts.RenewEvery)

	return l, nil
}

func (c *Client) tryAcquire(ctx context.Context, tag, token string, ttlMs int64) (bool, error) {
	var got string
	err := c.db.QueryRow(ctx, tryAcquireSQL, tag, token, ttlMs).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return got != "", nil
}

// Release stops renewal and deletes the lease row if it is still ours.
func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.Exec(ctx, releaseSQL, l.Tag, l.Token)
	return err
}

func (l *Lease) renewLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renew(); err != nil {
				logger.Warn("[Lease] renewal failed, canceling holder", "graph_tag", l.Tag, "token", l.Token, "err", err)
				l.cancel(err)
				return
			}
		}
	}
}

// renew extends the lease, retrying transient errors. A missing row means
// another holder took over the tag.
func (l *Lease) renew() error {
	var err error
	for attempt := range renewTries {
		if attempt > 0 {
			if serr := sleepWithJitter(l.Context, renewBackoff, 0); serr != nil {
				return serr
			}
		}
		ctx, cancel := context.WithTimeout(l.Context, renewTimeout)
		var got string
		err = l.client.db.QueryRow(ctx, renewSQL, l.Tag, l.Token, l.ttlMs).Scan(&got)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
	}
	return err
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// An expired lease, or one already held by the same token, is taken over.
const tryAcquireSQL = `
INSERT INTO graph_leases (graph_tag, holder, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (graph_tag) DO UPDATE
SET holder     = EXCLUDED.holder,
    expires_at = EXCLUDED.expires_at
WHERE graph_leases.expires_at < now()
   OR graph_leases.holder = EXCLUDED.holder
RETURNING graph_tag;
`

const renewSQL = `
UPDATE graph_leases
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE graph_tag = $1 AND holder = $2
RETURNING graph_tag;
`

const releaseSQL = `
DELETE FROM graph_leases
WHERE graph_tag = $1 AND holder = $2;
`
