package leaselock

import (
	"context"
	"sync"
)

// Local is an in-process Locker. Leases never expire, so TTL and renewal
// options are ignored; Wait false still fails fast with ErrBusy.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

var _ Locker = (*Local)(nil)

func NewLocal() *Local {
	return &Local{held: map[string]chan struct{}{}}
}

func (l *Local) acquire(ctx context.Context, tag string, wait bool) (func(), error) {
	for {
		l.mu.Lock()
		ch, busy := l.held[tag]
		if !busy {
			ch = make(chan struct{})
			l.held[tag] = ch
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, tag)
				l.mu.Unlock()
				close(ch)
			}, nil
		}
		l.mu.Unlock()

		if !wait {
			return nil, ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
	}
}

func (l *Local) WithLease(ctx context.Context, tag string, opts Options, fn func(ctx context.Context) error) error {
	if tag == "" {
		return ErrNoTag
	}
	release, err := l.acquire(ctx, tag, opts.Wait)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
