package util

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestRetryWithBackoff_EscalatingDelays(t *testing.T) {
	rec := &recordingSleeper{}
	calls := 0
	res, attempts, err := RetryWithBackoff(context.Background(), Backoff{
		MaxTries:  3,
		BaseDelay: time.Second,
		Sleep:     rec.sleep,
	}, func(ctx context.Context, attempt int) (string, error) {
		calls++
		if attempt < 2 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res != "ok" || attempts != 3 || calls != 3 {
		t.Fatalf("got res=%q attempts=%d calls=%d", res, attempts, calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if !reflect.DeepEqual(rec.delays, want) {
		t.Fatalf("expected delays %v, got %v", want, rec.delays)
	}
}

func TestRetryWithBackoff_ExtraDelay(t *testing.T) {
	rec := &recordingSleeper{}
	_, attempts, err := RetryWithBackoff(context.Background(), Backoff{
		MaxTries:  3,
		BaseDelay: 10 * time.Millisecond,
		Sleep:     rec.sleep,
		Extra: func(err error, attempt int) time.Duration {
			if strings.Contains(err.Error(), "429") {
				return time.Duration(attempt+1) * time.Second
			}
			return 0
		},
	}, func(ctx context.Context, attempt int) (int, error) {
		return 0, errors.New("status 429")
	})
	if err == nil || err.Error() != "status 429" {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	want := []time.Duration{
		10*time.Millisecond + time.Second,
		20*time.Millisecond + 2*time.Second,
	}
	if !reflect.DeepEqual(rec.delays, want) {
		t.Fatalf("expected delays %v, got %v", want, rec.delays)
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, _, err := RetryWithBackoff(ctx, Backoff{
		MaxTries: 5,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_DoesNotRetryContextErrors(t *testing.T) {
	calls := 0
	_, _, err := RetryWithBackoff(context.Background(), Backoff{MaxTries: 3, Sleep: (&recordingSleeper{}).sleep},
		func(ctx context.Context, attempt int) (int, error) {
			calls++
			return 0, context.DeadlineExceeded
		})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
