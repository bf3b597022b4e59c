package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		MinDelay:    time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestDo_PermanentFailsImmediately(t *testing.T) {
	exec := New(fastPolicy(5), nil)
	calls := 0
	_, err := exec.Do(context.Background(), func() (interface{}, error) {
		calls++
		return nil, MarkPermanent(errors.New("bad request"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("permanent error consumed %d attempts, want 1", calls)
	}
}

func TestDo_TransientRetriesUpToBudget(t *testing.T) {
	exec := New(fastPolicy(5), nil)
	calls := 0
	_, err := exec.Do(context.Background(), func() (interface{}, error) {
		calls++
		return nil, MarkTransient(errors.New("rate limited"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 5 {
		t.Errorf("transient error consumed %d attempts, want 5", calls)
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	exec := New(fastPolicy(5), nil)
	calls := 0
	res, err := exec.Do(context.Background(), func() (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, MarkTransient(errors.New("unavailable"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if res.(string) != "ok" {
		t.Errorf("Do() = %v, want ok", res)
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3", calls)
	}
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	exec := New(Policy{MaxAttempts: 5, MinDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := exec.Do(ctx, func() (interface{}, error) {
		return nil, MarkTransient(errors.New("unavailable"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestDelay_RespectsBounds(t *testing.T) {
	p := Policy{MaxAttempts: 5, MinDelay: 4 * time.Millisecond, MaxDelay: 60 * time.Millisecond, Multiplier: 2, Jitter: 0.25}
	exec := New(p, nil)
	for attempt := 1; attempt < 10; attempt++ {
		d := exec.delay(attempt)
		if d < p.MinDelay {
			t.Errorf("attempt %d: delay %v below minimum %v", attempt, d, p.MinDelay)
		}
		if d > p.MaxDelay {
			t.Errorf("attempt %d: delay %v above maximum %v", attempt, d, p.MaxDelay)
		}
	}
}

func TestDefaultClassifier(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Class
	}{
		{"marked transient", MarkTransient(errors.New("x")), Transient},
		{"marked permanent", MarkPermanent(errors.New("x")), Permanent},
		{"wrapped transient", errors.Join(errors.New("outer"), MarkTransient(errors.New("x"))), Transient},
		{"deadline exceeded", context.DeadlineExceeded, Transient},
		{"plain error", errors.New("parse failure"), Permanent},
	}
	for _, tc := range cases {
		if got := DefaultClassifier(tc.err); got != tc.want {
			t.Errorf("%s: DefaultClassifier() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
