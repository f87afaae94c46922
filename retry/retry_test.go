package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mitchcodes/datautils/backoff"
	"github.com/mitchcodes/datautils/retry"
)

var errFlaky = errors.New("flaky")

// failing returns an operation that fails n times before succeeding.
func failing(n int, calls *int) func() (string, error) {
	return func() (string, error) {
		*calls++
		if *calls <= n {
			return "", errFlaky
		}
		return "ok", nil
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := retry.Do(retry.Policy{MaxAttempts: 3}, "fetch", failing(2, &calls))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustedReturnsLastError(t *testing.T) {
	calls := 0
	_, err := retry.Do(retry.Policy{MaxAttempts: 3}, "fetch", failing(100, &calls))
	if !errors.Is(err, errFlaky) {
		t.Errorf("err = %v, want errFlaky", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustedUsesFallback(t *testing.T) {
	calls := 0
	var gotErr error
	var gotOp string
	p := retry.Policy{
		MaxAttempts: 3,
		OnExhausted: func(err error, op string) (any, error) {
			gotErr, gotOp = err, op
			return "fallback", nil
		},
	}

	got, err := retry.Do(p, "fetch", failing(100, &calls))
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(gotErr, errFlaky) || gotOp != "fetch" {
		t.Errorf("OnExhausted(%v, %q)", gotErr, gotOp)
	}
}

func TestDo_FallbackCanReturnError(t *testing.T) {
	replaced := errors.New("replaced")
	p := retry.Policy{
		MaxAttempts: 2,
		OnExhausted: func(error, string) (any, error) { return nil, replaced },
	}
	calls := 0
	if _, err := retry.Do(p, "op", failing(5, &calls)); !errors.Is(err, replaced) {
		t.Errorf("err = %v, want replaced", err)
	}
}

func TestDo_FallbackNilGivesZero(t *testing.T) {
	p := retry.Policy{
		MaxAttempts: 2,
		OnExhausted: func(error, string) (any, error) { return nil, nil },
	}
	got, err := retry.Do(p, "count", func() (int, error) { return 7, errFlaky })
	if err != nil || got != 0 {
		t.Errorf("got (%d, %v), want (0, nil)", got, err)
	}
}

func TestDo_FallbackWrongType(t *testing.T) {
	p := retry.Policy{
		MaxAttempts: 1,
		OnExhausted: func(error, string) (any, error) { return 42, nil },
	}
	_, err := retry.Do(p, "name", func() (string, error) { return "", errFlaky })
	if err == nil || !errors.Is(err, errFlaky) {
		t.Errorf("err = %v, want a type error wrapping errFlaky", err)
	}
}

func TestDo_SingleAttemptBoundary(t *testing.T) {
	for _, maxAttempts := range []int{-1, 0, 1} {
		calls := 0
		_, err := retry.Do(retry.Policy{MaxAttempts: maxAttempts}, "op", failing(100, &calls))
		if !errors.Is(err, errFlaky) {
			t.Errorf("MaxAttempts=%d: err = %v", maxAttempts, err)
		}
		if calls != 1 {
			t.Errorf("MaxAttempts=%d: calls = %d, want 1", maxAttempts, calls)
		}
	}
}

func TestDo_OnEachError(t *testing.T) {
	var seen []error
	p := retry.Policy{
		MaxAttempts: 4,
		OnEachError: func(err error) { seen = append(seen, err) },
	}
	calls := 0
	if _, err := retry.Do(p, "op", failing(2, &calls)); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Errorf("OnEachError called %d times, want 2", len(seen))
	}
}

func TestDo_CountersArePerCall(t *testing.T) {
	p := retry.Policy{MaxAttempts: 2}
	for i := range 3 {
		calls := 0
		if _, err := retry.Do(p, "op", failing(1, &calls)); err != nil {
			t.Errorf("call %d: %v", i, err)
		}
	}
}

func TestDo_RecoversPanic(t *testing.T) {
	calls := 0
	got, err := retry.Do(retry.Policy{MaxAttempts: 2}, "op", func() (string, error) {
		calls++
		if calls == 1 {
			panic("first attempt explodes")
		}
		return "second", nil
	})
	if err != nil || got != "second" {
		t.Errorf("got (%q, %v)", got, err)
	}

	_, err = retry.Do(retry.Policy{}, "op", func() (string, error) { panic("always") })
	if err == nil || err.Error() != "always" {
		t.Errorf("err = %v, want panic value as error", err)
	}
}

func TestDo_Backoff(t *testing.T) {
	calls := 0
	start := time.Now()
	p := retry.Policy{MaxAttempts: 3, Backoff: backoff.Constant(15 * time.Millisecond)}
	if _, err := retry.Do(p, "op", failing(2, &calls)); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("elapsed %v, want >= 30ms with two pauses", elapsed)
	}
}

func TestDoContext_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := retry.DoContext(context.Background(), retry.Policy{MaxAttempts: 3}, "fetch",
		func(context.Context) (string, error) { return failing(2, &calls)() })
	if err != nil || got != "ok" || calls != 3 {
		t.Errorf("got (%q, %v) after %d calls", got, err, calls)
	}
}

func TestDoContext_ExhaustedWithAndWithoutFallback(t *testing.T) {
	alwaysFail := func(context.Context) (int, error) { return 0, errFlaky }

	if _, err := retry.DoContext(context.Background(), retry.Policy{MaxAttempts: 3}, "op", alwaysFail); !errors.Is(err, errFlaky) {
		t.Errorf("without fallback: err = %v", err)
	}

	p := retry.Policy{
		MaxAttempts: 3,
		OnExhausted: func(error, string) (any, error) { return -1, nil },
	}
	got, err := retry.DoContext(context.Background(), p, "op", alwaysFail)
	if err != nil || got != -1 {
		t.Errorf("with fallback: got (%d, %v), want (-1, nil)", got, err)
	}
}

func TestDoContext_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := retry.Policy{MaxAttempts: 10, Backoff: backoff.Constant(time.Hour)}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := retry.DoContext(ctx, p, "op", func(context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, errFlaky) {
		t.Errorf("err = %v, want Canceled joined with errFlaky", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
