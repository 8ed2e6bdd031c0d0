package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bisage.dev/gateway/common/llm"
)

type fakeClient struct {
	calls   int
	failN   int
	failErr error
}

func (f *fakeClient) Model() string { return "fake" }

func (f *fakeClient) Chat(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
	f.calls++
	if f.calls <= f.failN {
		return nil, f.failErr
	}
	return &llm.Response{}, nil
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	fake := &fakeClient{failN: 2, failErr: errors.New("transient network blip")}
	client := llm.WithRetry(fake)

	start := time.Now()
	_, err := client.Chat(context.Background(), llm.Request{}, &struct{}{})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 calls, got %d", fake.calls)
	}
	if elapsed < 2*time.Second {
		t.Errorf("expected backoff to have elapsed at least the base delay, took %v", elapsed)
	}
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	fake := &fakeClient{failN: 10, failErr: errors.New("always fails")}
	client := llm.WithRetry(fake)

	_, err := client.Chat(context.Background(), llm.Request{}, &struct{}{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if fake.calls != 3 {
		t.Errorf("expected exactly 3 attempts (default max), got %d", fake.calls)
	}
}

func TestWithRetry_ContextCancelledDuringBackoffStopsImmediately(t *testing.T) {
	fake := &fakeClient{failN: 10, failErr: errors.New("always fails")}
	client := llm.WithRetry(fake)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Chat(ctx, llm.Request{}, &struct{}{})
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("expected early exit on cancellation, took %v", elapsed)
	}
}
