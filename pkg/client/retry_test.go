package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

func TestRetryWithBackoff_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), "query", func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("retryWithBackoff() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	clientErr := &googleapi.Error{Code: 404, Message: "not found"}

	err := retryWithBackoff(context.Background(), "query", func() error {
		calls++
		return clientErr
	})

	if !errors.Is(err, clientErr) {
		t.Fatalf("retryWithBackoff() error = %v, want %v", err, clientErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("client errors must not be reported as retry exhaustion")
	}
}

func TestRetryWithBackoff_ServerErrorRetriedUntilSuccess(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), "query", func() error {
		calls++
		if calls == 1 {
			return &googleapi.Error{Code: 503, Message: "unavailable"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("retryWithBackoff() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryWithBackoff_Exhaustion(t *testing.T) {
	calls := 0
	serverErr := &googleapi.Error{Code: 500, Message: "backend error"}

	err := retryWithBackoff(context.Background(), "query", func() error {
		calls++
		return serverErr
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("retryWithBackoff() error = %v, want ErrRetryExhausted", err)
	}
	if !errors.Is(err, serverErr) {
		t.Error("final error should preserve the last underlying error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (max attempts)", calls)
	}
}

func TestRetryWithBackoff_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- retryWithBackoff(ctx, "query", func() error {
			calls++
			return &googleapi.Error{Code: 500}
		})
	}()

	// Let the first attempt fail and enter backoff, then cancel.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrContextCancelled) {
			t.Errorf("retryWithBackoff() error = %v, want ErrContextCancelled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retryWithBackoff did not return after cancellation")
	}
}
