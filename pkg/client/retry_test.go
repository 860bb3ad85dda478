package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// recordSleeps replaces the backoff sleep with one that records delays and
// returns immediately.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()

	var delays []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })

	return &delays
}

func transportErr() error {
	return &APIError{Kind: KindTransport, Message: "request error", Err: errors.New("connection refused")}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 10*time.Second {
		t.Errorf("MaxBackoff = %v, want 10s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
	if config.Jitter != 0 {
		t.Errorf("Jitter = %v, want 0", config.Jitter)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	config := DefaultRetryConfig()

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := config.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	delays := recordSleeps(t)
	attempts := 0

	err := retryWithBackoff(context.Background(), zerolog.Nop(), DefaultRetryConfig(), retryTransport, func(int) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if len(*delays) != 0 {
		t.Errorf("delays = %v, want none", *delays)
	}
}

func TestRetryWithBackoff_SuccessOnThirdAttempt(t *testing.T) {
	delays := recordSleeps(t)
	attempts := 0

	err := retryWithBackoff(context.Background(), zerolog.Nop(), DefaultRetryConfig(), retryTransport, func(attempt int) error {
		attempts++
		if attempt != attempts {
			t.Errorf("attempt number = %d, want %d", attempt, attempts)
		}
		if attempts < 3 {
			return transportErr()
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("delays = %v, want %v", *delays, want)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], want[i])
		}
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	recordSleeps(t)
	attempts := 0

	err := retryWithBackoff(context.Background(), zerolog.Nop(), DefaultRetryConfig(), retryTransport, func(int) error {
		attempts++
		return transportErr()
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}
	if !IsTransport(err) {
		t.Errorf("error = %v, want the last transport error wrapped", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithBackoff_StatusErrorNoRetry(t *testing.T) {
	delays := recordSleeps(t)
	attempts := 0
	notFound := &APIError{StatusCode: 404, Kind: KindNotFound, Message: "Resource not found"}

	err := retryWithBackoff(context.Background(), zerolog.Nop(), DefaultRetryConfig(), retryTransport, func(int) error {
		attempts++
		return notFound
	})

	if err != notFound {
		t.Errorf("error = %v, want the 404 error unchanged", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if len(*delays) != 0 {
		t.Errorf("delays = %v, want none", *delays)
	}
}

func TestRetryWithBackoff_NeverRetry(t *testing.T) {
	recordSleeps(t)
	attempts := 0

	err := retryWithBackoff(context.Background(), zerolog.Nop(), DefaultRetryConfig(), neverRetry, func(int) error {
		attempts++
		return transportErr()
	})

	if errors.Is(err, ErrRetryExhausted) {
		t.Error("non-retried error should not report exhaustion")
	}
	if !IsTransport(err) {
		t.Errorf("error = %v, want transport error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recordSleeps(t)
	attempts := 0

	err := retryWithBackoff(ctx, zerolog.Nop(), DefaultRetryConfig(), retryTransport, func(int) error {
		attempts++
		return transportErr()
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("error = %v, want ErrContextCancelled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryWithBackoff_RealSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := retryWithBackoff(ctx, zerolog.Nop(), DefaultRetryConfig(), retryTransport, func(int) error {
		return transportErr()
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("error = %v, want ErrContextCancelled", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("retry ignored cancellation, took %v", elapsed)
	}
}

func TestRetryConfig_Jitter(t *testing.T) {
	config := DefaultRetryConfig()
	config.Jitter = 0.2

	for i := 0; i < 50; i++ {
		d := config.jittered(time.Second)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("jittered(1s) = %v, want within ±20%%", d)
		}
	}
}

func TestRetryWithBackoff_LogsThroughLogger(t *testing.T) {
	recordSleeps(t)

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).With().Str("request_id", "req-1").Logger()

	attempts := 0
	err := retryWithBackoff(context.Background(), logger, DefaultRetryConfig(), retryTransport, func(int) error {
		attempts++
		if attempts < 2 {
			return transportErr()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}

	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if entry["request_id"] != "req-1" {
			t.Errorf("request_id = %v, want req-1 in %s", entry["request_id"], line)
		}
		messages = append(messages, entry["message"].(string))
	}

	want := []string{"Retrying request after backoff", "Request succeeded after retry"}
	if strings.Join(messages, "|") != strings.Join(want, "|") {
		t.Errorf("messages = %v, want %v", messages, want)
	}
}
