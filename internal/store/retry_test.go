package store

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/dropDatabas3/careid/internal/domain/repository"
)

func dialErr() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestCall_RetriesTransientOnce(t *testing.T) {
	attempts := 0
	err := Call(context.Background(), 0, func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return dialErr()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestCall_SurfacesTransientAfterRetry(t *testing.T) {
	attempts := 0
	err := Call(context.Background(), 0, func(ctx context.Context) error {
		attempts++
		return dialErr()
	})
	if !errors.Is(err, repository.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2 (one retry)", attempts)
	}
}

func TestCall_DomainErrorsNotRetried(t *testing.T) {
	attempts := 0
	err := Call(context.Background(), 0, func(ctx context.Context) error {
		attempts++
		return repository.ErrNotFound
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, repository.ErrTransient) {
		t.Fatalf("domain error misclassified as transient")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestWithTimeout_RespectsExistingDeadline(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, cancel2 := WithTimeout(parent, DefaultCallTimeout)
	defer cancel2()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatalf("expected a deadline to be applied")
	}

	ctx2, cancel3 := WithTimeout(ctx, DefaultCallTimeout)
	defer cancel3()
	if ctx2 != ctx {
		t.Fatalf("existing deadline must not be replaced")
	}
}
