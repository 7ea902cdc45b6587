//go:build unix

package interrupt

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWithInterruptCancelsOnSignal(t *testing.T) {
	got := make(chan os.Signal, 1)
	ctx, cancel := WithInterrupt(context.Background(), func(sig os.Signal) { got <- sig })
	defer cancel()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
	select {
	case sig := <-got:
		if sig != syscall.SIGTERM {
			t.Errorf("onSignal got %v, want SIGTERM", sig)
		}
	default:
		t.Error("onSignal was not called before cancellation")
	}
}

func TestWithInterruptParentCancel(t *testing.T) {
	parent, parentCancel := context.WithCancel(context.Background())
	ctx, cancel := WithInterrupt(parent, nil)
	defer cancel()

	parentCancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}

func TestWithInterruptCancelFunc(t *testing.T) {
	ctx, cancel := WithInterrupt(context.Background(), nil)
	cancel()
	if ctx.Err() == nil {
		t.Error("context still live after cancel")
	}
}
