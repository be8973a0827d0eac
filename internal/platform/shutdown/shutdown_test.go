package shutdown

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWatchCancelsThenForcesExit(t *testing.T) {
	codes := make(chan int, 1)
	exit = func(code int) { codes <- code }
	t.Cleanup(func() { exit = os.Exit })

	sigs := make(chan os.Signal, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go watch(sigs, cancel, done)

	sigs <- syscall.SIGTERM
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context not cancelled after first signal")
	}

	sigs <- syscall.SIGINT
	select {
	case code := <-codes:
		if code != 130 {
			t.Fatalf("exit code=%d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("second signal did not force exit")
	}
}

func TestStopReleasesWatcher(t *testing.T) {
	ctx, stop := NotifyContext(context.Background())
	stop()
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("stop did not cancel context")
	}
}
