package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// exit is swapped in tests.
var exit = os.Exit

// NotifyContext returns a context cancelled by the first SIGINT or SIGTERM so the
// server can drain. A second signal during the drain exits immediately with
// status 130. The returned stop func releases the signal handler.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go watch(sigs, cancel, done)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
		})
		cancel()
	}
	return ctx, stop
}

func watch(sigs <-chan os.Signal, cancel context.CancelFunc, done <-chan struct{}) {
	select {
	case <-sigs:
		cancel()
	case <-done:
		return
	}
	select {
	case <-sigs:
		exit(130)
	case <-done:
	}
}
