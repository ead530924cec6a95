// Package rotate turns external events into recorder rotation requests.
//
// Three triggers are provided: operating-system signals (SIGHUP, as sent by
// logrotate postrotate scripts), a cron schedule, and a filesystem watcher
// that notices when the active file is moved away or grows past a size
// limit. Every trigger only calls RequestLogRotate; the recorder performs
// the rotation on its next write.
package rotate

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Requester is the part of the recorder that triggers use.
type Requester interface {
	RequestLogRotate()
}

// HandleSignals requests a rotation each time one of sigs arrives, until
// ctx is cancelled. With no sigs it listens for SIGHUP.
func HandleSignals(ctx context.Context, r Requester, sigs ...os.Signal) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGHUP}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				slog.Info("rotation requested", "component", "rotate", "signal", sig.String())
				r.RequestLogRotate()
			}
		}
	}()
}
