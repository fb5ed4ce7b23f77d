// Command chaprd bridges a ChapR controller on the roboRIO's USB serial port
// to the local Driver Station listeners. It takes no flags: every setting is
// compiled in.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/chaprd/internal/config"
	"github.com/banshee-data/chaprd/internal/daemon"
	"github.com/banshee-data/chaprd/internal/monitoring"
	"github.com/banshee-data/chaprd/internal/version"
)

func main() {
	setupLogging()
	log.Printf("chaprd %s starting", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go ignoreSignals(ctx, syscall.SIGHUP, syscall.SIGPIPE)

	d, err := daemon.New(daemon.Options{Config: config.Default()})
	if err != nil {
		log.Fatalf("chaprd: %v", err)
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("chaprd: %v", err)
	}
	s := d.Stats()
	log.Printf("chaprd: shutting down after %d cycles, %d packets, %d faults", s.Cycles, s.Packets, s.Faults)
}

// ignoreSignals logs and swallows sigs until ctx is done.
func ignoreSignals(ctx context.Context, sigs ...os.Signal) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			monitoring.Logf("received %v, ignoring", sig)
		}
	}
}
