// Command sinkd runs one sink engine against a real PortAudio output
// device: a minimal demonstration of the external driver contract
// described in SPEC_FULL.md's DOMAIN STACK, not a full PulseAudio-style
// server (no protocol module, no client connections — see spec.md §1's
// non-goals).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/loopback-audio/sinkengine"
	"github.com/loopback-audio/sinkengine/cmd/sinkd/config"
	"github.com/loopback-audio/sinkengine/cmd/sinkd/driverpa"
	"github.com/loopback-audio/sinkengine/internal/logctl"
)

func main() {
	fs := pflag.NewFlagSet("sinkd", pflag.ExitOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		logctl.Control().Fatal("failed to load config", "err", err)
	}
	config.ConfigureLogger(cfg.LogLevel)

	s, err := sink.New(sink.NewData{
		Name:         cfg.Name,
		Rate:         cfg.Rate,
		Channels:     cfg.Channels,
		ChannelMap:   cfg.ChannelMap,
		MinLatency:   cfg.MinLatency,
		MaxLatency:   cfg.MaxLatency,
		BlockSizeMax: cfg.BlockSizeMax,
	})
	if err != nil {
		logctl.Control().Fatal("sink construction failed", "err", err)
	}
	s.InstallMailbox(64)

	backend, err := driverpa.Open(s, cfg.BlockSizeMax)
	if err != nil {
		logctl.Control().Fatal("failed to open audio device", "err", err)
	}
	defer backend.Close()

	// Start the stream before Put: Put sends a synchronous state
	// transition that only completes once something drains the
	// mailbox, and the only thing that does is the render callback
	// PortAudio just started delivering.
	if err := backend.Start(); err != nil {
		logctl.Control().Fatal("failed to start stream", "err", err)
	}
	defer backend.Stop()

	if err := s.Put(); err != nil {
		logctl.Control().Fatal("sink put failed", "err", err)
	}
	defer s.Unlink()

	logctl.Control().Info("sinkd running", "sink", s.Name(), "rate", cfg.Rate, "channels", cfg.Channels)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	logctl.Control().Info("sinkd shutting down")
}
