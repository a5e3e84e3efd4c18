package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"codemaster/internal/config"
	"codemaster/internal/coordinator"
	"codemaster/internal/recorder"
	"codemaster/internal/registry"
	"codemaster/internal/transport"
)

const (
	ServerVersion = "1.0.0"
	ServerName    = "Code-Master"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg.LogConfig()

	log.Info().Str("server", cfg.ServerName).Str("version", cfg.ServerVersion).Msg("starting up")

	rec, err := recorder.Open(cfg.DBType, cfg.GetConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open match recorder")
	}

	reg := registry.New()
	coord := coordinator.New(coordinator.Config{
		MinPlayers:      cfg.MinPlayers,
		MaxPlayers:      cfg.MaxPlayers,
		CodeLength:      cfg.CodeLength,
		AllowedAttempts: cfg.AllowedAttempts,
		Alphabet:        cfg.Alphabet,
	}, reg, rec)

	coordCtx, stopCoord := context.WithCancel(context.Background())
	go coord.Run(coordCtx)

	listener, err := net.Listen("tcp", cfg.GetListenAddress())
	if err != nil {
		log.Fatal().Err(err).Str("address", cfg.GetListenAddress()).Msg("failed to listen")
	}

	driverCfg := transport.Config{
		OutboundQueueSize: cfg.OutboundQueueSize,
		MaxFrameBytes:     cfg.MaxFrameBytes,
		IdleTimeout:       time.Duration(cfg.IdleTimeoutSecs) * time.Second,
	}

	acceptDone := make(chan struct{})
	go acceptLoop(listener, driverCfg, coord, reg, acceptDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Info().Str("address", cfg.GetListenAddress()).Msg("ready")
	log.Info().Msg("press Ctrl+C to shutdown")

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received signal")

	performGracefulShutdown(listener, reg, rec, stopCoord, acceptDone, cfg)
}

// acceptLoop accepts connections until the listener is closed, spawning one
// transport.Serve goroutine per connection. It returns (closing done) once
// Accept starts failing, which happens as soon as the listener is closed
// during shutdown.
func acceptLoop(listener net.Listener, driverCfg transport.Config, coord *coordinator.Coordinator, reg *registry.Registry, done chan struct{}) {
	defer close(done)
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go transport.Serve(conn, driverCfg, coord, reg)
	}
}

// performGracefulShutdown mirrors the teacher's staged shutdown sequence,
// adapted from websocket clients and room state to TCP connections and
// match persistence.
func performGracefulShutdown(listener net.Listener, reg *registry.Registry, rec recorder.Recorder, stopCoord context.CancelFunc, acceptDone chan struct{}, cfg *config.Config) {
	log.Info().Str("server", cfg.ServerName).Str("version", cfg.ServerVersion).Msg("shutting down")

	deadline := time.NewTimer(time.Duration(cfg.ShutdownTimeoutSecs) * time.Second)
	defer deadline.Stop()

	log.Info().Msg("[1/4] stopping new connections")
	listener.Close()
	select {
	case <-acceptDone:
	case <-deadline.C:
		log.Warn().Msg("shutdown timeout reached waiting for accept loop to stop")
		return
	}

	log.Info().Msg("[2/4] notifying connected players")
	for _, id := range append(reg.WaitingSnapshot(), reg.ActiveSnapshot()...) {
		reg.Send(id, []byte(`{"type":"error","message":"server is shutting down"}`+"\n"))
	}
	select {
	case <-time.After(200 * time.Millisecond):
	case <-deadline.C:
		log.Warn().Msg("shutdown timeout reached notifying players")
		return
	}

	log.Info().Msg("[3/4] stopping game coordinator")
	stopCoord()

	log.Info().Msg("[4/4] closing match recorder")
	if err := rec.Close(); err != nil {
		log.Error().Err(err).Msg("match recorder close error")
	}

	log.Info().Str("server", cfg.ServerName).Str("version", cfg.ServerVersion).Msg("offline")
}
