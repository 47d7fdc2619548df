// Command fixtureserver is a minimal example binary wiring the fixture
// library together: it registers a couple of illustrative routes and
// serves them until terminated. It is not a driver for writing test
// scenarios against the fixture — that responsibility stays with whatever
// test harness embeds the fixture package directly (spec §1 keeps "the
// sample console driver" out of scope).
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arrowlake/fixture"
	"github.com/arrowlake/fixture/internal/handler"
)

func main() {
	var (
		port     int
		logLevel string
	)
	flag.IntVar(&port, "port", 0, "TCP port to bind (0 = OS-assigned)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug | info | warn | error")
	flag.Parse()

	logger := newLogger(logLevel)
	slog.SetDefault(logger)

	s := fixture.NewServer(port)
	s.SetLogger(logger)
	s.RegisterHandler("/", handler.NewResource([]byte("fixtureserver is running"), ""))

	if err := s.Start(); err != nil {
		logger.Error("failed to start fixture server", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("fixture server listening", slog.String("addr", s.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	logger.Info("received shutdown signal", slog.String("signal", sig.String()))

	if err := s.Stop(); err != nil {
		logger.Error("error stopping fixture server", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("fixture server exited cleanly")
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
