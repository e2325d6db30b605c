package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/relaychat/internal/server"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	config, err := server.NewConfigFromEnv()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	relay := server.NewRelay(config, log)
	relay.Start()

	httpServer := server.CreateServer(config.Addr(), server.SetupRoutes(relay))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	log.Info("Chat relay running", "url", fmt.Sprintf("http://localhost:%d", config.Port))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		_ = relay.Shutdown(config.ShutdownTimeout)
		return err
	}

	if err := server.ShutdownServer(httpServer, config.ShutdownTimeout, log); err != nil {
		log.Warn("HTTP server did not shut down cleanly", "error", err)
	}
	if err := relay.Shutdown(config.ShutdownTimeout); err != nil {
		log.Warn("Hub did not shut down cleanly", "error", err)
	}

	log.Info("Program stopped cleanly")
	return nil
}
