package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joshualev/anchor/internal/server"
	"github.com/joshualev/anchor/internal/storage/sqlite"
	"github.com/joshualev/anchor/internal/util"
)

func main() {
	// Local development keeps configuration in a .env file; absence is fine.
	_ = godotenv.Load()

	addrFlag := flag.String("addr", util.EnvOrDefault("ANCHOR_ADDR", ":8000"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("ANCHOR_DB_PATH", "data/anchor.db"), "Path to sqlite database file")
	staticFlag := flag.String("static", util.EnvOrDefault("ANCHOR_STATIC_DIR", "web/dist"), "Directory with built frontend")
	seedFlag := flag.String("seed", "", "Seed the database from a directory of JSON fixtures and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if *seedFlag != "" {
		if err := store.Seed(context.Background(), *seedFlag); err != nil {
			logger.Error("seeding failed", slog.String("error", err.Error()))
			// os.Exit skips deferred calls, so release the database first.
			store.Close()
			os.Exit(1)
		}
		logger.Info("database seeded", slog.String("dir", *seedFlag))
		return
	}

	srv := server.New(store, logger, *staticFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
