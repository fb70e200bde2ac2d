package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/avelar/jotter/internal/config"
	"github.com/avelar/jotter/internal/handler"
	conversationService "github.com/avelar/jotter/internal/service/conversation"
	journalService "github.com/avelar/jotter/internal/service/journal"
	"github.com/avelar/jotter/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The durable store is best-effort: if it cannot be opened the
	// server still runs with memory-only sessions.
	var store *sqlite.Store
	store, err = sqlite.Open(cfg.Journal.DatabasePath)
	if err != nil {
		log.Printf("warning: failed to open conversation database: %v", err)
		log.Println("continuing without durable conversation mirroring")
		store = nil
	} else {
		defer store.Close()
		log.Printf("conversation database ready at %s", cfg.Journal.DatabasePath)
	}

	sessions := conversationService.NewService(store)
	journals := journalService.NewService(cfg.Journal)

	router := handler.NewRouter(cfg.Journal, sessions, journals)

	log.Printf("journal root: %s (backups: %v)", cfg.Journal.JournalDir, cfg.Journal.EnableBackup)
	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("jotter backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
