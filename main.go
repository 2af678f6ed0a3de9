package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kpango/glg"

	"svgstudio/api"
	"svgstudio/config"
	"svgstudio/content"
	"svgstudio/profile"
	"svgstudio/worker"
	"svgstudio/workspace"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		glg.Fatalf("failed to load config: %v", err)
	}
	glg.Get().SetLevel(glg.Atol(cfg.LogLevel))

	pm, err := profile.NewManager(cfg.ProfileFile())
	if err != nil {
		glg.Fatalf("failed to load profiles: %v", err)
	}
	lib, err := content.Embedded()
	if err != nil {
		glg.Fatalf("failed to load content: %v", err)
	}

	clients := worker.NewClients(cfg.Workers, cfg.CacheSize, cfg.CacheTTL.Duration)
	defer clients.Terminate()
	workspaces := workspace.NewManager(clients.Optimizer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workspaces.Janitor(ctx, janitorInterval, cfg.WorkspaceIdleTTL.Duration)

	router := api.RegisterRoutes(api.Deps{
		Workspaces:     workspaces,
		Profiles:       pm,
		Clients:        clients,
		Content:        lib,
		Static:         staticFiles,
		MaxUploadBytes: cfg.MaxUploadBytes,
		DefaultLocale:  cfg.DefaultLocale,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			glg.Errorf("shutdown: %v", err)
		}
	}()

	glg.Infof("svgstudio listening on %s (%d workers)", cfg.Addr, cfg.Workers)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		glg.Fatalf("server error: %v", err)
	}
	glg.Info("server stopped")
}
