package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"stockout-app/controllers"
	"stockout-app/results"
	"stockout-app/routes"
	"stockout-app/templates"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload web app and JSON API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, cleanup, err := initializeApp(cfg)
	defer cleanup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := a.warmUp(ctx); err != nil {
		a.log.Errorf(ctx, "startup aborted: %v", err)
		return err
	}

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	pages, err := templates.Load(controllers.TemplateFuncs())
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	store := results.NewStore(cfg.Server.ResultTTL, time.Minute)
	defer store.Close()

	var runs controllers.RunHistory
	if a.runs != nil {
		runs = a.runs
	}
	h := controllers.New(a.runner, a.loader, store, runs, a.log, controllers.Settings{
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		ExportFileName:     cfg.Export.FileName,
		Format:             a.format(),
		HighlightThreshold: cfg.Present.HighlightThreshold,
		DefaultTop:         cfg.Present.DefaultTop,
	})
	router := routes.NewRouter(h, pages, a.log.Zap())
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Infof(ctx, "starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.log.Infof(ctx, "received %s, shutting down", sig)
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf(ctx, "http server shutdown: %v", err)
		return err
	}
	a.log.Infof(ctx, "http server stopped")
	return nil
}
