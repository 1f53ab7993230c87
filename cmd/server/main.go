// Command server runs the meshforge HTTP service: a compilation engine
// for parametric geometry scripts with an optional chat-driven design
// surface in front of it.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meshforge/meshforge"
	"github.com/meshforge/meshforge/internal/config"
	"github.com/meshforge/meshforge/internal/llm"
	"github.com/meshforge/meshforge/internal/server"
	"github.com/meshforge/meshforge/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("loading configuration", zap.Error(err))
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		zap.NewExample().Fatal("building logger", zap.Error(err))
	}
	defer log.Sync()

	engine := meshforge.NewEngine(meshforge.Config{
		KernelDir:     cfg.Render.KernelDir,
		RenderTimeout: cfg.Render.Timeout(),
	}, log)

	store, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		log.Fatal("opening session store", zap.Error(err))
	}
	defer store.Close()

	var llmClient *llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	} else {
		log.Info("no LLM API key configured, chat endpoint disabled")
	}

	srv := server.New(engine, store, llmClient, cfg.Server.StaticDir, log)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
