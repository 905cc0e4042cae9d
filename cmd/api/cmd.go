package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GregMSThompson/agent-dashboard/internal/bootstrap"
	vertexclient "github.com/GregMSThompson/agent-dashboard/internal/client/vertex"
	webhookclient "github.com/GregMSThompson/agent-dashboard/internal/client/webhook"
	"github.com/GregMSThompson/agent-dashboard/internal/config"
	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/handlers"
	"github.com/GregMSThompson/agent-dashboard/internal/middleware"
	"github.com/GregMSThompson/agent-dashboard/internal/properties"
	"github.com/GregMSThompson/agent-dashboard/internal/response"
	"github.com/GregMSThompson/agent-dashboard/internal/router"
	"github.com/GregMSThompson/agent-dashboard/internal/services"
	"github.com/GregMSThompson/agent-dashboard/internal/store"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

type propertyStore interface {
	Load(ctx context.Context) (any, string, error)
	Save(ctx context.Context, records []properties.Record) error
}

type agent interface {
	Ask(ctx context.Context, req dto.AgentRequest) ([]byte, error)
}

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg, err := config.New()
	exitOnError("config failed", err, slog.Default())
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	ctx := logger.ToContext(context.Background(), bs.Log)
	err = bs.ResolveSecrets(ctx, cfg)
	exitOnError("secret resolution failed", err, bs.Log)

	// stores
	var pstore propertyStore
	if bs.Firestore != nil {
		pstore = store.NewPropertyFirestoreStore(bs.Firestore)
	} else {
		pstore = store.NewPropertyFileStore(cfg.PropertiesFile)
	}
	dstore := store.NewDashboardFileStore(cfg.DashboardDir)

	// services
	pserv := services.NewPropertyService(pstore, nil)
	if cfg.PropertiesWebhookURL != "" {
		source := webhookclient.New(cfg.PropertiesWebhookURL, "properties-webhook", cfg.PropertiesTimeout)
		pserv = services.NewPropertyService(pstore, source)
	} else {
		bs.Log.Warn("properties webhook not configured, serving cached properties only")
	}

	var ag agent
	if bs.VertexAdapter != nil {
		ag = vertexclient.NewAgent(bs.VertexAdapter)
	} else {
		ag = webhookclient.New(cfg.AgentWebhookURL, "agent-webhook", cfg.HTTPTimeout)
	}

	rserv := services.NewRenderService(dstore, pserv)
	aserv := services.NewAskService(ag, rserv, cfg.AgentBackend)

	// auth
	var auth *middleware.Middleware
	if bs.Firebase != nil {
		auth = middleware.NewMiddleware(bs.Firebase, cfg.RenderKey)
	} else {
		auth = middleware.NewMiddleware(nil, cfg.RenderKey)
	}

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = response.New(bs.Log)
	deps.RenderSvc = rserv
	deps.PropertySvc = pserv
	deps.AskSvc = aserv
	deps.Selection = handlers.SelectionCookie{Name: cfg.SelectionCookie, MaxAge: cfg.SelectionMaxAge}

	// router
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.NewRouter(deps, auth),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout + 30*time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			bs.Log.Error("server shutdown failed", "error", err)
		}
	}()

	bs.Log.Info("server listening", "addr", srv.Addr, "dashboards", filepath.Clean(cfg.DashboardDir))
	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	exitOnError("server start failed", err, bs.Log)
}
