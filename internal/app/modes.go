package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nodoventures/vaultsight/internal/notify"
	"github.com/nodoventures/vaultsight/internal/refresher"
	"github.com/nodoventures/vaultsight/internal/server"
	"github.com/nodoventures/vaultsight/internal/server/handler"
	"github.com/nodoventures/vaultsight/internal/server/ws"
	"github.com/nodoventures/vaultsight/internal/service"
)

// apiServices bundles the request-facing services the HTTP layer needs.
type apiServices struct {
	insights   *service.InsightService
	holdings   *service.HoldingService
	breakdowns *service.BreakdownService
	sessions   *service.SessionService
}

// buildServices constructs the request-facing service layer from wired
// dependencies.
func (a *App) buildServices(deps *Dependencies) *apiServices {
	return &apiServices{
		insights: service.NewInsightService(
			deps.ActivitySource, deps.SummaryCache, deps.SignalBus,
			a.logger, a.cfg.Insights.SummaryTTL.Duration,
		),
		holdings: service.NewHoldingService(
			deps.HoldingSource, a.cfg.Insights.PerformanceFeeRate, a.logger,
		),
		breakdowns: service.NewBreakdownService(
			deps.BreakdownSource, deps.BreakdownCache,
			a.logger, a.cfg.Insights.BreakdownTTL.Duration,
		),
		sessions: service.NewSessionService(a.cfg.Server.SessionTTL.Duration, a.logger),
	}
}

// ServerMode runs the HTTP + WebSocket API without any background refresh
// loops. Summaries are computed on demand and served from cache.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)

	return g.Wait()
}

// RefreshMode runs only the background loops: activity ingestion, periodic
// insight recomputation, cold-storage archival, and operator alerts. Use it
// for worker deployments that sit behind separate API instances.
func (a *App) RefreshMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting refresh mode")

	g, ctx := errgroup.WithContext(ctx)

	svcs := a.buildServices(deps)
	a.startRefresher(ctx, g, deps, svcs)

	return g.Wait()
}

// FullMode runs the API server and the background refresh loops in one
// process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	svcs := a.buildServices(deps)
	a.startRefresher(ctx, g, deps, svcs)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs)
	}

	return g.Wait()
}

// startHTTPServer adds the HTTP server and WebSocket hub goroutines to the
// given errgroup. The server is shut down gracefully when the context is
// cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *apiServices) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		err := hub.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	})

	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(svcs.sessions, a.logger),
		Activities: handler.NewActivityHandler(svcs.insights, a.logger),
		Insights:   handler.NewInsightHandler(svcs.insights, a.logger),
		Holdings:   handler.NewHoldingHandler(svcs.holdings, svcs.sessions, a.logger),
		Breakdowns: handler.NewBreakdownHandler(svcs.breakdowns, a.logger),
		Sessions:   handler.NewSessionHandler(svcs.sessions, a.logger),
	}
	if deps.AuditStore != nil {
		handlers.Audit = handler.NewAuditHandler(deps.AuditStore, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimitPerMin: a.cfg.Server.RateLimitPerMin,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startRefresher adds the background ingest/refresh/archive goroutines plus
// the alert watcher to the given errgroup.
func (a *App) startRefresher(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *apiServices) {
	if !a.cfg.Refresh.Enabled {
		a.logger.WarnContext(ctx, "refresh.enabled is false, skipping background loops")
		return
	}

	alerts := notify.NewAlertWatcher(deps.SignalBus, deps.Notifier, a.logger)
	g.Go(func() error {
		err := alerts.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	})

	ingestor := refresher.NewIngestor(deps.ActivitySource, deps.ActivityStore, deps.RateLimiter, a.logger)
	insightRefresher := refresher.NewInsightRefresher(
		svcs.insights, svcs.breakdowns, deps.LockManager, alerts, a.logger,
	)

	var archiver *refresher.Archiver
	if deps.Archiver != nil {
		archiver = refresher.NewArchiver(
			deps.Archiver, deps.ActivityStore,
			a.cfg.Refresh.ArchiveRetentionDays, a.logger,
		)
	}

	orch := refresher.NewOrchestrator(
		ingestor, insightRefresher, archiver,
		a.cfg.Vaults.IDs,
		a.cfg.Refresh.IngestInterval.Duration,
		a.cfg.Refresh.RefreshInterval.Duration,
		a.cfg.Refresh.ArchiveCron,
		a.logger,
	)
	g.Go(func() error {
		return orch.Run(ctx)
	})
}
