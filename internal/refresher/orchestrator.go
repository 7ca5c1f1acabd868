package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator manages all background goroutines: activity ingestion, insight
// recomputation, and cold-storage archival.
type Orchestrator struct {
	ingestor        *Ingestor
	refresher       *InsightRefresher
	archiver        *Archiver
	vaultIDs        []string
	ingestInterval  time.Duration
	refreshInterval time.Duration
	archiveCron     string
	logger          *slog.Logger
}

// NewOrchestrator creates a new Orchestrator that coordinates all background
// sub-systems. The archiver may be nil when cold storage is not configured.
func NewOrchestrator(
	ingestor *Ingestor,
	refresher *InsightRefresher,
	archiver *Archiver,
	vaultIDs []string,
	ingestInterval time.Duration,
	refreshInterval time.Duration,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		ingestor:        ingestor,
		refresher:       refresher,
		archiver:        archiver,
		vaultIDs:        vaultIDs,
		ingestInterval:  ingestInterval,
		refreshInterval: refreshInterval,
		archiveCron:     archiveCron,
		logger:          logger,
	}
}

// Run starts all sub-loops as concurrent goroutines using an errgroup. Each
// goroutine respects ctx cancellation. If any goroutine returns a non-context
// error, the errgroup cancels the shared context and Run returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("refresher orchestrator starting",
		slog.Duration("ingest_interval", o.ingestInterval),
		slog.Duration("refresh_interval", o.refreshInterval),
		slog.String("archive_cron", o.archiveCron),
		slog.Int("vaults", len(o.vaultIDs)),
	)

	g, ctx := errgroup.WithContext(ctx)

	// 1. Activity ingestor on ticker.
	g.Go(func() error {
		o.logger.Info("starting activity ingest loop")
		err := o.ingestor.RunLoop(ctx, o.vaultIDs, o.ingestInterval)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("activity ingestor: %w", err)
	})

	// 2. Insight refresher on ticker.
	g.Go(func() error {
		o.logger.Info("starting insight refresh loop")
		err := o.refresher.RunLoop(ctx, o.vaultIDs, o.refreshInterval)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("insight refresher: %w", err)
	})

	// 3. Archiver on cron schedule, when cold storage is configured.
	if o.archiver != nil && o.archiveCron != "" {
		g.Go(func() error {
			o.logger.Info("starting archiver cron")
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("refresher orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("refresher orchestrator stopped cleanly")
	return nil
}
