package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/nodoventures/vaultsight/internal/blob/s3"
	"github.com/nodoventures/vaultsight/internal/cache/redis"
	"github.com/nodoventures/vaultsight/internal/config"
	"github.com/nodoventures/vaultsight/internal/crypto"
	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/notify"
	"github.com/nodoventures/vaultsight/internal/platform/fixture"
	"github.com/nodoventures/vaultsight/internal/platform/nodo"
	"github.com/nodoventures/vaultsight/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Upstream sources
	ActivitySource  domain.ActivitySource
	HoldingSource   domain.HoldingSource
	BreakdownSource domain.BreakdownSource

	// Stores
	ActivityStore domain.ActivityStore
	AuditStore    domain.AuditStore

	// Caches
	SummaryCache   domain.SummaryCache
	BreakdownCache domain.BreakdownCache
	RateLimiter    domain.RateLimiter
	LockManager    domain.LockManager
	SignalBus      domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsPostgres returns true for modes that require a database connection.
func needsPostgres(mode string) bool {
	switch mode {
	case "refresh", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Upstream source (real API or deterministic fixture) ---
	if cfg.Upstream.Source == "nodo" {
		secret, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:           cfg.Upstream.APISecret,
			EncryptedSecretPath: cfg.Upstream.EncryptedSecretPath,
			SecretPassword:      cfg.Upstream.SecretPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wire: upstream secret: %w", err)
		}
		client := nodo.New(cfg.Upstream.BaseURL, &crypto.RequestAuth{
			Key:    cfg.Upstream.APIKey,
			Secret: secret,
		})
		deps.ActivitySource = client
		deps.HoldingSource = client
		deps.BreakdownSource = client
	} else {
		fix := fixture.New(nil)
		deps.ActivitySource = fix
		deps.HoldingSource = fix
		deps.BreakdownSource = fix
	}

	// --- PostgreSQL (only for modes that need persistence) ---
	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.ActivityStore = postgres.NewActivityStore(pool)
		deps.AuditStore = postgres.NewAuditStore(pool)
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SummaryCache = redis.NewSummaryCache(redisClient)
	deps.BreakdownCache = redis.NewBreakdownCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage (cold-storage archival) ---
	if cfg.S3.Enabled && needsPostgres(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.BlobReader, deps.ActivityStore, deps.AuditStore)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
