package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"previdas_backend/internal/events"
	"previdas_backend/internal/exports"
	apphttp "previdas_backend/internal/http"
	"previdas_backend/internal/http/router"
	"previdas_backend/internal/leads"
	"previdas_backend/internal/leads/classifier"
	leadsrepo "previdas_backend/internal/leads/repository"
	"previdas_backend/internal/leads/responder"
	"previdas_backend/internal/leads/scoring"
	"previdas_backend/internal/leads/service"
	"previdas_backend/internal/notification"
	"previdas_backend/internal/scheduler"
	"previdas_backend/internal/webhook"
	"previdas_backend/internal/whatsapp"
	"previdas_backend/migrations"
	"previdas_backend/platform/config"
	"previdas_backend/platform/db"
	"previdas_backend/platform/keywords"
	"previdas_backend/platform/lock"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/phone"
	"previdas_backend/platform/storage"
	"previdas_backend/platform/validator"
)

const identityLeaseTTL = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(cfg.GetDatabaseURL(), migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	redisClient, closeRedis := initRedis(cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	queueClient, closeQueue := initQueueClient(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	var storageSvc storage.Service
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		storageSvc = minioSvc
		log.Info("storage service initialized", "leadExportsBucket", cfg.GetMinIOBucketLeadExports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; presigned lead exports disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	lexicon, err := keywords.Load(cfg)
	if err != nil {
		log.Error("failed to load keyword lexicon", "error", err)
		panic("failed to load keyword lexicon: " + err.Error())
	}
	normalizer := phone.NewNormalizer(cfg)

	var remote classifier.Remote
	if cfg.IsClassifierEnabled() {
		oracle, err := classifier.NewOracle(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize classifier oracle", "error", err)
			panic("failed to initialize classifier oracle: " + err.Error())
		}
		remote = oracle
		log.Info("classifier oracle initialized", "model", cfg.GetClassifierModel())
	} else {
		log.Warn("CLASSIFIER_API_KEY not configured; using keyword heuristic only")
	}
	cls := classifier.New(remote, classifier.NewHeuristic(lexicon), log)

	repo := leadsrepo.New(pool)
	whatsappClient := whatsapp.NewClient(cfg, cfg, log)

	var leadLocker service.Locker
	if redisClient != nil {
		leadLocker = redisLocker{locker: lock.New(redisClient, identityLeaseTTL)}
	} else {
		log.Warn("REDIS_URL not configured; per-lead serialization disabled")
	}

	leadsService := service.New(
		normalizer,
		cls,
		scoring.New(lexicon),
		responder.New(),
		repo,
		repo,
		whatsappClient,
		leadLocker,
		eventBus,
		log,
	)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(notification.NewSMTPSender(cfg), whatsappClient, cfg, log)
	notificationModule.Subscribe(eventBus)

	leadsModule := leads.NewModule(leadsService, val)

	webhookRepo := webhook.NewRepository(pool)
	var enqueuer scheduler.MessageEnqueuer
	if queueClient != nil {
		enqueuer = queueClient
	}
	webhookModule := webhook.NewModule(
		webhook.NewHandler(enqueuer, leadsService, val, log),
		webhook.NewKeyManager(webhookRepo, log),
		webhookRepo,
	)

	exportsModule := exports.NewModule(exports.NewHandler(
		exports.New(repo, storageSvc, cfg, log),
		val,
	))

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			webhookModule,
			exportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// redisLocker adapts the platform lock to the service's Locker port.
type redisLocker struct {
	locker *lock.Locker
}

func (r redisLocker) Acquire(ctx context.Context, identity string) (service.Unlocker, error) {
	lease, err := r.locker.Acquire(ctx, identity)
	if err != nil {
		return nil, err
	}
	return lease, nil
}

func initRedis(cfg config.SchedulerConfig, log *logger.Logger) (*goredis.Client, func()) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	opts, err := goredis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		return nil, nil
	}
	if opts.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := goredis.NewClient(opts)
	return client, func() {
		_ = client.Close()
	}
}

func initQueueClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; webhook messages are processed inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
