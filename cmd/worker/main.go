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
	"previdas_backend/internal/leads/classifier"
	leadsrepo "previdas_backend/internal/leads/repository"
	"previdas_backend/internal/leads/responder"
	"previdas_backend/internal/leads/scoring"
	"previdas_backend/internal/leads/service"
	"previdas_backend/internal/notification"
	"previdas_backend/internal/scheduler"
	"previdas_backend/internal/whatsapp"
	"previdas_backend/platform/config"
	"previdas_backend/platform/db"
	"previdas_backend/platform/keywords"
	"previdas_backend/platform/lock"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/phone"
)

const identityLeaseTTL = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	whatsappClient := whatsapp.NewClient(cfg, cfg, log)

	// Sales handoff notifications run in the worker because that is where
	// qualification transitions happen.
	notificationModule := notification.New(notification.NewSMTPSender(cfg), whatsappClient, cfg, log)
	notificationModule.Subscribe(eventBus)

	lexicon, err := keywords.Load(cfg)
	if err != nil {
		log.Error("failed to load keyword lexicon", "error", err)
		panic("failed to load keyword lexicon: " + err.Error())
	}

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

	var leadLocker service.Locker
	redisClient, closeRedis := initRedis(cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}
	if redisClient != nil {
		leadLocker = redisLocker{locker: lock.New(redisClient, identityLeaseTTL)}
	}

	repo := leadsrepo.New(pool)
	leadsService := service.New(
		phone.NewNormalizer(cfg),
		classifier.New(remote, classifier.NewHeuristic(lexicon), log),
		scoring.New(lexicon),
		responder.New(),
		repo,
		repo,
		whatsappClient,
		leadLocker,
		eventBus,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, leadsService, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
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
