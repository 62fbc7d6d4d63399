package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thegrail/grail-backend/modules/api"
	"github.com/thegrail/grail-backend/pkg/config"
	"github.com/thegrail/grail-backend/pkg/email"
	"github.com/thegrail/grail-backend/pkg/httpserver"
	"github.com/thegrail/grail-backend/pkg/jwt"
	"github.com/thegrail/grail-backend/pkg/logger"
	"github.com/thegrail/grail-backend/pkg/mongo"
	"github.com/thegrail/grail-backend/pkg/queue"
	"github.com/thegrail/grail-backend/pkg/redis"
	"github.com/thegrail/grail-backend/svc/account"
	"github.com/thegrail/grail-backend/svc/billing"
	"github.com/thegrail/grail-backend/svc/license"
)

type appConfig struct {
	Logger  logger.Config
	Mongo   mongo.Config
	Redis   redis.Config
	Email   email.Config
	Account account.Config
	License license.Config
	Billing billing.Config
	Server  httpserver.Config
	API     api.Config

	EventDedupeTTL time.Duration `env:"EVENT_DEDUPE_TTL" envDefault:"72h"`
	DevEmailDir    string        `env:"DEV_EMAIL_DIR"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(cfg.Logger, "grail-backend", os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mongo.NewDatabase(ctx, cfg.Mongo, cfg.Mongo.Database)
	if err != nil {
		log.Error("failed to connect to mongodb", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			log.Warn("failed to disconnect from mongodb", logger.Error(err))
		}
	}()

	userStore := account.NewMongoStore(db)
	licenseStore := license.NewMongoStore(db)
	if err := errors.Join(userStore.EnsureIndexes(ctx), licenseStore.EnsureIndexes(ctx)); err != nil {
		log.Error("failed to ensure indexes", logger.Error(err))
		os.Exit(1)
	}

	// Redis backs webhook dedupe; without it a single replica falls back to
	// process memory.
	var deduper billing.EventDeduper
	var redisProbe func(context.Context) error
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-memory event dedupe", logger.Error(err))
		deduper = billing.NewMemoryDeduper(cfg.EventDedupeTTL)
	} else {
		defer redisClient.Close()
		deduper = billing.NewRedisDeduper(redisClient, cfg.EventDedupeTTL)
		redisProbe = redis.Healthcheck(redisClient)
	}

	var sender email.Sender
	if cfg.Email.MailgunDomain != "" && cfg.Email.MailgunAPIKey != "" {
		sender = email.MustNewMailgunSender(cfg.Email)
	} else {
		dir := cfg.DevEmailDir
		if dir == "" {
			dir = os.TempDir()
		}
		log.Warn("mailgun not configured, writing emails to disk", "dir", dir)
		sender = email.NewDevSender(dir)
	}

	taskStorage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(taskStorage)
	if err != nil {
		log.Error("failed to create enqueuer", logger.Error(err))
		os.Exit(1)
	}
	worker, err := queue.NewWorker(taskStorage, queue.WithWorkerLogger(log))
	if err != nil {
		log.Error("failed to create worker", logger.Error(err))
		os.Exit(1)
	}
	if err := worker.Register(account.NewVerificationEmailHandler(sender, cfg.Account.FrontendURL)); err != nil {
		log.Error("failed to register email handler", logger.Error(err))
		os.Exit(1)
	}

	jwtSvc, err := jwt.NewFromString(cfg.Account.JWTSigningKey)
	if err != nil {
		log.Error("failed to create jwt service", logger.Error(err))
		os.Exit(1)
	}

	codec, err := license.NewCodec(cfg.License.SigningKey)
	if err != nil {
		log.Error("failed to create license codec", logger.Error(err))
		os.Exit(1)
	}

	provider, err := billing.NewStripeProvider(cfg.Billing)
	if err != nil {
		log.Error("failed to create stripe provider", logger.Error(err))
		os.Exit(1)
	}

	accounts := account.NewService(cfg.Account, userStore, jwtSvc, enqueuer, account.WithLogger(log))
	licenses := license.NewService(codec, licenseStore, license.WithLogger(log))
	billingSvc := billing.NewService(provider, deduper, accounts, licenses, billing.WithLogger(log))

	handler := api.NewRouter(cfg.API, api.Deps{
		Accounts:   accounts,
		Billing:    billingSvc,
		Licenses:   licenses,
		MongoProbe: mongo.Healthcheck(db.Client()),
		RedisProbe: redisProbe,
		Log:        log,
	})

	server := httpserver.New(cfg.Server, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(ctx) })
	g.Go(func() error { return server.Run(ctx, handler) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}
