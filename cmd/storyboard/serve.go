package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/storyboard"
	"github.com/eringen/storyboard/internal/auth"
	"github.com/eringen/storyboard/internal/config"
	"github.com/eringen/storyboard/internal/objectstore"
	"github.com/eringen/storyboard/internal/publisher"
	"github.com/eringen/storyboard/internal/scheduler"
	"github.com/eringen/storyboard/internal/service"
	"github.com/eringen/storyboard/internal/store"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) error {
	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("storyboard: %w", err)
	}
	defer db.Close()
	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("storyboard: %w", err)
		}
	}

	pub, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	users := service.NewUserService(store.NewUserStore(db), cfg.IsAdminEmail, logger)
	svc := storyboard.Services{
		Slugs:      service.NewSlugService(store.NewSlugStore(db), pub, logger),
		Users:      users,
		Categories: service.NewCategoryService(store.NewCategoryStore(db), logger),
		Feedback:   service.NewFeedbackService(store.NewFeedbackStore(db), logger),
		Auth: auth.NewManager(auth.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			SessionTTL:   cfg.Session.MaxAge,
		},
			store.NewSessionStore(db),
			store.NewAccountStore(db),
			store.NewVerificationStore(db),
			users,
			store.NewTransactionManager(db),
			logger,
		),
	}
	opts, closeStores, err := newStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()
	app := storyboard.New(cfg, svc, logger, opts...)

	purge := scheduler.NewScheduler(scheduler.TaskFunc{
		TaskName: "purge-expired",
		Fn: func(ctx context.Context) error {
			if l, ok := app.Limiter.(*storyboard.RateLimiter); ok {
				if n := l.Prune(); n > 0 {
					logger.Debug("pruned rate limit keys", zap.Int("keys", n))
				}
			}
			return svc.Auth.PurgeExpired(ctx)
		},
	}, cfg.PurgeEvery, logger)
	go func() {
		if err := purge.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("purge scheduler", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

// newPublisher connects to RabbitMQ when AMQP_URL is set. Without it slug
// events are dropped.
func newPublisher(cfg *config.Config, logger *zap.Logger) (service.Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		return publisher.Nop{}, nil
	}
	pub, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("storyboard: %w", err)
	}
	return pub, nil
}

// newStores shares rate limit counts through Redis when
// RATE_LIMIT_STORE_URL is set and uploads images to R2 when its
// credentials are set. Either falls back to the in-process default.
func newStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]storyboard.Option, func(), error) {
	var opts []storyboard.Option
	closeFn := func() {}

	if cfg.RateLimit.StoreURL != "" {
		limiter, err := storyboard.NewRedisLimiter(cfg.RateLimit.StoreURL, cfg.RateLimit.StoreToken, cfg.RateLimit.Max, cfg.RateLimit.Window)
		if err != nil {
			return nil, nil, fmt.Errorf("storyboard: %w", err)
		}
		if err := limiter.Ping(ctx); err != nil {
			limiter.Close()
			return nil, nil, fmt.Errorf("storyboard: rate limit store: %w", err)
		}
		opts = append(opts, storyboard.WithLimiter(limiter))
		closeFn = func() { limiter.Close() }
		logger.Info("rate limiting through redis")
	}

	s := cfg.Storage
	if s.S3URL != "" && s.Bucket != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" {
		images, err := objectstore.NewS3(objectstore.S3Config{
			Endpoint:        s.S3URL,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			Bucket:          s.Bucket,
			BaseURL:         s.ImageBaseURL,
		})
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("storyboard: %w", err)
		}
		opts = append(opts, storyboard.WithImageStore(images))
		logger.Info("uploading images to bucket", zap.String("bucket", s.Bucket))
	}
	return opts, closeFn, nil
}
