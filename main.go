package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/clients/facebook"
	"social-publisher/infrastructure/clients/linkedin"
	"social-publisher/infrastructure/clients/twitter"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/media"
	"social-publisher/infrastructure/persistence"
	"social-publisher/infrastructure/pubsub"
	"social-publisher/infrastructure/realtime"
	"social-publisher/infrastructure/servicebus"
	"social-publisher/infrastructure/vault"
	"social-publisher/infrastructure/worker"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/server"
	"social-publisher/usecase"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"
)

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")
	cfg := configuration.C

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("PostgreSQL is required for the publishing engine")
	}
	if err := persistence.EnsurePublishingSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Failed ensuring publishing schema")
	}

	userRepository, err := initiateUserRepository(psqlDb)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("User store unavailable")
	}
	profileRepository := persistence.NewSocialProfileRepository(psqlDb)
	contentRepository := persistence.NewContentRepository(psqlDb)

	var states repository.IOAuthState = persistence.NewOAuthStateRepository(psqlDb)
	readiness := map[string]httpHandler.Pinger{"postgres": psqlDb}
	if cfg.RedisClient.Host != "" {
		redisClient, err := cache.NewCache(
			ctx,
			fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
			cfg.RedisClient.Username,
			cfg.RedisClient.Password,
		)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis not available - OAuth states kept in PostgreSQL")
		} else {
			states = cache.NewOAuthStateStore(redisClient)
			readiness["redis"] = httpHandler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
			defer redisClient.Close()
			logger.GetLogger().Info("OAuth states kept in Redis")
		}
	}

	webhookRepository := initiateWebhookStore()
	audit := initiateAudit(ctx)

	hub := realtime.NewContentHub()
	notifiers := []repository.IStatusNotifier{hub}
	if cfg.Pubsub.ProjectID != "" {
		client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID, cfg.Pubsub.CredentialsFile)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - status events not published")
		} else {
			publisher := pubsub.NewStatusPublisher(client, cfg.Pubsub.Topic)
			defer publisher.Stop()
			defer client.Close()
			notifiers = append(notifiers, publisher)
		}
	}
	if cfg.ServiceBus.Namespace != "" {
		client, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - status events not queued")
		} else {
			defer client.Close(context.Background())
			notifiers = append(notifiers, servicebus.NewStatusSender(client, cfg.ServiceBus.Queue))
		}
	}

	linkedinClient := linkedin.New(cfg.OAuth.LinkedIn)
	twitterClient := twitter.New(cfg.OAuth.Twitter)
	facebookClient := facebook.New(cfg.OAuth.Facebook)
	providers := []repository.IOAuthProvider{linkedinClient, twitterClient, facebookClient}
	adapters := []repository.IPlatformAdapter{linkedinClient, twitterClient, facebookClient}
	for _, p := range providers {
		logger.GetLogger().WithField("platform", p.Platform()).WithField("configured", p.IsConfigured()).Info("Platform client")
	}

	testModeToken := cfg.Publishing.TestModeToken
	connectionUsecase := usecase.NewConnectionUsecase(providers, states, profileRepository, vault.Default(), testModeToken)
	publishUsecase := usecase.NewPublishUsecase(adapters, profileRepository, connectionUsecase, media.NewFetcher(nil), testModeToken)
	schedulerUsecase := usecase.NewSchedulerUsecase(contentRepository, publishUsecase, audit, notifiers, cfg.Scheduler.BatchSize)
	contentUsecase := usecase.NewContentUsecase(contentRepository, audit)
	userUsecase := usecase.NewUserUsecase(userRepository, cfg.App.SecretKey)

	var webhookHandler httpHandler.IWebhookHandler
	if webhookRepository != nil {
		sources := []usecase.WebhookSource{
			usecase.NewLinkedInWebhook(cfg.OAuth.LinkedIn.WebhookSecret),
			usecase.NewTwitterWebhook(cfg.OAuth.Twitter.WebhookSecret),
			usecase.NewFacebookWebhook(cfg.OAuth.Facebook.WebhookSecret, cfg.OAuth.Facebook.VerifyToken),
		}
		webhookHandler = httpHandler.NewWebhookHandler(usecase.NewWebhookUsecase(sources, webhookRepository, profileRepository))
	}

	router := server.InitiateRouter(
		httpHandler.NewUserHandler(userUsecase),
		httpHandler.NewConnectionHandler(connectionUsecase, cfg.App.FrontendURL),
		httpHandler.NewContentHandler(contentUsecase, schedulerUsecase, publishUsecase),
		webhookHandler,
		httpHandler.NewHealthHandler(readiness),
		hub.Serve,
		userRepository,
		cfg.App.SecretKey,
		allowedOrigins(cfg.App.FrontendURL)...,
	)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Scheduler.Enabled {
		var purger worker.StatePurger
		if p, ok := states.(worker.StatePurger); ok {
			purger = p
		}
		dispatcher := worker.NewDispatcher(schedulerUsecase, purger)
		if err := dispatcher.Schedule(cfg.Scheduler.Spec); err != nil {
			logger.GetLogger().WithField("error", err).WithField("spec", cfg.Scheduler.Spec).Fatal("Invalid scheduler spec")
		}
		logger.GetLogger().WithField("spec", cfg.Scheduler.Spec).Info("Scheduler dispatcher enabled")
		g.Go(func() error { return dispatcher.Run(ctx) })
	}

	app := cfg.App
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		var err error
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile)
		} else {
			if app.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// initiateUserRepository reads users from MSSQL in production (or DB_VENDOR=mssql), otherwise from PostgreSQL.
func initiateUserRepository(psqlDb *sql.DB) (repository.IUser, error) {
	env := os.Getenv("ENV")
	if os.Getenv("DB_VENDOR") == "mssql" || env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, err
		}
		return persistence.NewUserRepositoryMSSQL(mssql), nil
	}
	return persistence.NewUserRepository(psqlDb), nil
}

// initiateWebhookStore returns nil when MySQL is not configured; webhook routes are then not served.
func initiateWebhookStore() repository.IWebhookEvent {
	db, err := persistence.NewGormMySQL()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MySQL not available - webhook ingestion disabled")
		return nil
	}
	if err := persistence.MigrateWebhookEvents(db); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed migrating webhook events")
		return nil
	}
	return persistence.NewWebhookEventRepository(db)
}

func initiateAudit(ctx context.Context) *persistence.PublishAuditRepository {
	mongoCfg := configuration.C.Database.Mongo
	var client *mongo.Client
	if mongoCfg.Host != "" {
		c, err := persistence.NewMongoDb(mongoCfg.Host, mongoCfg.Port, mongoCfg.User, mongoCfg.Password, mongoCfg.Name)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB not available - publish audit disabled")
		} else if err := c.Ping(ctx, nil); err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - publish audit disabled")
		} else {
			client = c
			logger.GetLogger().Info("MongoDB connected successfully")
		}
	}
	return persistence.NewPublishAuditRepository(client, mongoCfg.Name)
}

// allowedOrigins adds the frontend's origin to the local development defaults.
func allowedOrigins(frontendURL string) []string {
	origins := []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"}
	u, err := url.Parse(frontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return origins
	}
	origin := u.Scheme + "://" + u.Host
	for _, o := range origins {
		if o == origin {
			return origins
		}
	}
	return append(origins, origin)
}
