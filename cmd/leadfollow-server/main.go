// cmd/leadfollow-server/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadfollow/internal/api"
	"leadfollow/internal/common/auth"
	"leadfollow/internal/common/aws"
	"leadfollow/internal/common/config"
	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/mailbox"
	"leadfollow/internal/common/observability"
	"leadfollow/internal/common/zoho"
	"leadfollow/internal/followup/alerts"
	"leadfollow/internal/followup/settings"
	"leadfollow/internal/followup/tasks"
	"leadfollow/internal/models"
	"leadfollow/internal/prospects"
	"leadfollow/internal/repository/postgres"
	"leadfollow/internal/repository/search"
	dailydigest "leadfollow/internal/workers/notification/daily-digest"
	duedatescheduler "leadfollow/internal/workers/notification/due-date-scheduler"

	"go.uber.org/zap"
)

const crmMaxPages = 50

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn(operationName+" failed, retrying",
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func pingWithTimeout(p api.Pinger) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return p.Ping(ctx)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting leadfollow server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	// --- Postgres ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()
	if err := retryWithBackoff(pingWithTimeout(pg), 5, 2*time.Second, zapLog, "postgres connection"); err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := retryWithBackoff(pingWithTimeout(rdb), 5, 2*time.Second, zapLog, "redis connection"); err != nil {
		zapLog.Fatal("redis unavailable", zap.Error(err))
	}

	// --- Elasticsearch (optional; search falls back to Postgres) ---
	var index prospects.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch init failed", zap.Error(err))
		}
		if err := retryWithBackoff(pingWithTimeout(es), 3, 2*time.Second, zapLog, "elasticsearch connection"); err != nil {
			zapLog.Warn("elasticsearch unavailable, search uses substring matching", zap.Error(err))
		} else {
			prospectIndex := search.NewProspectIndex(es.Client, cfg.Database.Elasticsearch.ProspectIndex, log)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := prospectIndex.EnsureIndex(ctx); err != nil {
				zapLog.Warn("prospect index not ready", zap.Error(err))
			}
			cancel()
			index = prospectIndex
		}
	}

	// --- AWS ---
	var (
		mailer    dailydigest.Mailer
		publisher duedatescheduler.Publisher
	)
	ses, sns := cfg.Integrations.AWS.SES, cfg.Integrations.AWS.SNS
	if ses.Enabled || sns.Enabled {
		awsCfg, err := aws.LoadConfig(context.Background(), cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if ses.Enabled {
			mailer = aws.NewSESClient(awsCfg, ses.FromEmail)
		}
		if sns.Enabled {
			publisher = aws.NewSNSClient(awsCfg, sns.TopicARN)
		}
	}

	// --- CRM ---
	var crm prospects.ContactSource
	if z := cfg.Integrations.Zoho; z.Enabled {
		crm = zoho.NewCRMClient(z.BaseURL, z.AuthToken, config.GetDuration(z.Timeout))
	}

	// --- Repositories and services ---
	store := postgres.NewStore(pg)

	d := cfg.FollowUp.DefaultSettings
	settingsSvc := settings.NewService(&settings.Config{
		Defaults: models.FollowUpSettings{
			InitialResponseDays:  d.InitialResponseDays,
			StandardFollowUpDays: d.StandardFollowUpDays,
			NotifyEmail:          d.NotifyEmail,
			NotifyBrowser:        d.NotifyBrowser,
			NotifyDailyDigest:    d.NotifyDailyDigest,
			HighPriorityDays:     d.HighPriorityDays,
			MediumPriorityDays:   d.MediumPriorityDays,
			LowPriorityDays:      d.LowPriorityDays,
		},
		CacheTTL: config.GetDuration(cfg.FollowUp.SettingsCacheTTL),
	}, store.Settings, rdb.Client, log)

	alertSvc := alerts.NewService(&alerts.Config{
		AutoTaskDueInDays: cfg.FollowUp.AutoTaskDueInDays,
		SummaryTopN:       cfg.FollowUp.SummaryTopN,
	}, settingsSvc, store.Prospects, store.FollowUps, store, obs, log)

	prospectSvc := prospects.NewService(&prospects.Config{
		CRMPageSize:  cfg.Integrations.Zoho.PageSize,
		CRMMaxPages:  crmMaxPages,
		SearchSize:   25,
		MailLookback: config.GetDuration(cfg.Integrations.Mailbox.Lookback),
	}, store.Prospects, store.Emails, store, index, crm, log)
	if mb := cfg.Integrations.Mailbox; mb.Enabled {
		prospectSvc.WithMailbox(mailbox.NewClient(mb.BaseURL, mb.APIToken, mb.MaxMessages, config.GetDuration(mb.Timeout)))
	}

	taskSvc := tasks.NewService(store.Prospects, store.FollowUps, log)

	// --- Notification workers ---
	permissions := duedatescheduler.NewPermissionStore(rdb.Client)
	schedCfg := duedatescheduler.LoadConfig(cfg)
	// without a publisher the notifier is unsupported and schedulers never arm
	notifier := duedatescheduler.NewSNSNotifier(publisher, permissions, rdb.Client, schedCfg.TagWindow)
	schedulers := duedatescheduler.NewManager(schedCfg, notifier, settingsSvc, store.FollowUps,
		duedatescheduler.NewLastCheckStore(rdb.Client), log)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	digestDone := make(chan struct{})
	digest := dailydigest.NewWorker(dailydigest.LoadConfig(cfg), store.Settings, store.Users, alertSvc, mailer, log)
	go func() {
		defer close(digestDone)
		digest.Run(workerCtx)
	}()

	// --- HTTP ---
	errHandler := errors.NewErrorHandler(log)
	sessions := auth.NewSessionStore(rdb.Client, config.GetDuration(cfg.Auth.Session.TTL))
	identity := auth.NewKeycloakClient(cfg.Auth.Keycloak.URL, cfg.Auth.Keycloak.Realm)

	handler := api.NewHandler(api.Deps{
		Prospects:   prospectSvc,
		Tasks:       taskSvc,
		Settings:    settingsSvc,
		Alerts:      alertSvc,
		Users:       store.Users,
		Sessions:    sessions,
		Identity:    identity,
		Scheduler:   schedulers,
		Permissions: permissions,
		Session: api.SessionConfig{
			CookieName: cfg.Auth.Session.CookieName,
			TTL:        config.GetDuration(cfg.Auth.Session.TTL),
			Secure:     cfg.Auth.Session.Secure,
		},
	}, errHandler, log)

	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
	},
		handler,
		api.NewAuthenticator(sessions, identity, cfg.Auth.Session.CookieName, errHandler),
		api.NewHealth(map[string]api.Pinger{"postgres": pg, "redis": rdb}),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	schedulers.StopAll()
	stopWorkers()
	<-digestDone
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("leadfollow server stopped")
}
