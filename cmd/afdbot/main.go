package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"afdaudit/internal/adapter/repo"
	"afdaudit/internal/audit"
	"afdaudit/internal/command"
	"afdaudit/internal/dispatch"
	"afdaudit/internal/domain"
	"afdaudit/internal/http/handlers"
	httpapi "afdaudit/internal/http/httpapi"
	"afdaudit/internal/i18n"
	"afdaudit/internal/infra"
	"afdaudit/internal/infra/credentials"
	"afdaudit/internal/metrics"
	"afdaudit/internal/providers/afdian"
	"afdaudit/internal/providers/onebot"
	"afdaudit/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	ctx := context.Background()

	creds, err := credentials.Load(cfg.CredentialsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load credentials")
	}
	for _, missing := range creds.MissingAccounts() {
		logger.Warn().Str("account", audit.MaskAccount(missing)).Msg("group references an account without a token")
	}

	sessions := make([]domain.Session, 0, len(creds.Accounts()))
	for _, acc := range creds.Accounts() {
		client, err := afdian.NewClient(afdian.Options{
			UserID:         acc.UserID,
			Token:          acc.Token,
			BaseURL:        cfg.AfdianBaseURL,
			Logger:         &logger,
			RequestTimeout: cfg.PlatformTimeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("account", audit.MaskAccount(acc.UserID)).Msg("failed to build afdian client")
		}
		sessions = append(sessions, client)
	}
	registry := afdian.NewRegistry(sessions...)
	logger.Info().Int("accounts", registry.Len()).Int("groups", len(creds.Groups())).Msg("credentials loaded")

	bot, err := onebot.NewClient(onebot.Options{
		BaseURL:        cfg.OneBotAPIURL,
		AccessToken:    cfg.OneBotAccessToken,
		Logger:         &logger,
		RequestTimeout: cfg.PlatformTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build onebot client")
	}

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open data dir")
	}
	relations, err := repo.NewRelationRepository(ctx, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open relations")
	}
	groupConfigs, err := repo.NewGroupConfigRepository(ctx, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open group configs")
	}

	var (
		decisions domain.DecisionRepository = repo.NopDecisionRepository{}
		journal   handlers.DecisionLister
	)
	dbpool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrNoDatabase):
		logger.Info().Msg("decision journal disabled")
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to connect database")
	default:
		defer dbpool.Close()
		pg := repo.NewDecisionRepository(infra.NewSQLRunner(dbpool, logger))
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare decision journal")
		}
		decisions, journal = pg, pg
	}

	collector := metrics.NewCollector()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	printer := i18n.NewPrinter(cfg.MessageLocale)
	resolver := audit.NewResolver(creds, registry, collector, logger)
	engine, err := audit.NewAdmissionEngine(audit.AdmissionOptions{
		Resolver:     resolver,
		Relations:    relations,
		Configs:      groupConfigs,
		Messenger:    bot,
		Responder:    bot,
		Members:      bot,
		Decisions:    decisions,
		Printer:      printer,
		MinDelay:     cfg.ApproveDelayMin,
		MaxDelay:     cfg.ApproveDelayMax,
		SeenCapacity: cfg.SeenRequestCapacity,
		Metrics:      collector,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build admission engine")
	}
	commands := command.NewHandler(command.HandlerOptions{
		Parser:     command.NewParser(cfg.CommandStart),
		Binder:     audit.NewBindingService(resolver, relations, collector, logger),
		Configs:    audit.NewConfigService(groupConfigs, logger),
		Messenger:  bot,
		Printer:    printer,
		Superusers: cfg.Superusers,
		Logger:     logger,
	})

	dispatcher := dispatch.New(ctx, cfg.MaxConcurrentEvents, collector, logger)
	app := &handlers.App{
		Admission:  engine,
		Commands:   commands,
		Dispatcher: dispatcher,
		Decisions:  journal,
		Logger:     logger,
	}
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		OneBotSecret:   cfg.OneBotSecret,
		AdminToken:     cfg.AdminToken,
		AdminRateLimit: cfg.AdminRateLimit,
		Gatherer:       reg,
		Logger:         logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("listening for onebot events")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	dispatcher.Wait()
	logger.Info().Msg("server stopped")
}
