package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/adapters/polarity"
	redisad "reviewpulse/internal/adapters/redis"
	"reviewpulse/internal/adapters/sources"
	"reviewpulse/internal/adapters/telegram"
	"reviewpulse/internal/app"
	"reviewpulse/internal/classify"
	"reviewpulse/internal/domain"
	"reviewpulse/internal/scheduler"
	"reviewpulse/internal/shared"
	mysqlrepo "reviewpulse/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve(cfg.MetricsAddr)

	log.Info().
		Int("sources", len(cfg.Sources)).
		Int("workers", cfg.Workers).
		Str("ingest_schedule", cfg.Schedule.Ingest).
		Msg("monitor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	client := sources.NewClient(5)
	srcs, err := sources.Build(cfg.Sources, client)
	if err != nil {
		log.Fatal().Err(err).Msg("source registry failed")
	}

	var model domain.PolarityModel
	if cfg.Polarity.Endpoint != "" {
		model = polarity.New(cfg.Polarity.Endpoint, cfg.Polarity.APIKey)
	}
	cl := classify.New(model, cfg.Classify)

	var alertSink domain.AlertSink
	var reportSink domain.ReportSink
	if cfg.Telegram.BotToken != "" {
		n := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.AlertChatID, cfg.Telegram.ReportChatID)
		alertSink, reportSink = n, n
	} else {
		log.Warn().Msg("telegram not configured, alerts and reports will only be logged")
	}

	monitor := app.NewMonitorService(srcs, repo, cl, alertSink, cfg.Workers)

	sourceNames := make([]string, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		sourceNames = append(sourceNames, sc.Name)
	}
	reports := app.NewReportService(repo, cache, reportSink, sourceNames, cfg.CacheTTL)

	sched := scheduler.New(cfg.Location())
	if err := sched.Add("ingest", cfg.Schedule.Ingest, func(ctx context.Context) error {
		_, err := monitor.RunCycle(ctx)
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("ingest trigger failed")
	}
	for _, rule := range cfg.Schedule.Reports {
		rule := rule
		if err := sched.Add(rule.Name, rule.Cron, func(ctx context.Context) error {
			return reports.RunReport(ctx, rule)
		}); err != nil {
			log.Fatal().Err(err).Str("report", rule.Name).Msg("report trigger failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("scheduler stopped")
	}
	log.Info().Msg("monitor shutting down")
}
