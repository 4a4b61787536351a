package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gnana990/Equity-updated/internal/alert"
	"github.com/gnana990/Equity-updated/internal/chain"
	"github.com/gnana990/Equity-updated/internal/collector"
	"github.com/gnana990/Equity-updated/internal/config"
	"github.com/gnana990/Equity-updated/internal/history"
	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/notify"
	"github.com/gnana990/Equity-updated/internal/observ"
	"github.com/gnana990/Equity-updated/internal/provider"
	"github.com/gnana990/Equity-updated/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (empty = defaults)")
	flag.Parse()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	observ.Setup(cfg.Log.Level, cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)

	if !market.VerifySymbolOrder() {
		log.Fatal("symbol table is not sorted")
	}

	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create data dir: %v", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(cfg.Store.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	hist, err := history.NewStore(db,
		history.WithRetention(time.Duration(cfg.Store.RetentionHours)*time.Hour))
	if err != nil {
		log.Fatalf("history store: %v", err)
	}
	events, err := alert.NewEventStore(db)
	if err != nil {
		log.Fatalf("event store: %v", err)
	}
	users, err := alert.NewUserStore(db)
	if err != nil {
		log.Fatalf("user store: %v", err)
	}

	registry := alert.NewRegistry()
	alert.LoadAll(users, registry)

	live, err := provider.NewLiveClient(provider.LiveConfig{
		BaseURL:            cfg.Provider.BaseURL,
		APIKey:             cfg.Provider.APIKey,
		TimeoutSeconds:     cfg.Provider.TimeoutSeconds,
		RateLimitPerMinute: cfg.Provider.RateLimitPerMinute,
	})
	if err != nil {
		log.Fatalf("provider client: %v", err)
	}
	acquirer := chain.NewAcquirer(live,
		chain.WithFetchTimeout(time.Duration(cfg.Provider.TimeoutSeconds)*time.Second))

	notifier := notify.NewEmailSender(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	engine := alert.NewEngine(registry, events, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window := market.CollectionWindow
	if open, err := market.ParseTimeOfDay(cfg.Collector.WindowOpen); err == nil {
		if closeAt, err := market.ParseTimeOfDay(cfg.Collector.WindowClose); err == nil {
			window = market.Window{Open: open, Close: closeAt}
		}
	}
	coll := collector.New(acquirer, hist, engine,
		collector.WithSymbols(cfg.Collector.Symbols),
		collector.WithWindow(window),
		collector.WithInterval(
			time.Duration(cfg.Collector.IntervalSeconds)*time.Second,
			time.Duration(cfg.Collector.ErrorBackoffSeconds)*time.Second))
	go coll.Run(ctx)

	server := web.NewServer(live, acquirer, hist, registry, events, users, engine)
	observ.Log("dashboard_started", map[string]any{
		"addr":    cfg.HTTP.Addr,
		"store":   cfg.Store.Path,
		"symbols": cfg.Collector.Symbols,
	})
	if err := server.Run(ctx, cfg.HTTP.Addr); err != nil {
		log.Fatalf("http server: %v", err)
	}
	observ.Log("dashboard_stopped", nil)
}
