package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"rpdbot/config"
	"rpdbot/internal/logger"
	"rpdbot/internal/marketdata"
	"rpdbot/internal/marketdata/binance"
	"rpdbot/internal/marketdata/yahoo"
	"rpdbot/internal/metrics"
	"rpdbot/internal/notification"
	"rpdbot/internal/poller"
	redisstore "rpdbot/internal/store/redis"
	sqlitestore "rpdbot/internal/store/sqlite"
	"rpdbot/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[alertbot] starting...")

	// ---- Load config from env ----
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[alertbot] config: %v", err)
	}

	slogger := logger.Init("alertbot", slog.LevelInfo)

	assetNames := make([]string, len(cfg.Assets))
	for i, a := range cfg.Assets {
		assetNames[i] = a.Name
	}
	log.Printf("[alertbot] tracking %d assets: %v (cycle=%s)", len(cfg.Assets), assetNames, cfg.PollInterval)

	// ---- Setup metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetAssets(assetNames)

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Signal journal (SQLite) ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	journal, err := sqlitestore.New(sqlitestore.JournalConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[alertbot] sqlite init failed: %v", err)
	}
	defer journal.Close()
	health.SetSQLiteOK(true)
	log.Println("[alertbot] signal journal ready")

	// ---- Optional Redis publisher ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[alertbot] WARNING: redis init failed: %v (continuing without redis)", err)
			health.SetRedisConnected(false)
			publisher = nil
		} else {
			health.SetRedisConnected(true)
			log.Println("[alertbot] redis publisher ready")
		}
	}

	// ---- Periodic liveness checks ----
	if publisher != nil {
		health.StartLivenessChecker(ctx, publisher.Client(), journal.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, journal.DB(), 10*time.Second)
	}

	// ---- Data sources ----
	rest := binance.NewClient("")
	sources := map[string]marketdata.Source{
		"binance": rest,
		"yahoo":   yahoo.NewClient(""),
	}

	// Streamed assets share one source id; each gets its own WS connection.
	streams := binance.NewStreamSet()
	for _, a := range cfg.Assets {
		if a.Source != "binance-ws" {
			continue
		}
		st := binance.NewStream(rest, "", a.Symbol, a.Interval, cfg.FetchLimit)
		streams.Add(st)
	}
	if sts := streams.Streams(); len(sts) > 0 {
		sources["binance-ws"] = streams
		for _, st := range sts {
			st := st
			go func() {
				for {
					if err := st.Start(ctx); err != nil {
						log.Printf("[alertbot] stream start failed: %v, retrying in 30s", err)
					}
					select {
					case <-ctx.Done():
						return
					case <-time.After(30 * time.Second):
					}
				}
			}()
		}
	}

	// ---- Notifier ----
	var notifiers notification.Fanout
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	} else {
		log.Println("[alertbot] WARNING: no Telegram credentials, alerts go to the log only")
		notifiers = append(notifiers, notification.NewLogNotifier())
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}

	// ---- Poller ----
	bot := poller.New(poller.Options{
		Assets:     cfg.Assets,
		Sources:    sources,
		Evaluator:  strategy.NewEvaluator(nil),
		Gate:       strategy.NewGate(),
		Notifier:   notifiers,
		Journal:    journal,
		Publisher:  publisher,
		Metrics:    prom,
		Health:     health,
		Log:        slogger,
		Interval:   cfg.PollInterval,
		AssetDelay: cfg.AssetDelay,
		FetchLimit: cfg.FetchLimit,
	})

	// ---- Keep-alive / metrics / admin server ----
	statusSrv := metrics.NewServer(cfg.StatusAddr, health, journal, bot, cfg.AdminTOTPSecret)
	statusSrv.Start()

	go bot.Run(ctx)
	log.Printf("[alertbot] pipeline ready: [fetch] → [RSI+fractal] → [dedup gate] → [notify]")

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[alertbot] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	statusSrv.Stop(shutdownCtx)

	if publisher != nil {
		publisher.Close()
	}

	log.Println("[alertbot] shutdown complete.")
}
