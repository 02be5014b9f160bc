package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"DivergenceSentinel/internal/app"
	"DivergenceSentinel/internal/config"
	"DivergenceSentinel/internal/notifier"
	"DivergenceSentinel/internal/scheduler"
	"DivergenceSentinel/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] DivergenceSentinel starting...")

	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("[FATAL] init: %v", err)
	}
	defer a.Close()
	log.Printf("[INFO] analysis preset: %s", a.Scanner.Config.Name)

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
		sender = tn
	} else {
		log.Println("[WARN] telegram not configured, scan results are only logged")
	}

	sched := scheduler.NewScheduler(ctx, a.Scanner, sender, a.Recorder, scheduler.NewTradingCalendar("xshg"))
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	srv := server.New(a.Scanner, a.Recorder)
	go func() {
		if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
			log.Printf("[ERROR] %v", err)
		}
	}()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, scanning watchlist now")
		go sched.RunScanNow("startup")
	}

	log.Println("[INFO] DivergenceSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] DivergenceSentinel stopped")
}
