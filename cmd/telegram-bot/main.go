package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/PadmDeveloper/RedmineBrowser/internal/automation"
	"github.com/PadmDeveloper/RedmineBrowser/internal/bot"
	"github.com/PadmDeveloper/RedmineBrowser/internal/config"
	"github.com/PadmDeveloper/RedmineBrowser/internal/intake"
	"github.com/joho/godotenv"
)

var loadDotEnv = godotenv.Load

func main() {
	if err := run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot failed: %v", err)
	}
}

func run(ctx context.Context) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := config.LoadBot()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting telegram bot...")
	log.Printf("Automation server: %s", cfg.AutomationServerURL)
	log.Printf("Authorized chat: %d", cfg.AuthorizedChatID)

	client := automation.NewClient(cfg.AutomationServerURL, cfg.BoundarySecret, cfg.RequestTimeout)
	manager := intake.NewManager(cfg.AuthorizedChatID, client)

	b, err := bot.New(cfg.TelegramBotToken, manager)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return b.Run(ctx)
}
