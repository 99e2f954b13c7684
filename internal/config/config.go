package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server holds configuration for the automation server binary.
type Server struct {
	// Server settings
	Port int

	// Tracker settings
	RedmineBaseURL  string
	RedmineUsername string
	RedminePassword string

	// Boundary auth
	BoundarySecret string

	// Browser settings
	Headless          bool
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	SettleQuiet       time.Duration

	// Runner settings
	RunnerWorkers   int
	RunnerQueueSize int
}

// Bot holds configuration for the telegram bot binary.
type Bot struct {
	TelegramBotToken    string
	AuthorizedChatID    int64
	AutomationServerURL string
	BoundarySecret      string
	RequestTimeout      time.Duration
}

// LoadServer loads server configuration from environment variables
func LoadServer() (*Server, error) {
	cfg := &Server{
		Port:              getEnvInt("PORT", 5000),
		RedmineBaseURL:    os.Getenv("REDMINE_BASE_URL"),
		RedmineUsername:   os.Getenv("USERNAME"),
		RedminePassword:   os.Getenv("PASSWORD"),
		BoundarySecret:    os.Getenv("BOUNDARY_SECRET"),
		Headless:          getEnvBool("HEADLESS", true),
		NavigationTimeout: time.Duration(getEnvInt("NAVIGATION_TIMEOUT_SECONDS", 30)) * time.Second,
		SelectorTimeout:   time.Duration(getEnvInt("SELECTOR_TIMEOUT_SECONDS", 15)) * time.Second,
		SettleQuiet:       time.Duration(getEnvInt("SETTLE_QUIET_MS", 500)) * time.Millisecond,
		RunnerWorkers:     getEnvInt("RUNNER_WORKERS", 1),
		RunnerQueueSize:   getEnvInt("RUNNER_QUEUE_SIZE", 1),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadBot loads bot configuration from environment variables
func LoadBot() (*Bot, error) {
	cfg := &Bot{
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		AutomationServerURL: getEnv("AUTOMATION_SERVER_URL", "http://localhost:5000"),
		BoundarySecret:      os.Getenv("BOUNDARY_SECRET"),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
	}

	rawChatID := os.Getenv("AUTHORIZED_CHAT_ID")
	if rawChatID == "" {
		return nil, fmt.Errorf("AUTHORIZED_CHAT_ID is required")
	}
	chatID, err := strconv.ParseInt(rawChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("AUTHORIZED_CHAT_ID must be a valid integer: %w", err)
	}
	cfg.AuthorizedChatID = chatID

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.BoundarySecret == "" {
		return nil, fmt.Errorf("BOUNDARY_SECRET is required")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be greater than 0")
	}

	return cfg, nil
}

// validate checks that all required server configuration is present
func (c *Server) validate() error {
	if c.RedmineBaseURL == "" {
		return fmt.Errorf("REDMINE_BASE_URL is required")
	}
	if c.RedmineUsername == "" {
		return fmt.Errorf("USERNAME is required")
	}
	if c.RedminePassword == "" {
		return fmt.Errorf("PASSWORD is required")
	}
	if c.BoundarySecret == "" {
		return fmt.Errorf("BOUNDARY_SECRET is required")
	}
	if c.RunnerWorkers <= 0 {
		return fmt.Errorf("RUNNER_WORKERS must be greater than 0")
	}
	if c.RunnerQueueSize <= 0 {
		return fmt.Errorf("RUNNER_QUEUE_SIZE must be greater than 0")
	}
	return nil
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
