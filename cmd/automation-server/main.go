package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/PadmDeveloper/RedmineBrowser/internal/browser"
	"github.com/PadmDeveloper/RedmineBrowser/internal/config"
	"github.com/PadmDeveloper/RedmineBrowser/internal/runner"
	"github.com/PadmDeveloper/RedmineBrowser/internal/runstore"
	"github.com/PadmDeveloper/RedmineBrowser/internal/server"
	"github.com/PadmDeveloper/RedmineBrowser/internal/web"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

var (
	loadDotEnv         = godotenv.Load
	newRunStore        = runstore.NewStore
	newWebHandler      = web.NewHandler
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(context.Background(), defaultListenServe); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	// Load configuration
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting automation server...")
	log.Printf("Port: %d", cfg.Port)
	log.Printf("Tracker: %s", cfg.RedmineBaseURL)
	log.Printf("Runner workers: %d, queue size: %d", cfg.RunnerWorkers, cfg.RunnerQueueSize)

	// Initialize in-memory run store for the UI
	runStore := newRunStore()

	// Initialize browser driver
	driver := browser.NewDriver(browser.Config{
		BaseURL:     cfg.RedmineBaseURL,
		Username:    cfg.RedmineUsername,
		Password:    cfg.RedminePassword,
		Headless:    cfg.Headless,
		SettleQuiet: cfg.SettleQuiet,
		Timeouts: browser.Timeouts{
			Navigation: cfg.NavigationTimeout,
			Selector:   cfg.SelectorTimeout,
		},
	})

	// Initialize runner (admission gate in front of the driver)
	noteRunner := runner.New(driver, runStore, runner.Config{
		Workers:   cfg.RunnerWorkers,
		QueueSize: cfg.RunnerQueueSize,
	})
	defer noteRunner.Shutdown(ctx)

	// Initialize boundary handler
	handler := server.NewHandler(noteRunner, cfg.BoundarySecret)

	// Initialize run UI handler
	webHandler, err := newWebHandler(runStore)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}

	// Setup router
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	webHandler.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Automation endpoint: http://localhost%s/add_note", addr)
	log.Printf("Health check: http://localhost%s/health", addr)
	log.Printf("Runs UI: http://localhost%s/runs", addr)

	if err := serve(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
