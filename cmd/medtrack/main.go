package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"medtrack/internal/ai"
	"medtrack/internal/config"
	"medtrack/internal/database"
	"medtrack/internal/importer"
	"medtrack/internal/openfda"
	"medtrack/internal/repository"
	"medtrack/internal/resolver"
	"medtrack/internal/scheduler"
)

// Usage:
//
//	medtrack                          run the resolver daemon
//	medtrack capture <uid> <text...>  capture a drug+schedule from free text
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Stores
	userRepo := repository.NewUserRepository(db)
	drugRepo := repository.NewDrugRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	doseLogRepo := repository.NewDoseLogRepository(db)

	// Initialize AI client (optional)
	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, free-text schedule capture disabled")
	}

	fdaClient := openfda.New(cfg.OpenFDABaseURL)
	imp := importer.New(drugRepo, scheduleRepo, fdaClient, aiClient)
	generator := resolver.New(drugRepo, scheduleRepo, doseLogRepo)

	if len(os.Args) > 1 && os.Args[1] == "capture" {
		if len(os.Args) < 4 {
			log.Fatal("usage: medtrack capture <uid> <schedule text>")
		}
		uid, text := os.Args[2], strings.Join(os.Args[3:], " ")
		if _, err := userRepo.GetOrCreate(ctx, uid); err != nil {
			log.Fatalf("Failed to get or create user: %v", err)
		}
		drug, scheduleID, err := imp.CaptureScheduleText(ctx, uid, text, timezoneOrUTC())
		if err != nil {
			log.Fatalf("Failed to capture schedule: %v", err)
		}
		log.Printf("Captured schedule %d for drug %q (id %d)", scheduleID, drug.Name, drug.DrugID)
		if err := generator.GenerateDueOccurrences(ctx, uid, time.Now()); err != nil {
			log.Fatalf("Failed to generate occurrences: %v", err)
		}
		return
	}

	// Run the resolver daemon
	sched := scheduler.New(userRepo, generator, cfg.ResolveInterval)
	go sched.Start(ctx)

	// SIGHUP forces an immediate resolution pass
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			sched.Notify()
			continue
		}
		log.Println("Shutting down...")
		cancel()
		return
	}
}

func timezoneOrUTC() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	return "UTC"
}
