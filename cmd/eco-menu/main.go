package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"eco-menu/internal/auth"
	"eco-menu/internal/config"
	"eco-menu/internal/database"
	"eco-menu/internal/history"
	"eco-menu/internal/llm"
	"eco-menu/internal/logger"
	"eco-menu/internal/metrics"
	"eco-menu/internal/server"
	"eco-menu/internal/session"
)

const (
	sessionTTL      = 30 * time.Minute
	cleanupInterval = 5 * time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, relying on environment variables")
	}

	logger.Init()
	defer logger.Sync()
	log := logger.L()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	localLog, err := history.NewLocalLog(cfg.LocalHistoryPath)
	if err != nil {
		log.Fatal("failed to initialize local history log", zap.Error(err))
	}
	historyStore := history.NewStore(history.NewRepository(db.SQL), localLog)
	metricsStore := metrics.NewStore(db.SQL)

	var provider llm.Provider
	switch cfg.Provider {
	case config.ProviderAnthropic:
		provider = llm.NewAnthropicProvider(cfg)
	case config.ProviderOpenAI:
		provider = llm.NewOpenAIProvider(cfg)
	}
	log.Info("provider selected", zap.String("provider", provider.Name()))

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx := context.Background()

	switch command {
	case "serve":
		sessions := session.NewOrchestrator(provider, historyStore, metricsStore, sessionTTL)
		sessions.StartCleanup(ctx, cleanupInterval)

		srv := server.New(provider, historyStore, sessions, metricsStore, auth.NewVerifier(cfg.JWTSecret))
		if err := srv.Start(cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	case "metrics-report":
		reportCmd := flag.NewFlagSet("metrics-report", flag.ExitOnError)
		days := reportCmd.Int("days", 7, "Aggregate usage over the last N days")
		reportCmd.Parse(os.Args[2:])

		usage, err := metricsStore.GetDailyUsage(ctx, *days)
		if err != nil {
			log.Fatal("failed to aggregate usage", zap.Error(err))
		}
		for _, day := range usage {
			fmt.Printf("%s  calls=%d  prompt=%d  completion=%d\n",
				day.Date, day.TotalExecution, day.TotalPrompt, day.TotalCompletion)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatal("metrics cleanup failed", zap.Error(err))
		}
		fmt.Printf("removed %d old metric records\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: eco-menu [command] [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Start the HTTP server (default)")
	fmt.Println("  metrics-report     Print daily token usage")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
