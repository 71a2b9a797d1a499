package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"savviwell/internal/app"
	"savviwell/internal/config"
	"savviwell/internal/logger"
	"savviwell/internal/planner"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Development: cfg.IsDevelopment()})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize app", zap.Error(err))
	}
	defer application.Close()

	switch os.Args[1] {
	case "plan":
		planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
		users := planCmd.String("users", "1", "Comma separated user ids")
		days := planCmd.Int("days", 7, "Number of days (1-14)")
		meals := planCmd.Int("meals", 0, "Meals per day (1-5, default one per meal type)")
		types := planCmd.String("types", "", "Comma separated meal types")
		spice := planCmd.String("spice", "medium", "Spice tier: mild, medium or hot")
		cuisine := planCmd.String("cuisine", "", "Cuisine hint")
		planCmd.Parse(os.Args[2:])

		ids, err := parseIDs(*users)
		if err != nil {
			zl.Fatal("invalid -users", zap.Error(err))
		}
		req := planner.PlanRequest{
			Audience:    ids,
			Days:        *days,
			MealsPerDay: *meals,
			MealTypes:   splitList(*types),
			Spice:       *spice,
			Cuisine:     *cuisine,
		}
		if err := application.PrintPlan(ctx, os.Stdout, req); err != nil {
			zl.Fatal("plan failed", zap.Error(err))
		}
	case "catalog-import":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		if err := application.ImportCatalog(ctx, os.Stdout, os.Args[2]); err != nil {
			zl.Fatal("import failed", zap.Error(err))
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])
		if err := application.CleanupMetrics(os.Stdout, *days); err != nil {
			zl.Fatal("cleanup failed", zap.Error(err))
		}
	case "usage":
		usageCmd := flag.NewFlagSet("usage", flag.ExitOnError)
		days := usageCmd.Int("days", 7, "Report the last N days")
		usageCmd.Parse(os.Args[2:])
		if err := application.PrintUsage(os.Stdout, *days); err != nil {
			zl.Fatal("usage report failed", zap.Error(err))
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range splitList(s) {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printUsage() {
	fmt.Println("Usage: savviwell <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan               Generate and print a meal plan (-users, -days, -meals, -types, -spice, -cuisine)")
	fmt.Println("  catalog-import     Add the recipe at <url> to the meal catalog")
	fmt.Println("  metrics-cleanup    Remove old usage records (-days)")
	fmt.Println("  usage              Print daily AI usage (-days)")
}
