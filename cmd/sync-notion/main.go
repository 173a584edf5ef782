package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	infraBQ "github.com/dmolina/cash-closure/internal/infra/bigquery"
	"github.com/dmolina/cash-closure/internal/logger"
	"github.com/dmolina/cash-closure/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (required)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (required)")
	project := flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (required)")
	dataset := flag.String("dataset", os.Getenv("BQ_DATASET"), "BigQuery dataset holding the closure tables")
	registerID := flag.String("register-id", os.Getenv("REGISTER_ID"), "Cash register identifier")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	if *project == "" {
		log.Fatal().Msg("Error: --project is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("project", *project).
		Str("register_id", *registerID).
		Bool("dry_run", *dryRun).
		Msg("Starting closure sync to Notion")

	// Initialize closure store
	store, err := infraBQ.NewClosureStore(ctx, *project, *dataset, *registerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery closure store")
	}
	defer store.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync closures
	if err := notionsync.SyncClosures(ctx, store, notionClient, *notionDBID, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
