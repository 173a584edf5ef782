package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmolina/cash-closure/internal/archive"
	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
	infraBQ "github.com/dmolina/cash-closure/internal/infra/bigquery"
	"github.com/dmolina/cash-closure/internal/logger"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "current":
		runCurrent(log)
	case "close":
		runClose(log)
	case "history":
		runHistory(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Cash Closure CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  current   Show the open period's live totals")
	fmt.Println("  close     Close the current period")
	fmt.Println("  history   List persisted closures, newest first")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// registerFlags are the connection flags shared by every subcommand.
type registerFlags struct {
	project    *string
	dataset    *string
	registerID *string
	cutoffHour *int
}

func addRegisterFlags(fs *flag.FlagSet) registerFlags {
	return registerFlags{
		project:    fs.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID"),
		dataset:    fs.String("dataset", os.Getenv("BQ_DATASET"), "BigQuery dataset"),
		registerID: fs.String("register-id", os.Getenv("REGISTER_ID"), "Cash register identifier"),
		cutoffHour: fs.Int("cutoff-hour", 0, "Hour of day (0-23) when the accounting day rolls over"),
	}
}

func newManager(ctx context.Context, rf registerFlags, log zerolog.Logger) (*closure.Manager, func()) {
	if *rf.project == "" {
		log.Fatal().Msg("Error: --project is required (or set GOOGLE_CLOUD_PROJECT)")
	}

	feed, err := infraBQ.NewLedgerFeed(ctx, *rf.project, *rf.dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery ledger feed")
	}

	store, err := infraBQ.NewClosureStore(ctx, *rf.project, *rf.dataset, *rf.registerID)
	if err != nil {
		feed.Close()
		log.Fatal().Err(err).Msg("Failed to create BigQuery closure store")
	}

	cleanup := func() {
		feed.Close()
		store.Close()
	}
	return closure.NewManager(feed, store, closure.Config{CutoffHour: *rf.cutoffHour}, log), cleanup
}

func runCurrent(log zerolog.Logger) {
	fs := flag.NewFlagSet("current", flag.ExitOnError)
	rf := addRegisterFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	manager, cleanup := newManager(ctx, rf, log)
	defer cleanup()

	current, err := manager.Current(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute current closure")
	}

	printClosure(current)
}

func runClose(log zerolog.Logger) {
	fs := flag.NewFlagSet("close", flag.ExitOnError)
	rf := addRegisterFlags(fs)
	closedBy := fs.String("closed-by", "", "Operator closing the register (required)")
	bucket := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for the closure snapshot (optional)")
	fs.Parse(os.Args[2:])

	if *closedBy == "" {
		log.Fatal().Msg("Error: --closed-by is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	manager, cleanup := newManager(ctx, rf, log)
	defer cleanup()

	closed, err := manager.Close(ctx, *closedBy)
	if err != nil {
		log.Fatal().Err(err).Msg("Close failed")
	}

	if *bucket != "" {
		archiver := archive.NewArchiver(*bucket)
		if uri, err := archiver.ArchiveClosure(ctx, closed); err != nil {
			log.Warn().Err(err).Str("closure_id", closed.ID).Msg("Failed to archive closure snapshot")
		} else {
			fmt.Printf("Snapshot archived to %s\n", uri)
		}
	}

	fmt.Println("Period closed successfully.")
	printClosure(closed)
}

func runHistory(log zerolog.Logger) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	rf := addRegisterFlags(fs)
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 20, "Closures per page")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	manager, cleanup := newManager(ctx, rf, log)
	defer cleanup()

	closures, total, err := manager.History(ctx, closure.Filter{Page: *page, PageSize: *pageSize})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list closures")
	}

	fmt.Printf("\n=== Closures (page %d, %d total) ===\n", *page, total)
	for i, c := range closures {
		fmt.Printf("\n%d. %s\n", i+1, c.ID)
		fmt.Printf("   Period:  %s - %s\n", c.PeriodStart.Format(time.RFC3339), c.PeriodEnd.Format(time.RFC3339))
		fmt.Printf("   Balance: %s (credit %s, debit %s)\n", c.TotalAmount.StringFixed(2), c.TotalCredit.StringFixed(2), c.TotalDebit.StringFixed(2))
		fmt.Printf("   Closed:  by %s\n", c.ClosedBy)
	}
	fmt.Println()
}

func printClosure(c *domain.CashClosure) {
	fmt.Println("\n=== Closure Details ===")
	if c.ID != "" {
		fmt.Printf("ID:           %s\n", c.ID)
	}
	fmt.Printf("Status:       %s\n", c.Status)
	fmt.Printf("Period start: %s\n", c.PeriodStart.Format(time.RFC3339))
	fmt.Printf("Period end:   %s\n", c.PeriodEnd.Format(time.RFC3339))
	fmt.Printf("Total credit: %s\n", c.TotalCredit.StringFixed(2))
	fmt.Printf("Total debit:  %s\n", c.TotalDebit.StringFixed(2))
	fmt.Printf("Balance:      %s\n", c.TotalAmount.StringFixed(2))

	fmt.Printf("\n=== Payment Methods (%d) ===\n", len(c.PaymentMethods))
	for _, m := range c.PaymentMethods {
		fmt.Printf("  %-24s credit %10s  debit %10s  total %10s\n",
			m.Name, m.Credit.StringFixed(2), m.Debit.StringFixed(2), m.Total.StringFixed(2))
	}
	fmt.Println()
}
