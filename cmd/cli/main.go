package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/PremSaiBollamoni/tallybridge/internal/config"
	"github.com/PremSaiBollamoni/tallybridge/internal/extract"
	"github.com/PremSaiBollamoni/tallybridge/internal/logger"
	"github.com/PremSaiBollamoni/tallybridge/internal/pipeline"
	"github.com/PremSaiBollamoni/tallybridge/internal/report"
	"github.com/PremSaiBollamoni/tallybridge/internal/store"
	"github.com/PremSaiBollamoni/tallybridge/internal/tally"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess(log)
	case "probe":
		runProbe(log)
	case "history":
		runHistory(log)
	case "report":
		runReport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("TallyBridge CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process   Extract invoices and post purchase vouchers to Tally")
	fmt.Println("  probe     Check that the TallyPrime gateway is reachable")
	fmt.Println("  history   List past imports")
	fmt.Println("  report    Export the import history as an Excel workbook")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func loadConfig(log zerolog.Logger) config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	return cfg
}

func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	token := fs.String("token", "", "DeepInfra API token (overrides DEEPINFRA_TOKEN)")
	resultsDir := fs.String("output", "", "Results directory (overrides RESULTS_DIR)")
	fs.Parse(os.Args[2:])

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: cli process [options] FILE...")
		os.Exit(1)
	}

	cfg := loadConfig(log)
	if *token != "" {
		cfg.DeepInfraToken = *token
	}
	if *resultsDir != "" {
		cfg.ResultsDir = *resultsDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	results, err := store.New(cfg.ResultsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results store")
	}
	pages, err := extract.ForConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}
	orchestrator := pipeline.NewOrchestrator(
		extract.NewFileExtractor(pages),
		tally.NewClient(cfg.BaseURL(), log),
		results,
		log,
	)

	ctx := logger.WithContext(context.Background(), log)

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Importing invoices"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	failed := 0
	for _, file := range files {
		run := orchestrator.ProcessFile(ctx, file)
		if bar != nil {
			bar.Add(1)
		}
		if run.Success {
			fmt.Printf("\n%s: imported (run %s)\n", filepath.Base(file), run.Key)
		} else {
			failed++
			fmt.Printf("\n%s: FAILED: %s\n", filepath.Base(file), run.Error)
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d file(s) failed.\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Printf("\nAll %d file(s) imported successfully.\n", len(files))
}

func runProbe(log zerolog.Logger) {
	cfg := loadConfig(log)

	ctx, cancel := context.WithTimeout(context.Background(), tally.ProbeTimeout)
	defer cancel()

	client := tally.NewClient(cfg.BaseURL(), log)
	if err := client.Probe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Tally gateway at %s is not reachable: %v\n", cfg.BaseURL(), err)
		os.Exit(1)
	}
	fmt.Printf("Tally gateway at %s is reachable (company: %s).\n", cfg.BaseURL(), cfg.CompanyName)
}

func runHistory(log zerolog.Logger) {
	cfg := loadConfig(log)

	results, err := store.New(cfg.ResultsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results store")
	}
	entries, err := results.History()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list history")
	}

	if len(entries) == 0 {
		fmt.Println("No imports recorded yet.")
		return
	}

	fmt.Printf("%-17s  %-20s  %-28s  %12s\n", "TIMESTAMP", "INVOICE", "VENDOR", "TOTAL")
	for _, e := range entries {
		fmt.Printf("%-17s  %-20s  %-28s  %12.2f\n", e.Timestamp, e.InvoiceNumber, e.VendorName, e.TotalAmount)
	}
	fmt.Printf("\n%d import(s) in %s\n", len(entries), cfg.ResultsDir)
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	out := fs.String("out", "import_history.xlsx", "Output workbook path")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log)

	results, err := store.New(cfg.ResultsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results store")
	}
	entries, err := results.History()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list history")
	}

	start := time.Now()
	if err := report.WriteFile(*out, entries); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}
	fmt.Printf("Wrote %d import(s) to %s in %s.\n", len(entries), *out, time.Since(start).Round(time.Millisecond))
}
