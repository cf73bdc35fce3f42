package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-sms-parser/internal/api"
	"github.com/insightdelivered/bank-sms-parser/internal/categorize"
	"github.com/insightdelivered/bank-sms-parser/internal/config"
	"github.com/insightdelivered/bank-sms-parser/internal/extractor"
	"github.com/insightdelivered/bank-sms-parser/internal/ingest"
	"github.com/insightdelivered/bank-sms-parser/internal/logger"
	"github.com/insightdelivered/bank-sms-parser/internal/models"
	"github.com/insightdelivered/bank-sms-parser/internal/parser"
	"github.com/insightdelivered/bank-sms-parser/internal/store"
	"github.com/insightdelivered/bank-sms-parser/internal/writer"
)

const version = api.Version

func main() {
	// CLI flags
	serveFlag := flag.Bool("serve", false, "Run the HTTP ingestion server instead of converting files")
	senderFlag := flag.String("sender", "", "Sender id for exports that do not carry one (e.g. HDFCBK)")
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to <input>.parsed.csv)")
	headerFlag := flag.Bool("header", true, "Include summary header rows in CSV")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank SMS Transaction Parser
by Insight Delivered

Extracts amount, direction, counterparty, date, reference and bank from
Indian bank transaction SMS messages.

Usage:
  bank-sms-parser [flags] <export.csv|export.json|messages.txt> [...]
  bank-sms-parser -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # One message per line, all from the same bank
  bank-sms-parser --sender=HDFCBK messages.txt

  # CSV export with sender,timestamp,body columns
  bank-sms-parser --output=transactions.csv inbox.csv

  # Start the API (configured through PORT, DATABASE_PATH, STORE_BACKEND, LOG_LEVEL)
  bank-sms-parser -serve

Supported Banks:
  HDFC, SBI, ICICI, Axis, Kotak, Paytm (others are reported as "Unknown Bank")
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("bank-sms-parser v%s\n", version)
		os.Exit(0)
	}

	if *serveFlag {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	inputFiles := flag.Args()
	if *outputFlag != "" && len(inputFiles) > 1 {
		fatalf("--output can only be used with a single input file\n")
	}

	engine := parser.New()
	for _, inputPath := range inputFiles {
		if err := processFile(engine, inputPath, *senderFlag, *outputFlag, *headerFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func processFile(engine *parser.Engine, inputPath, sender, outputPath string, includeHeader bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	msgs, err := extractor.ReadFile(inputPath, sender)
	if err != nil {
		return fmt.Errorf("reading messages failed: %w", err)
	}

	fmt.Printf("  Read %d message(s) as %s\n", len(msgs), extractor.DetectFormat(inputPath))

	report := &writer.Report{
		Source:       filepath.Base(inputPath),
		MessagesRead: len(msgs),
	}
	invalid, guessed := 0, 0
	for _, msg := range msgs {
		txn, ok := engine.ParseMessage(msg)
		if !ok {
			continue
		}
		if !txn.IsValid {
			invalid++
		}
		if txn.IsGuess {
			guessed++
		}
		report.Transactions = append(report.Transactions, txn)
	}

	fmt.Printf("  Found %d transaction(s)\n", len(report.Transactions))
	if invalid > 0 {
		fmt.Printf("  %d without a usable amount\n", invalid)
	}
	if guessed > 0 {
		fmt.Printf("  %d with merchant %q\n", guessed, models.UnknownMerchant)
	}

	if len(report.Transactions) == 0 {
		fmt.Println("  Warning: No transactions found. Check that the file holds bank messages.")
		if sender == "" && extractor.DetectFormat(inputPath) == extractor.FormatText {
			fmt.Println("  Try --sender so the bank can be identified.")
		}
	}

	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outPath = base + ".parsed.csv"
	}

	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := w.WriteToFile(outPath, report); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)
	fmt.Println("  Done.")
	return nil
}

func serve() error {
	boot := logger.New("info", false)
	cfg := config.Load(boot)
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}()

	svc := ingest.NewService(parser.New(), categorize.NewKeywordCategorizer(), st, cfg.DedupCacheTTL)
	app := api.NewApp(&api.Handler{
		Service:          svc,
		MaxMessageLength: cfg.MaxMessageLength,
		DefaultListLimit: cfg.DefaultListLimit,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Msg("server starting")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (store.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn().Msg("using in-memory store, transactions are lost on restart")
		return store.NewMemoryStore(), nil
	}
	st, err := store.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", cfg.DatabasePath, err)
	}
	return st, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
