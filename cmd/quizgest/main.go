// Package main provides the quizgest CLI.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/revyard/quizgest/internal/api"
	"github.com/revyard/quizgest/internal/config"
	"github.com/revyard/quizgest/internal/extract"
	"github.com/revyard/quizgest/internal/fetch"
	"github.com/revyard/quizgest/internal/parser"
	"github.com/revyard/quizgest/internal/pipeline"
	"github.com/revyard/quizgest/internal/quizbank"
)

// version is set at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "quizgest",
		Short: "Extract structured quiz records from messy quiz documents",
		Long: `quizgest reconstructs structured quiz records (question text, choices,
correct answers, supporting image) from inconsistently authored quiz
documents: HTML pages, Markdown, plain text, PDF, DOCX, or CSV.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func newExtractCmd() *cobra.Command {
	var outputDir string
	var selector string

	cmd := &cobra.Command{
		Use:   "extract [files and URLs...]",
		Short: "Extract quiz records from documents into JSON files",
		Long: `Parse each input, run the extraction engine, and write one JSON file of
records per input. Local paths and http(s) URLs both work. The output path
mirrors the input path with every "html" replaced by "json" in the directory
(the convention quiz dumps are organized by); -o overrides the directory.

Exits non-zero when any input fails or validation finds errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewTextHandler(os.Stderr, nil))

			cfg := config.Load()
			if selector != "" {
				cfg.ContentSelector = selector
			}
			opts := parser.Options{
				ContentSelector: cfg.ContentSelector,
				PDFTextFallback: cfg.PDFFallbackPdftotext,
			}

			client := fetch.NewClient(cfg.FetchTimeout, cfg.FetchMaxBytes)
			defer client.Close()

			failed := 0
			totalErrors := 0
			totalWarnings := 0
			for _, arg := range args {
				rep, err := extractOne(cmd.Context(), client, arg, outputDir, opts, log)
				if err != nil {
					log.Error("extract failed", "input", arg, "error", err)
					failed++
					continue
				}
				totalErrors += rep.ErrorCount
				totalWarnings += rep.WarnCount
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d input(s) failed", failed, len(args))
			}
			if totalErrors > 0 {
				return fmt.Errorf("validation found %d error(s), %d warning(s)", totalErrors, totalWarnings)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for JSON output (default: derived from the input path)")
	cmd.Flags().StringVar(&selector, "selector", "", "CSS selector for the HTML content root (overrides CONTENT_SELECTOR)")
	return cmd
}

func extractOne(ctx context.Context, client *fetch.Client, input, outputDir string, opts parser.Options, log *slog.Logger) (extract.Report, error) {
	var data []byte
	var filename string
	var err error

	if fetch.IsURL(input) {
		data, err = fetchWithRetry(ctx, client, input, log)
		if err != nil {
			return extract.Report{}, err
		}
		filename = fetch.Filename(input)
	} else {
		data, err = os.ReadFile(input)
		if err != nil {
			return extract.Report{}, err
		}
		filename = filepath.Base(input)
	}

	p, err := parser.ForFile(filename, opts)
	if err != nil {
		return extract.Report{}, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return extract.Report{}, fmt.Errorf("parse: %w", err)
	}

	records := extract.Extract(doc)
	rep := extract.Validate(records)

	out, err := extract.EncodeRecords(records)
	if err != nil {
		return rep, err
	}

	outPath := outputPath(input, filename, outputDir)
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return rep, err
		}
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return rep, err
	}

	fmt.Printf("%s: %d records -> %s\n", input, len(records), outPath)
	printFindings(os.Stdout, rep)
	return rep, nil
}

// outputPath mirrors the input layout: quiz dumps keep HTML under html/
// directories, and the JSON lands in the json/ twin. Inputs without an html
// segment write next to the input; URLs write to the working directory.
func outputPath(input, filename, overrideDir string) string {
	dir := "."
	if !fetch.IsURL(input) {
		dir = filepath.Dir(input)
	}
	outDir := strings.ReplaceAll(dir, "html", "json")
	if overrideDir != "" {
		outDir = overrideDir
	}
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return filepath.Join(outDir, stem+".json")
}

func fetchWithRetry(ctx context.Context, client *fetch.Client, url string, log *slog.Logger) ([]byte, error) {
	var data []byte
	var lastErr error
	for attempt := 0; attempt < pipeline.MaxRetries; attempt++ {
		data, lastErr = client.Get(ctx, url)
		if lastErr == nil || !pipeline.IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable fetch error", "url", url, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(pipeline.Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return data, lastErr
}

func printFindings(w io.Writer, rep extract.Report) {
	for _, f := range rep.Findings {
		label := fmt.Sprintf("record %d", f.Index)
		if f.Number > 0 {
			label = fmt.Sprintf("record %d (question %d)", f.Index, f.Number)
		}
		for _, msg := range f.Errors {
			fmt.Fprintf(w, "  %s: error: %s\n", label, msg)
		}
		for _, msg := range f.Warnings {
			fmt.Fprintf(w, "  %s: warning: %s\n", label, msg)
		}
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [json files...]",
		Short: "Re-run validation over previously extracted record files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			totalErrors := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				records, err := extract.DecodeRecords(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				rep := extract.Validate(records)
				fmt.Printf("%s: %d records, %d error(s), %d warning(s)\n",
					path, len(records), rep.ErrorCount, rep.WarnCount)
				printFindings(os.Stdout, rep)
				totalErrors += rep.ErrorCount
			}
			if totalErrors > 0 {
				return fmt.Errorf("validation found %d error(s)", totalErrors)
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP extraction service",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var bank *quizbank.Store
			if cfg.QuizBankPath != "" {
				var err error
				bank, err = quizbank.Open(cfg.QuizBankPath)
				if err != nil {
					return fmt.Errorf("open quiz bank: %w", err)
				}
				defer bank.Close()
				log.Info("quiz bank enabled", "path", cfg.QuizBankPath)
			}

			orch := pipeline.NewOrchestrator(cfg, bank, log)
			orch.Start(ctx)

			srv := api.NewServer(orch, log, cfg)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("shutting down...")

				orch.Stop()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting quizgest", "port", cfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}
