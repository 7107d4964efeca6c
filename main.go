package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"summa/internal/document"
	"summa/internal/fetcher"
	"summa/internal/parts"
	"summa/internal/scrape"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	outputFile string
	part       string
	startQ     int
	endQ       int
	delay      float64
	verbose    bool
	baseURL    string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "summa",
		Short:   "Scrape the Summa Theologiae into a plain-text file",
		Version: version,
		Long: `summa fetches the Summa Theologiae question by question from aquinas.cc
and writes it to a single plain-text file, preserving the
Part > Question > Article structure of the text.

Runs over a whole part can take hours; the scraper throttles itself and
retries transient failures rather than aborting, so a flaky connection
costs placeholders in the output, not the run.`,
		Example: `  # Scrape all of the Prima Pars with a 2 second delay between requests
  summa -o prima_pars.txt -p 1 --delay 2

  # Scrape questions 90-114 of the Prima Secundae with progress detail
  summa -o texts/prima_secundae.txt -p II-I --start 90 --end 114 -v`,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "summa_output.txt", "Output file path")
	rootCmd.Flags().StringVarP(&part, "part", "p", "1", "Part of the Summa (1-4, or I, II-I, II-II, III)")
	rootCmd.Flags().IntVar(&startQ, "start", 1, "First question to scrape")
	rootCmd.Flags().IntVar(&endQ, "end", 0, "Last question to scrape (default: last question of the part)")
	rootCmd.Flags().Float64Var(&delay, "delay", 0, "Delay between requests in seconds")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "https://aquinas.cc", "Base URL of the source site")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	spec := parts.ForChoice(part)
	if endQ == 0 {
		endQ = spec.Questions
	}
	if startQ < 1 || endQ < startQ {
		return fmt.Errorf("invalid question range: %d-%d", startQ, endQ)
	}

	doc, err := document.Create(outputFile)
	if err != nil {
		return err
	}

	s := scrape.New(fetcher.NewClient(), doc, scrape.Options{
		BaseURL: baseURL,
		Delay:   time.Duration(delay * float64(time.Second)),
	})

	fmt.Printf("Scraping Summa Theologiae Part %s, Questions %d-%d...\n", spec.ID, startQ, endQ)

	runErr := s.Run(cmd.Context(), spec, startQ, endQ)
	if closeErr := doc.Close(); runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return runErr
	}

	abs, err := filepath.Abs(outputFile)
	if err != nil {
		abs = outputFile
	}
	fmt.Printf("Scraping complete! Results saved to: %s\n", abs)
	return nil
}
