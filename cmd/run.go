/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/apiprobe/apiprobe/internal/catalog"
	"github.com/apiprobe/apiprobe/internal/export"
	"github.com/apiprobe/apiprobe/internal/httpexec"
	"github.com/apiprobe/apiprobe/internal/models"
	"github.com/apiprobe/apiprobe/internal/session"
	"github.com/apiprobe/apiprobe/internal/stats"
)

var (
	serverURL    string
	filter       string
	categories   []string
	sessionName  string
	noPersist    bool
	outputFormat string
	outputFile   string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [catalog-file]",
	Short: "Run a conformance session against the API",
	Long: `Run a conformance session: every selected endpoint from the catalog is
called once, its response scored against the expected shape, and the
timing recorded. Progress is checkpointed after each test, so an
interrupted session can be continued with the resume command.

Examples:
  # Run the full catalog
  apiprobe run catalog.yaml

  # Only the transcription category, against a staging server
  apiprobe run catalog.yaml --category transcription --server https://staging.example.com

  # Export results as CSV
  apiprobe run catalog.yaml -o csv --output-file results.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSession,
}

func runSession(cmd *cobra.Command, args []string) error {
	catalogFile := cfg.Catalog
	if len(args) > 0 {
		catalogFile = args[0]
	}

	cat, err := catalog.Load(catalogFile)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	endpoints := catalog.Filter(cat.Endpoints(), filter, categories)
	if len(endpoints) == 0 {
		fmt.Println("No endpoints found matching the criteria")
		return nil
	}

	testCfg := cfg.TestConfig()
	if serverURL != "" {
		testCfg.BaseURL = serverURL
	}
	if noPersist {
		testCfg.Persistence = false
	}

	orch, closeStore, err := newOrchestrator(testCfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// SIGINT pauses instead of killing: the checkpoint survives, and the
	// session can be continued with the resume command.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\n\nInterrupted, pausing session after the in-flight request settles...")
		orch.Pause()
	}()

	fmt.Printf("\n%s\n", white("=== Session Configuration ==="))
	fmt.Printf("Server:    %s\n", testCfg.BaseURL)
	fmt.Printf("Endpoints: %d\n", len(endpoints))
	fmt.Printf("Timeout:   %v\n", testCfg.Timeout())
	fmt.Printf("Retries:   %d\n", testCfg.Retries)
	fmt.Println()

	sess, err := orch.Run(ctx, sessionName, endpoints, sessionEventHandler())
	if err != nil {
		return err
	}

	return finishSession(sess)
}

// sessionEventHandler renders live progress, with a spinner on a TTY and
// plain lines otherwise.
func sessionEventHandler() session.OnEvent {
	var s *spinner.Spinner

	return func(event session.Event) {
		switch event.Type {
		case session.EventStarting:
			if isTTY {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" [%d/%d] %s %s",
					event.Index+1, event.Total, event.Endpoint.Method, event.Endpoint.Path)
				s.Start()
			} else {
				fmt.Printf("[%d/%d] %s %s...\n",
					event.Index+1, event.Total, event.Endpoint.Method, event.Endpoint.Path)
			}

		case session.EventCompleted:
			if isTTY && s != nil {
				s.Stop()
			}

			result := event.Result
			prefix := fmt.Sprintf("[%d/%d]", event.Index+1, event.Total)

			var status string
			switch {
			case result.Succeeded():
				status = green("✓")
			case result.Status == models.StatusTimeout:
				status = yellow("●")
			default:
				status = red("✗")
			}

			fmt.Printf("%s %s %s %s\n", prefix, status, result.Method, result.Path)
			fmt.Printf("    %s %dms | status: %d | accuracy: %.1f%%\n",
				cyan("→"), result.TotalTimeMs, result.StatusCode, result.AccuracyPercentage)
			if result.Error != "" {
				fmt.Printf("    Error: %s\n", red(result.Error))
			}
		}
	}
}

// finishSession displays the summary, handles export, and sets the exit
// code the way CI pipelines expect.
func finishSession(sess *models.TestSession) error {
	if sess.Status == models.SessionPaused {
		fmt.Printf("\nSession %s paused after %d/%d tests.\n", sess.ID, sess.CompletedTests, sess.TotalTests)
		fmt.Printf("Continue with: %s\n", cyan("apiprobe resume "+sess.ID))
		return nil
	}

	if outputFormat != "" {
		format, err := export.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if err := export.Session(sess, format, outputFile); err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
		if outputFile != "" {
			fmt.Printf("\nResults exported to: %s\n", outputFile)
			displaySessionSummary(sess)
		}
		// Writing to stdout already carries the full picture
	} else {
		displaySessionSummary(sess)
	}

	if sess.FailedTests > 0 {
		os.Exit(1)
	}
	return nil
}

func displaySessionSummary(sess *models.TestSession) {
	agg := stats.Aggregate(sess.Results)

	fmt.Println()
	fmt.Printf("%s\n", white("=== Session Summary ==="))
	fmt.Printf("Session:    %s\n", sess.ID)
	fmt.Printf("Total:      %d\n", sess.TotalTests)
	fmt.Printf("Passed:     %s\n", green(fmt.Sprintf("%d", sess.SuccessfulTests)))
	if sess.FailedTests > 0 {
		fmt.Printf("Failed:     %s\n", red(fmt.Sprintf("%d", sess.FailedTests)))
	} else {
		fmt.Printf("Failed:     0\n")
	}
	fmt.Printf("Throughput: %s\n", cyan(fmt.Sprintf("%.1f req/sec", agg.Throughput)))
	fmt.Println()

	fmt.Printf("%s\n", white("Latency Overview:"))
	fmt.Printf("  Min: %dms\n", agg.MinResponseTimeMs)
	fmt.Printf("  Avg: %.1fms\n", agg.AverageResponseTimeMs)
	fmt.Printf("  Max: %dms\n", agg.MaxResponseTimeMs)
	fmt.Println()

	if len(agg.Categories) > 0 {
		fmt.Printf("%s\n", white("Per-Category Results:"))
		fmt.Printf("%-24s %8s %8s %8s %12s\n", "CATEGORY", "TOTAL", "PASS", "FAIL", "AVG(ms)")
		for name, cs := range agg.Categories {
			fmt.Printf("%-24s %8d %8d %8d %12.1f\n",
				name, cs.Total, cs.Successful, cs.Failed, cs.AverageTimeMs)
		}
		fmt.Println()
	}

	if verbose {
		for _, result := range sess.Results {
			status := "✓ PASS"
			if !result.Succeeded() {
				status = "✗ FAIL"
			}
			fmt.Printf("%s %s %s\n", status, result.Method, result.Path)
			fmt.Printf("  Status Code: %d\n", result.StatusCode)
			fmt.Printf("  Total Time: %dms\n", result.TotalTimeMs)
			fmt.Printf("  Accuracy: %.1f%%\n", result.AccuracyPercentage)
			if result.Error != "" {
				fmt.Printf("  Error: %s\n", result.Error)
			}
			fmt.Println()
		}
	}
}

// newOrchestrator wires the HTTP client and checkpoint store for a
// session. The returned closer may be nil.
func newOrchestrator(testCfg models.TestConfig) (*session.Orchestrator, func() error, error) {
	client := httpexec.NewClient(httpexec.Options{
		Timeout: testCfg.Timeout(),
		Retries: testCfg.Retries,
	}, log)

	if testCfg.Persistence {
		st, closer, err := openStore()
		if err != nil {
			return nil, nil, err
		}
		return session.New(testCfg, client, st, log), closer, nil
	}

	return session.New(testCfg, client, nil, log), nil, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&serverURL, "server", "", "Override base URL from configuration")
	runCmd.Flags().StringVar(&filter, "filter", "", "Filter endpoints by name or path substring")
	runCmd.Flags().StringSliceVar(&categories, "category", []string{}, "Filter by category (can be specified multiple times)")
	runCmd.Flags().StringVar(&sessionName, "name", "", "Optional session name")
	runCmd.Flags().BoolVar(&noPersist, "no-persist", false, "Disable checkpointing for this session")

	runCmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, csv")
	runCmd.Flags().StringVar(&outputFile, "output-file", "", "Write output to file (default: stdout)")
}
