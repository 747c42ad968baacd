/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/apiprobe/apiprobe/internal/catalog"
	"github.com/apiprobe/apiprobe/internal/httpexec"
	"github.com/apiprobe/apiprobe/internal/loadtest"
	"github.com/apiprobe/apiprobe/internal/session"
)

var (
	loadIterations  int
	loadConcurrency int
	loadRateLimit   float64
	loadNoKeepAlive bool
	loadOutputFile  string
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load [endpoint-name]",
	Short: "Fire a concurrent burst at a single endpoint",
	Long: `Fire a burst of identical requests at one catalog endpoint and report
latency figures: min, mean, median, max and the success rate. Results
are indexed by launch order, so individual slow requests can be traced.

Examples:
  # 100 requests, all issued at once
  apiprobe load transcribe-short

  # 1000 requests, at most 10 in flight
  apiprobe load transcribe-short -n 1000 -c 10

  # Rate-limited burst
  apiprobe load transcribe-short -n 500 --rate 50

  # Export the per-hit report as JSON
  apiprobe load transcribe-short --output-file report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	endpointName := args[0]

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	var target *catalog.Endpoint
	for _, ep := range cat.Endpoints() {
		if ep.Name == endpointName {
			target = &ep
			break
		}
	}
	if target == nil {
		return fmt.Errorf("endpoint %q not found in catalog", endpointName)
	}

	testCfg := cfg.TestConfig()
	if serverURL != "" {
		testCfg.BaseURL = serverURL
	}

	client := httpexec.NewClient(httpexec.Options{
		Timeout:          testCfg.Timeout(),
		DisableKeepAlive: loadNoKeepAlive,
		MaxConnsPerHost:  loadConcurrency,
	}, log)

	orch := session.New(testCfg, client, nil, log)
	controller := loadtest.New(loadtest.Options{
		Concurrency: loadConcurrency,
		RateLimit:   loadRateLimit,
	}, log)

	fmt.Printf("\n%s\n", white("=== Load Test Configuration ==="))
	fmt.Printf("Endpoint:    %s %s\n", target.Method, target.Path)
	fmt.Printf("Iterations:  %d\n", loadIterations)
	if loadConcurrency > 0 {
		fmt.Printf("Concurrency: %d\n", loadConcurrency)
	} else {
		fmt.Printf("Concurrency: unbounded\n")
	}
	if loadRateLimit > 0 {
		fmt.Printf("Rate Limit:  %.0f req/sec\n", loadRateLimit)
	}
	fmt.Printf("Timeout:     %v\n", testCfg.Timeout())
	fmt.Printf("Keep-Alive:  %v\n", !loadNoKeepAlive)
	fmt.Println()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\n\nLoad test interrupted, collecting partial results...")
		cancel()
	}()

	var s *spinner.Spinner
	if isTTY {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = fmt.Sprintf(" Firing %d requests at %s...", loadIterations, endpointName)
		s.Start()
	} else {
		fmt.Printf("Firing %d requests at %s...\n", loadIterations, endpointName)
	}

	started := time.Now()
	report := controller.Run(ctx, orch.LoadOperation(*target), loadIterations)
	elapsed := time.Since(started)

	if s != nil {
		s.Stop()
	}

	displayLoadReport(report, elapsed)

	if loadOutputFile != "" {
		if err := writeLoadReport(report, loadOutputFile); err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		fmt.Printf("Report exported to: %s\n", loadOutputFile)
	}

	if report.Summary.Failures > 0 {
		os.Exit(1)
	}
	return nil
}

func displayLoadReport(report loadtest.Report, elapsed time.Duration) {
	sum := report.Summary

	fmt.Println()
	fmt.Printf("%s\n", white("=== Load Test Summary ==="))
	fmt.Printf("Requests:     %d\n", sum.Count)
	fmt.Printf("Duration:     %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Success Rate: %s\n", cyan(fmt.Sprintf("%.1f%%", sum.SuccessRate)))
	if sum.Failures > 0 {
		fmt.Printf("Failures:     %s\n", red(fmt.Sprintf("%d", sum.Failures)))
	} else {
		fmt.Printf("Failures:     %s\n", green("0"))
	}
	fmt.Println()

	fmt.Printf("%s\n", white("Latency Overview:"))
	fmt.Printf("  Min:    %dms\n", sum.MinMs)
	fmt.Printf("  Mean:   %.1fms\n", sum.MeanMs)
	fmt.Printf("  Median: %dms\n", sum.MedianMs)
	fmt.Printf("  Max:    %dms\n", sum.MaxMs)
	fmt.Println()

	if verbose {
		fmt.Printf("%s\n", white("Per-Hit Results:"))
		for _, hit := range report.Hits {
			status := green("✓")
			if !hit.Success {
				status = red("✗")
			}
			fmt.Printf("  [%4d] %s %dms", hit.Index, status, hit.ResponseTimeMs)
			if hit.Error != "" {
				fmt.Printf(" - %s", red(hit.Error))
			}
			fmt.Println()
		}
		fmt.Println()
	}
}

func writeLoadReport(report loadtest.Report, filePath string) error {
	var w io.Writer = os.Stdout
	if filePath != "" {
		f, err := os.Create(filePath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&serverURL, "server", "", "Override base URL from configuration")
	loadCmd.Flags().IntVarP(&loadIterations, "iterations", "n", 100, "Number of requests to fire")
	loadCmd.Flags().IntVarP(&loadConcurrency, "concurrency", "c", 0, "Max in-flight requests (0 = unbounded)")
	loadCmd.Flags().Float64VarP(&loadRateLimit, "rate", "r", 0, "Max requests per second (0 = unlimited)")
	loadCmd.Flags().BoolVar(&loadNoKeepAlive, "no-keepalive", false, "Disable HTTP connection reuse")
	loadCmd.Flags().StringVar(&loadOutputFile, "output-file", "", "Write the per-hit JSON report to a file")
}
