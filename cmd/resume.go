/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apiprobe/apiprobe/internal/catalog"
	"github.com/apiprobe/apiprobe/internal/session"
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Continue an interrupted session from its checkpoint",
	Long: `Continue a paused or interrupted session from its last checkpoint.
Already-completed tests are kept; only the remaining endpoints are run.

Without a session id the most recently checkpointed session is resumed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	var sessionID string
	if len(args) > 0 {
		sessionID = args[0]
	}

	catalogFile := cfg.Catalog
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
	testCfg.Persistence = true

	orch, closeStore, err := newOrchestrator(testCfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\n\nInterrupted, pausing session after the in-flight request settles...")
		orch.Pause()
	}()

	sess, err := orch.Resume(ctx, sessionID, endpoints, sessionEventHandler())
	if errors.Is(err, session.ErrNoCheckpoint) {
		fmt.Println("No resumable checkpoint found")
		return nil
	}
	if err != nil {
		return err
	}

	return finishSession(sess)
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringVar(&filter, "filter", "", "Filter endpoints by name or path substring")
	resumeCmd.Flags().StringSliceVar(&categories, "category", []string{}, "Filter by category")
	resumeCmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, csv")
	resumeCmd.Flags().StringVar(&outputFile, "output-file", "", "Write output to file (default: stdout)")
}
