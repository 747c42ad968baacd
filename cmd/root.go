/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apiprobe/apiprobe/internal/config"
	"github.com/apiprobe/apiprobe/internal/resume"
	"github.com/apiprobe/apiprobe/pkg/logger"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
	log *logrus.Logger

	isTTY = isatty.IsTerminal(os.Stdout.Fd())

	// Color helpers
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	white  = color.New(color.FgWhite, color.Bold).SprintFunc()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apiprobe",
	Short: "API conformance and load testing harness",
	Long: `apiprobe exercises a remote API against an endpoint catalog, scoring
each response for structural accuracy and collecting timing statistics.

Sessions checkpoint their progress after every completed test, so an
interrupted run can be resumed from where it left off. The load command
fires concurrent bursts at a single endpoint and reports latency figures.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		log = logger.New(level)
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// openStore builds the checkpoint store selected in the configuration.
// The returned closer is nil for backends without resources to release.
func openStore() (*resume.Store, func() error, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		kv, err := resume.NewSQLiteKV(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return resume.NewStore(kv, log), kv.Close, nil
	case "file":
		kv, err := resume.NewFileKV(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return resume.NewStore(kv, log), nil, nil
	case "memory":
		return resume.NewStore(resume.NewMemoryKV(), log), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (want sqlite, file or memory)", cfg.Store.Backend)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./apiprobe.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
}
