/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List resumable session checkpoints",
	Long: `List the session checkpoints held in the configured store, with their
progress and when they were last saved. Any of them can be continued
with the resume command.`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	ids := store.Sessions()
	if len(ids) == 0 {
		fmt.Println("No resumable sessions found")
		return nil
	}

	fmt.Printf("%-40s %12s %20s\n", "SESSION", "PROGRESS", "SAVED")
	for _, id := range ids {
		data := store.Load(id)
		if data == nil {
			continue
		}
		fmt.Printf("%-40s %6d tests %20s\n",
			id, data.LastCompletedIndex, data.SavedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
