/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiprobe/apiprobe/internal/catalog"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog [catalog-file]",
	Short: "Inspect the endpoint catalog",
	Long: `Show the categories and endpoints of a catalog without calling the API.
Useful for checking what a filter expression would select.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
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

	current := ""
	for _, ep := range endpoints {
		if ep.Category != current {
			current = ep.Category
			fmt.Printf("\n%s\n", white(current))
		}
		auth := ""
		if ep.RequiresAuth {
			auth = yellow(" [auth]")
		}
		fmt.Printf("  %-8s %-40s %s%s\n", ep.Method, ep.Path, ep.Name, auth)
		if verbose && ep.Description != "" {
			fmt.Printf("           %s\n", ep.Description)
		}
	}
	fmt.Printf("\n%d endpoints\n", len(endpoints))

	return nil
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringVar(&filter, "filter", "", "Filter endpoints by name or path substring")
	catalogCmd.Flags().StringSliceVar(&categories, "category", []string{}, "Filter by category")
}
