package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskey",
	Short: "Taskey API - local task marketplace",
	Long: `Taskey connects customers who post household tasks with helpers who
bid on them, check in on arrival and complete a checklist.

Run "taskey serve" to start the HTTP API and "taskey migrate" to create
the schema and indexes.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
