package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foodmart",
	Short: "FoodMart price comparison API",
	// Running the binary without a subcommand starts the server
	RunE: runServe,
}

func init() {
	// Persistent so both `foodmart` and `foodmart serve` accept it
	rootCmd.PersistentFlags().BoolVar(&skipMigrations, "skip-migrations", false, "start without applying pending migrations")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
