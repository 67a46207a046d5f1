// Package main implements the ahnlich-go server binary: a cobra CLI with
// a `serve` subcommand that runs the vector engine, and `snapshot
// restore`/`snapshot verify` subcommands for operating on a persisted
// snapshot file offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/ahnlich-go/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ahnlich-server",
	Short: "An in-memory vector database server",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional)")
	rootCmd.AddCommand(serveCmd, snapshotCmd)

	logger, _ := zap.NewProduction()
	logging.Init(logger)
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
