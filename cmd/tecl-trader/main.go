package main

import (
	"fmt"
	"os"

	"tecl-trader/internal/cli"
	"tecl-trader/internal/config"
	"tecl-trader/internal/logging"
)

func main() {
	cfg, err := config.Load(config.DirFromArgs(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
