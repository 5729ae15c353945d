package main

import (
	"context"
	"fmt"
	"os"

	"kassabok/internal/backend"
	"kassabok/internal/cli"
	"kassabok/internal/command"
	"kassabok/internal/log"
)

func main() {
	// Load .env file for local development
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(command.ExitCommandError)
	}

	logger := cli.SetupLogger(cfg, os.Stderr, log.ComponentApp)

	root := command.NewRootCommand(cfg, backend.NewFactory(logger), logger)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(command.GetExitCode(err))
	}
}
