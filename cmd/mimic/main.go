package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "mimic",
		Usage: "Solana copy-trade service CLI",
		Description: `A command-line tool for managing and debugging the mimic service.

Use this CLI to stream trade events, replay captured webhook payloads, and
check server health.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Trade event streaming commands
			{
				Name:  "trades",
				Usage: "Trade event streaming commands",
				Subcommands: []*cli.Command{
					subscribeCommand(),
					awaitCommand(),
					inspectStreamCommand(),
				},
			},
			// Webhook replay commands
			{
				Name:  "webhook",
				Usage: "Webhook replay commands",
				Subcommands: []*cli.Command{
					replayCommand(),
				},
			},
			// Server utility commands
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Server URL for health checks and webhook replay",
				EnvVars: []string{"SERVER_URL"},
				Value:   "http://localhost:3000",
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
