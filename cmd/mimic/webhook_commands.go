package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/brojonat/mimic/client"
	"github.com/brojonat/mimic/service/webhook"
)

// replayCommand posts a captured webhook payload file to a running server.
func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay a captured webhook payload against a running server",
		ArgsUsage: "PAYLOAD_FILE",
		Description: `Read a transaction-notification payload from a file and POST it to the
server's /webhook endpoint. Useful for reproducing pipeline behavior from
payloads captured in the server's debug logs.

Example:
  mimic webhook replay captured-delivery.json --server-url http://localhost:3000`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 30 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "Decode the payload locally before sending",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("payload file is required")
			}

			path := c.Args().Get(0)
			payload, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read payload file: %w", err)
			}

			if c.Bool("validate") {
				batch, err := webhook.DecodeBatch(payload)
				if err != nil {
					return fmt.Errorf("payload does not decode: %w", err)
				}
				if !c.Bool("json") {
					fmt.Fprintf(os.Stderr, "Payload decodes to %d event(s)\n", len(batch))
				}
			}

			serverURL := c.String("server-url")
			cl := client.NewClient(serverURL, &http.Client{
				Timeout: c.Duration("timeout"),
			}, nil)

			if err := cl.SendWebhook(context.Background(), payload); err != nil {
				return fmt.Errorf("replay failed: %w", err)
			}

			fmt.Printf("✓ Payload delivered to %s/webhook\n", serverURL)
			return nil
		},
	}
}
