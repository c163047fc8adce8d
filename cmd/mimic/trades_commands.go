package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itchyny/gojq"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/mimic/service/notify"
)

// subscribeCommand streams trade events for a wallet.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to trade events for a watched wallet",
		ArgsUsage: "[wallet_address]",
		Description: `Subscribe to real-time trade events published to NATS JetStream.

This command connects to NATS and streams trade events for the specified
wallet address. Events are published to the subject: trades.{wallet_address}

Example:
  mimic trades subscribe DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK --json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "mimic-cli",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}

			address := c.Args().Get(0)
			natsURL := c.String("nats-url")
			durable := c.Bool("durable")
			consumerName := c.String("consumer-name")
			jsonOutput := c.Bool("json")

			return streamTrades(address, natsURL, durable, consumerName, jsonOutput)
		},
	}
}

// streamTrades connects to NATS and streams trade events until interrupted.
func streamTrades(address, natsURL string, durable bool, consumerName string, jsonOutput bool) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	subject := fmt.Sprintf("trades.%s", address)

	if !jsonOutput {
		fmt.Printf("📡 Subscribing to: %s\n", subject)
		fmt.Printf("   NATS: %s\n", natsURL)
		if durable {
			fmt.Printf("   Consumer: %s (durable)\n", consumerName)
		}
		fmt.Printf("\nWaiting for trade events... (Ctrl-C to exit)\n\n")
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durable {
		consumerConfig.Durable = consumerName
		consumerConfig.Name = consumerName
	}

	cons, err := js.CreateOrUpdateConsumer(context.Background(), notify.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgChan := make(chan jetstream.Msg, 10)
	go func() {
		_, _ = cons.Consume(func(msg jetstream.Msg) {
			msgChan <- msg
		})
	}()

	count := 0
	for {
		select {
		case msg := <-msgChan:
			var event notify.TradeEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				if !jsonOutput {
					fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
				}
				msg.Ack()
				continue
			}

			count++

			if jsonOutput {
				data, _ := json.Marshal(event)
				fmt.Println(string(data))
			} else {
				printTradeEvent(count, &event)
			}

			msg.Ack()

		case <-sigChan:
			if !jsonOutput {
				fmt.Printf("\n\n✅ Received %d trade event(s)\n", count)
				fmt.Println("Shutting down...")
			}
			return nil
		}
	}
}

// printTradeEvent renders one event in human-friendly form.
func printTradeEvent(n int, event *notify.TradeEvent) {
	fmt.Printf("─────────────────────────────────────────────────────\n")
	fmt.Printf("Trade Event #%d\n", n)
	fmt.Printf("─────────────────────────────────────────────────────\n")
	fmt.Printf("Wallet:       %s\n", event.WalletAddress)
	fmt.Printf("Source Tx:    %s\n", event.SourceSignature)
	fmt.Printf("Outcome:      %s\n", string(event.Outcome))
	if event.Mint != "" {
		fmt.Printf("Mint:         %s\n", event.Mint)
	}
	if event.MirrorSignature != "" {
		fmt.Printf("Mirror Tx:    %s\n", event.MirrorSignature)
	}
	if event.Stage != "" {
		fmt.Printf("Failed Stage: %s\n", event.Stage)
	}
	if event.Error != "" {
		fmt.Printf("Error:        %s\n", event.Error)
	}
	fmt.Printf("Published:    %s\n", event.PublishedAt.Format(time.RFC3339))
	fmt.Printf("\n")
}

// awaitCommand blocks until a trade event matching the given filters arrives.
func awaitCommand() *cli.Command {
	return &cli.Command{
		Name:      "await",
		Usage:     "Block until a matching trade event arrives",
		ArgsUsage: "WALLET_ADDRESS",
		Description: `Wait for a trade event matching the given filters. Useful in scripts and
smoke tests: exit 0 when a matching event arrives, non-zero on timeout.

Filters:
  --outcome    Match the event outcome (detected, mirrored, failed)
  --must-jq    jq expression over the event JSON that must be truthy
               (can be specified multiple times, all must match)

Example:
  mimic trades await DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK \
    --outcome mirrored --must-jq '.mint == "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"'`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "Only match events with this outcome",
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Usage:   "jq filter expression that must evaluate to true (can be specified multiple times, all must match)",
				Aliases: []string{"jq"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   5 * time.Minute,
				Usage:   "How long to wait for a matching event",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}

			address := c.Args().Get(0)
			natsURL := c.String("nats-url")
			outcome := c.String("outcome")
			jqFilters := c.StringSlice("must-jq")
			timeout := c.Duration("timeout")
			jsonOutput := c.Bool("json")

			compiled, err := compileJQFilters(jqFilters)
			if err != nil {
				return err
			}

			matcher := func(event *notify.TradeEvent) bool {
				if outcome != "" && string(event.Outcome) != outcome {
					return false
				}
				return matchJQFilters(compiled, event)
			}

			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "Waiting for trade event on wallet %s...\n", address)
				if outcome != "" {
					fmt.Fprintf(os.Stderr, "  Outcome: %s\n", outcome)
				}
				for _, filter := range jqFilters {
					fmt.Fprintf(os.Stderr, "  jq Filter: %s\n", filter)
				}
				fmt.Fprintf(os.Stderr, "  Timeout: %v\n\n", timeout)
			}

			event, err := awaitTradeEvent(address, natsURL, matcher, timeout)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(event, "", "  ")
				fmt.Println(string(data))
			} else {
				printTradeEvent(1, event)
			}
			return nil
		},
	}
}

// awaitTradeEvent subscribes to a wallet's trade subject and returns the
// first event accepted by the matcher, or an error on timeout.
func awaitTradeEvent(address, natsURL string, matcher func(*notify.TradeEvent) bool, timeout time.Duration) (*notify.TradeEvent, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cons, err := js.CreateOrUpdateConsumer(ctx, notify.StreamName, jetstream.ConsumerConfig{
		FilterSubject: fmt.Sprintf("trades.%s", address),
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	msgChan := make(chan jetstream.Msg, 10)
	go func() {
		_, _ = cons.Consume(func(msg jetstream.Msg) {
			msgChan <- msg
		})
	}()

	for {
		select {
		case msg := <-msgChan:
			var event notify.TradeEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()

			if matcher(&event) {
				return &event, nil
			}

		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for matching trade event after %v", timeout)
		}
	}
}

// compileJQFilters parses and compiles jq expressions.
func compileJQFilters(filters []string) ([]*gojq.Code, error) {
	compiled := make([]*gojq.Code, len(filters))
	for i, filter := range filters {
		query, err := gojq.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
		}
		compiled[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
		}
	}
	return compiled, nil
}

// matchJQFilters runs each compiled filter over the event's JSON form.
// All filters must produce a truthy first result.
func matchJQFilters(filters []*gojq.Code, event *notify.TradeEvent) bool {
	if len(filters) == 0 {
		return true
	}

	// Round-trip through JSON so gojq sees plain maps and strings.
	raw, err := json.Marshal(event)
	if err != nil {
		return false
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}

	for _, code := range filters {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			return false
		}
		if !isTruthy(v) {
			return false
		}
	}
	return true
}

// isTruthy follows jq semantics: null and false are falsy, everything else
// (numbers, strings, objects, arrays) is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// inspectStreamCommand shows information about the trade event stream.
func inspectStreamCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect-stream",
		Usage: "Inspect the TRADES JetStream stream",
		Description: `Show information about the JetStream stream including:
- Message count
- Consumers
- Storage usage
- Stream configuration

Example:
  mimic trades inspect-stream`,
		Action: func(c *cli.Context) error {
			natsURL := c.String("nats-url")
			jsonOutput := c.Bool("json")

			nc, err := nats.Connect(natsURL)
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			stream, err := js.Stream(context.Background(), notify.StreamName)
			if err != nil {
				return fmt.Errorf("failed to get stream: %w", err)
			}

			info, err := stream.Info(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get stream info: %w", err)
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(info, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("Stream: %s\n", info.Config.Name)
				fmt.Printf("─────────────────────────────────────────────────────\n")
				fmt.Printf("Description:  %s\n", info.Config.Description)
				fmt.Printf("Subjects:     %v\n", info.Config.Subjects)
				fmt.Printf("Messages:     %d\n", info.State.Msgs)
				fmt.Printf("Bytes:        %d\n", info.State.Bytes)
				fmt.Printf("First Seq:    %d\n", info.State.FirstSeq)
				fmt.Printf("Last Seq:     %d\n", info.State.LastSeq)
				fmt.Printf("Consumers:    %d\n", info.State.Consumers)
				fmt.Printf("Max Age:      %s\n", info.Config.MaxAge)
				fmt.Printf("Storage:      %s\n", info.Config.Storage)
				fmt.Printf("\n")
			}

			return nil
		},
	}
}
