package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/mimic/service/metrics"
)

// ErrConfirmationTimeout is returned when a submitted transaction does not
// reach the target commitment level before the configured deadline. The
// transaction may still land later; the caller only loses the wait.
var ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	SendTransactionWithOpts(
		ctx context.Context,
		tx *solanago.Transaction,
		opts rpc.TransactionOpts,
	) (solanago.Signature, error)

	GetSignatureStatuses(
		ctx context.Context,
		searchTransactionHistory bool,
		signatures ...solanago.Signature,
	) (*rpc.GetSignatureStatusesResult, error)
}

// Client submits signed transactions and waits for them to reach a
// commitment level. It wraps the RPC client with domain-specific operations.
type Client struct {
	rpc          RPCClient
	commitment   rpc.CommitmentType
	timeout      time.Duration
	pollInterval time.Duration
	metrics      *metrics.Metrics
	endpoint     string // RPC endpoint identifier for metrics (e.g., "mainnet", rpc host)
	logger       *slog.Logger
}

// NewClient creates a new submission client. The endpoint parameter is used
// for metrics labeling. If m is nil, no metrics are recorded.
func NewClient(rpcClient RPCClient, commitment rpc.CommitmentType, timeout, pollInterval time.Duration, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:          rpcClient,
		commitment:   commitment,
		timeout:      timeout,
		pollInterval: pollInterval,
		metrics:      m,
		endpoint:     endpoint,
		logger:       logger,
	}
}

// SubmitAndConfirm sends a signed transaction and blocks until the network
// reports it at the client's commitment level, the confirmation timeout
// expires, or ctx is cancelled. This is a long-running call: confirmation
// polling is inherent to the network's consensus latency.
func (c *Client) SubmitAndConfirm(ctx context.Context, tx *solanago.Transaction) (solanago.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("SendTransaction", status, c.endpoint, duration)
	}

	if err != nil {
		return solanago.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	c.logger.InfoContext(ctx, "transaction submitted, awaiting confirmation",
		"signature", sig.String(),
		"commitment", string(c.commitment),
	)

	if err := c.awaitCommitment(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// awaitCommitment polls signature statuses until the target commitment is
// reached. Transient status-poll errors are logged and retried; only the
// deadline or an on-chain execution failure ends the wait early.
func (c *Client) awaitCommitment(ctx context.Context, sig solanago.Signature) error {
	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrConfirmationTimeout
		case <-ticker.C:
			start := time.Now()
			out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
			duration := time.Since(start).Seconds()

			status := "success"
			if err != nil {
				status = "error"
			}
			if c.metrics != nil {
				c.metrics.RecordRPCCall("GetSignatureStatuses", status, c.endpoint, duration)
			}

			if err != nil {
				c.logger.WarnContext(ctx, "failed to poll signature status, will retry",
					"signature", sig.String(),
					"error", err,
				)
				continue
			}

			if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
				// Not yet observed by the node; keep polling.
				continue
			}

			result := out.Value[0]
			if result.Err != nil {
				return fmt.Errorf("transaction failed on-chain: %v", result.Err)
			}

			if commitmentReached(result.ConfirmationStatus, c.commitment) {
				c.logger.InfoContext(ctx, "transaction confirmed",
					"signature", sig.String(),
					"status", string(result.ConfirmationStatus),
				)
				return nil
			}
		}
	}
}

// commitmentRank orders commitment levels from weakest to strongest.
var commitmentRank = map[string]int{
	string(rpc.CommitmentProcessed): 0,
	string(rpc.CommitmentConfirmed): 1,
	string(rpc.CommitmentFinalized): 2,
}

// commitmentReached reports whether an observed confirmation status
// satisfies the requested commitment level.
func commitmentReached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	gotRank, ok := commitmentRank[string(got)]
	if !ok {
		return false
	}
	wantRank, ok := commitmentRank[string(want)]
	if !ok {
		return false
	}
	return gotRank >= wantRank
}

// CommitmentFromString maps a configuration string to an RPC commitment
// type, defaulting to confirmed for unknown values.
func CommitmentFromString(s string) rpc.CommitmentType {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}
