// Package trader runs the copy-trade pipeline: decode a webhook delivery,
// classify each event, resolve the acquired token, then quote, build, sign
// and submit a mirror swap. Each event is isolated; one event's failure
// never aborts its siblings and never crashes the service.
package trader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/brojonat/mimic/service/detect"
	"github.com/brojonat/mimic/service/jupiter"
	"github.com/brojonat/mimic/service/metrics"
	"github.com/brojonat/mimic/service/notify"
	"github.com/brojonat/mimic/service/solana"
	"github.com/brojonat/mimic/service/tradelog"
	"github.com/brojonat/mimic/service/webhook"
)

// Pipeline stage names, used in logs, metrics and published trade events.
const (
	StageDecode = "decode"
	StageQuote  = "quote"
	StageBuild  = "build"
	StageSign   = "sign"
	StageSubmit = "submit"
)

// Event outcomes.
const (
	OutcomeNotBuy     = "not_buy"
	OutcomeUnresolved = "unresolved"
	OutcomeMirrored   = "mirrored"
	OutcomeFailed     = "failed"
)

// Quoter is the aggregator surface the pipeline needs.
type Quoter interface {
	Quote(ctx context.Context, outputMint string) (jupiter.Route, error)
	BuildSwap(ctx context.Context, route jupiter.Route, userPublicKey string) (string, error)
}

// Submitter sends a signed transaction and waits for confirmation.
type Submitter interface {
	SubmitAndConfirm(ctx context.Context, tx *solanago.Transaction) (solanago.Signature, error)
}

// Trader orchestrates the pipeline. All handles are shared and read-only
// from the pipeline's perspective; the signing key is loaded once at startup
// and never rotated.
type Trader struct {
	wallet     solanago.PublicKey // the watched wallet
	signingKey solanago.PrivateKey
	classifier *detect.Classifier
	quoter     Quoter
	submitter  Submitter
	trades     tradelog.Sink
	publisher  notify.Publisher // optional; nil disables publishing
	metrics    *metrics.Metrics // optional; nil disables metrics
	logger     *slog.Logger

	// submitMu serializes the blockhash-dependent sign+submit steps across
	// overlapping webhook deliveries. Every run spends from the same
	// operator wallet, so concurrent submissions race on one account
	// lineage; funneling them through a single owner removes that race.
	submitMu sync.Mutex
}

// New creates a Trader. The publisher and metrics may be nil.
func New(
	wallet solanago.PublicKey,
	signingKey solanago.PrivateKey,
	classifier *detect.Classifier,
	quoter Quoter,
	submitter Submitter,
	trades tradelog.Sink,
	publisher notify.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Trader {
	return &Trader{
		wallet:     wallet,
		signingKey: signingKey,
		classifier: classifier,
		quoter:     quoter,
		submitter:  submitter,
		trades:     trades,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
	}
}

// ProcessBatch handles one webhook delivery. A decode failure is
// batch-fatal: it is logged and counted, and the delivery is dropped.
// Decoded events are processed sequentially, each isolated from the others.
func (t *Trader) ProcessBatch(ctx context.Context, raw []byte) {
	// Log the raw payload before decoding so malformed deliveries can be
	// reconstructed after the fact.
	t.logger.DebugContext(ctx, "webhook payload received",
		"bytes", len(raw),
		"payload", string(raw),
	)

	batch, err := webhook.DecodeBatch(raw)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to decode webhook batch", "error", err)
		if t.metrics != nil {
			t.metrics.RecordWebhookDelivery("decode_error", 0)
			t.metrics.RecordPipelineStageFailure(StageDecode)
		}
		return
	}

	if t.metrics != nil {
		t.metrics.RecordWebhookDelivery("ok", len(batch))
	}

	for i := range batch {
		start := time.Now()
		outcome := t.processEvent(ctx, &batch[i])
		if t.metrics != nil {
			t.metrics.RecordPipelineEvent(outcome, time.Since(start).Seconds())
		}
	}
}

// processEvent runs one event through classify → resolve → quote → build →
// sign → submit and returns the outcome. Every failure is converted into a
// logged outcome here; nothing propagates to the caller.
func (t *Trader) processEvent(ctx context.Context, event *webhook.TransactionEvent) string {
	signature := event.Signature()

	if !t.classifier.IsBuy(event) {
		t.logger.DebugContext(ctx, "no buy detected", "signature", signature)
		return OutcomeNotBuy
	}

	t.logger.InfoContext(ctx, "buy detected",
		"wallet", t.wallet.String(),
		"signature", signature,
	)
	if t.metrics != nil {
		t.metrics.RecordBuyDetected(t.wallet.String())
	}

	// Record the detection before attempting the mirror swap; the append
	// log is the durable record and must survive downstream failures.
	if err := t.trades.RecordBuy(t.wallet.String(), signature); err != nil {
		t.logger.WarnContext(ctx, "failed to write trade log", "error", err)
	}

	mint, ok := detect.ResolveAcquiredMint(event)
	if !ok {
		t.logger.InfoContext(ctx, "could not determine acquired mint",
			"signature", signature,
		)
		t.publish(ctx, &notify.TradeEvent{
			WalletAddress:   t.wallet.String(),
			SourceSignature: signature,
			Outcome:         notify.OutcomeDetected,
		})
		return OutcomeUnresolved
	}

	t.publish(ctx, &notify.TradeEvent{
		WalletAddress:   t.wallet.String(),
		SourceSignature: signature,
		Mint:            mint,
		Outcome:         notify.OutcomeDetected,
	})

	mirrorSig, stage, err := t.mirrorSwap(ctx, mint)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to execute copytrade swap",
			"signature", signature,
			"mint", mint,
			"stage", stage,
			"error", err,
		)
		if t.metrics != nil {
			t.metrics.RecordPipelineStageFailure(stage)
		}
		t.publish(ctx, &notify.TradeEvent{
			WalletAddress:   t.wallet.String(),
			SourceSignature: signature,
			Mint:            mint,
			Outcome:         notify.OutcomeFailed,
			Stage:           stage,
			Error:           err.Error(),
		})
		return OutcomeFailed
	}

	t.logger.InfoContext(ctx, "copytrade swap executed",
		"signature", signature,
		"mint", mint,
		"mirror_signature", mirrorSig.String(),
	)
	t.publish(ctx, &notify.TradeEvent{
		WalletAddress:   t.wallet.String(),
		SourceSignature: signature,
		Mint:            mint,
		Outcome:         notify.OutcomeMirrored,
		MirrorSignature: mirrorSig.String(),
	})
	return OutcomeMirrored
}

// mirrorSwap quotes, builds, signs and submits the copy swap for mint.
// Returns the failing stage alongside any error. Each aggregator call is a
// single attempt; retry policy would wrap these calls, not live inside them.
func (t *Trader) mirrorSwap(ctx context.Context, mint string) (solanago.Signature, string, error) {
	route, err := t.quoter.Quote(ctx, mint)
	if err != nil {
		return solanago.Signature{}, StageQuote, err
	}

	encoded, err := t.quoter.BuildSwap(ctx, route, t.signingKey.PublicKey().String())
	if err != nil {
		return solanago.Signature{}, StageBuild, err
	}

	// One submission at a time: the swap transaction's embedded blockhash
	// and the operator wallet's account state are both per-lineage.
	t.submitMu.Lock()
	defer t.submitMu.Unlock()

	tx, err := solana.SignSwapTransaction(encoded, t.signingKey)
	if err != nil {
		return solanago.Signature{}, StageSign, fmt.Errorf("sign swap transaction: %w", err)
	}

	sig, err := t.submitter.SubmitAndConfirm(ctx, tx)
	if err != nil {
		return sig, StageSubmit, err
	}
	return sig, "", nil
}

// publish sends a trade event, if a publisher is configured. Publish
// failures are logged and dropped; notification is best-effort.
func (t *Trader) publish(ctx context.Context, event *notify.TradeEvent) {
	if t.publisher == nil {
		return
	}

	subject := fmt.Sprintf("trades.%s", event.WalletAddress)
	if err := t.publisher.PublishTrade(ctx, event); err != nil {
		t.logger.WarnContext(ctx, "failed to publish trade event",
			"subject", subject,
			"outcome", string(event.Outcome),
			"error", err,
		)
		if t.metrics != nil {
			t.metrics.RecordNATSPublish(subject, "error")
		}
		return
	}
	if t.metrics != nil {
		t.metrics.RecordNATSPublish(subject, "success")
	}
}
