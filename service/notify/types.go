package notify

import "time"

// TradeOutcome classifies what happened to a detected buy.
type TradeOutcome string

const (
	// OutcomeDetected means a buy was observed on the watched wallet.
	// Published before the mirror swap is attempted.
	OutcomeDetected TradeOutcome = "detected"

	// OutcomeMirrored means the copy swap confirmed on-chain.
	OutcomeMirrored TradeOutcome = "mirrored"

	// OutcomeFailed means the copy swap was attempted but a pipeline stage
	// failed; Stage and Error carry the details.
	OutcomeFailed TradeOutcome = "failed"
)

// TradeEvent is published to the subject "trades.{wallet_address}" in
// JetStream for each detected buy and each mirror attempt outcome.
type TradeEvent struct {
	// Watched wallet and the transaction that triggered the pipeline.
	WalletAddress   string `json:"wallet_address"`
	SourceSignature string `json:"source_signature"`

	// Resolved acquired asset, when known.
	Mint string `json:"mint,omitempty"`

	Outcome TradeOutcome `json:"outcome"`

	// Set for mirrored outcomes: our own confirmed transaction.
	MirrorSignature string `json:"mirror_signature,omitempty"`

	// Set for failed outcomes.
	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`

	PublishedAt time.Time `json:"published_at"`
}
