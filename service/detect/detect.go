// Package detect decides whether a transaction event is a buy worth
// mirroring, and which token it acquired. Both checks are pure functions
// over the decoded webhook payload; no network access.
package detect

import (
	"github.com/brojonat/mimic/service/webhook"
)

// Classifier checks transaction events against an allow-list of swap program
// ids. The list comes from configuration so new DEX programs can be added
// without a rebuild.
type Classifier struct {
	programIDs map[string]struct{}
}

// NewClassifier creates a classifier for the given swap program ids.
// Empty entries are dropped so that an out-of-bounds account key lookup
// (which resolves to the empty string) can never match.
func NewClassifier(swapProgramIDs []string) *Classifier {
	ids := make(map[string]struct{}, len(swapProgramIDs))
	for _, id := range swapProgramIDs {
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return &Classifier{programIDs: ids}
}

// IsBuy reports whether any top-level instruction invokes a known swap
// program. Program id indices are bounds-checked and fail soft.
//
// Known limitation: instructions nested under innerInstructions are not
// scanned, so buys routed through an intermediary program are not detected.
func (c *Classifier) IsBuy(event *webhook.TransactionEvent) bool {
	if event == nil || event.Transaction == nil {
		return false
	}

	msg := &event.Transaction.Message
	for _, ix := range msg.Instructions {
		programID := msg.AccountKeyAt(ix.ProgramIDIndex)
		if _, ok := c.programIDs[programID]; ok {
			return true
		}
	}
	return false
}

// ResolveAcquiredMint returns the mint of the token the transaction acquired:
// the first post-balance entry with a positive decimal amount whose mint
// either has no pre-balance entry or a pre-balance of zero. Returns false
// when the event has no meta or no entry qualifies.
//
// This is a first-match heuristic, not transfer accounting: amounts are not
// summed across entries for the same mint and fees are not netted out.
func ResolveAcquiredMint(event *webhook.TransactionEvent) (string, bool) {
	if event == nil || event.Meta == nil {
		return "", false
	}

	for _, post := range event.Meta.PostTokenBalances {
		if post.UITokenAmount.Value() <= 0 {
			continue
		}
		if preBalanceIsZero(event.Meta.PreTokenBalances, post.Mint) {
			return post.Mint, true
		}
	}
	return "", false
}

// preBalanceIsZero reports whether the mint had no holdings before the
// transaction: either no pre-balance entry at all, or one with a zero
// decimal amount.
func preBalanceIsZero(pre []webhook.TokenBalance, mint string) bool {
	for _, balance := range pre {
		if balance.Mint == mint {
			return balance.UITokenAmount.Value() == 0
		}
	}
	return true
}
