package detect

import (
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/mimic/service/webhook"
)

const (
	jupiterProgramID = "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB"
	raydiumProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

// buildEvent creates an event whose message invokes the given program ids,
// one top-level instruction each.
func buildEvent(programIDs ...string) *webhook.TransactionEvent {
	msg := webhook.Message{
		AccountKeys: append([]string{"SomeWallet"}, programIDs...),
	}
	for i := range programIDs {
		msg.Instructions = append(msg.Instructions, webhook.Instruction{
			ProgramIDIndex: i + 1,
		})
	}
	return &webhook.TransactionEvent{
		Transaction: &webhook.TransactionBody{
			Signatures: []string{"test-signature"},
			Message:    msg,
		},
	}
}

func tokenBalance(mint string, uiAmount *float64) webhook.TokenBalance {
	return webhook.TokenBalance{
		Mint: mint,
		UITokenAmount: webhook.UITokenAmount{
			UIAmount: uiAmount,
		},
	}
}

func TestIsBuy(t *testing.T) {
	classifier := NewClassifier([]string{jupiterProgramID, raydiumProgramID})

	tests := []struct {
		name  string
		event *webhook.TransactionEvent
		want  bool
	}{
		{
			name:  "jupiter instruction",
			event: buildEvent(jupiterProgramID),
			want:  true,
		},
		{
			name:  "raydium instruction",
			event: buildEvent(raydiumProgramID),
			want:  true,
		},
		{
			name:  "swap among other instructions",
			event: buildEvent("SomeOtherProgram", jupiterProgramID, "Memo111"),
			want:  true,
		},
		{
			name:  "no swap programs",
			event: buildEvent("SomeOtherProgram", "Memo111"),
			want:  false,
		},
		{
			name:  "no instructions",
			event: buildEvent(),
			want:  false,
		},
		{
			name: "program id index out of range",
			event: &webhook.TransactionEvent{
				Transaction: &webhook.TransactionBody{
					Message: webhook.Message{
						AccountKeys:  []string{jupiterProgramID},
						Instructions: []webhook.Instruction{{ProgramIDIndex: 99}},
					},
				},
			},
			want: false,
		},
		{
			name:  "nil event",
			event: nil,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsBuy(tt.event))
		})
	}
}

func TestIsBuy_OnlyTopLevelInstructionsScanned(t *testing.T) {
	// A swap program invoked only through inner instructions is not detected.
	// This mirrors the reference behavior and is documented as a limitation.
	classifier := NewClassifier([]string{jupiterProgramID})

	event := buildEvent("RouterProgram")
	event.Meta = &webhook.Meta{
		InnerInstructions: []webhook.InnerInstruction{
			{
				Index: 0,
				Instructions: []webhook.Instruction{
					{ProgramIDIndex: 1},
				},
			},
		},
	}
	// Index 1 in accountKeys is the router, so put Jupiter at a new index
	// referenced only by the inner instruction.
	event.Transaction.Message.AccountKeys = append(event.Transaction.Message.AccountKeys, jupiterProgramID)
	event.Meta.InnerInstructions[0].Instructions[0].ProgramIDIndex = 2

	assert.False(t, classifier.IsBuy(event))
}

func TestNewClassifier_EmptyIDsNeverMatch(t *testing.T) {
	// An allow-list containing the empty string must not match the empty
	// program id produced by an out-of-range lookup.
	classifier := NewClassifier([]string{""})

	event := &webhook.TransactionEvent{
		Transaction: &webhook.TransactionBody{
			Message: webhook.Message{
				AccountKeys:  []string{},
				Instructions: []webhook.Instruction{{ProgramIDIndex: 5}},
			},
		},
	}
	assert.False(t, classifier.IsBuy(event))
}

func TestResolveAcquiredMint(t *testing.T) {
	tests := []struct {
		name     string
		pre      []webhook.TokenBalance
		post     []webhook.TokenBalance
		wantMint string
		wantOK   bool
	}{
		{
			name:     "new token acquired, no pre balance",
			pre:      nil,
			post:     []webhook.TokenBalance{tokenBalance("TOKEN_X", pointer.ToFloat64(5.0))},
			wantMint: "TOKEN_X",
			wantOK:   true,
		},
		{
			name:     "token acquired from zero pre balance",
			pre:      []webhook.TokenBalance{tokenBalance("TOKEN_X", pointer.ToFloat64(0))},
			post:     []webhook.TokenBalance{tokenBalance("TOKEN_X", pointer.ToFloat64(5.0))},
			wantMint: "TOKEN_X",
			wantOK:   true,
		},
		{
			name:     "token acquired, pre balance has nil uiAmount",
			pre:      []webhook.TokenBalance{tokenBalance("TOKEN_X", nil)},
			post:     []webhook.TokenBalance{tokenBalance("TOKEN_X", pointer.ToFloat64(5.0))},
			wantMint: "TOKEN_X",
			wantOK:   true,
		},
		{
			name:   "already held: positive pre balance",
			pre:    []webhook.TokenBalance{tokenBalance("TOKEN_X", pointer.ToFloat64(5.0))},
			post:   []webhook.TokenBalance{tokenBalance("TOKEN_X", pointer.ToFloat64(5.0))},
			wantOK: false,
		},
		{
			name:   "zero post balance does not qualify",
			post:   []webhook.TokenBalance{tokenBalance("TOKEN_X", pointer.ToFloat64(0))},
			wantOK: false,
		},
		{
			name:   "nil uiAmount in post balance does not qualify",
			post:   []webhook.TokenBalance{tokenBalance("TOKEN_X", nil)},
			wantOK: false,
		},
		{
			name: "first match wins over later candidates",
			pre:  []webhook.TokenBalance{tokenBalance("TOKEN_A", pointer.ToFloat64(1.0))},
			post: []webhook.TokenBalance{
				tokenBalance("TOKEN_A", pointer.ToFloat64(2.0)), // already held, skipped
				tokenBalance("TOKEN_B", pointer.ToFloat64(3.0)), // first qualifying
				tokenBalance("TOKEN_C", pointer.ToFloat64(9.0)), // never reached
			},
			wantMint: "TOKEN_B",
			wantOK:   true,
		},
		{
			name:   "empty snapshots",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &webhook.TransactionEvent{
				Transaction: &webhook.TransactionBody{},
				Meta: &webhook.Meta{
					PreTokenBalances:  tt.pre,
					PostTokenBalances: tt.post,
				},
			}

			mint, ok := ResolveAcquiredMint(event)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMint, mint)
		})
	}
}

func TestResolveAcquiredMint_NoMeta(t *testing.T) {
	event := &webhook.TransactionEvent{Transaction: &webhook.TransactionBody{}}

	mint, ok := ResolveAcquiredMint(event)
	assert.False(t, ok)
	assert.Empty(t, mint)

	mint, ok = ResolveAcquiredMint(nil)
	assert.False(t, ok)
	assert.Empty(t, mint)
}
