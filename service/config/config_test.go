package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKeypairJSON returns a syntactically valid 64-byte keypair in the
// solana-keygen JSON array format.
func testKeypairJSON(t *testing.T) string {
	t.Helper()
	raw := make([]int, 64)
	for i := range raw {
		raw[i] = i + 1
	}
	out, err := json.Marshal(raw)
	require.NoError(t, err)
	return string(out)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "")
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HELIUS_API_KEY is required")
	assert.Contains(t, err.Error(), "SECRET_KEY is required")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "test-api-key")
	t.Setenv("SECRET_KEY", testKeypairJSON(t))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ServerAddr)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, "https://quote-api.jup.ag/v4", cfg.JupiterBaseURL)
	assert.Equal(t, uint64(1_000_000), cfg.QuoteAmountLamports)
	assert.Equal(t, 0.5, cfg.SlippagePct)
	assert.Equal(t, []string{DefaultJupiterProgramID, DefaultRaydiumProgramID}, cfg.SwapProgramIDs)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 60*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 2*time.Second, cfg.ConfirmPollInterval)

	// RPC URL is derived from the Helius API key when not set explicitly.
	assert.Contains(t, cfg.SolanaRPCURL, "api-key=test-api-key")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "test-api-key")
	t.Setenv("SECRET_KEY", testKeypairJSON(t))
	t.Setenv("SOLANA_RPC_URL", "http://localhost:8899")
	t.Setenv("SWAP_PROGRAM_IDS", "ProgA, ProgB,")
	t.Setenv("QUOTE_AMOUNT_LAMPORTS", "5000000")
	t.Setenv("SLIPPAGE_PCT", "1.5")
	t.Setenv("COMMITMENT", "finalized")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8899", cfg.SolanaRPCURL)
	assert.Equal(t, []string{"ProgA", "ProgB"}, cfg.SwapProgramIDs)
	assert.Equal(t, uint64(5_000_000), cfg.QuoteAmountLamports)
	assert.Equal(t, 1.5, cfg.SlippagePct)
	assert.Equal(t, "finalized", cfg.Commitment)
}

func TestLoad_InvalidCommitment(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "test-api-key")
	t.Setenv("SECRET_KEY", testKeypairJSON(t))
	t.Setenv("COMMITMENT", "hopeful")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Commitment")
}

func TestParsePrivateKey(t *testing.T) {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i)
	}
	rawInts := make([]int, len(raw))
	for i, b := range raw {
		rawInts[i] = int(b)
	}
	jsonForm, err := json.Marshal(rawInts)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "json byte array", input: string(jsonForm)},
		{name: "base58 string", input: base58.Encode(raw)},
		{name: "json wrong length", input: "[1,2,3]", wantErr: true},
		{name: "not base58", input: "0OIl-not-base58", wantErr: true},
		{name: "base58 wrong length", input: base58.Encode(raw[:32]), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParsePrivateKey(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, []byte(key), 64)
		})
	}
}
