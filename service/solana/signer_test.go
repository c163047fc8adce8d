package solana

import (
	"encoding/base64"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSwapLikeTx constructs a minimal transaction shaped like an
// aggregator-built swap: one instruction, payer as the sole required signer,
// recent blockhash already embedded.
func buildSwapLikeTx(t *testing.T, payer solanago.PublicKey) *solanago.Transaction {
	t.Helper()

	programID := solanago.MustPublicKeyFromBase58("JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB")

	var blockhashBytes [32]byte
	for i := range blockhashBytes {
		blockhashBytes[i] = byte(i + 1)
	}
	blockhash := solanago.Hash(solanago.PublicKeyFromBytes(blockhashBytes[:]))

	instr := solanago.NewInstruction(
		programID,
		solanago.AccountMetaSlice{
			solanago.NewAccountMeta(payer, true, true),
		},
		[]byte{0xde, 0xad, 0xbe, 0xef},
	)

	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{instr},
		blockhash,
		solanago.TransactionPayer(payer),
	)
	require.NoError(t, err)
	return tx
}

func encodeTx(t *testing.T, tx *solanago.Transaction) string {
	t.Helper()
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeSwapTransaction_RoundTrip(t *testing.T) {
	wallet := solanago.NewWallet()
	tx := buildSwapLikeTx(t, wallet.PublicKey())

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeSwapTransaction(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	// Re-encoding the decoded transaction must reproduce the original bytes.
	reEncoded, err := decoded.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, reEncoded)

	assert.Equal(t, tx.Message.RecentBlockhash, decoded.Message.RecentBlockhash)
}

func TestDecodeSwapTransaction_InvalidBase64(t *testing.T) {
	_, err := DecodeSwapTransaction("not-base64!!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64")
}

func TestDecodeSwapTransaction_InvalidBinary(t *testing.T) {
	garbage := base64.StdEncoding.EncodeToString([]byte{0xff})
	_, err := DecodeSwapTransaction(garbage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode transaction")
}

func TestSignSwapTransaction(t *testing.T) {
	wallet := solanago.NewWallet()
	tx := buildSwapLikeTx(t, wallet.PublicKey())

	signed, err := SignSwapTransaction(encodeTx(t, tx), wallet.PrivateKey)
	require.NoError(t, err)

	// Exactly one signature, and it verifies against the embedded message.
	require.Len(t, signed.Signatures, 1)
	assert.False(t, signed.Signatures[0].IsZero())
	assert.NoError(t, signed.VerifySignatures())
}

func TestSignSwapTransaction_WrongKey(t *testing.T) {
	payer := solanago.NewWallet()
	stranger := solanago.NewWallet()
	tx := buildSwapLikeTx(t, payer.PublicKey())

	_, err := SignSwapTransaction(encodeTx(t, tx), stranger.PrivateKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a required signer")
}

func TestSignSwapTransaction_MalformedEncoding(t *testing.T) {
	wallet := solanago.NewWallet()

	_, err := SignSwapTransaction("%%%", wallet.PrivateKey)
	require.Error(t, err)
}
