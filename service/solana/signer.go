package solana

import (
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

// DecodeSwapTransaction decodes an aggregator-supplied transaction from its
// transport encoding: base64 over the canonical binary transaction format.
func DecodeSwapTransaction(encoded string) (*solanago.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 transaction: %w", err)
	}

	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return tx, nil
}

// SignSwapTransaction decodes an aggregator-built transaction and attaches
// the operator's signature. The signature covers the message as built, which
// embeds the aggregator's recent blockhash; fetching a fresh blockhash here
// would invalidate the signature against this transaction.
func SignSwapTransaction(encoded string, key solanago.PrivateKey) (*solanago.Transaction, error) {
	tx, err := DecodeSwapTransaction(encoded)
	if err != nil {
		return nil, err
	}

	operator := key.PublicKey()
	if !tx.Message.IsSigner(operator) {
		return nil, fmt.Errorf("operator key %s is not a required signer of the swap transaction", operator)
	}

	if _, err := tx.PartialSign(func(pub solanago.PublicKey) *solanago.PrivateKey {
		if pub.Equals(operator) {
			return &key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return tx, nil
}
