package webhook

import "encoding/json"

// Batch is one webhook delivery: an ordered list of transaction events.
// Events are independent; order is preserved only for log readability.
type Batch []TransactionEvent

// TransactionEvent is a single raw-format enhanced transaction notification.
// Field names follow the Helius webhook wire format. Everything except the
// transaction body is optional; webhook payloads are untrusted input and any
// of these may be absent or junk.
type TransactionEvent struct {
	BlockTime        *int64           `json:"blockTime,omitempty"`
	IndexWithinBlock *uint64          `json:"indexWithinBlock,omitempty"`
	Slot             *uint64          `json:"slot,omitempty"`
	Meta             *Meta            `json:"meta,omitempty"`
	Transaction      *TransactionBody `json:"transaction"`
}

// Signature returns the event's first transaction signature, or "unknown"
// when the payload carries none. Used for log correlation only.
func (e *TransactionEvent) Signature() string {
	if e.Transaction == nil || len(e.Transaction.Signatures) == 0 {
		return "unknown"
	}
	return e.Transaction.Signatures[0]
}

// TransactionBody holds the signed transaction content.
type TransactionBody struct {
	Signatures []string `json:"signatures"`
	Message    Message  `json:"message"`
}

// Message is the compiled transaction message. Account keys are
// index-addressable; instructions reference them by position.
type Message struct {
	AccountKeys         []string        `json:"accountKeys"`
	Instructions        []Instruction   `json:"instructions"`
	AddressTableLookups json.RawMessage `json:"addressTableLookups,omitempty"`
	Header              Header          `json:"header"`
	RecentBlockhash     string          `json:"recentBlockhash"`
}

// AccountKeyAt returns the account key at index i, or the empty string when
// the index is out of range. Webhook payloads are untrusted; an out-of-range
// program id index must resolve to a key that matches nothing rather than
// panic.
func (m *Message) AccountKeyAt(i int) string {
	if i < 0 || i >= len(m.AccountKeys) {
		return ""
	}
	return m.AccountKeys[i]
}

// Instruction references the invoked program and its accounts by index into
// the message's account key list.
type Instruction struct {
	ProgramIDIndex int    `json:"programIdIndex"`
	Accounts       []int  `json:"accounts,omitempty"`
	Data           string `json:"data,omitempty"`
}

// Header carries the signer/readonly account counts. Decoded for
// completeness; no decision logic consumes it.
type Header struct {
	NumReadonlySignedAccounts   uint8 `json:"numReadonlySignedAccounts"`
	NumReadonlyUnsignedAccounts uint8 `json:"numReadonlyUnsignedAccounts"`
	NumRequiredSignatures       uint8 `json:"numRequiredSignatures"`
}

// Meta holds the transaction's execution metadata, most importantly the
// pre/post token balance snapshots used to resolve which asset was acquired.
type Meta struct {
	Err               json.RawMessage    `json:"err,omitempty"`
	Fee               uint64             `json:"fee,omitempty"`
	InnerInstructions []InnerInstruction `json:"innerInstructions,omitempty"`
	LoadedAddresses   LoadedAddresses    `json:"loadedAddresses,omitempty"`
	LogMessages       []string           `json:"logMessages,omitempty"`
	PreBalances       []uint64           `json:"preBalances,omitempty"`
	PostBalances      []uint64           `json:"postBalances,omitempty"`
	PreTokenBalances  []TokenBalance     `json:"preTokenBalances,omitempty"`
	PostTokenBalances []TokenBalance     `json:"postTokenBalances,omitempty"`
	Rewards           json.RawMessage    `json:"rewards,omitempty"`
}

// InnerInstruction groups instructions invoked by a top-level instruction.
// Buy detection deliberately does not scan these (see service/detect).
type InnerInstruction struct {
	Index        uint64        `json:"index"`
	Instructions []Instruction `json:"instructions"`
}

// LoadedAddresses lists accounts resolved from address lookup tables.
type LoadedAddresses struct {
	Readonly []string `json:"readonly,omitempty"`
	Writable []string `json:"writable,omitempty"`
}

// TokenBalance is one entry of a pre or post token balance snapshot.
type TokenBalance struct {
	AccountIndex  uint16        `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner,omitempty"`
	ProgramID     string        `json:"programId,omitempty"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount is a token amount in raw and decimal forms. UIAmount is nil
// when the RPC node reports no decimal amount (treated as zero).
type UITokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       uint8    `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount,omitempty"`
	UIAmountString string   `json:"uiAmountString,omitempty"`
}

// Value returns the decimal amount, treating a missing uiAmount as zero.
func (a UITokenAmount) Value() float64 {
	if a.UIAmount == nil {
		return 0
	}
	return *a.UIAmount
}
