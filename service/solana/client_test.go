package solana

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSig = solanago.MustSignatureFromBase58("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7")

// mockRPCClient implements RPCClient for testing.
// It's behavior-focused: we set what it should return, not verify call sequences.
type mockRPCClient struct {
	sendSig solanago.Signature
	sendErr error

	// statuses are returned one per GetSignatureStatuses call; the last
	// entry repeats once exhausted. A nil entry models "not yet observed".
	statuses    []*rpc.SignatureStatusesResult
	statusErrs  []error
	statusCalls int
}

func (m *mockRPCClient) SendTransactionWithOpts(
	ctx context.Context,
	tx *solanago.Transaction,
	opts rpc.TransactionOpts,
) (solanago.Signature, error) {
	if m.sendErr != nil {
		return solanago.Signature{}, m.sendErr
	}
	return m.sendSig, nil
}

func (m *mockRPCClient) GetSignatureStatuses(
	ctx context.Context,
	searchTransactionHistory bool,
	signatures ...solanago.Signature,
) (*rpc.GetSignatureStatusesResult, error) {
	call := m.statusCalls
	m.statusCalls++

	if call < len(m.statusErrs) && m.statusErrs[call] != nil {
		return nil, m.statusErrs[call]
	}

	if len(m.statuses) == 0 {
		return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil
	}
	if call >= len(m.statuses) {
		call = len(m.statuses) - 1
	}
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{m.statuses[call]},
	}, nil
}

func newTestClient(mock *mockRPCClient, timeout time.Duration) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, rpc.CommitmentConfirmed, timeout, 5*time.Millisecond, "test", nil, logger)
}

func statusAt(level rpc.ConfirmationStatusType) *rpc.SignatureStatusesResult {
	return &rpc.SignatureStatusesResult{ConfirmationStatus: level}
}

func TestSubmitAndConfirm_ConfirmedFirstPoll(t *testing.T) {
	mock := &mockRPCClient{
		sendSig:  testSig,
		statuses: []*rpc.SignatureStatusesResult{statusAt(rpc.ConfirmationStatusConfirmed)},
	}

	sig, err := newTestClient(mock, time.Second).SubmitAndConfirm(context.Background(), &solanago.Transaction{})
	require.NoError(t, err)
	assert.Equal(t, testSig, sig)
}

func TestSubmitAndConfirm_ProgressesToConfirmed(t *testing.T) {
	mock := &mockRPCClient{
		sendSig: testSig,
		statuses: []*rpc.SignatureStatusesResult{
			nil, // not yet observed
			statusAt(rpc.ConfirmationStatusProcessed),
			statusAt(rpc.ConfirmationStatusConfirmed),
		},
	}

	sig, err := newTestClient(mock, time.Second).SubmitAndConfirm(context.Background(), &solanago.Transaction{})
	require.NoError(t, err)
	assert.Equal(t, testSig, sig)
	assert.GreaterOrEqual(t, mock.statusCalls, 3)
}

func TestSubmitAndConfirm_FinalizedSatisfiesConfirmed(t *testing.T) {
	mock := &mockRPCClient{
		sendSig:  testSig,
		statuses: []*rpc.SignatureStatusesResult{statusAt(rpc.ConfirmationStatusFinalized)},
	}

	_, err := newTestClient(mock, time.Second).SubmitAndConfirm(context.Background(), &solanago.Transaction{})
	require.NoError(t, err)
}

func TestSubmitAndConfirm_Timeout(t *testing.T) {
	// Status never advances past processed, so the wait hits the deadline.
	mock := &mockRPCClient{
		sendSig:  testSig,
		statuses: []*rpc.SignatureStatusesResult{statusAt(rpc.ConfirmationStatusProcessed)},
	}

	sig, err := newTestClient(mock, 50*time.Millisecond).SubmitAndConfirm(context.Background(), &solanago.Transaction{})
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
	// The signature is still returned so the caller can log it.
	assert.Equal(t, testSig, sig)
}

func TestSubmitAndConfirm_OnChainFailure(t *testing.T) {
	mock := &mockRPCClient{
		sendSig: testSig,
		statuses: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusConfirmed, Err: map[string]any{"InstructionError": []any{0, "Custom"}}},
		},
	}

	_, err := newTestClient(mock, time.Second).SubmitAndConfirm(context.Background(), &solanago.Transaction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed on-chain")
}

func TestSubmitAndConfirm_SendError(t *testing.T) {
	mock := &mockRPCClient{sendErr: errors.New("blockhash not found")}

	_, err := newTestClient(mock, time.Second).SubmitAndConfirm(context.Background(), &solanago.Transaction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send transaction")
	assert.Zero(t, mock.statusCalls)
}

func TestSubmitAndConfirm_TransientPollErrorRetried(t *testing.T) {
	mock := &mockRPCClient{
		sendSig:    testSig,
		statusErrs: []error{errors.New("rpc hiccup")},
		statuses: []*rpc.SignatureStatusesResult{
			nil, // consumed by the errored call slot
			statusAt(rpc.ConfirmationStatusConfirmed),
		},
	}

	_, err := newTestClient(mock, time.Second).SubmitAndConfirm(context.Background(), &solanago.Transaction{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mock.statusCalls, 2)
}

func TestSubmitAndConfirm_ContextCancelled(t *testing.T) {
	mock := &mockRPCClient{sendSig: testSig}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(mock, time.Second).SubmitAndConfirm(ctx, &solanago.Transaction{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommitmentReached(t *testing.T) {
	tests := []struct {
		got  rpc.ConfirmationStatusType
		want rpc.CommitmentType
		ok   bool
	}{
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed, false},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized, false},
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed, true},
		{"", rpc.CommitmentConfirmed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, commitmentReached(tt.got, tt.want), "%s vs %s", tt.got, tt.want)
	}
}

func TestCommitmentFromString(t *testing.T) {
	assert.Equal(t, rpc.CommitmentProcessed, CommitmentFromString("processed"))
	assert.Equal(t, rpc.CommitmentConfirmed, CommitmentFromString("confirmed"))
	assert.Equal(t, rpc.CommitmentFinalized, CommitmentFromString("finalized"))
	assert.Equal(t, rpc.CommitmentConfirmed, CommitmentFromString("bogus"))
}
