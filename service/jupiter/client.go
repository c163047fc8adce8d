// Package jupiter is a minimal client for the Jupiter aggregator's quote and
// swap-build endpoints. Each call is a single attempt: retry policy, if any,
// belongs to the caller.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brojonat/mimic/service/metrics"
)

// WrappedSOLMint is the wrapped SOL mint, the fixed input side of every
// mirror swap.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

var (
	// ErrNoRoute is returned when the aggregator has no route for the
	// requested pair.
	ErrNoRoute = errors.New("no swap route found")

	// ErrSwapTransactionMissing is returned when the swap-build response
	// lacks the prebuilt transaction field.
	ErrSwapTransactionMissing = errors.New("no swap transaction returned")
)

// Client calls the Jupiter aggregator. The input notional and slippage are
// fixed at construction; only the output mint varies per call.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	amountLamports uint64
	slippagePct    float64
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewClient creates a Jupiter client. The httpClient should carry a bounded
// timeout; if nil, a client with a 15s timeout is used. If m is nil, no
// metrics are recorded.
func NewClient(baseURL string, httpClient *http.Client, amountLamports uint64, slippagePct float64, m *metrics.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		amountLamports: amountLamports,
		slippagePct:    slippagePct,
		metrics:        m,
		logger:         logger,
	}
}

// Quote requests a route for swapping the fixed SOL notional into outputMint
// and returns the first route the aggregator offers. First-in-list selection
// is deliberate; no ranking is applied.
func (c *Client) Quote(ctx context.Context, outputMint string) (Route, error) {
	params := url.Values{}
	params.Set("inputMint", WrappedSOLMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(c.amountLamports, 10))
	params.Set("slippage", strconv.FormatFloat(c.slippagePct, 'f', -1, 64))

	quoteURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return Route{}, fmt.Errorf("failed to create quote request: %w", err)
	}

	var quote quoteResponse
	if err := c.do(req, "quote", &quote); err != nil {
		return Route{}, err
	}

	if len(quote.Data) == 0 {
		return Route{}, ErrNoRoute
	}

	route := quote.Data[0]
	c.logger.DebugContext(ctx, "quote received",
		"output_mint", outputMint,
		"routes", len(quote.Data),
		"in_amount", route.InAmount,
		"out_amount", route.OutAmount,
	)
	return route, nil
}

// BuildSwap asks the aggregator to build a transaction for the given route,
// payable by userPublicKey, with SOL wrap/unwrap handled by the aggregator.
// Returns the base64-encoded unsigned transaction.
func (c *Client) BuildSwap(ctx context.Context, route Route, userPublicKey string) (string, error) {
	body, err := json.Marshal(swapRequest{
		Route:            route,
		UserPublicKey:    userPublicKey,
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var swap swapResponse
	if err := c.do(req, "swap", &swap); err != nil {
		return "", err
	}

	if swap.SwapTransaction == "" {
		return "", ErrSwapTransactionMissing
	}
	return swap.SwapTransaction, nil
}

// do executes a request, decodes the JSON response into out, and records
// call metrics under the given endpoint label.
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	} else if resp.StatusCode != http.StatusOK {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordAggregatorCall(endpoint, status, duration)
	}

	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request returned status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
