package jupiter

// Route is one candidate swap path returned by the quote endpoint. Beyond
// the amounts, its contents are opaque to us: the selected route is echoed
// back verbatim in the swap-build request.
type Route struct {
	InAmount    string       `json:"in_amount"`
	OutAmount   string       `json:"out_amount"`
	MarketInfos []MarketInfo `json:"marketInfos"`
}

// MarketInfo describes one liquidity venue hop within a route.
type MarketInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// quoteResponse is the quote endpoint's envelope.
type quoteResponse struct {
	Data []Route `json:"data"`
}

// swapRequest is the body of the swap-build call.
type swapRequest struct {
	Route            Route  `json:"route"`
	UserPublicKey    string `json:"user_public_key"`
	WrapAndUnwrapSol bool   `json:"wrap_and_unwrap_sol"`
}

// swapResponse carries the prebuilt, base64-encoded transaction.
type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}
