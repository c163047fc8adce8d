package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/brojonat/mimic/service/trader"
)

// maxWebhookBody caps webhook payload reads. Helius deliveries are small;
// this is a guard against runaway bodies, not a protocol limit.
const maxWebhookBody = 10 << 20 // 10 MiB

// handleWebhook ingests a transaction-notification delivery. The endpoint
// always acknowledges with 200 once the body has been read: a non-2xx
// response would make the upstream provider retry or disable the webhook,
// and processing failures are our problem, not the sender's. Only a body
// read error returns a 4xx, since in that case no payload was received.
func handleWebhook(t *trader.Trader, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to read webhook body", "error", err)
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		t.ProcessBatch(r.Context(), body)

		w.WriteHeader(http.StatusOK)
	})
}
