// File path: internal/api/webhook_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/event"
)

const maxWebhookBody = 1 << 20

// Delivery headers set by the content service.
const (
	headerSignaturePrimary  = "X-Signature-Primary"
	headerDeliveryTimestamp = "X-Delivery-Timestamp"
)

func (s *Server) handleWebhookLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook is the delivery endpoint. The contract favors the sender:
// verification failures are the only rejection that matters, and a full
// queue still answers success so the sender does not retry-storm a
// backlogged service.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	signature := r.Header.Get(headerSignaturePrimary)
	timestamp := r.Header.Get(headerDeliveryTimestamp)
	if !s.verifier.Verify(body, signature, timestamp) {
		common.Logger().Warn("webhook: invalid signature", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusForbidden, map[string]string{
			"status":  "error",
			"message": "invalid signature",
		})
		return
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("malformed payload: %w", err))
		return
	}

	// Endpoint validation handshake: echo the challenge, nothing to enqueue.
	if challenge, found := probe["challenge"]; found {
		writeJSON(w, http.StatusOK, map[string]json.RawMessage{
			"status":    json.RawMessage(`"success"`),
			"challenge": challenge,
		})
		return
	}

	ev, err := event.ParsePayload(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if !s.queue.Put(ev) {
		// Dropped on a full queue; the warning is already logged.
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}
	common.Logger().Debug("webhook: event enqueued", "trigger", ev.Kind(), "file_id", ev.Source.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
