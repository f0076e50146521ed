package gateway

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v68/github"
)

// maxPayloadBytes is the largest delivery accepted. GitHub caps payloads at
// 25 MB but pull request events are far smaller.
const maxPayloadBytes = 5 << 20

func (gw *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	name := gogithub.WebHookType(r)
	delivery := gogithub.DeliveryID(r)
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing X-GitHub-Event header")
		return
	}

	secret := gw.cfg.GitHub.WebhookSecret
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	payload, err := readPayload(r, secret)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		case secret != "":
			slog.Warn("gateway: rejected webhook delivery", "event", name, "delivery", delivery, "error", err)
			writeError(w, http.StatusUnauthorized, "invalid signature")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if name == "ping" {
		slog.Info("gateway: ping received", "delivery", delivery)
		writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
		return
	}

	start := time.Now()
	res, err := gw.handler.Handle(r.Context(), name, payload)
	gw.record(res, err)
	if err != nil {
		slog.Error("gateway: delivering messages failed",
			"event", name, "action", res.Action, "delivery", delivery, "messages", len(res.Messages), "error", err)
		gw.broadcaster.send(SSEEvent{Type: "webhook.failed", Payload: map[string]any{
			"event":    res.Event,
			"action":   res.Action,
			"delivery": delivery,
			"error":    err.Error(),
		}})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	slog.Debug("gateway: webhook handled",
		"event", name, "action", res.Action, "delivery", delivery,
		"messages", len(res.Messages), "ignored", res.Ignored, "elapsed", time.Since(start))
	gw.broadcaster.send(SSEEvent{Type: "webhook.handled", Payload: map[string]any{
		"event":    res.Event,
		"action":   res.Action,
		"delivery": delivery,
		"messages": len(res.Messages),
		"ignored":  res.Ignored,
	}})
	writeJSON(w, http.StatusAccepted, res)
}

// readPayload returns the raw event JSON from a JSON or form-encoded
// delivery. With a secret, X-Hub-Signature-256 (or the legacy SHA-1 header)
// must match. Without one, signature headers are ignored.
func readPayload(r *http.Request, secret string) ([]byte, error) {
	if secret != "" {
		return gogithub.ValidatePayload(r, []byte(secret))
	}
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return gogithub.ValidatePayloadFromBody(contentType, r.Body, "", nil)
}
