package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/chatloop-ai/chatloop/modules/platform/slack"
)

const (
	// maxEventBody caps the request body read (1 MiB).
	maxEventBody = 1 << 20

	// maxSignatureSkew rejects replayed requests with stale timestamps.
	maxSignatureSkew = 5 * time.Minute
)

// handleSlackEvents returns the POST /events/slack handler. It answers the
// url_verification handshake inline and acknowledges event callbacks
// immediately; the turn itself runs in the background.
func (g *Gateway) handleSlackEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if g.config.SigningSecret != "" && !g.validSignature(r, body) {
			g.logger.Warn("rejecting event with invalid signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		env, err := slack.ParseEnvelope(body)
		if err != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}

		switch env.Type {
		case slack.EnvelopeURLVerification:
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(env.Challenge))

		case slack.EnvelopeEventCallback:
			ev, err := slack.ParseEvent(env.Event)
			if err != nil {
				http.Error(w, "malformed event", http.StatusBadRequest)
				return
			}

			g.inflight.Add(1)
			go func() {
				defer g.inflight.Done()
				ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
				defer cancel()
				g.deps.Handler.HandleInboundEvent(ctx, ev)
			}()

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))

		default:
			// Unknown envelope types are acknowledged and dropped.
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}
}

// validSignature checks Slack's v0 request signature in constant time:
// hex(HMAC-SHA256(secret, "v0:<timestamp>:<body>")).
func (g *Gateway) validSignature(r *http.Request, body []byte) bool {
	ts := r.Header.Get("X-Slack-Request-Timestamp")
	sig := r.Header.Get("X-Slack-Signature")
	if ts == "" || sig == "" {
		return false
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	skew := g.now().Sub(time.Unix(sec, 0))
	if skew > maxSignatureSkew || skew < -maxSignatureSkew {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.config.SigningSecret))
	mac.Write([]byte("v0:" + ts + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
