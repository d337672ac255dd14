package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// IngestAuthMiddleware authenticates file deliveries on the ingest
// endpoint. The sender signs timestamp and body with a shared secret;
// signatures older than maxSkew are rejected to limit replay.
type IngestAuthMiddleware struct {
	secret  []byte
	maxSkew time.Duration
}

func NewIngestAuthMiddleware(secret []byte, maxSkew time.Duration) *IngestAuthMiddleware {
	return &IngestAuthMiddleware{secret: secret, maxSkew: maxSkew}
}

// Wrap enforces delivery-signature validation, then hands the handler a
// replayable body.
func (m *IngestAuthMiddleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.secret) == 0 {
			http.Error(w, "ingest auth not configured", http.StatusUnauthorized)
			return
		}

		body, reason := m.verify(r)
		if reason != "" {
			http.Error(w, reason, http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// verify checks the signature headers against the request body. It
// returns the consumed body on success, or a rejection reason.
func (m *IngestAuthMiddleware) verify(r *http.Request) ([]byte, string) {
	timestamp := strings.TrimSpace(r.Header.Get("X-Ingest-Timestamp"))
	signature := strings.TrimSpace(r.Header.Get("X-Ingest-Signature"))
	if timestamp == "" || signature == "" {
		return nil, "missing ingest signature"
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, "invalid ingest timestamp"
	}
	skew := time.Since(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if m.maxSkew > 0 && skew > m.maxSkew {
		return nil, "ingest signature expired"
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "read body error"
	}
	_ = r.Body.Close()

	expected := computeIngestSignature(m.secret, timestamp, body)
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return nil, "invalid ingest signature"
	}
	return body, ""
}

func computeIngestSignature(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("\n"))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
