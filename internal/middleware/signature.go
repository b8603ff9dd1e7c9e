package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
)

// SignatureHeader carries the OneBot HTTP POST signature.
const SignatureHeader = "X-Signature"

const maxEventBody = 1 << 20

// SignBody returns the header value a OneBot implementation sends for body.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether header matches body under secret.
func VerifySignature(secret string, body []byte, header string) bool {
	got := strings.TrimSpace(header)
	if !strings.HasPrefix(got, "sha1=") {
		return false
	}
	return hmac.Equal([]byte(SignBody(secret, body)), []byte(got))
}

// OneBotSignature rejects webhook deliveries whose X-Signature does not match
// the shared secret. An empty secret disables the check.
func OneBotSignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
			if err != nil {
				http.Error(w, "unreadable body", http.StatusBadRequest)
				return
			}
			r.Body.Close()
			if !VerifySignature(secret, body, r.Header.Get(SignatureHeader)) {
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
