package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// RequestAuth holds the credentials for HMAC-authenticated requests against
// the NODO data-management API.
type RequestAuth struct {
	Key    string // API key
	Secret string // API secret, base64-encoded
}

// Headers returns the HTTP headers for an authenticated request. The
// signature is HMAC-SHA256(secret, timestamp+method+path+body) encoded as
// base64. The secret is base64-decoded before use; if decoding fails the raw
// bytes are used so the caller gets an obviously-wrong signature rather than
// a panic.
//
// Returned header keys:
//   - X-NODO-API-KEY
//   - X-NODO-TIMESTAMP
//   - X-NODO-SIGNATURE
func (a *RequestAuth) Headers(method, path, body string) map[string]string {
	return a.HeadersAt(method, path, body, time.Now().Unix())
}

// HeadersAt is like Headers but lets the caller supply the Unix timestamp
// (useful for deterministic testing).
func (a *RequestAuth) HeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	secretBytes, err := base64.StdEncoding.DecodeString(a.Secret)
	if err != nil {
		secretBytes = []byte(a.Secret)
	}

	message := ts + method + path + body
	sig := hmacSHA256Base64(secretBytes, message)

	return map[string]string{
		"X-NODO-API-KEY":   a.Key,
		"X-NODO-TIMESTAMP": ts,
		"X-NODO-SIGNATURE": sig,
	}
}

// String returns a redacted representation suitable for logging.
func (a *RequestAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("RequestAuth{key=%s, secret=%s}", redact(a.Key), redact(a.Secret))
}

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
