package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/feral-file/crm-bridge/internal/domain"
)

// Request headers carrying the signature and the signing time (unix seconds)
const (
	HeaderSignature = "X-Chatwoot-Signature"
	HeaderTimestamp = "X-Chatwoot-Timestamp"

	signaturePrefix = "sha256="

	// DefaultTolerance is the accepted clock skew between signing and receipt
	DefaultTolerance = 300 * time.Second
)

// Sign returns the signature header value for body signed at timestamp.
// Signed payload: {timestamp}.{raw_body}
func Sign(secret string, timestamp int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte("."))
	h.Write(body)
	return signaturePrefix + hex.EncodeToString(h.Sum(nil))
}

// Verify checks a webhook signature. The timestamp is checked first so a stale
// request is rejected regardless of its signature.
func Verify(secret, signature, timestamp string, body []byte, now time.Time, tolerance time.Duration) error {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: missing or malformed timestamp", domain.ErrInvalidSignature)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > tolerance {
		return fmt.Errorf("%w: timestamp is %s away from now", domain.ErrStaleWebhook, skew.Truncate(time.Second))
	}

	signature = strings.TrimSpace(signature)
	if !strings.HasPrefix(signature, signaturePrefix) {
		return fmt.Errorf("%w: unsupported signature format", domain.ErrInvalidSignature)
	}
	expected := Sign(secret, ts, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return domain.ErrInvalidSignature
	}
	return nil
}
