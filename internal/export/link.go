// Package export builds LGPD data export artifacts and the signed links used to download them.
package export

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/domain"
)

// DefaultLinkTTL is how long a download link stays valid when not configured
const DefaultLinkTTL = 24 * time.Hour

// DownloadPath is the API route serving export downloads
const DownloadPath = "/api/v1/exports/download"

// Link is a signed export download link
type Link struct {
	Filename  string    `json:"filename"`
	Timestamp int64     `json:"timestamp"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Signer issues and verifies download tokens
type Signer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	clock   adapter.Clock
}

// NewSigner creates a Signer. baseURL is prefixed to DownloadPath when building link URLs.
func NewSigner(secret string, ttl time.Duration, baseURL string, clock adapter.Clock) *Signer {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &Signer{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		clock:   clock,
	}
}

// Token computes hex(sha256(filename + timestamp + secret))
func (s *Signer) Token(filename string, timestamp int64) string {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write(s.secret)
	return hex.EncodeToString(h.Sum(nil))
}

// Sign issues a link for filename stamped with the current time
func (s *Signer) Sign(filename string) Link {
	now := s.clock.Now()
	ts := now.Unix()
	token := s.Token(filename, ts)

	q := url.Values{}
	q.Set("file", filename)
	q.Set("ts", strconv.FormatInt(ts, 10))
	q.Set("token", token)

	return Link{
		Filename:  filename,
		Timestamp: ts,
		Token:     token,
		URL:       s.baseURL + DownloadPath + "?" + q.Encode(),
		ExpiresAt: time.Unix(ts, 0).Add(s.ttl).UTC(),
	}
}

// Verify checks a download request. A bad token yields domain.ErrInvalidToken,
// an old one domain.ErrExpiredToken.
func (s *Signer) Verify(filename, timestamp, token string) error {
	if filename == "" || token == "" || !ValidFilename(filename) {
		return fmt.Errorf("%w: missing or malformed file", domain.ErrInvalidToken)
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", domain.ErrInvalidToken)
	}

	expected := s.Token(filename, ts)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(token))) != 1 {
		return domain.ErrInvalidToken
	}

	if s.clock.Now().After(time.Unix(ts, 0).Add(s.ttl)) {
		return domain.ErrExpiredToken
	}
	return nil
}

// ValidFilename rejects names that could escape the export prefix
func ValidFilename(filename string) bool {
	if filename != path.Base(filename) || filename == "." || filename == ".." {
		return false
	}
	return !strings.ContainsAny(filename, `/\`)
}
