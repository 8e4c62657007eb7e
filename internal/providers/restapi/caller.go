// Package restapi holds the request plumbing shared by the outbound REST clients.
package restapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderClientVersion  = "X-Client-Version"
	HeaderIdempotencyKey = "Idempotency-Key"

	// maxLoggedBody bounds the response body copied into logs and error messages
	maxLoggedBody = 1024
)

// NewHTTPClient builds the transport for an upstream with bearer auth.
// extraHeaders are sent on every request.
func NewHTTPClient(cfg config.UpstreamConfig, extraHeaders map[string]string) adapter.HTTPClient {
	headers := map[string]string{}
	if cfg.APIToken != "" {
		headers["Authorization"] = "Bearer " + cfg.APIToken
	}
	for k, v := range extraHeaders {
		headers[k] = v
	}
	return adapter.NewHTTPClient(adapter.HTTPClientConfig{
		BaseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		Timeout:            cfg.Timeout,
		MaxRedirects:       cfg.MaxRedirects,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Headers:            headers,
	})
}

// Caller performs one HTTP exchange and maps the outcome onto domain.UpstreamError
type Caller struct {
	upstream      string
	http          adapter.HTTPClient
	json          adapter.JSON
	clientVersion string
	debug         bool
}

// NewCaller creates a caller for upstream
func NewCaller(upstream string, httpClient adapter.HTTPClient, json adapter.JSON, clientVersion string, debug bool) *Caller {
	return &Caller{
		upstream:      upstream,
		http:          httpClient,
		json:          json,
		clientVersion: clientVersion,
		debug:         debug,
	}
}

// Call sends req and decodes a successful response body into out (when non-nil)
func (c *Caller) Call(ctx context.Context, operation string, req adapter.HTTPRequest, out interface{}) error {
	headers := make(map[string]string, len(req.Headers)+2)
	for k, v := range req.Headers {
		headers[k] = v
	}
	requestID := uuid.NewString()
	headers[HeaderRequestID] = requestID
	if c.clientVersion != "" {
		headers[HeaderClientVersion] = c.clientVersion
	}
	req.Headers = headers

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		logger.WarnCtx(ctx, "Upstream request failed",
			zap.String("upstream", c.upstream),
			zap.String("operation", operation),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return domain.NewUpstreamError(c.upstream, operation, nil, err.Error(), err)
	}

	if c.debug || resp.StatusCode >= http.StatusBadRequest {
		fields := []zap.Field{
			zap.String("upstream", c.upstream),
			zap.String("operation", operation),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", resp.Duration),
			zap.String("response", truncate(resp.Body)),
		}
		if resp.StatusCode >= http.StatusBadRequest {
			logger.WarnCtx(ctx, "Upstream returned error status", fields...)
		} else {
			logger.DebugCtx(ctx, "Upstream request", fields...)
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		status := resp.StatusCode
		return domain.NewUpstreamError(c.upstream, operation, &status, c.errorMessage(resp), nil)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := c.json.Unmarshal(resp.Body, out); err != nil {
		status := resp.StatusCode
		return domain.NewUpstreamError(c.upstream, operation, &status,
			fmt.Sprintf("failed to decode response: %v", err), err)
	}
	return nil
}

// errorMessage extracts a message from the common error body shapes
func (c *Caller) errorMessage(resp *adapter.HTTPResponse) string {
	var body struct {
		Message string      `json:"message"`
		Error   interface{} `json:"error"`
	}
	if err := c.json.Unmarshal(resp.Body, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if s, ok := body.Error.(string); ok && s != "" {
			return s
		}
	}
	if len(resp.Body) > 0 {
		return truncate(resp.Body)
	}
	return http.StatusText(resp.StatusCode)
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "..."
	}
	return string(b)
}
