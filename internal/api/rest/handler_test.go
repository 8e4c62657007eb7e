package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/crm-bridge/internal/api/middleware"
	"github.com/feral-file/crm-bridge/internal/api/rest"
	"github.com/feral-file/crm-bridge/internal/api/shared/dto"
	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/api/shared/executor"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/mocks"
	"github.com/feral-file/crm-bridge/internal/store"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

const apiKey = "test-key"

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T) (*gin.Engine, *mocks.MockAPIExecutor) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockAPIExecutor(ctrl)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()

	router := gin.New()
	router.Use(middleware.RequestID())
	rest.SetupRoutes(router, rest.NewHandler(exec, clock), middleware.AuthConfig{APIKeys: []string{apiKey}})
	return router, exec
}

func do(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func operator() map[string]string {
	return map[string]string{"Authorization": "ApiKey " + apiKey}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body, "timestamp")
	return body
}

func TestHealthCheck(t *testing.T) {
	router, exec := setupRouter(t)

	exec.EXPECT().Health(gomock.Any()).Return(&dto.HealthResponse{Status: "ok"})
	w := do(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	exec.EXPECT().Health(gomock.Any()).Return(&dto.HealthResponse{Status: "degraded"})
	w = do(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReceiveWebhook(t *testing.T) {
	router, exec := setupRouter(t)
	body := []byte(`{"event":"message_created","id":555}`)

	exec.EXPECT().
		AcceptWebhook(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req executor.WebhookRequest) (*dto.WebhookAcceptedResponse, error) {
			assert.Equal(t, body, req.Body)
			assert.Equal(t, "sha256=abc", req.Signature)
			assert.Equal(t, "1772359200", req.Timestamp)
			return &dto.WebhookAcceptedResponse{Success: true, Status: dto.WebhookStatusQueued, WebhookID: "555"}, nil
		})

	w := do(router, http.MethodPost, "/webhooks/chatwoot", body, map[string]string{
		webhook.HeaderSignature: "sha256=abc",
		webhook.HeaderTimestamp: "1772359200",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"webhook_id":"555"`)
}

func TestReceiveWebhook_Ignored(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		AcceptWebhook(gomock.Any(), gomock.Any()).
		Return(&dto.WebhookAcceptedResponse{Success: true, Status: dto.WebhookStatusIgnored}, nil)

	w := do(router, http.MethodPost, "/webhooks/chatwoot", []byte(`{"event":"conversation_updated","id":1}`), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReceiveWebhook_Unauthorized(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		AcceptWebhook(gomock.Any(), gomock.Any()).
		Return(nil, apierrors.NewUnauthorizedError("Invalid webhook signature"))

	w := do(router, http.MethodPost, "/webhooks/chatwoot", []byte(`{}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(domain.ErrorCodeUnauthorized), body["error_code"])
	assert.Equal(t, "Invalid webhook signature", body["error"])
}

func TestReceiveWebhook_TooLarge(t *testing.T) {
	router, _ := setupRouter(t)
	body := []byte(`{"content":"` + strings.Repeat("a", 2<<20) + `"}`)

	w := do(router, http.MethodPost, "/webhooks/chatwoot", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOperatorRoutes_RequireAuth(t *testing.T) {
	router, _ := setupRouter(t)

	for _, path := range []string{
		"/api/v1/dead-letters/webhooks",
		"/api/v1/contacts/7/consents",
		"/api/v1/insights/summary",
		"/api/v1/audit-logs",
	} {
		w := do(router, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		decodeError(t, w)

		w = do(router, http.MethodGet, path, nil, map[string]string{"Authorization": "ApiKey wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestListDeadLetters(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		ListDeadLetters(gomock.Any(), domain.JobKindDataExport, "", 100, 5).
		Return(&dto.DeadLetterListResponse{Success: true, Items: []dto.DeadLetterResponse{}}, nil)

	w := do(router, http.MethodGet, "/api/v1/dead-letters/exports?limit=500&offset=5", nil, operator())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListDeadLetters_UnknownKind(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/dead-letters/parcels", nil, operator())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDeadLetter_BadID(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/dead-letters/webhooks/abc", nil, operator())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetryDeadLetter(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		RetryDeadLetter(gomock.Any(), domain.JobKindWebhook, uint64(17), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.JobKind, _ uint64, actor executor.Actor) (*dto.RetryResponse, error) {
			require.NotNil(t, actor.ID)
			assert.True(t, strings.HasPrefix(*actor.ID, "apikey:"))
			assert.NotEmpty(t, actor.IPAddress)
			return &dto.RetryResponse{Success: true, RetryResult: dto.RetryResult{DeadLetterID: 17, Started: true}}, nil
		})

	w := do(router, http.MethodPost, "/api/v1/dead-letters/webhooks/17/retry", nil, operator())
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRetryDeadLetters_Validation(t *testing.T) {
	router, exec := setupRouter(t)

	w := do(router, http.MethodPost, "/api/v1/dead-letters/webhooks/retry", []byte(`{"ids":[]}`), operator())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router, http.MethodPost, "/api/v1/dead-letters/webhooks/retry", []byte(`{"ids":[1,1]}`), operator())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	exec.EXPECT().
		RetryDeadLetters(gomock.Any(), domain.JobKindWebhook, []uint64{1, 2}, gomock.Any()).
		Return(&dto.BulkRetryResponse{Success: true, Succeeded: 2}, nil)
	w = do(router, http.MethodPost, "/api/v1/dead-letters/webhooks/retry", []byte(`{"ids":[1,2]}`), operator())
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestGrantConsent(t *testing.T) {
	router, exec := setupRouter(t)

	w := do(router, http.MethodPost, "/api/v1/contacts/7/consents", []byte(`{"consent_type":"telepathy"}`), operator())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	exec.EXPECT().
		GrantConsent(gomock.Any(), int64(7), dto.GrantConsentRequest{ConsentType: "marketing", Source: "web_form"}, gomock.Any()).
		Return(&dto.ConsentResponse{Success: true}, nil)
	w = do(router, http.MethodPost, "/api/v1/contacts/7/consents", []byte(`{"consent_type":"marketing","source":"web_form"}`), operator())
	assert.Equal(t, http.StatusCreated, w.Code)

	exec.EXPECT().
		GrantConsent(gomock.Any(), int64(7), gomock.Any(), gomock.Any()).
		Return(nil, apierrors.FromError(domain.ErrConsentConflict, "Failed to grant consent"))
	w = do(router, http.MethodPost, "/api/v1/contacts/7/consents", []byte(`{"consent_type":"marketing"}`), operator())
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWithdrawConsent(t *testing.T) {
	router, exec := setupRouter(t)

	exec.EXPECT().
		WithdrawConsent(gomock.Any(), int64(7), "marketing", "", gomock.Any()).
		Return(&dto.ConsentResponse{Success: true}, nil)
	w := do(router, http.MethodDelete, "/api/v1/contacts/7/consents/marketing", nil, operator())
	assert.Equal(t, http.StatusOK, w.Code)

	exec.EXPECT().
		WithdrawConsent(gomock.Any(), int64(7), "marketing", "no longer interested", gomock.Any()).
		Return(&dto.ConsentResponse{Success: true}, nil)
	w = do(router, http.MethodDelete, "/api/v1/contacts/7/consents/marketing", []byte(`{"reason":"no longer interested"}`), operator())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckConsent_BadContact(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/contacts/-1/consents/marketing/valid", nil, operator())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestExportAndErasure(t *testing.T) {
	router, exec := setupRouter(t)

	exec.EXPECT().RequestExport(gomock.Any(), int64(7), gomock.Any()).
		Return(&dto.DataRequestResponse{Success: true, RequestID: "r1"}, nil)
	w := do(router, http.MethodPost, "/api/v1/contacts/7/export", nil, operator())
	assert.Equal(t, http.StatusAccepted, w.Code)

	exec.EXPECT().RequestErasure(gomock.Any(), int64(7), gomock.Any()).
		Return(&dto.DataRequestResponse{Success: true, RequestID: "r2"}, nil)
	w = do(router, http.MethodPost, "/api/v1/contacts/7/erase", nil, operator())
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestGetExportStatus(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().GetExportStatus(gomock.Any(), "r1").
		Return(&dto.ExportStatusResponse{Success: true, RequestID: "r1", DownloadURL: "https://x"}, nil)

	w := do(router, http.MethodGet, "/api/v1/exports/r1", nil, operator())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"download_url":"https://x"`)
}

func TestDownloadExport(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		OpenExport(gomock.Any(), "contact-7-01HZX.json", "1772359200", "abc", gomock.Any()).
		Return(&executor.Download{
			Filename:    "contact-7-01HZX.json",
			ContentType: "application/json",
			Body:        io.NopCloser(strings.NewReader(`{"contact_id":7}`)),
		}, nil)

	// no Authorization header: the signed link is the credential
	w := do(router, http.MethodGet, "/api/v1/exports/download?file=contact-7-01HZX.json&ts=1772359200&token=abc", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "contact-7-01HZX.json")
	assert.JSONEq(t, `{"contact_id":7}`, w.Body.String())
}

func TestDownloadExport_Expired(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		OpenExport(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apierrors.NewForbiddenError("Download link expired"))

	w := do(router, http.MethodGet, "/api/v1/exports/download?file=a.json&ts=1&token=abc", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetInsightsSummary(t *testing.T) {
	router, exec := setupRouter(t)

	exec.EXPECT().
		GetInsightsSummary(gomock.Any(), now.AddDate(0, 0, -7), now).
		Return(&dto.InsightsSummaryResponse{Success: true}, nil)
	w := do(router, http.MethodGet, "/api/v1/insights/summary", nil, operator())
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/insights/summary?since=2025-01-01T00:00:00Z&until=2026-01-01T00:00:00Z", nil, operator())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router, http.MethodGet, "/api/v1/insights/summary?since=1772359200&until=1772355600", nil, operator())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetInsightsSummary_UpstreamDown(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		GetInsightsSummary(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.NewUpstreamError("chatwoot", "reports", domain.IntPtr(http.StatusServiceUnavailable), "down", nil))

	w := do(router, http.MethodGet, "/api/v1/insights/summary", nil, operator())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(domain.ErrorCodeServiceUnavailable), body["error_code"])
}

func TestListAuditLogs(t *testing.T) {
	router, exec := setupRouter(t)
	exec.EXPECT().
		ListAuditLogs(gomock.Any(), store.AuditLogFilter{TargetModel: "consent", TargetID: "3", Limit: 20}).
		Return(&dto.AuditLogListResponse{Success: true}, nil)

	w := do(router, http.MethodGet, "/api/v1/audit-logs?target_model=consent&target_id=3", nil, operator())
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/audit-logs?offset=-1", nil, operator())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
