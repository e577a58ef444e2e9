package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	assistantx "github.com/tanpawarit/Chative-Genie-Analytics/agent/assistant"
	auditx "github.com/tanpawarit/Chative-Genie-Analytics/agent/audit"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	transcriptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/transcript"
)

type fakeAsker struct {
	reply     assistantx.Reply
	turns     []transcriptx.Turn
	storeErr  error
	questions []string
	sessions  []string
	cleared   []string
}

func (f *fakeAsker) Ask(ctx context.Context, sessionID string, question string) assistantx.Reply {
	f.questions = append(f.questions, question)
	f.sessions = append(f.sessions, sessionID)
	return f.reply
}

func (f *fakeAsker) History(ctx context.Context, sessionID string) ([]transcriptx.Turn, error) {
	return f.turns, f.storeErr
}

func (f *fakeAsker) Clear(ctx context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return f.storeErr
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAskOK(t *testing.T) {
	asker := &fakeAsker{reply: assistantx.Reply{
		RequestID: "req-1",
		Text:      "S\n\nC",
		Domains:   []contractx.Domain{contractx.DomainSales, contractx.DomainCustomer},
	}}
	h := NewHandler(asker, Options{})

	rec := do(t, h, http.MethodPost, "/v1/ask", `{"question":"revenue by region?","session_id":" s1 "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "S\n\nC", got.Answer)
	assert.Equal(t, []contractx.Domain{contractx.DomainSales, contractx.DomainCustomer}, got.Domains)
	assert.Equal(t, []string{"s1"}, asker.sessions)
}

func TestAskBackendFailure(t *testing.T) {
	asker := &fakeAsker{reply: assistantx.Reply{RequestID: "req-2", Text: "Error: customer agent: boom", Failed: true}}
	h := NewHandler(asker, Options{})

	rec := do(t, h, http.MethodPost, "/v1/ask", `{"question":"churn?"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var got askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Error: customer agent: boom", got.Error)
	assert.Empty(t, got.Answer)
}

func TestAskBadJSON(t *testing.T) {
	asker := &fakeAsker{}
	h := NewHandler(asker, Options{})

	rec := do(t, h, http.MethodPost, "/v1/ask", `{"question":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got.Error, "Error: "), got.Error)
	assert.Empty(t, asker.questions)
}

func TestAskBlankQuestionIsRouted(t *testing.T) {
	asker := &fakeAsker{reply: assistantx.Reply{
		RequestID: "req-3",
		Text:      "S\n\nC",
		Domains:   []contractx.Domain{contractx.DomainSales, contractx.DomainCustomer},
		Fallback:  true,
	}}
	h := NewHandler(asker, Options{})

	rec := do(t, h, http.MethodPost, "/v1/ask", `{"question":"   "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Fallback)
	assert.Equal(t, []string{"   "}, asker.questions)
}

func TestSessionEndpoints(t *testing.T) {
	asker := &fakeAsker{turns: []transcriptx.Turn{{Role: transcriptx.RoleUser, Content: "hi"}}}
	h := NewHandler(asker, Options{})

	rec := do(t, h, http.MethodGet, "/v1/sessions/s9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "s9", got.SessionID)
	require.Len(t, got.Turns, 1)

	rec = do(t, h, http.MethodDelete, "/v1/sessions/s9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"s9"}, asker.cleared)
}

func TestSessionStoreFailure(t *testing.T) {
	h := NewHandler(&fakeAsker{storeErr: errors.New("redis down")}, Options{})

	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/v1/sessions/s1", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := NewHandler(&fakeAsker{}, Options{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(&fakeAsker{}, Options{AllowedOrigins: []string{"https://app.example.com", " "}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/ask", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

type fakeAudit struct {
	entries []auditx.Entry
	err     error
	limits  []int
}

func (f *fakeAudit) Recent(ctx context.Context, limit int) ([]auditx.Entry, error) {
	f.limits = append(f.limits, limit)
	return f.entries, f.err
}

func TestAuditEndpoint(t *testing.T) {
	audit := &fakeAudit{entries: []auditx.Entry{{RequestID: "req-1", Question: "churn?"}}}
	h := NewHandler(&fakeAsker{}, Options{Audit: audit})

	rec := do(t, h, http.MethodGet, "/v1/audit?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got auditResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "req-1", got.Entries[0].RequestID)

	do(t, h, http.MethodGet, "/v1/audit", "")
	do(t, h, http.MethodGet, "/v1/audit?limit=100000", "")
	assert.Equal(t, []int{5, defaultAuditLimit, maxAuditLimit}, audit.limits)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/audit?limit=-1", "").Code)
}

func TestAuditEndpointFailure(t *testing.T) {
	h := NewHandler(&fakeAsker{}, Options{Audit: &fakeAudit{err: errors.New("pg down")}})

	rec := do(t, h, http.MethodGet, "/v1/audit", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error: audit log unavailable")
}

func TestAuditEndpointDisabled(t *testing.T) {
	h := NewHandler(&fakeAsker{}, Options{})

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/audit", "").Code)
}
