package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/relayline-ai/relayline/internal/api/handlers"
	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRequestService struct {
	mock.Mock
}

func (m *mockRequestService) Create(ctx context.Context, in service.CreateHelpRequestInput) (*domain.HelpRequest, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpRequest), args.Error(1)
}

func (m *mockRequestService) Get(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpRequest), args.Error(1)
}

func (m *mockRequestService) ListPending(ctx context.Context) ([]*domain.HelpRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HelpRequest), args.Error(1)
}

func (m *mockRequestService) ListUnresolved(ctx context.Context) ([]*domain.HelpRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HelpRequest), args.Error(1)
}

func (m *mockRequestService) Resolve(ctx context.Context, id int64, answer string) (*domain.HelpRequest, error) {
	args := m.Called(ctx, id, answer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpRequest), args.Error(1)
}

func (m *mockRequestService) MarkUnresolved(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpRequest), args.Error(1)
}

func (m *mockRequestService) Counts(ctx context.Context) (*service.RequestCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RequestCounts), args.Error(1)
}

type mockKnowledgeService struct {
	mock.Mock
}

func (m *mockKnowledgeService) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockKnowledgeService) List(ctx context.Context, cursor string, limit int) (*service.KnowledgePageResult, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.KnowledgePageResult), args.Error(1)
}

type mockQueryService struct {
	mock.Mock
}

func (m *mockQueryService) Query(ctx context.Context, question string) (*service.QueryResult, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QueryResult), args.Error(1)
}

type mockBusinessService struct {
	mock.Mock
}

func (m *mockBusinessService) List(ctx context.Context) ([]*domain.BusinessInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BusinessInfo), args.Error(1)
}

func (m *mockBusinessService) Profile(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type testEnv struct {
	router   http.Handler
	requests *mockRequestService
	queries  *mockQueryService
}

func newTestEnv(apiToken string) *testEnv {
	logger := log.New(io.Discard, "", 0)
	requests := &mockRequestService{}
	knowledge := &mockKnowledgeService{}
	queries := &mockQueryService{}
	business := &mockBusinessService{}

	router := NewRouter(RouterConfig{
		HelpRequests: handlers.NewHelpRequestHandler(requests, knowledge, logger),
		Knowledge:    handlers.NewKnowledgeHandler(queries, knowledge, business, logger),
		APIToken:     apiToken,
		Logger:       logger,
	})
	return &testEnv{router: router, requests: requests, queries: queries}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv("")
	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["status"])
}

func TestSyncRequest(t *testing.T) {
	env := newTestEnv("")
	env.requests.On("Create", mock.Anything, service.CreateHelpRequestInput{
		CustomerID:   "caller-1",
		Question:     "do you deliver?",
		SessionToken: "tok",
	}).Return(&domain.HelpRequest{ID: 11, Status: domain.StatusPending}, nil)

	rec := env.do(t, http.MethodPost, "/api/sync-request",
		`{"customer_id":"caller-1","question":"do you deliver?","session_token":"tok"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(11), body["id"])
}

func TestSyncRequestAgentTimestamp(t *testing.T) {
	env := newTestEnv("")
	raisedAt := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	env.requests.On("Create", mock.Anything, service.CreateHelpRequestInput{
		CustomerID: "caller-1",
		Question:   "do you deliver?",
		CreatedAt:  raisedAt,
	}).Return(&domain.HelpRequest{ID: 12, Status: domain.StatusPending}, nil)

	rec := env.do(t, http.MethodPost, "/api/sync-request",
		`{"customer_id":"caller-1","question":"do you deliver?","created_at":"2026-08-30T09:15:00Z"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	env.requests.AssertExpectations(t)
}

func TestSyncRequestValidation(t *testing.T) {
	env := newTestEnv("")
	env.requests.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrEmptyQuestion)

	rec := env.do(t, http.MethodPost, "/api/sync-request", `{"customer_id":"c"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestCheckRequestPending(t *testing.T) {
	env := newTestEnv("")
	env.requests.On("Get", mock.Anything, int64(11)).Return(&domain.HelpRequest{
		ID:     11,
		Status: domain.StatusPending,
	}, nil)

	rec := env.do(t, http.MethodGet, "/api/check-request/11", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "pending", body["status"])
	assert.Nil(t, body["answer"])
}

func TestCheckRequestNotFound(t *testing.T) {
	env := newTestEnv("")
	env.requests.On("Get", mock.Anything, int64(99)).Return(nil, domain.ErrHelpRequestNotFound)

	rec := env.do(t, http.MethodGet, "/api/check-request/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveConflict(t *testing.T) {
	env := newTestEnv("")
	env.requests.On("Resolve", mock.Anything, int64(4), "yes").Return(nil, domain.ErrRequestNotPending)

	rec := env.do(t, http.MethodPost, "/api/requests/4/resolve", `{"answer":"yes"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQueryFound(t *testing.T) {
	env := newTestEnv("")
	env.queries.On("Query", mock.Anything, "hours?").Return(&service.QueryResult{
		Found: true,
		Item: &domain.KnowledgeItem{
			ID:       "a2a9ed9a-4907-4ef9-8e02-3b8bfae0dbb9",
			Question: "what are your hours",
			Answer:   "9 to 6",
		},
		Score:     0.92,
		MatchType: service.MatchSemantic,
		BestScore: 0.92,
	}, nil)

	rec := env.do(t, http.MethodPost, "/api/knowledge/query", `{"question":"hours?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "a2a9ed9a-4907-4ef9-8e02-3b8bfae0dbb9", body["id"])
	assert.Equal(t, "9 to 6", body["answer"])
	assert.Equal(t, "semantic", body["match_type"])
}

func TestQueryNotFound(t *testing.T) {
	env := newTestEnv("")
	env.queries.On("Query", mock.Anything, "unknown").Return(&service.QueryResult{
		BestScore: 0.31,
	}, nil)

	rec := env.do(t, http.MethodPost, "/api/knowledge/query", `{"question":"unknown"}`)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["found"])
	assert.NotEmpty(t, body["message"])
	assert.InDelta(t, 0.31, body["best_score"], 1e-9)
}

func TestBearerAuth(t *testing.T) {
	env := newTestEnv("secret-token")
	env.requests.On("ListPending", mock.Anything).Return([]*domain.HelpRequest{}, nil)

	rec := env.do(t, http.MethodGet, "/api/requests/pending", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/requests/pending", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	ok := httptest.NewRecorder()
	env.router.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)

	// Health stays open.
	health := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestInvalidRequestID(t *testing.T) {
	env := newTestEnv("")
	rec := env.do(t, http.MethodGet, "/api/requests/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
