package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	queries []*entity.Query
	answer  *entity.Answer
	err     error
}

func (f *fakeUsecase) AnswerQuery(_ context.Context, q *entity.Query) (*entity.Answer, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *fakeUsecase) Stats(context.Context) *entity.Stats {
	total := int64(42)
	return &entity.Stats{QueriesServed: 7, TotalDocuments: &total, VectorDB: "qdrant"}
}

func (f *fakeUsecase) Settings() *entity.Settings {
	return &entity.Settings{TopK: 5, MaxTopK: 20}
}

func (f *fakeUsecase) DefaultTopK() int { return 5 }

func newRouter(uc ChatbotUsecase, maxBody int64) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc, maxBody))
	return r
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestQuerySuccess(t *testing.T) {
	uc := &fakeUsecase{answer: &entity.Answer{
		Answer:   "Paris",
		Question: "What is the capital of France?",
		Sources:  []entity.Source{{ID: "1", Score: 0.9, Metadata: map[string]any{"source": "geo"}}},
		Stats:    entity.QueryStats{Passages: 1},
	}}
	h := newRouter(uc, 1024)

	rec := doRequest(h, http.MethodPost, "/query", `{"question":"What is the capital of France?","top_k":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got entity.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Paris", got.Answer)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "geo", got.Sources[0].Metadata["source"])

	require.Len(t, uc.queries, 1)
	assert.Equal(t, 3, uc.queries[0].TopK)
}

func TestQueryDefaultTopK(t *testing.T) {
	uc := &fakeUsecase{answer: &entity.Answer{Answer: "ok"}}
	h := newRouter(uc, 1024)

	rec := doRequest(h, http.MethodPost, "/query", `{"question":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, uc.queries[0].TopK)
}

func TestQueryExplicitZeroTopKReachesValidation(t *testing.T) {
	uc := &fakeUsecase{err: fmt.Errorf("%w: top_k must be between 1 and 20, got 0", entity.ErrValidation)}
	h := newRouter(uc, 1024)

	rec := doRequest(h, http.MethodPost, "/query", `{"question":"hi","top_k":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, uc.queries[0].TopK)
	assert.Contains(t, rec.Body.String(), "top_k")
}

func TestQueryMalformedJSON(t *testing.T) {
	uc := &fakeUsecase{}
	h := newRouter(uc, 1024)

	rec := doRequest(h, http.MethodPost, "/query", `{"question":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, uc.queries)

	var body entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bad Request", body.Error)
	assert.NotEmpty(t, body.Message)
}

func TestQueryBodyTooLarge(t *testing.T) {
	uc := &fakeUsecase{}
	h := newRouter(uc, 16)

	rec := doRequest(h, http.MethodPost, "/query", `{"question":"`+strings.Repeat("a", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, uc.queries)
}

func TestQueryErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: fmt.Errorf("%w: question must not be empty", entity.ErrValidation), status: http.StatusBadRequest},
		{name: "embedding", err: fmt.Errorf("embed question: %w: boom", entity.ErrEmbedding), status: http.StatusInternalServerError},
		{name: "retrieval", err: fmt.Errorf("search context: %w: timeout", entity.ErrRetrieval), status: http.StatusBadGateway},
		{name: "generation", err: fmt.Errorf("generate answer: %w: 401", entity.ErrGeneration), status: http.StatusBadGateway},
		{name: "rate limited", err: fmt.Errorf("%w: %w", entity.ErrGeneration, entity.ErrUpstreamRateLimited), status: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("something else"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(&fakeUsecase{err: tt.err}, 1024)

			rec := doRequest(h, http.MethodPost, "/query", `{"question":"q"}`)
			assert.Equal(t, tt.status, rec.Code)

			var body entity.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusText(tt.status), body.Error)
		})
	}
}

func TestGetStats(t *testing.T) {
	h := newRouter(&fakeUsecase{}, 1024)

	rec := doRequest(h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 7, got["queries_served"])
	assert.EqualValues(t, 42, got["total_documents"])
	assert.Equal(t, "qdrant", got["vector_db"])
}

func TestGetConfig(t *testing.T) {
	h := newRouter(&fakeUsecase{}, 1024)

	rec := doRequest(h, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"max_top_k":20`)
}
