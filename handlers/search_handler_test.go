package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"guidesearch-backend/models"
	"guidesearch-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummaryIndex struct {
	matches []models.GuidelineSummaryMatch
	err     error
}

func (s *stubSummaryIndex) SearchSummaries(ctx context.Context, embedding []float64, threshold float64, limit int) ([]models.GuidelineSummaryMatch, error) {
	return s.matches, s.err
}

type stubChunkIndex struct {
	matches []models.ChunkMatch
}

func (s *stubChunkIndex) SearchChunks(ctx context.Context, embedding []float64, guidelineIDs []uuid.UUID, threshold float64, contextSize, limit int) ([]models.ChunkMatch, error) {
	return s.matches, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2}, nil
}

type stubGenerator struct {
	answer string
}

func (s *stubGenerator) GenerateAnswer(ctx context.Context, query, contextBlock string) (string, error) {
	return s.answer, nil
}

func newTestRouter(summaryIndex service.SummarySearcher, history *models.SearchHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewSearchService(
		service.SearchWithSummaryIndex(summaryIndex),
		service.SearchWithChunkIndex(&stubChunkIndex{}),
		service.SearchWithEmbedder(&stubEmbedder{}),
		service.SearchWithGenerator(&stubGenerator{answer: "stub answer"}),
	)

	h := NewSearchHandler(svc, history)

	r := gin.New()
	r.POST("/api/search", h.Search)
	r.GET("/api/search/history", h.History)
	return r
}

func postSearch(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error.Code
}

func TestSearchSuccess(t *testing.T) {
	index := &stubSummaryIndex{matches: []models.GuidelineSummaryMatch{
		{ID: uuid.New(), Title: "Guidelines on Consent", Similarity: 0.8},
	}}
	history := models.NewSearchHistory(5)
	r := newTestRouter(index, history)

	w := postSearch(t, r, gin.H{"query": "what makes consent valid?"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Query      string `json:"query"`
			Answer     string `json:"answer"`
			ScopeEmpty bool   `json:"scope_empty"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "what makes consent valid?", resp.Data.Query)
	assert.Equal(t, "stub answer", resp.Data.Answer)
	assert.False(t, resp.Data.ScopeEmpty)

	assert.Equal(t, []string{"what makes consent valid?"}, history.Recent())
}

func TestSearchMissingQuery(t *testing.T) {
	r := newTestRouter(&stubSummaryIndex{}, models.NewSearchHistory(5))

	w := postSearch(t, r, gin.H{})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestSearchInvalidThreshold(t *testing.T) {
	r := newTestRouter(&stubSummaryIndex{}, models.NewSearchHistory(5))

	w := postSearch(t, r, gin.H{"query": "q", "summary_threshold": 1.5})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_THRESHOLD", errorCode(t, w))

	w = postSearch(t, r, gin.H{"query": "q", "chunk_threshold": -0.1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_THRESHOLD", errorCode(t, w))
}

func TestSearchStoreUnavailable(t *testing.T) {
	index := &stubSummaryIndex{err: errors.New("connection refused")}
	history := models.NewSearchHistory(5)
	r := newTestRouter(index, history)

	w := postSearch(t, r, gin.H{"query": "q"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", errorCode(t, w))
	assert.Empty(t, history.Recent(), "failed searches must not enter the history")
}

func TestSearchEmptyScope(t *testing.T) {
	r := newTestRouter(&stubSummaryIndex{}, models.NewSearchHistory(5))

	w := postSearch(t, r, gin.H{"query": "quantum entanglement"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ScopeEmpty bool `json:"scope_empty"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.ScopeEmpty)
}

func TestHistoryEndpoint(t *testing.T) {
	history := models.NewSearchHistory(5)
	history.Add("first")
	history.Add("second")

	r := newTestRouter(&stubSummaryIndex{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/search/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Queries []string `json:"queries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"second", "first"}, resp.Data.Queries)
}
