package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitgen/internal/config"
	"profitgen/internal/domain"
	"profitgen/internal/embedding/hashing"
	"profitgen/internal/index"
	"profitgen/internal/persona"
	"profitgen/internal/pitch"
	"profitgen/internal/rerank"
	"profitgen/internal/service"
)

func testHandler(t *testing.T, rules persona.RuleSet) http.Handler {
	t.Helper()
	enc, err := hashing.NewEncoder(256)
	require.NoError(t, err)

	products := []domain.Product{
		{ASIN: "B1", Title: "Wireless Mouse", Category: "Electronics", Price: 25, CostPrice: 17.5, QualityScore: 0.9},
		{ASIN: "B2", Title: "Mechanical Keyboard", Category: "Electronics", Price: 90, CostPrice: 63, QualityScore: 0.85},
		{ASIN: "B3", Title: "Gaming Mouse Pad", Category: "Electronics", Price: 15, CostPrice: 10.5, QualityScore: 0.8},
	}
	ix := index.New()
	require.NoError(t, service.BuildIndex(context.Background(), ix, enc, products, zerolog.Nop()))

	rr := rerank.New(persona.NewStore(rules), config.Default().Scoring)
	pg := pitch.New(nil, zerolog.Nop())
	adv := service.New(ix, enc, rr, pg, service.Options{RecommendK: 3, SearchK: 3, RecommendLimit: 3}, zerolog.Nop())
	return New(adv, zerolog.Nop()).Handler()
}

func defaultRules() persona.RuleSet {
	return persona.RuleSet{
		domain.PersonaStandard: {MeanPrice: 40, MaxPrice: 100, MaxSuggestedPrice: 120},
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	h := testHandler(t, defaultRules())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestSearchOK(t *testing.T) {
	h := testHandler(t, defaultRules())

	rec := postJSON(t, h, "/search", map[string]string{"query": "wireless mouse"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "wireless mouse", body["query"])
	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, results)

	first, ok := results[0].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"asin", "title", "price", "final_score"} {
		assert.Contains(t, first, key)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	h := testHandler(t, defaultRules())

	rec := postJSON(t, h, "/search", map[string]string{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "query cannot be empty", decode(t, rec)["detail"])
}

func TestSearchInvalidBody(t *testing.T) {
	h := testHandler(t, defaultRules())

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchNoPersonaRules(t *testing.T) {
	h := testHandler(t, persona.RuleSet{})

	rec := postJSON(t, h, "/search", map[string]string{"query": "keyboard"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "persona rules unavailable", decode(t, rec)["detail"])
}

func TestRecommendOK(t *testing.T) {
	h := testHandler(t, defaultRules())

	rec := postJSON(t, h, "/recommend", map[string]string{"asin": "B1", "persona": domain.PersonaStandard})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	ctxProduct, ok := body["context_product"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "B1", ctxProduct["asin"])
	assert.NotEmpty(t, body["sales_pitch"])

	recs, ok := body["recommendations"].([]any)
	require.True(t, ok)
	for _, raw := range recs {
		item, ok := raw.(map[string]any)
		require.True(t, ok)
		assert.NotEqual(t, "B1", item["asin"])
	}
}

func TestRecommendUnknownASIN(t *testing.T) {
	h := testHandler(t, defaultRules())

	rec := postJSON(t, h, "/recommend", map[string]string{"asin": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product ASIN not found", decode(t, rec)["detail"])
}

func TestRecommendEmptyASIN(t *testing.T) {
	h := testHandler(t, defaultRules())

	rec := postJSON(t, h, "/recommend", map[string]string{"asin": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchOnEmptyIndex(t *testing.T) {
	rr := rerank.New(persona.NewStore(defaultRules()), config.Default().Scoring)
	pg := pitch.New(nil, zerolog.Nop())
	enc, err := hashing.NewEncoder(256)
	require.NoError(t, err)
	adv := service.New(index.New(), enc, rr, pg, service.Options{}, zerolog.Nop())
	h := New(adv, zerolog.Nop()).Handler()

	rec := postJSON(t, h, "/search", map[string]string{"query": "mouse"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "system not ready yet", decode(t, rec)["detail"])
}
