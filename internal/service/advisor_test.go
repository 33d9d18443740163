package service

import (
	"context"
	"testing"

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
)

func testCatalog() []domain.Product {
	mk := func(asin, title, category string, price float64) domain.Product {
		return domain.Product{
			ASIN: asin, Title: title, Category: category,
			Price: price, CostPrice: price * 0.7, QualityScore: 0.8,
		}
	}
	return []domain.Product{
		mk("S1", "Trail Running Shoes", "Shoes", 80),
		mk("S2", "Road Running Shoes", "Shoes", 95),
		mk("S3", "Leather Hiking Boots", "Shoes", 130),
		mk("K1", "Cast Iron Skillet", "Kitchen", 35),
		mk("K2", "Stainless Steel Saucepan", "Kitchen", 45),
	}
}

func testAdvisor(t *testing.T, rules persona.RuleSet) *Advisor {
	t.Helper()
	enc, err := hashing.NewEncoder(256)
	require.NoError(t, err)

	ix := index.New()
	require.NoError(t, BuildIndex(context.Background(), ix, enc, testCatalog(), zerolog.Nop()))

	rr := rerank.New(persona.NewStore(rules), config.Default().Scoring)
	pg := pitch.New(nil, zerolog.Nop())
	return New(ix, enc, rr, pg, Options{RecommendK: 4, SearchK: 5, RecommendLimit: 3}, zerolog.Nop())
}

func generousRules() persona.RuleSet {
	return persona.RuleSet{
		domain.PersonaStandard: {MeanPrice: 60, MaxPrice: 150, MaxSuggestedPrice: 180},
	}
}

func TestSearch(t *testing.T) {
	adv := testAdvisor(t, generousRules())

	got, err := adv.Search(context.Background(), "running shoes", domain.PersonaStandard)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].FinalScore, got[i].FinalScore)
	}
	top := got[0].Product
	assert.Contains(t, []string{"S1", "S2"}, top.ASIN)
}

func TestSearchDeterministic(t *testing.T) {
	adv := testAdvisor(t, generousRules())

	first, err := adv.Search(context.Background(), "cast iron skillet", domain.PersonaStandard)
	require.NoError(t, err)
	second, err := adv.Search(context.Background(), "cast iron skillet", domain.PersonaStandard)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchUnknownPersonaFallsBack(t *testing.T) {
	adv := testAdvisor(t, generousRules())

	got, err := adv.Search(context.Background(), "hiking boots", "Mystery Persona")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestSearchNoRulesSurfaces(t *testing.T) {
	adv := testAdvisor(t, persona.RuleSet{})

	_, err := adv.Search(context.Background(), "hiking boots", domain.PersonaStandard)
	require.ErrorIs(t, err, rerank.ErrNoPersonaRules)
}

func TestRecommendForItem(t *testing.T) {
	adv := testAdvisor(t, generousRules())

	rec, err := adv.RecommendForItem(context.Background(), "S1", domain.PersonaStandard)
	require.NoError(t, err)

	assert.Equal(t, "S1", rec.Context.ASIN)
	assert.LessOrEqual(t, len(rec.Items), 3)
	for _, it := range rec.Items {
		assert.NotEqual(t, "S1", it.Product.ASIN)
	}
	require.NotEmpty(t, rec.Items)
	assert.Contains(t, rec.Pitch, rec.Items[0].Product.Title)
	assert.Contains(t, rec.Pitch, "Trail Running Shoes")
}

func TestRecommendForItemUnknownASIN(t *testing.T) {
	adv := testAdvisor(t, generousRules())

	_, err := adv.RecommendForItem(context.Background(), "missing", domain.PersonaStandard)
	require.ErrorIs(t, err, index.ErrItemNotFound)
}

func TestRecommendForItemRespectsCaps(t *testing.T) {
	// tight persona ceiling: context price 35, cap max(35*1.5, 40) = 52.5,
	// so every returned item sits at or under 52.5
	rules := persona.RuleSet{
		domain.PersonaStandard: {MeanPrice: 30, MaxPrice: 33, MaxSuggestedPrice: 40},
	}
	adv := testAdvisor(t, rules)

	rec, err := adv.RecommendForItem(context.Background(), "K1", domain.PersonaStandard)
	require.NoError(t, err)
	for _, it := range rec.Items {
		assert.LessOrEqual(t, it.Product.Price, 52.5)
	}
}

func TestRecommendForItemAllFilteredGivesGenericPitch(t *testing.T) {
	rules := persona.RuleSet{
		domain.PersonaStandard: {MeanPrice: 1, MaxPrice: 1, MaxSuggestedPrice: 1.2},
	}
	adv := testAdvisor(t, rules)

	rec, err := adv.RecommendForItem(context.Background(), "K1", domain.PersonaStandard)
	require.NoError(t, err)
	assert.Empty(t, rec.Items)
	assert.Equal(t, "I'm looking for the best options for you right now.", rec.Pitch)
}
