// Package persona derives price-based shopper personas from historical
// clickstream sessions. Rules are computed once at startup and swapped
// atomically on refresh.
package persona

import (
	"errors"
	"fmt"
	"sort"

	"profitgen/internal/domain"
)

// ErrInsufficientData is returned when rule derivation has no sessions
// to work with.
var ErrInsufficientData = errors.New("no session data for persona rules")

// RuleSet maps persona label to its price rule.
type RuleSet map[string]domain.PersonaRule

// sessionAggregate is the per-session intermediate: mean observed price,
// event count and distinct categories. Discarded after derivation.
type sessionAggregate struct {
	avgPrice     float64
	length       int
	distinctCats int
}

// Analyzer computes persona rules from session events.
type Analyzer struct {
	upsellBuffer float64
}

// NewAnalyzer creates an analyzer. buffer scales each persona's maximum
// observed session price into its suggested ceiling; values below 1.0
// are lifted to 1.0 so the ceiling never undercuts the observed max.
func NewAnalyzer(buffer float64) *Analyzer {
	if buffer < 1.0 {
		buffer = 1.0
	}
	return &Analyzer{upsellBuffer: buffer}
}

// Analyze groups events by session, splits sessions into three persona
// bands at the 33rd and 66th percentile of mean session price, and
// returns per-persona price rules. A persona with no sessions is simply
// absent from the result.
func (a *Analyzer) Analyze(events []domain.SessionEvent) (RuleSet, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("analyze sessions: %w", ErrInsufficientData)
	}

	type acc struct {
		sum    float64
		count  int
		maxOrd int
		cats   map[string]struct{}
	}
	bySession := make(map[string]*acc)
	var order []string
	for _, ev := range events {
		s, ok := bySession[ev.SessionID]
		if !ok {
			s = &acc{cats: make(map[string]struct{})}
			bySession[ev.SessionID] = s
			order = append(order, ev.SessionID)
		}
		s.sum += ev.Price
		s.count++
		if ev.Order > s.maxOrd {
			s.maxOrd = ev.Order
		}
		s.cats[ev.Category] = struct{}{}
	}

	aggs := make([]sessionAggregate, 0, len(order))
	avgPrices := make([]float64, 0, len(order))
	for _, id := range order {
		s := bySession[id]
		agg := sessionAggregate{
			avgPrice:     s.sum / float64(s.count),
			length:       s.maxOrd,
			distinctCats: len(s.cats),
		}
		aggs = append(aggs, agg)
		avgPrices = append(avgPrices, agg.avgPrice)
	}

	sorted := append([]float64(nil), avgPrices...)
	sort.Float64s(sorted)
	q33 := quantile(sorted, 0.33)
	q66 := quantile(sorted, 0.66)

	type stats struct {
		sum, max float64
		n        int
	}
	byPersona := make(map[string]*stats)
	for _, agg := range aggs {
		label := classify(agg.avgPrice, q33, q66)
		st, ok := byPersona[label]
		if !ok {
			st = &stats{}
			byPersona[label] = st
		}
		st.sum += agg.avgPrice
		st.n++
		if agg.avgPrice > st.max {
			st.max = agg.avgPrice
		}
	}

	rules := make(RuleSet, len(byPersona))
	for label, st := range byPersona {
		rules[label] = domain.PersonaRule{
			MeanPrice:         st.sum / float64(st.n),
			MaxPrice:          st.max,
			MaxSuggestedPrice: st.max * a.upsellBuffer,
		}
	}
	return rules, nil
}

func classify(avg, q33, q66 float64) string {
	switch {
	case avg <= q33:
		return domain.PersonaBudget
	case avg >= q66:
		return domain.PersonaPremium
	default:
		return domain.PersonaStandard
	}
}

// quantile computes the q-th quantile of an ascending-sorted slice
// using linear interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
