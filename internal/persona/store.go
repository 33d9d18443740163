package persona

import (
	"sync/atomic"

	"profitgen/internal/domain"
)

// Store holds the active rule set behind an atomic pointer so a refresh
// swaps the whole map at once. In-flight readers see either the old or
// the new set, never a partial update.
type Store struct {
	rules atomic.Pointer[RuleSet]
}

// NewStore creates a store seeded with the given rules.
func NewStore(rules RuleSet) *Store {
	s := &Store{}
	s.rules.Store(&rules)
	return s
}

// Rules returns the active rule set. The returned map is shared and
// must be treated as read-only.
func (s *Store) Rules() RuleSet {
	p := s.rules.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Rule looks up a single persona's rule.
func (s *Store) Rule(label string) (domain.PersonaRule, bool) {
	r, ok := s.Rules()[label]
	return r, ok
}

// Replace swaps in a freshly derived rule set. Callers must only pass
// a complete set; a failed refresh keeps the previous rules by simply
// not calling Replace.
func (s *Store) Replace(rules RuleSet) {
	s.rules.Store(&rules)
}
