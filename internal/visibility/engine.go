// Package visibility answers "can this viewer see this voter?", once per
// record through the rule engine, and in bulk through an equivalent
// declarative predicate that storage backends translate into one
// set-oriented query.
package visibility

import (
	"context"
	"sort"

	"canvass/internal/hierarchy"
	"canvass/internal/voter/models"
)

// Verdict is the outcome of a visibility decision: whether access is granted,
// a human-readable reason, and the rule that produced it for audit and
// debugging.
type Verdict struct {
	Allowed bool
	Reason  string
	Rule    string
}

// ReasonNoRuleMatched is the fail-closed default: if every rule abstains,
// absence of a matching policy is never interpreted as access.
const ReasonNoRuleMatched = "no rule matched"

// Engine evaluates an open-ended, priority-ordered rule set. Rules are
// immutable after construction; extending policy means registering another
// rule, not editing the engine.
type Engine struct {
	dir   hierarchy.Directory
	rules []Rule
}

// NewEngine builds an engine over the given directory and rules, sorted by
// descending priority. With no rules supplied it uses DefaultRules.
func NewEngine(dir hierarchy.Directory, rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &Engine{dir: dir, rules: sorted}
}

// CanSee returns the first non-abstaining verdict in priority order, or the
// fail-closed denial when every rule abstains. The inserter's hierarchy entry
// is resolved lazily and at most once per call.
func (e *Engine) CanSee(ctx context.Context, viewer models.Viewer, owner models.Ownership) (Verdict, error) {
	var entry *hierarchy.Entry
	resolved := false

	resolve := func() (*hierarchy.Entry, error) {
		if !resolved {
			var err error
			entry, err = e.dir.Resolve(ctx, owner.InsertedByUserID)
			if err != nil {
				return nil, err
			}
			resolved = true
		}
		return entry, nil
	}

	for _, rule := range e.rules {
		verdict, err := rule.Evaluate(viewer, owner, resolve)
		if err != nil {
			return Verdict{}, err
		}
		if verdict != nil {
			return *verdict, nil
		}
	}

	return Verdict{Allowed: false, Reason: ReasonNoRuleMatched, Rule: ""}, nil
}

// Filter builds the declarative predicate equivalent to CanSee for the given
// viewer: the OR of every rule's clause contribution. Admin collapses to
// MatchAll; a viewer no rule speaks for gets MatchNone.
//
// The per-record verdicts and this predicate are hand-maintained in parallel
// per rule; their equivalence is enforced by randomized property tests.
func (e *Engine) Filter(viewer models.Viewer) Predicate {
	if viewer.Role == models.RoleAdmin {
		return MatchAll()
	}

	var p Predicate
	for _, rule := range e.rules {
		if clause := rule.Clause(viewer); clause != nil {
			p.Clauses = append(p.Clauses, *clause)
		}
	}
	return p
}

// Directory exposes the engine's directory for stores that evaluate
// predicates in memory.
func (e *Engine) Directory() hierarchy.Directory { return e.dir }
