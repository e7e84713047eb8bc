package visibility

import (
	"context"

	"canvass/internal/hierarchy"
	"canvass/internal/voter/models"
)

// Clause is one alternative of a bulk visibility predicate. Exactly one field
// is set per clause. Clauses are deliberately declarative so that storage backends
// translate them into set-oriented queries instead of evaluating records one
// by one.
type Clause struct {
	// InsertedBy matches records inserted by this user id.
	InsertedBy string

	// InserterAreaManagerID matches records whose inserter reports to this
	// area manager.
	InserterAreaManagerID string

	// InserterCityID matches records whose inserter belongs to this city.
	InserterCityID string

	// InserterCoordinatorID matches records whose inserter is a field worker
	// supervised by this activist coordinator.
	InserterCoordinatorID string
}

// Predicate is the declarative equivalent of the per-record verdict: a record
// is visible iff All is set or any clause matches. An empty predicate matches
// nothing; absence of policy is never interpreted as access.
type Predicate struct {
	All     bool
	Clauses []Clause
}

// MatchAll is the admin predicate.
func MatchAll() Predicate { return Predicate{All: true} }

// MatchNone is the fail-closed predicate.
func MatchNone() Predicate { return Predicate{} }

// Empty reports whether the predicate can never match.
func (p Predicate) Empty() bool { return !p.All && len(p.Clauses) == 0 }

// Matches evaluates the predicate against a single record's ownership using
// the directory, resolving the inserter at most once. This is the in-memory
// twin of the SQL translation in the postgres store; the two must stay
// equivalent (see the engine equivalence tests).
func Matches(ctx context.Context, p Predicate, o models.Ownership, dir hierarchy.Directory) (bool, error) {
	if p.All {
		return true, nil
	}
	if len(p.Clauses) == 0 {
		return false, nil
	}

	var entry *hierarchy.Entry
	resolved := false
	resolve := func() (*hierarchy.Entry, error) {
		if !resolved {
			var err error
			entry, err = dir.Resolve(ctx, o.InsertedByUserID)
			if err != nil {
				return nil, err
			}
			resolved = true
		}
		return entry, nil
	}

	for _, c := range p.Clauses {
		switch {
		case c.InsertedBy != "":
			if o.InsertedByUserID == c.InsertedBy {
				return true, nil
			}
		case c.InserterAreaManagerID != "":
			e, err := resolve()
			if err != nil {
				return false, err
			}
			if e != nil && e.AreaManagerID == c.InserterAreaManagerID {
				return true, nil
			}
		case c.InserterCityID != "":
			e, err := resolve()
			if err != nil {
				return false, err
			}
			if e != nil && e.CityID == c.InserterCityID {
				return true, nil
			}
		case c.InserterCoordinatorID != "":
			e, err := resolve()
			if err != nil {
				return false, err
			}
			if e != nil && e.Role == models.RoleFieldWorker && e.ActivistCoordinatorID == c.InserterCoordinatorID {
				return true, nil
			}
		}
	}

	return false, nil
}
