package visibility

import (
	"canvass/internal/hierarchy"
	"canvass/internal/voter/models"
)

// Resolver hands a rule the inserter's organizational placement. The engine
// memoizes it per evaluation so stacked rules cost at most one lookup.
type Resolver func() (*hierarchy.Entry, error)

// Rule is one visibility policy. Evaluate returns a definitive verdict or nil
// to abstain; Clause returns the rule's contribution to the bulk predicate or
// nil to abstain. A rule's two halves must express the same boolean logic;
// keeping them side by side in one type is what makes the pairing reviewable.
//
// New policies (for example a temporary election-day override) are added as
// new Rule implementations registered into the engine, never by editing
// existing ones.
type Rule interface {
	Name() string
	Priority() int
	Evaluate(viewer models.Viewer, owner models.Ownership, resolve Resolver) (*Verdict, error)
	Clause(viewer models.Viewer) *Clause
}

// allow builds an allowing verdict stamped with the producing rule.
func allow(rule, reason string) *Verdict {
	return &Verdict{Allowed: true, Reason: reason, Rule: rule}
}

// AdminRule lets the top-level admin see everything.
type AdminRule struct{}

func (AdminRule) Name() string  { return "admin" }
func (AdminRule) Priority() int { return 100 }

func (r AdminRule) Evaluate(viewer models.Viewer, _ models.Ownership, _ Resolver) (*Verdict, error) {
	if viewer.Role != models.RoleAdmin {
		return nil, nil
	}
	return allow(r.Name(), "top-level admin sees all records"), nil
}

func (AdminRule) Clause(viewer models.Viewer) *Clause {
	if viewer.Role != models.RoleAdmin {
		return nil
	}
	// Admin is expressed as MatchAll by the engine, not as a clause.
	return nil
}

// InserterRule lets any actor see the records they inserted, regardless of role.
type InserterRule struct{}

func (InserterRule) Name() string  { return "direct_inserter" }
func (InserterRule) Priority() int { return 90 }

func (r InserterRule) Evaluate(viewer models.Viewer, owner models.Ownership, _ Resolver) (*Verdict, error) {
	if viewer.UserID == "" || owner.InsertedByUserID != viewer.UserID {
		return nil, nil
	}
	return allow(r.Name(), "viewer inserted this record"), nil
}

func (InserterRule) Clause(viewer models.Viewer) *Clause {
	if viewer.UserID == "" {
		return nil
	}
	return &Clause{InsertedBy: viewer.UserID}
}

// AreaManagerRule lets an area manager see records inserted by anyone whose
// area manager is the viewer. Abstains immediately on role mismatch so no
// hierarchy lookup is spent on viewers it can never apply to; abstains (never
// denies) on hierarchy mismatch so future overrides compose.
type AreaManagerRule struct{}

func (AreaManagerRule) Name() string  { return "area_manager" }
func (AreaManagerRule) Priority() int { return 80 }

func (r AreaManagerRule) Evaluate(viewer models.Viewer, _ models.Ownership, resolve Resolver) (*Verdict, error) {
	if viewer.Role != models.RoleAreaManager || viewer.AreaID == "" {
		return nil, nil
	}
	entry, err := resolve()
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.AreaManagerID != viewer.AreaID {
		return nil, nil
	}
	return allow(r.Name(), "inserter reports to viewer's area"), nil
}

func (AreaManagerRule) Clause(viewer models.Viewer) *Clause {
	if viewer.Role != models.RoleAreaManager || viewer.AreaID == "" {
		return nil
	}
	return &Clause{InserterAreaManagerID: viewer.AreaID}
}

// CityCoordinatorRule lets a city coordinator see records inserted by anyone
// belonging to the viewer's city.
type CityCoordinatorRule struct{}

func (CityCoordinatorRule) Name() string  { return "city_coordinator" }
func (CityCoordinatorRule) Priority() int { return 70 }

func (r CityCoordinatorRule) Evaluate(viewer models.Viewer, _ models.Ownership, resolve Resolver) (*Verdict, error) {
	if viewer.Role != models.RoleCityCoordinator || viewer.CityID == "" {
		return nil, nil
	}
	entry, err := resolve()
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.CityID != viewer.CityID {
		return nil, nil
	}
	return allow(r.Name(), "inserter belongs to viewer's city"), nil
}

func (CityCoordinatorRule) Clause(viewer models.Viewer) *Clause {
	if viewer.Role != models.RoleCityCoordinator || viewer.CityID == "" {
		return nil
	}
	return &Clause{InserterCityID: viewer.CityID}
}

// ActivistCoordinatorRule lets an activist coordinator see records inserted
// by field workers under the viewer's coordination. Only field workers: a
// coordinator does not see records of peers who happen to share the id.
type ActivistCoordinatorRule struct{}

func (ActivistCoordinatorRule) Name() string  { return "activist_coordinator" }
func (ActivistCoordinatorRule) Priority() int { return 60 }

func (r ActivistCoordinatorRule) Evaluate(viewer models.Viewer, _ models.Ownership, resolve Resolver) (*Verdict, error) {
	if viewer.Role != models.RoleActivistCoordinator || viewer.CoordinatorID == "" {
		return nil, nil
	}
	entry, err := resolve()
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.Role != models.RoleFieldWorker || entry.ActivistCoordinatorID != viewer.CoordinatorID {
		return nil, nil
	}
	return allow(r.Name(), "inserter is a field worker under viewer's coordination"), nil
}

func (ActivistCoordinatorRule) Clause(viewer models.Viewer) *Clause {
	if viewer.Role != models.RoleActivistCoordinator || viewer.CoordinatorID == "" {
		return nil
	}
	return &Clause{InserterCoordinatorID: viewer.CoordinatorID}
}

// DefaultRules is the standard rule set in registration order. The engine
// sorts by priority, so order here is cosmetic.
func DefaultRules() []Rule {
	return []Rule{
		AdminRule{},
		InserterRule{},
		AreaManagerRule{},
		CityCoordinatorRule{},
		ActivistCoordinatorRule{},
	}
}
