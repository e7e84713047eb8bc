// Package hierarchy resolves organizational placement for users. The
// visibility engine depends only on the Directory interface, which keeps rule
// logic decoupled from storage and lets tests inject deterministic stubs.
package hierarchy

import (
	"context"

	"canvass/internal/voter/models"
)

// Entry describes where a user sits in the organization. Scoping ids are
// empty when not applicable to the role.
type Entry struct {
	UserID                string
	Role                  models.Role
	AreaManagerID         string
	CityID                string
	ActivistCoordinatorID string
}

// Directory answers "where does this user sit in the organization?".
// Resolve returns nil (and no error) for unknown users so callers can treat
// absence as an abstention rather than a failure.
type Directory interface {
	Resolve(ctx context.Context, userID string) (*Entry, error)
}

// ResolveFunc adapts a plain function to Directory, the usual shape in tests.
type ResolveFunc func(ctx context.Context, userID string) (*Entry, error)

func (f ResolveFunc) Resolve(ctx context.Context, userID string) (*Entry, error) {
	return f(ctx, userID)
}
