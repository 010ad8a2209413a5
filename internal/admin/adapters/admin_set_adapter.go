package adapters

import (
	"context"

	"canopy/pkg/domain"
)

// AdminChecker is implemented by each store's guard.
type AdminChecker interface {
	IsAdmin(ctx context.Context, caller domain.Principal) (bool, error)
}

// AdminSetAdapter answers whether a caller administers any of the stores.
type AdminSetAdapter struct {
	guards []AdminChecker
}

func NewAdminSetAdapter(guards ...AdminChecker) *AdminSetAdapter {
	return &AdminSetAdapter{guards: guards}
}

func (a *AdminSetAdapter) IsAnyAdmin(ctx context.Context, caller domain.Principal) (bool, error) {
	for _, g := range a.guards {
		ok, err := g.IsAdmin(ctx, caller)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
