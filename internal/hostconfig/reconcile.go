package hostconfig

import (
	"context"
	"fmt"

	"go_hostcfg/internal/model"
)

// UserLookup finds a stored user by identifier; (nil, nil) means not found
type UserLookup interface {
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
}

// PasswordAcceptable decides whether a submitted user's password may be saved:
// either it is the stored value left untouched, or it matches its confirmation.
func PasswordAcceptable(ctx context.Context, entry UserEntry, lookup UserLookup) (bool, error) {
	stored, err := lookup.FindByIdentifier(ctx, entry.Identifier)
	if err != nil {
		return false, fmt.Errorf("failed to look up user %q: %w", entry.Identifier, err)
	}
	if stored != nil && stored.PasswordHash == entry.Password {
		return true, nil
	}
	return entry.Password == entry.PasswordConfirmation, nil
}
