package identity

import (
	"context"

	id "atiende/pkg/domain"
)

// Store reads staff records. Writes happen elsewhere (identity collaborator).
type Store interface {
	// FindByID returns the staff member or sentinel.ErrNotFound.
	FindByID(ctx context.Context, userID id.UserID) (*Staff, error)

	// FindSupervisor returns an active supervisor for the department, or
	// sentinel.ErrNotFound when none is configured.
	FindSupervisor(ctx context.Context, dep id.Department) (*Staff, error)
}
