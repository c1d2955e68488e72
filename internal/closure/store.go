package closure

import (
	"context"
	"time"

	id "atiende/pkg/domain"
)

// Store persists closure requests.
type Store interface {
	// Create inserts a new pending request. Returns sentinel.ErrConflict
	// when the report already has a pending request.
	Create(ctx context.Context, req *Request) error

	// FindByID returns the request or sentinel.ErrNotFound.
	FindByID(ctx context.Context, closureID id.ClosureID) (*Request, error)

	// Review records the verdict on a still-pending request. Returns
	// sentinel.ErrInvalidState when the request was already reviewed.
	Review(ctx context.Context, closureID id.ClosureID, verdict int, supervisorID id.UserID, notas string, at time.Time) error

	// List returns requests matching the filter, oldest first.
	List(ctx context.Context, filter ListFilter) ([]*Request, error)
}
