package assignment

import (
	"context"
	"time"

	id "atiende/pkg/domain"
)

// Store persists assignments.
type Store interface {
	// Create inserts a new assignment row.
	Create(ctx context.Context, a *Assignment) error

	// FindCurrent returns the report's active assignment, or
	// sentinel.ErrNotFound when the report is unassigned.
	FindCurrent(ctx context.Context, reportID id.ReportID) (*Assignment, error)

	// Supersede marks the assignment as replaced at the given time.
	Supersede(ctx context.Context, assignmentID id.AssignmentID, at time.Time) error

	// ListByReport returns the full assignment chain, newest first.
	ListByReport(ctx context.Context, reportID id.ReportID) ([]*Assignment, error)
}
