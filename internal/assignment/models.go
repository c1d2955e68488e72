package assignment

import (
	"time"

	id "atiende/pkg/domain"
)

// Assignment links a report to the staff member responsible for it. Only
// one assignment per report is active at a time; reassignment supersedes
// the previous row instead of deleting it so the chain stays inspectable.
type Assignment struct {
	ID          id.AssignmentID
	ReportID    id.ReportID
	UsuarioID   id.UserID
	AsignadoPor id.UserID
	Notas       string
	CreadoEn    time.Time

	// ReemplazadaEn is set when a later assignment or an unassignment
	// supersedes this one. Nil means the assignment is current.
	ReemplazadaEn *time.Time
}

// Active reports whether this assignment is the report's current one.
func (a *Assignment) Active() bool { return a.ReemplazadaEn == nil }
