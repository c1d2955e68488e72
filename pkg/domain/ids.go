package domain

import (
	"github.com/google/uuid"

	dErrors "atiende/pkg/domain-errors"
)

// Typed entity identifiers. Distinct types keep a ReportID from ever being
// passed where a UserID is expected; the compiler enforces it.
type (
	// ReportID identifies a citizen report.
	ReportID uuid.UUID

	// UserID identifies a municipal staff member (funcionario, supervisor, admin).
	UserID uuid.UUID

	// AssignmentID identifies one report-to-staff assignment record.
	AssignmentID uuid.UUID

	// ClosureID identifies a closure request.
	ClosureID uuid.UUID

	// AuditEntryID identifies one change-history entry.
	AuditEntryID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+what+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" id must not be nil")
	}
	return u, nil
}

// ParseReportID validates and returns a ReportID.
func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID(s, "report")
	return ReportID(u), err
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseAssignmentID validates and returns an AssignmentID.
func ParseAssignmentID(s string) (AssignmentID, error) {
	u, err := parseUUID(s, "assignment")
	return AssignmentID(u), err
}

// ParseClosureID validates and returns a ClosureID.
func ParseClosureID(s string) (ClosureID, error) {
	u, err := parseUUID(s, "closure")
	return ClosureID(u), err
}

// NewReportID returns a fresh random ReportID.
func NewReportID() ReportID { return ReportID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewAssignmentID returns a fresh random AssignmentID.
func NewAssignmentID() AssignmentID { return AssignmentID(uuid.New()) }

// NewClosureID returns a fresh random ClosureID.
func NewClosureID() ClosureID { return ClosureID(uuid.New()) }

// NewAuditEntryID returns a fresh random AuditEntryID.
func NewAuditEntryID() AuditEntryID { return AuditEntryID(uuid.New()) }

func (id ReportID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id AssignmentID) String() string { return uuid.UUID(id).String() }
func (id ClosureID) String() string    { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string { return uuid.UUID(id).String() }

func (id ReportID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ClosureID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AuditEntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
