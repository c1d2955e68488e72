package closure

import (
	"time"

	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
)

// Review verdicts stored in the aprobado column.
const (
	VerdictPending  = 0
	VerdictApproved = 1
	VerdictRejected = -1
)

// Request is a staff member's petition to close a report, held until a
// supervisor rules on it. The supervisor is resolved from the requester's
// department when the petition is filed, so delegated reports are reviewed
// by the chain of command that did the work.
type Request struct {
	ID            id.ClosureID
	ReportID      id.ReportID
	SolicitanteID id.UserID
	SupervisorID  id.UserID

	// DependenciaSolicitante snapshots the requester's department at
	// filing time. Listing and review authorization key off this value,
	// not the report's home department.
	DependenciaSolicitante id.Department

	NotasCierre    string
	FirmaDigital   string
	EvidenciaFotos []string

	Aprobado        int
	NotasSupervisor string

	FechaSolicitud time.Time
	FechaRevision  *time.Time
}

// Pending reports whether the request still awaits a supervisor ruling.
func (r *Request) Pending() bool { return r.Aprobado == VerdictPending }

// maxEvidenceBytes bounds the combined size of notes, signature, and photo
// evidence carried in one closure petition.
const maxEvidenceBytes = 5 << 20

// Validate checks the petition content before it is stored.
func (r *Request) Validate() error {
	if r.NotasCierre == "" {
		return dErrors.New(dErrors.CodeValidation, "closure notes are required")
	}
	if r.FirmaDigital == "" {
		return dErrors.New(dErrors.CodeValidation, "a digital signature is required")
	}
	size := len(r.NotasCierre) + len(r.FirmaDigital)
	for _, foto := range r.EvidenciaFotos {
		size += len(foto)
	}
	if size > maxEvidenceBytes {
		return dErrors.New(dErrors.CodePayloadTooLarge, "closure evidence exceeds the 5MB limit")
	}
	return nil
}

// ListFilter narrows closure request listings.
type ListFilter struct {
	// Dependencia restricts to requests filed by staff of one department.
	Dependencia id.Department

	// Verdict filters on the review outcome. Nil means pending only,
	// matching the review queue's default view.
	Verdict *int

	// AllVerdicts disables outcome filtering so the listing spans pending,
	// approved, and rejected requests. Takes precedence over Verdict.
	AllVerdicts bool

	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
