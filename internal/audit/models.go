// Package audit is the append-only change history for reports. Every state
// transition in the workflow writes exactly one entry; entries are never
// edited or deleted.
package audit

import (
	"time"

	id "atiende/pkg/domain"
)

// ChangeKind classifies a state-changing action. Values are persisted, so
// they stay stable even as the API evolves.
type ChangeKind string

const (
	ChangeAssignment       ChangeKind = "asignacion"
	ChangeUnassignment     ChangeKind = "desasignacion"
	ChangeClosureRequested ChangeKind = "solicitud_cierre"
	ChangeClosed           ChangeKind = "cierre"
	ChangeClosureRejected  ChangeKind = "rechazo_cierre"
	ChangeReopened         ChangeKind = "reapertura"
)

// Metadata is the contextual blob stored alongside each entry. Timestamp is
// recorded explicitly because entries may be written inside a transaction
// that commits later.
type Metadata struct {
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`

	// Denormalized names so the history reads without joins.
	Dependencia       string `json:"dependencia,omitempty"`
	AsignadoPorNombre string `json:"asignado_por_nombre,omitempty"`
}

// Entry is one immutable change-history record.
type Entry struct {
	ID       id.AuditEntryID
	ReportID id.ReportID
	// ActorID is nil-valued for system-originated changes.
	ActorID         id.UserID
	TipoCambio      ChangeKind
	CampoModificado string
	ValorAnterior   string
	ValorNuevo      string
	Razon           string
	Metadatos       Metadata
	CreadoEn        time.Time
}
