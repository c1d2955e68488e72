package domain

import "fmt"

// ReportState is the lifecycle state of a report. The string values match the
// persisted column values and the public API.
type ReportState string

const (
	StateOpen           ReportState = "abierto"
	StateAssigned       ReportState = "asignado"
	StatePendingClosure ReportState = "pendiente_cierre"
	StateClosed         ReportState = "cerrado"
)

// legalTransitions is the single source of truth for the lifecycle. Every
// mutation in the workflow services goes through CanTransition; no handler
// checks states ad hoc.
var legalTransitions = map[ReportState][]ReportState{
	StateOpen:     {StateAssigned},
	StateAssigned: {StatePendingClosure, StateAssigned, StateOpen},
	// Rejection edge returns a pending closure to assigned.
	StatePendingClosure: {StateClosed, StateAssigned},
	// Reopening is admin-only and lands back at open.
	StateClosed: {StateOpen},
}

// ParseReportState validates a state string.
func ParseReportState(s string) (ReportState, error) {
	switch st := ReportState(s); st {
	case StateOpen, StateAssigned, StatePendingClosure, StateClosed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown report state %q", s)
	}
}

// CanTransition reports whether moving from s to next is a legal lifecycle edge.
func (s ReportState) CanTransition(next ReportState) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state has no outgoing edges other than the
// administrative reopen.
func (s ReportState) Terminal() bool {
	return s == StateClosed
}

func (s ReportState) String() string { return string(s) }
