package identity

import (
	id "atiende/pkg/domain"
	"atiende/pkg/requestcontext"
)

// Capability predicates keyed by (role, department, resource department).
// Route handlers call these instead of repeating role checks inline.

// CanAccessReport reports whether the actor may operate on a report owned by
// reportDep. Admins see everything; everyone else is confined to their own
// department.
func CanAccessReport(actor requestcontext.Actor, reportDep id.Department) bool {
	if actor.Role == id.RoleAdmin {
		return true
	}
	return actor.Department == reportDep
}

// CanManageAssignments reports whether the actor may hand out or withdraw
// report assignments at all. Funcionarios work the reports they are given;
// distributing them is a supervisor and admin surface.
func CanManageAssignments(actor requestcontext.Actor) bool {
	return actor.Role == id.RoleAdmin || actor.Role == id.RoleSupervisor
}

// CanAssignCrossDepartment reports whether the actor may use the privileged
// cross-department assignment path. This is the delegation mechanism:
// admins always, supervisors regardless of the report's home department.
func CanAssignCrossDepartment(actor requestcontext.Actor) bool {
	return actor.Role == id.RoleAdmin || actor.Role == id.RoleSupervisor
}

// CanReviewClosure reports whether the actor may approve or reject a closure
// whose requesting staff member belongs to requesterDep. Supervisors review
// their own department's requests; the report's home department is
// irrelevant because delegates answer to their own chain of command.
func CanReviewClosure(actor requestcontext.Actor, requesterDep id.Department) bool {
	if actor.Role == id.RoleAdmin {
		return true
	}
	return actor.Role == id.RoleSupervisor && actor.Department == requesterDep
}
