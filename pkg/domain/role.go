package domain

import "fmt"

// Role is a staff member's authorization level.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSupervisor  Role = "supervisor"
	RoleFuncionario Role = "funcionario"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleSupervisor, RoleFuncionario:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Department is a municipal unit identifier (normalized snake_case string).
type Department string

// DepartmentAdministration is the catch-all department for categories with
// no explicit routing.
const DepartmentAdministration Department = "administracion"

func (d Department) String() string { return string(d) }
