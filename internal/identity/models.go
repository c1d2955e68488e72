// Package identity models municipal staff and the authorization predicates
// the workflow relies on. Account management (creation, passwords, sessions)
// belongs to the identity collaborator and is out of scope; this package
// only reads staff records and answers capability questions.
package identity

import (
	"time"

	id "atiende/pkg/domain"
)

// Staff is a municipal employee able to receive assignments.
type Staff struct {
	ID          id.UserID
	Nombre      string
	Email       string
	Dependencia id.Department
	Rol         id.Role
	Activo      bool
	CreadoEn    time.Time
}
