// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"

	"github.com/dharitri/backend/internal/common"
)

// Role is the closed set of account roles.
type Role string

const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
)

// ParseRole validates s. An empty string means RolePatient.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RolePatient, nil
	case RolePatient, RoleDoctor:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", common.ErrorValidation, s)
}

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Role         Role
}
