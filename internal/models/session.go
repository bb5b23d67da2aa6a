package models

import (
	"errors"
	"time"
)

// RoleSuperAdmin sees every work order regardless of assignment.
const RoleSuperAdmin = "superadmin"

// ErrNoEmployee is returned when a non-admin session carries no employee number.
var ErrNoEmployee = errors.New("session has no employee number")

// Session identifies the operator on whose behalf a listing is made.
// It is built by the caller from its own authentication layer and passed
// explicitly; nothing in this module reads ambient login state.
type Session struct {
	EmployeeNo string
	Role       string
}

// Query selects work orders from the record store. Zero values mean
// "no constraint".
type Query struct {
	Statuses      []Status
	AssignedTo    string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Scope narrows q to what the session may see.
func (s Session) Scope(q Query) (Query, error) {
	if s.Role == RoleSuperAdmin {
		return q, nil
	}
	if s.EmployeeNo == "" {
		return Query{}, ErrNoEmployee
	}
	q.AssignedTo = s.EmployeeNo
	return q, nil
}
