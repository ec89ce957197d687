package models

import (
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
)

// Status is the workflow state of a verification case.
//
// Legal path: pending → assigned → inspection_scheduled (optional) →
// inspected → verified | rejected. Terminal states have no outgoing edges;
// setStatus additionally grants admins and inspectors a bounded set of
// corrective edges (send back to pending, finalize early).
type Status string

const (
	StatusPending             Status = "pending"
	StatusAssigned            Status = "assigned"
	StatusInspectionScheduled Status = "inspection_scheduled"
	StatusInspected           Status = "inspected"
	StatusVerified            Status = "verified"
	StatusRejected            Status = "rejected"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAssigned, StatusInspectionScheduled,
		StatusInspected, StatusVerified, StatusRejected:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+s)
}

// IsTerminal reports whether the status permanently closes a case.
func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// transitionKey identifies one edge of the legality table.
type transitionKey struct {
	from Status
	to   Status
	role id.Role
}

// legalTransitions is the single authoritative transition table. Every call
// site consults it; there are no scattered status checks. Keys not present
// are illegal.
var legalTransitions = buildTransitionTable()

func buildTransitionTable() map[transitionKey]struct{} {
	table := make(map[transitionKey]struct{})
	allow := func(from, to Status, roles ...id.Role) {
		for _, role := range roles {
			table[transitionKey{from: from, to: to, role: role}] = struct{}{}
		}
	}

	// Forward workflow edges driven by dedicated operations.
	allow(StatusPending, StatusAssigned, id.RoleAdmin)
	allow(StatusPending, StatusInspectionScheduled, id.RoleInspector)
	allow(StatusAssigned, StatusInspectionScheduled, id.RoleInspector)
	allow(StatusPending, StatusInspected, id.RoleInspector)
	allow(StatusAssigned, StatusInspected, id.RoleInspector)
	allow(StatusInspectionScheduled, StatusInspected, id.RoleInspector)

	// Finalization edges granted through setStatus. Admin targets
	// {pending, verified, rejected}; inspector targets {pending, inspected,
	// rejected}. Self-transitions are deliberately absent: re-setting the
	// current status is not a no-op, it is an error.
	open := []Status{StatusPending, StatusAssigned, StatusInspectionScheduled, StatusInspected}
	for _, from := range open {
		if from != StatusPending {
			allow(from, StatusPending, id.RoleAdmin, id.RoleInspector)
		}
		allow(from, StatusVerified, id.RoleAdmin)
		allow(from, StatusRejected, id.RoleAdmin, id.RoleInspector)
	}
	return table
}

// CanTransition reports whether role may move a case from one status to
// another. Terminal source states always return false; the caller surfaces
// that as CaseClosed before consulting the table.
func CanTransition(from, to Status, role id.Role) bool {
	_, ok := legalTransitions[transitionKey{from: from, to: to, role: role}]
	return ok
}

// AdminTargets and InspectorTargets are the status sets each role may pass
// to setStatus. Targets outside the role's set fail Unauthorized before any
// transition check runs.
var (
	AdminTargets     = map[Status]bool{StatusPending: true, StatusVerified: true, StatusRejected: true}
	InspectorTargets = map[Status]bool{StatusPending: true, StatusInspected: true, StatusRejected: true}
)

// RoleMayTarget reports whether the role is allowed to request newStatus via
// setStatus at all, independent of the case's current state.
func RoleMayTarget(role id.Role, target Status) bool {
	switch role {
	case id.RoleAdmin:
		return AdminTargets[target]
	case id.RoleInspector:
		return InspectorTargets[target]
	}
	return false
}
