package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "landregistry/pkg/domain"
)

func TestTransitionTable(t *testing.T) {
	t.Run("forward workflow edges", func(t *testing.T) {
		assert.True(t, CanTransition(StatusPending, StatusAssigned, id.RoleAdmin))
		assert.True(t, CanTransition(StatusAssigned, StatusInspectionScheduled, id.RoleInspector))
		assert.True(t, CanTransition(StatusAssigned, StatusInspected, id.RoleInspector))
		assert.True(t, CanTransition(StatusInspectionScheduled, StatusInspected, id.RoleInspector))
		assert.True(t, CanTransition(StatusInspected, StatusVerified, id.RoleAdmin))
		assert.True(t, CanTransition(StatusInspected, StatusRejected, id.RoleAdmin))
	})

	t.Run("terminal states have no outgoing edges", func(t *testing.T) {
		for _, from := range []Status{StatusVerified, StatusRejected} {
			for _, to := range []Status{StatusPending, StatusAssigned, StatusInspectionScheduled, StatusInspected, StatusVerified, StatusRejected} {
				for _, role := range []id.Role{id.RoleOwner, id.RoleInspector, id.RoleAdmin} {
					assert.False(t, CanTransition(from, to, role),
						"edge %s->%s by %s must be illegal", from, to, role)
				}
			}
		}
	})

	t.Run("self transitions are never legal", func(t *testing.T) {
		for _, s := range []Status{StatusPending, StatusAssigned, StatusInspectionScheduled, StatusInspected} {
			for _, role := range []id.Role{id.RoleInspector, id.RoleAdmin} {
				assert.False(t, CanTransition(s, s, role))
			}
		}
	})

	t.Run("owners hold no transition edges", func(t *testing.T) {
		for _, from := range []Status{StatusPending, StatusAssigned, StatusInspectionScheduled, StatusInspected} {
			for _, to := range []Status{StatusAssigned, StatusInspected, StatusVerified, StatusRejected} {
				assert.False(t, CanTransition(from, to, id.RoleOwner))
			}
		}
	})

	t.Run("only admins assign and only admins verify", func(t *testing.T) {
		assert.False(t, CanTransition(StatusPending, StatusAssigned, id.RoleInspector))
		assert.False(t, CanTransition(StatusInspected, StatusVerified, id.RoleInspector))
	})

	t.Run("corrective edges back to pending", func(t *testing.T) {
		assert.True(t, CanTransition(StatusInspected, StatusPending, id.RoleAdmin))
		assert.True(t, CanTransition(StatusAssigned, StatusPending, id.RoleInspector))
		assert.False(t, CanTransition(StatusPending, StatusPending, id.RoleAdmin))
	})
}

func TestRoleMayTarget(t *testing.T) {
	assert.True(t, RoleMayTarget(id.RoleAdmin, StatusVerified))
	assert.False(t, RoleMayTarget(id.RoleInspector, StatusVerified))
	assert.True(t, RoleMayTarget(id.RoleInspector, StatusInspected))
	assert.False(t, RoleMayTarget(id.RoleAdmin, StatusInspected))
	assert.True(t, RoleMayTarget(id.RoleAdmin, StatusRejected))
	assert.True(t, RoleMayTarget(id.RoleInspector, StatusRejected))
	assert.False(t, RoleMayTarget(id.RoleOwner, StatusRejected))
	assert.False(t, RoleMayTarget(id.RoleAdmin, StatusAssigned))
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "assigned", "inspection_scheduled", "inspected", "verified", "rejected"} {
		s, err := ParseStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, Status(valid), s)
	}
	_, err := ParseStatus("limbo")
	assert.Error(t, err)
}

func TestHasRequiredDocuments(t *testing.T) {
	c := &PropertyVerification{}
	assert.False(t, c.HasRequiredDocuments())

	c.Documents = []Document{{Type: DocumentPropertyDeed}}
	assert.False(t, c.HasRequiredDocuments())

	c.Documents = append(c.Documents, Document{Type: DocumentTaxReceipt})
	assert.True(t, c.HasRequiredDocuments())
}
