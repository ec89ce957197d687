package domain

import dErrors "landregistry/pkg/domain-errors"

// Role is the platform-level role a wallet authenticated with.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleInspector Role = "inspector"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleInspector, RoleAdmin:
		return Role(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
}

// Actor is the authenticated (walletAddress, role) pair the auth layer
// supplies per call. The core trusts this pair without re-verifying
// signatures and holds no notion of a "current user".
type Actor struct {
	Wallet WalletAddress
	Role   Role
}

func (a Actor) IsAdmin() bool     { return a.Role == RoleAdmin }
func (a Actor) IsInspector() bool { return a.Role == RoleInspector }
func (a Actor) IsOwner() bool     { return a.Role == RoleOwner }
