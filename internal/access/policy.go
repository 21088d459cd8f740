// Package access maps a signed-in account to the operations it may perform.
// It is a presentation guard only; identities are never authenticated.
package access

import "github.com/noah-isme/complaint-desk/internal/models"

// Capability names an operation the presentation layer may expose.
type Capability string

const (
	CapSubmit      Capability = "submit"
	CapViewOwn     Capability = "view_own"
	CapViewAll     Capability = "view_all"
	CapTriage      Capability = "triage"
	CapCreateAdmin Capability = "create_admin"
)

// Policy decides whether account holds capability.
type Policy interface {
	Allows(account models.Account, capability Capability) bool
	Capabilities(account models.Account) []Capability
}

// RolePolicy grants capabilities by role. The account whose id equals
// SuperAdminID additionally may create admins.
type RolePolicy struct {
	SuperAdminID string
}

// NewRolePolicy builds the default policy; an empty id falls back to models.SuperAdminID.
func NewRolePolicy(superAdminID string) RolePolicy {
	if superAdminID == "" {
		superAdminID = models.SuperAdminID
	}
	return RolePolicy{SuperAdminID: superAdminID}
}

// Capabilities lists what account may do, in a stable order.
func (p RolePolicy) Capabilities(account models.Account) []Capability {
	switch account.Role {
	case models.RoleStudent:
		return []Capability{CapSubmit, CapViewOwn}
	case models.RoleAdmin:
		caps := []Capability{CapViewAll, CapTriage}
		if account.ID == p.SuperAdminID {
			caps = append(caps, CapCreateAdmin)
		}
		return caps
	default:
		return nil
	}
}

// Allows implements Policy.
func (p RolePolicy) Allows(account models.Account, capability Capability) bool {
	for _, c := range p.Capabilities(account) {
		if c == capability {
			return true
		}
	}
	return false
}

// Strings renders capabilities for transport.
func Strings(caps []Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}
