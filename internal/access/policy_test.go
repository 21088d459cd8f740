package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/complaint-desk/internal/models"
)

func TestRolePolicy(t *testing.T) {
	p := NewRolePolicy("")
	student := models.Account{ID: "s1", Role: models.RoleStudent}
	admin := models.Account{ID: "a1", Role: models.RoleAdmin}
	super := models.Account{ID: models.SuperAdminID, Role: models.RoleAdmin}

	cases := []struct {
		account models.Account
		allowed []Capability
	}{
		{student, []Capability{CapSubmit, CapViewOwn}},
		{admin, []Capability{CapViewAll, CapTriage}},
		{super, []Capability{CapViewAll, CapTriage, CapCreateAdmin}},
		{models.Account{ID: "x", Role: "janitor"}, nil},
	}

	all := []Capability{CapSubmit, CapViewOwn, CapViewAll, CapTriage, CapCreateAdmin}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, p.Capabilities(tc.account), tc.account.ID)
		for _, c := range all {
			assert.Equal(t, contains(tc.allowed, c), p.Allows(tc.account, c), "%s %s", tc.account.ID, c)
		}
	}
}

func TestRolePolicyCustomSuperAdmin(t *testing.T) {
	p := NewRolePolicy("root")
	assert.True(t, p.Allows(models.Account{ID: "root", Role: models.RoleAdmin}, CapCreateAdmin))
	assert.False(t, p.Allows(models.Account{ID: models.SuperAdminID, Role: models.RoleAdmin}, CapCreateAdmin))
	assert.False(t, p.Allows(models.Account{ID: "root", Role: models.RoleStudent}, CapCreateAdmin))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"submit", "view_own"}, Strings([]Capability{CapSubmit, CapViewOwn}))
	assert.Equal(t, []string{}, Strings(nil))
}

func contains(caps []Capability, c Capability) bool {
	for _, have := range caps {
		if have == c {
			return true
		}
	}
	return false
}
