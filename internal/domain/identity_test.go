package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePermissionSet(t *testing.T) {
	legacy := ParsePermissionSet("legacy")
	assert.True(t, legacy.Has(PermManageOrders))
	assert.True(t, legacy.Has(PermManageReturns))
	assert.True(t, legacy.Has(PermManageRates))

	// An empty header is not the legacy tier: it grants nothing.
	none := ParsePermissionSet("")
	assert.False(t, none.Has(PermManageOrders))
	assert.False(t, none.Has(PermManageRates))

	some := ParsePermissionSet("returns:manage, rates:manage")
	assert.False(t, some.Has(PermManageOrders))
	assert.True(t, some.Has(PermManageReturns))
	assert.True(t, some.Has(PermManageRates))

	messy := ParsePermissionSet(",, orders:manage ,")
	assert.True(t, messy.Has(PermManageOrders))
	assert.False(t, messy.Has(PermManageReturns))
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"customer", "company", "admin"} {
		got, ok := ParseRole(s)
		assert.True(t, ok)
		assert.Equal(t, Role(s), got)
	}

	_, ok := ParseRole("Admin")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestIdentityRoleHelpers(t *testing.T) {
	assert.True(t, Identity{Role: RoleAdmin}.IsAdmin())
	assert.True(t, Identity{Role: RoleCompany}.IsVendor())
	assert.False(t, Identity{Role: RoleCustomer}.IsAdmin())
	assert.False(t, Identity{Role: RoleCustomer}.IsVendor())
}
