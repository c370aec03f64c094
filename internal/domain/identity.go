package domain

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleCompany  Role = "company"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleCompany, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Permission is a vendor-scoped grant. Admins bypass the permission model.
type Permission string

const (
	PermManageOrders  Permission = "orders:manage"
	PermManageReturns Permission = "returns:manage"
	PermManageRates   Permission = "rates:manage"
)

// PermissionSet distinguishes the legacy unrestricted tier (vendors created
// before grants existed) from a vendor with an empty grant set. "legacy"
// means everything; an empty set means nothing.
type PermissionSet struct {
	Unrestricted bool
	grants       map[Permission]struct{}
}

const legacyTier = "legacy"

// ParsePermissionSet decodes the gateway header value: "legacy" for the
// unrestricted tier, otherwise a comma-separated grant list.
func ParsePermissionSet(raw string) PermissionSet {
	raw = strings.TrimSpace(raw)
	if raw == legacyTier {
		return PermissionSet{Unrestricted: true}
	}
	set := PermissionSet{grants: make(map[Permission]struct{})}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		set.grants[Permission(part)] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(p Permission) bool {
	if s.Unrestricted {
		return true
	}
	_, ok := s.grants[p]
	return ok
}

// Identity is the authenticated actor as supplied by the upstream gateway.
type Identity struct {
	UserID      string
	Email       string
	Role        Role
	VendorOK    bool // vendor approval status, companies only
	Permissions PermissionSet
}

func (id Identity) IsAdmin() bool  { return id.Role == RoleAdmin }
func (id Identity) IsVendor() bool { return id.Role == RoleCompany }
