package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser      Role = "User"
	RoleShopOwner Role = "ShopOwner"
	RoleAdmin     Role = "Admin"
)

// ParseRole accepts a role name case-insensitively. Empty input yields RoleUser.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "user":
		return RoleUser, nil
	case "shopowner", "shop_owner":
		return RoleShopOwner, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleShopOwner, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// CanApproveReports reports whether the role may approve or reject price reports.
func (r Role) CanApproveReports() bool { return r == RoleAdmin }

// CanOwnShop reports whether the role carries a shop and may publish prices directly.
func (r Role) CanOwnShop() bool { return r == RoleShopOwner }

// CanManageMarkets reports whether the role may create markets.
func (r Role) CanManageMarkets() bool { return r == RoleAdmin }

// CanManageUsers reports whether the role may administer user accounts.
func (r Role) CanManageUsers() bool { return r == RoleAdmin }

// CanSubmitReports reports whether the role may submit community price reports.
func (r Role) CanSubmitReports() bool { return r.Valid() }

// CanCreateProducts reports whether the role may add catalogue entries.
func (r Role) CanCreateProducts() bool { return r == RoleAdmin || r == RoleShopOwner }
