package enums

import "slices"

// UserRole represents the pharmacy-level permissions role of a user.
type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMINISTRADOR"
	UserRolePharmacist UserRole = "FARMACEUTICO"
	UserRoleCashier    UserRole = "CAJERO"
)

var userRoles = []UserRole{UserRoleAdmin, UserRolePharmacist, UserRoleCashier}

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return slices.Contains(userRoles, r) }

func ParseUserRole(value string) (UserRole, error) {
	return parse("user role", value, userRoles)
}
