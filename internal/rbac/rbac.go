package rbac

// Role constants
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

func IsValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller || role == RoleAdmin
}

// Permission constants
const (
	PermPlaceOrder     = "place_order"
	PermManageProducts = "manage_products"
	PermStockInventory = "stock_inventory"
	PermResolveDispute = "resolve_dispute"
	PermViewStats      = "view_stats"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleBuyer: {
		PermPlaceOrder,
	},
	RoleSeller: {
		PermPlaceOrder, PermManageProducts, PermStockInventory,
	},
	RoleAdmin: {
		PermPlaceOrder, PermManageProducts, PermStockInventory,
		PermResolveDispute, PermViewStats,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
