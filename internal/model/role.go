package model

// Role groups the privileges of one kind of staff member.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin       = "ADMIN"
	RoleProcurement = "PROCUREMENT"
	RoleCashier     = "CASHIER"
	RoleChecker     = "CHECKER"
)

var DefaultRoles = []Role{
	{Code: RoleAdmin, Name: "Administrator", Description: "Full back-office access"},
	{Code: RoleProcurement, Name: "Procurement", Description: "Suppliers, purchase orders and catalogue"},
	{Code: RoleCashier, Name: "Cashier", Description: "Cashier books and sales"},
	{Code: RoleChecker, Name: "Checker", Description: "Read-only access to sales and stock"},
}

// DefaultRolePrivileges is applied when a role is seeded without privileges.
// ADMIN receives every privilege on each seed.
var DefaultRolePrivileges = map[string][]string{
	RoleProcurement: {
		PrivCatalogueView, PrivCatalogueManage, PrivSupplierManage,
		PrivPurchaseOrderView, PrivPurchaseOrderManage, PrivDashboardView,
	},
	RoleCashier: {
		PrivCatalogueView, PrivCouponView, PrivCashierBookOpen, PrivCashierBookView,
		PrivTransactionView, PrivTransactionCreate, PrivTransactionUpdate,
	},
	RoleChecker: {
		PrivCatalogueView, PrivCouponView, PrivCashierBookView, PrivTransactionView,
		PrivPurchaseOrderView, PrivDashboardView,
	},
}
