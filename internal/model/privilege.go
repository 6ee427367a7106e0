package model

// Privilege is a permission granted through a role.
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView   = "user:view"
	PrivUserManage = "user:manage"

	PrivCatalogueView   = "catalogue:view"
	PrivCatalogueManage = "catalogue:manage"

	PrivCouponView   = "coupon:view"
	PrivCouponManage = "coupon:manage"

	PrivCashierBookOpen = "cashier_book:open"
	PrivCashierBookView = "cashier_book:view"

	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionUpdate = "transaction:update"

	PrivSupplierManage       = "supplier:manage"
	PrivPurchaseOrderView    = "purchase_order:view"
	PrivPurchaseOrderManage  = "purchase_order:manage"
	PrivPurchaseOrderApprove = "purchase_order:approve"

	PrivDashboardView = "dashboard:view"
	PrivStoreManage   = "store:manage"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View Users"},
	{Code: PrivUserManage, Name: "Manage Users"},
	{Code: PrivCatalogueView, Name: "View Catalogue"},
	{Code: PrivCatalogueManage, Name: "Manage Catalogue"},
	{Code: PrivCouponView, Name: "View Coupons"},
	{Code: PrivCouponManage, Name: "Manage Coupons"},
	{Code: PrivCashierBookOpen, Name: "Open and Close Cashier Books"},
	{Code: PrivCashierBookView, Name: "View Cashier Books"},
	{Code: PrivTransactionView, Name: "View Transactions"},
	{Code: PrivTransactionCreate, Name: "Create Transactions"},
	{Code: PrivTransactionUpdate, Name: "Update Transactions"},
	{Code: PrivSupplierManage, Name: "Manage Suppliers"},
	{Code: PrivPurchaseOrderView, Name: "View Purchase Orders"},
	{Code: PrivPurchaseOrderManage, Name: "Manage Purchase Orders"},
	{Code: PrivPurchaseOrderApprove, Name: "Approve Purchase Orders"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivStoreManage, Name: "Manage Store Profile"},
}
