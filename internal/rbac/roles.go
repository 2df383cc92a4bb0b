// Package rbac maps the fixed TripFlow roles onto atomic permissions and
// guards HTTP routes. Role checks live at this boundary; domain services
// never inspect roles for capability decisions.
package rbac

// Roles known to the platform.
const (
	RoleCustomer     = "customer"
	RoleSalesperson  = "salesperson"
	RoleSalesManager = "sales_manager"
	RoleOperations   = "operations"
	RoleAdmin        = "admin"
)

// Permissions.
const (
	PermRequestView   = "request.view"
	PermRequestCreate = "request.create"
	PermRequestAssign = "request.assign"

	PermQuotationView   = "quotation.view"
	PermQuotationEdit   = "quotation.edit"
	PermQuotationSend   = "quotation.send"
	PermQuotationAccept = "quotation.accept"

	PermApprovalRequest = "approval.request"
	PermApprovalDecide  = "approval.decide"
	PermApprovalView    = "approval.view"

	PermBookingView    = "booking.view"
	PermBookingManage  = "booking.manage"
	PermBookingPayment = "booking.payment"

	PermRatesView = "rates.view"

	PermDashboardView = "dashboard.view"
	PermUserManage    = "user.manage"
)

// matrix is the static capability assignment per role. Admin is handled
// separately and holds everything.
var matrix = map[string][]string{
	RoleCustomer: {
		PermRequestView, PermRequestCreate,
		PermQuotationView, PermQuotationAccept,
		PermBookingView,
		PermDashboardView,
	},
	RoleSalesperson: {
		PermRequestView,
		PermQuotationView, PermQuotationEdit, PermQuotationSend,
		PermApprovalRequest, PermApprovalView,
		PermRatesView,
		PermDashboardView,
	},
	RoleSalesManager: {
		PermRequestView, PermRequestAssign,
		PermQuotationView, PermQuotationEdit, PermQuotationSend,
		PermApprovalRequest, PermApprovalView, PermApprovalDecide,
		PermRatesView,
		PermDashboardView,
	},
	RoleOperations: {
		PermRequestView,
		PermQuotationView,
		PermBookingView, PermBookingManage, PermBookingPayment,
		PermDashboardView,
	},
}

var allPermissions = []string{
	PermRequestView, PermRequestCreate, PermRequestAssign,
	PermQuotationView, PermQuotationEdit, PermQuotationSend, PermQuotationAccept,
	PermApprovalRequest, PermApprovalDecide, PermApprovalView,
	PermBookingView, PermBookingManage, PermBookingPayment,
	PermRatesView, PermDashboardView, PermUserManage,
}

// PermissionsFor returns the effective permissions of a role.
func PermissionsFor(role string) []string {
	if role == RoleAdmin {
		return append([]string(nil), allPermissions...)
	}
	return append([]string(nil), matrix[role]...)
}

// ValidRole reports whether the role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleSalesperson, RoleSalesManager, RoleOperations, RoleAdmin:
		return true
	}
	return false
}
