package user

// Capabilities required by the API operations.
const (
	PermCollectStudentFees   = "collect_student_fees"
	PermViewStudentFees      = "view_student_fees"
	PermPromoteStudent       = "promote_student"
	PermViewStudentPromotion = "view_student_promotion"

	PermCreateFeesMaster = "create_fees_master"
	PermViewFeesMaster   = "view_fees_master"
	PermEditFeesMaster   = "edit_fees_master"
	PermDeleteFeesMaster = "delete_fees_master"

	PermCreateStudent = "create_student"
	PermViewStudent   = "view_student"
	PermEditStudent   = "edit_student"
	PermDeleteStudent = "delete_student"

	PermManageAccounts     = "manage_accounts"
	PermViewAccounts       = "view_accounts"
	PermViewPaymentSummary = "view_payment_summary"

	PermManageClasses = "manage_classes"
	PermViewClasses   = "view_classes"

	PermManageUsers = "manage_users"
)

var (
	AllPermissions = []string{
		PermCollectStudentFees, PermViewStudentFees, PermPromoteStudent, PermViewStudentPromotion,
		PermCreateFeesMaster, PermViewFeesMaster, PermEditFeesMaster, PermDeleteFeesMaster,
		PermCreateStudent, PermViewStudent, PermEditStudent, PermDeleteStudent,
		PermManageAccounts, PermViewAccounts, PermViewPaymentSummary,
		PermManageClasses, PermViewClasses,
		PermManageUsers,
	}

	accountantPermissions = []string{
		PermCollectStudentFees, PermViewStudentFees,
		PermCreateFeesMaster, PermViewFeesMaster, PermEditFeesMaster, PermDeleteFeesMaster,
		PermViewStudent,
		PermManageAccounts, PermViewAccounts, PermViewPaymentSummary,
		PermViewClasses,
	}

	principalPermissions = []string{
		PermViewStudentFees, PermPromoteStudent, PermViewStudentPromotion,
		PermViewFeesMaster,
		PermCreateStudent, PermViewStudent, PermEditStudent, PermDeleteStudent,
		PermViewAccounts, PermViewPaymentSummary,
		PermManageClasses, PermViewClasses,
	}

	teacherPermissions = []string{PermViewStudent, PermViewStudentPromotion, PermViewClasses}

	// rolePermissions is the role -> capabilities policy.
	rolePermissions = map[string]map[string]bool{
		RoleAdminOwner:      permSet(AllPermissions),
		RoleAdminPrincipal:  permSet(principalPermissions),
		RoleAdminAccountant: permSet(accountantPermissions),
		RoleAdmin:           permSet([]string{PermViewStudent, PermViewFeesMaster, PermViewStudentFees, PermViewClasses}),
		RoleTeacher:         permSet(teacherPermissions),
	}
)

func permSet(perms []string) map[string]bool {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

// HasPermission reports whether any of roles grants perm.
func HasPermission(roles []string, perm string) bool {
	for _, role := range roles {
		if rolePermissions[role][perm] {
			return true
		}
	}
	return false
}

// Permissions lists the capabilities granted by roles, in AllPermissions order.
func Permissions(roles []string) []string {
	perms := make([]string, 0, len(AllPermissions))
	for _, p := range AllPermissions {
		if HasPermission(roles, p) {
			perms = append(perms, p)
		}
	}
	return perms
}
