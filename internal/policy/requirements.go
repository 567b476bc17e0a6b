package policy

import "github.com/kaino/kaino-api/gate"

// Route requirements. Each guarded endpoint points at exactly one of these;
// the admin role passes all of them without holding any code. A requirement
// with no roles listed is admin-only.
var (
	SchoolManage = gate.Require(CodeSchoolManage, gate.RoleSchoolAdmin)
	SchoolView   = gate.RolesOnly(
		gate.RoleTeacher, gate.RoleStudent, gate.RoleParent,
		gate.RoleHeadOfCurriculum, gate.RoleContentCreator,
		gate.RoleFinance, gate.RoleSchoolAdmin,
	)

	TermManage = gate.Require(CodeTermManage, gate.RoleSchoolAdmin, gate.RoleHeadOfCurriculum)

	LessonEdit = gate.Require(CodeLessonEdit,
		gate.RoleTeacher, gate.RoleHeadOfCurriculum, gate.RoleContentCreator)
	LessonView = gate.RolesOnly(
		gate.RoleTeacher, gate.RoleStudent, gate.RoleParent,
		gate.RoleHeadOfCurriculum, gate.RoleContentCreator, gate.RoleSchoolAdmin,
	)

	UserManage = gate.Require(CodeUserManage, gate.RoleSchoolAdmin)

	PermissionGrant = gate.Require(gate.CodeFull)

	PlanManage = gate.Require(CodePlanManage)

	Subscribe = gate.Require(CodeSubscribe, gate.RoleSchoolAdmin, gate.RoleFinance)

	InvoiceManage = gate.Require(CodeInvoiceManage, gate.RoleFinance, gate.RoleSchoolAdmin)
	InvoiceView   = gate.Require(CodeInvoiceView, gate.RoleFinance, gate.RoleSchoolAdmin)
	FinanceView   = gate.Require(CodeFinanceView, gate.RoleFinance, gate.RoleSchoolAdmin)

	AttendanceMark = gate.Require(CodeAttendanceMark, gate.RoleTeacher)
	AttendanceView = gate.RolesOnly(
		gate.RoleTeacher, gate.RoleParent,
		gate.RoleHeadOfCurriculum, gate.RoleSchoolAdmin,
	)
)
