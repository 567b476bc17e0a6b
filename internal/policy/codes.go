package policy

import "github.com/kaino/kaino-api/gate"

// Permission codes. These are the numeric codes stored in the permissions
// table and granted to users; every guarded endpoint names one of them in
// its Requirement. Codes are stable identifiers, never reused.
const (
	CodeSchoolManage   gate.Code = 101
	CodeSchoolView     gate.Code = 102
	CodeTermManage     gate.Code = 111
	CodeLessonEdit     gate.Code = 121
	CodeLessonView     gate.Code = 122
	CodeUserManage     gate.Code = 131
	CodePlanManage     gate.Code = 141
	CodeSubscribe      gate.Code = 151
	CodeInvoiceManage  gate.Code = 161
	CodeInvoiceView    gate.Code = 162
	CodeFinanceView    gate.Code = 171
	CodeAttendanceMark gate.Code = 181
	CodeAttendanceView gate.Code = 182
)

// Seed describes a permission row created at database setup.
type Seed struct {
	Code        gate.Code
	Name        string
	Description string
}

// Seeds lists the core permissions for the application.
func Seeds() []Seed {
	return []Seed{
		{CodeSchoolManage, "SCHOOL_MANAGE", "Create, edit and delete schools"},
		{CodeSchoolView, "SCHOOL_VIEW", "View school details"},
		{CodeTermManage, "TERM_MANAGE", "Manage academic terms"},
		{CodeLessonEdit, "LESSON_EDIT", "Create and edit lessons"},
		{CodeLessonView, "LESSON_VIEW", "View lessons"},
		{CodeUserManage, "USER_MANAGE", "Manage users and their permissions"},
		{CodePlanManage, "PLAN_MANAGE", "Manage plans and benefits"},
		{CodeSubscribe, "SUBSCRIBE", "Subscribe a school to a plan"},
		{CodeInvoiceManage, "INVOICE_MANAGE", "Create, edit and delete invoices"},
		{CodeInvoiceView, "INVOICE_VIEW", "View invoices"},
		{CodeFinanceView, "FINANCE_VIEW", "View finance dashboards"},
		{CodeAttendanceMark, "ATTENDANCE_MARK", "Record roll calls"},
		{CodeAttendanceView, "ATTENDANCE_VIEW", "View attendance reports"},
	}
}
