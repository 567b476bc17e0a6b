package gate_test

import (
	"testing"

	"github.com/kaino/kaino-api/gate"
)

const codeLessonEdit gate.Code = 201

func TestAuthorize_AdminBypassesEverything(t *testing.T) {
	req := gate.Require(codeLessonEdit, gate.RoleFinance)
	if err := gate.Authorize(gate.RoleAdmin, nil, req); err != nil {
		t.Errorf("expected admin to pass, got %v", err)
	}
}

func TestAuthorize_RoleNotEligible(t *testing.T) {
	// A teacher holding the code is still denied on a finance-only endpoint.
	req := gate.Require(codeLessonEdit, gate.RoleFinance)
	grants := gate.NewGrantSet(codeLessonEdit)
	if err := gate.Authorize(gate.RoleTeacher, grants, req); err != gate.ErrPermissionDenied {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestAuthorize_MissingCode(t *testing.T) {
	req := gate.Require(codeLessonEdit, gate.RoleTeacher)
	if err := gate.Authorize(gate.RoleTeacher, gate.NewGrantSet(), req); err != gate.ErrPermissionDenied {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestAuthorize_RoleAndCode(t *testing.T) {
	req := gate.Require(codeLessonEdit, gate.RoleTeacher)
	grants := gate.NewGrantSet(codeLessonEdit)
	if err := gate.Authorize(gate.RoleTeacher, grants, req); err != nil {
		t.Errorf("expected allow, got %v", err)
	}
}

func TestAuthorize_RolesOnly(t *testing.T) {
	req := gate.RolesOnly(gate.RoleTeacher, gate.RoleHeadOfCurriculum)
	if err := gate.Authorize(gate.RoleHeadOfCurriculum, nil, req); err != nil {
		t.Errorf("expected allow with CodeFull, got %v", err)
	}
	if err := gate.Authorize(gate.RoleStudent, nil, req); err != gate.ErrPermissionDenied {
		t.Errorf("expected deny for student, got %v", err)
	}
}

func TestCan(t *testing.T) {
	req := gate.RolesOnly(gate.RoleFinance)
	if !gate.Can(gate.RoleFinance, nil, req) {
		t.Error("expected Can to return true")
	}
	if gate.Can(gate.RoleParent, nil, req) {
		t.Error("expected Can to return false")
	}
}

func TestRoleString(t *testing.T) {
	if gate.RoleHeadOfCurriculum.String() != "head_of_curriculum" {
		t.Errorf("unexpected role name %q", gate.RoleHeadOfCurriculum.String())
	}
	if gate.Role(99).String() != "unknown" {
		t.Errorf("expected unknown for out-of-range role")
	}
}

func TestRoleValid(t *testing.T) {
	if gate.RoleUnknown.Valid() {
		t.Error("RoleUnknown must not be valid")
	}
	if !gate.RoleSchoolAdmin.Valid() {
		t.Error("RoleSchoolAdmin must be valid")
	}
}
