package services

import (
	"github.com/acadex/examtrack-service/internal/models"
)

// Principal is the authenticated caller as established by the auth middleware.
type Principal struct {
	ID        string          `json:"id"`
	Role      models.UserRole `json:"role"`
	FirstName string          `json:"first_name,omitempty"`
	LastName  string          `json:"last_name,omitempty"`
}

// Action is a permission checked against a principal and a resource.
type Action string

const (
	ActionExamCreate     Action = "exam:create"
	ActionExamUpdate     Action = "exam:update"
	ActionExamDelete     Action = "exam:delete"
	ActionExamPublish    Action = "exam:publish"
	ActionResultCreate   Action = "result:create"
	ActionResultUpdate   Action = "result:update"
	ActionResultDelete   Action = "result:delete"
	ActionResultViewAll  Action = "result:view_all"
	ActionPerformanceAll Action = "performance:view_all"
)

// rolePermissions is the single dispatch table that decides which role may
// attempt which action. Ownership checks (e.g. a teacher touching another
// teacher's exam) are layered on top by the resource-specific authorize
// functions below.
var rolePermissions = map[models.UserRole]map[Action]bool{
	models.RoleAdmin: {
		ActionExamCreate: true, ActionExamUpdate: true, ActionExamDelete: true,
		ActionExamPublish: true, ActionResultCreate: true, ActionResultUpdate: true,
		ActionResultDelete: true, ActionResultViewAll: true, ActionPerformanceAll: true,
	},
	models.RoleTeacher: {
		ActionExamCreate: true, ActionExamUpdate: true, ActionExamDelete: true,
		ActionExamPublish: true, ActionResultCreate: true, ActionResultUpdate: true,
		ActionResultDelete: true, ActionResultViewAll: true, ActionPerformanceAll: true,
	},
	models.RoleStudent: {},
}

// Allows reports whether the principal's role may attempt the action at all.
func (p Principal) Allows(action Action) bool {
	perms, ok := rolePermissions[p.Role]
	if !ok {
		return false
	}
	return perms[action]
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// IsTeacher reports whether the principal holds the teacher role.
func (p Principal) IsTeacher() bool {
	return p.Role == models.RoleTeacher
}

// IsStudent reports whether the principal holds the student role.
func (p Principal) IsStudent() bool {
	return p.Role == models.RoleStudent
}

// authorizeExamWrite decides whether the principal may mutate the exam.
// Admins may mutate any exam; teachers only their own.
func authorizeExamWrite(p Principal, exam *models.Exam, action Action) error {
	if !p.Allows(action) {
		return NewPermissionError(p.ID, examIDString(exam.ID), "exam", string(action), "role not permitted")
	}
	if p.IsAdmin() {
		return nil
	}
	if p.IsTeacher() && (exam.TeacherID == p.ID || exam.CreatedBy == p.ID) {
		return nil
	}
	return NewPermissionError(p.ID, examIDString(exam.ID), "exam", string(action), "not the owning teacher")
}

// authorizeResultWrite decides whether the principal may record or change a
// result for the exam. The owning teacher and admins qualify.
func authorizeResultWrite(p Principal, exam *models.Exam, action Action) error {
	if !p.Allows(action) {
		return NewPermissionError(p.ID, examIDString(exam.ID), "result", string(action), "role not permitted")
	}
	if p.IsAdmin() {
		return nil
	}
	if p.IsTeacher() && (exam.TeacherID == p.ID || exam.CreatedBy == p.ID) {
		return nil
	}
	return NewPermissionError(p.ID, examIDString(exam.ID), "result", string(action), "not the owning teacher")
}

// canViewResult decides whether the principal may read the result.
// Students see only their own rows.
func canViewResult(p Principal, result *models.Result) bool {
	if p.IsAdmin() || p.IsTeacher() {
		return true
	}
	return result.StudentID == p.ID
}
