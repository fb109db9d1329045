package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is a read model of the identity service's user record. The exam
// service never creates or authenticates users; it only resolves roles,
// grades and display names for grading and aggregation.
type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	FirstName string   `json:"first_name" gorm:"not null;size:100"`
	LastName  string   `json:"last_name" gorm:"not null;size:100"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role      UserRole `json:"role" gorm:"not null;index;size:20"`

	// Academic placement (students only)
	Grade   string `json:"grade" gorm:"size:20;index"`
	Section string `json:"section" gorm:"size:20"`

	// Display codes assigned by the school
	StudentID string `json:"student_id" gorm:"size:50"`
	TeacherID string `json:"teacher_id" gorm:"size:50"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// FullName returns the display name used in performance listings.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
