package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/acadex/examtrack-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	Subject   string             `json:"subject"`
	ExamType  *models.ExamType   `json:"exam_type"`
	Status    *models.ExamStatus `json:"status"`
	TeacherID *string            `json:"teacher_id"`
	Grade     string             `json:"grade"`
	Search    string             `json:"search"`
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "date", "title", "created_at"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	ExamID    *uint                `json:"exam_id"`
	ExamIDs   []uint               `json:"exam_ids"`
	StudentID *string              `json:"student_id"`
	Status    *models.ResultStatus `json:"status"`
	Grade     *models.Grade        `json:"grade"`
	DateFrom  *time.Time           `json:"date_from"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)
	GetByTeacher(ctx context.Context, teacherID string, filters ExamFilters) ([]*models.Exam, int64, error)
	// GetTargeted returns every non-deleted exam scheduled for the student,
	// by grade membership or explicit targeting.
	GetTargeted(ctx context.Context, student *models.User) ([]*models.Exam, error)

	Count(ctx context.Context, teacherID *string) (int64, error)
	CountCreatedSince(ctx context.Context, teacherID *string, since time.Time) (int64, error)
}

type ResultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	GetByID(ctx context.Context, id uint) (*models.Result, error)
	Update(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters ResultFilters) ([]*models.Result, int64, error)
	GetByExam(ctx context.Context, examID uint) ([]*models.Result, error)
	GetByStudent(ctx context.Context, studentID string, dateFrom *time.Time) ([]*models.Result, error)
	GetByExamIDs(ctx context.Context, examIDs []uint) ([]*models.Result, error)

	ExistsByStudentAndExam(ctx context.Context, studentID string, examID uint) (bool, error)
	ExistsByExam(ctx context.Context, examID uint) (bool, error)

	Count(ctx context.Context, filters ResultFilters) (int64, error)
	CountCreatedSince(ctx context.Context, examIDs []uint, since time.Time) (int64, error)
}

// UserRepository is read-only: the exam service does not own user data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
	CountActiveByRole(ctx context.Context, role models.UserRole) (int64, error)
}

// Repository aggregates all repositories behind a single dependency.
type Repository interface {
	Exam() ExamRepository
	Result() ResultRepository
	User() UserRepository
}

// IsNotFoundError checks whether the error is the store's missing-record error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
