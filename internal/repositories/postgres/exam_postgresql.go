package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	if err := e.db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	err := e.db.WithContext(ctx).
		Preload("Teacher").
		First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, exam *models.Exam) error {
	if err := e.db.WithContext(ctx).Save(exam).Error; err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := e.db.WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	query := e.applyFilters(e.db.WithContext(ctx).Model(&models.Exam{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	var exams []*models.Exam
	err := query.
		Preload("Teacher").
		Order(orderClause(filters.SortBy, filters.SortOrder)).
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&exams).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, total, nil
}

func (e *ExamPostgreSQL) GetByTeacher(ctx context.Context, teacherID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	filters.TeacherID = &teacherID
	return e.List(ctx, filters)
}

func (e *ExamPostgreSQL) GetTargeted(ctx context.Context, student *models.User) ([]*models.Exam, error) {
	var exams []*models.Exam
	err := e.db.WithContext(ctx).
		Where("target_grades @> ? OR target_students @> ?",
			fmt.Sprintf("[%q]", student.Grade),
			fmt.Sprintf("[%q]", student.ID)).
		Order("date ASC").
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get targeted exams: %w", err)
	}
	return exams, nil
}

func (e *ExamPostgreSQL) Count(ctx context.Context, teacherID *string) (int64, error) {
	query := e.db.WithContext(ctx).Model(&models.Exam{})
	if teacherID != nil {
		query = query.Where("teacher_id = ?", *teacherID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count exams: %w", err)
	}
	return count, nil
}

func (e *ExamPostgreSQL) CountCreatedSince(ctx context.Context, teacherID *string, since time.Time) (int64, error) {
	query := e.db.WithContext(ctx).Model(&models.Exam{}).Where("created_at >= ?", since)
	if teacherID != nil {
		query = query.Where("teacher_id = ?", *teacherID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recent exams: %w", err)
	}
	return count, nil
}

func (e *ExamPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.Subject != "" {
		query = query.Where("subject ILIKE ?", "%"+filters.Subject+"%")
	}
	if filters.ExamType != nil {
		query = query.Where("exam_type = ?", *filters.ExamType)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.Grade != "" {
		query = query.Where("target_grades @> ?", fmt.Sprintf("[%q]", filters.Grade))
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ? OR subject ILIKE ?", pattern, pattern, pattern)
	}
	if filters.DateFrom != nil {
		query = query.Where("date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("date < ?", *filters.DateTo)
	}
	return query
}

func orderClause(sortBy, sortOrder string) string {
	switch sortBy {
	case "title", "created_at", "date":
	default:
		sortBy = "date"
	}
	if sortOrder != "desc" {
		sortOrder = "asc"
	}
	return sortBy + " " + sortOrder
}
