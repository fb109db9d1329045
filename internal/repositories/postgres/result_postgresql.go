package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
	"gorm.io/gorm"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, result *models.Result) error {
	// The unique index on (student_id, exam_id) is the final arbiter under
	// concurrent creation; services pre-check but do not lock.
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	var result models.Result
	err := r.db.WithContext(ctx).
		Preload("Exam").
		Preload("Student").
		Preload("Grader").
		First(&result, id).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) Update(ctx context.Context, result *models.Result) error {
	if err := r.db.WithContext(ctx).Save(result).Error; err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Result{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.Result{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count results: %w", err)
	}

	var results []*models.Result
	err := query.
		Preload("Exam").
		Preload("Student").
		Preload("Grader").
		Order("submitted_at DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&results).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}
	return results, total, nil
}

func (r *ResultPostgreSQL) GetByExam(ctx context.Context, examID uint) ([]*models.Result, error) {
	var results []*models.Result
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Grader").
		Where("exam_id = ?", examID).
		Order("marks_obtained DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get results by exam: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) GetByStudent(ctx context.Context, studentID string, dateFrom *time.Time) ([]*models.Result, error) {
	query := r.db.WithContext(ctx).
		Preload("Exam").
		Joins("JOIN exams ON exams.id = results.exam_id").
		Where("results.student_id = ?", studentID)
	if dateFrom != nil {
		query = query.Where("exams.date >= ?", *dateFrom)
	}

	var results []*models.Result
	if err := query.Order("exams.date ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get results by student: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) GetByExamIDs(ctx context.Context, examIDs []uint) ([]*models.Result, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}
	var results []*models.Result
	err := r.db.WithContext(ctx).
		Preload("Exam").
		Where("exam_id IN ?", examIDs).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get results by exam ids: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) ExistsByStudentAndExam(ctx context.Context, studentID string, examID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Result{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check result existence: %w", err)
	}
	return count > 0, nil
}

func (r *ResultPostgreSQL) ExistsByExam(ctx context.Context, examID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Result{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check exam results existence: %w", err)
	}
	return count > 0, nil
}

func (r *ResultPostgreSQL) Count(ctx context.Context, filters repositories.ResultFilters) (int64, error) {
	var count int64
	err := r.applyFilters(r.db.WithContext(ctx).Model(&models.Result{}), filters).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

func (r *ResultPostgreSQL) CountCreatedSince(ctx context.Context, examIDs []uint, since time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Result{}).Where("created_at >= ?", since)
	if examIDs != nil {
		query = query.Where("exam_id IN ?", examIDs)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recent results: %w", err)
	}
	return count, nil
}

func (r *ResultPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if len(filters.ExamIDs) > 0 {
		query = query.Where("exam_id IN ?", filters.ExamIDs)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	return query
}
