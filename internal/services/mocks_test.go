package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
)

// MockExamRepository is a mock implementation of ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExamRepository) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Exam), args.Get(1).(int64), args.Error(2)
}

func (m *MockExamRepository) GetByTeacher(ctx context.Context, teacherID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	args := m.Called(ctx, teacherID, filters)
	return args.Get(0).([]*models.Exam), args.Get(1).(int64), args.Error(2)
}

func (m *MockExamRepository) GetTargeted(ctx context.Context, student *models.User) ([]*models.Exam, error) {
	args := m.Called(ctx, student)
	return args.Get(0).([]*models.Exam), args.Error(1)
}

func (m *MockExamRepository) Count(ctx context.Context, teacherID *string) (int64, error) {
	args := m.Called(ctx, teacherID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExamRepository) CountCreatedSince(ctx context.Context, teacherID *string, since time.Time) (int64, error) {
	args := m.Called(ctx, teacherID, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, result *models.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Result), args.Error(1)
}

func (m *MockResultRepository) Update(ctx context.Context, result *models.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockResultRepository) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Result), args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) GetByExam(ctx context.Context, examID uint) ([]*models.Result, error) {
	args := m.Called(ctx, examID)
	return args.Get(0).([]*models.Result), args.Error(1)
}

func (m *MockResultRepository) GetByStudent(ctx context.Context, studentID string, dateFrom *time.Time) ([]*models.Result, error) {
	args := m.Called(ctx, studentID, dateFrom)
	return args.Get(0).([]*models.Result), args.Error(1)
}

func (m *MockResultRepository) GetByExamIDs(ctx context.Context, examIDs []uint) ([]*models.Result, error) {
	args := m.Called(ctx, examIDs)
	return args.Get(0).([]*models.Result), args.Error(1)
}

func (m *MockResultRepository) ExistsByStudentAndExam(ctx context.Context, studentID string, examID uint) (bool, error) {
	args := m.Called(ctx, studentID, examID)
	return args.Bool(0), args.Error(1)
}

func (m *MockResultRepository) ExistsByExam(ctx context.Context, examID uint) (bool, error) {
	args := m.Called(ctx, examID)
	return args.Bool(0), args.Error(1)
}

func (m *MockResultRepository) Count(ctx context.Context, filters repositories.ResultFilters) (int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResultRepository) CountCreatedSince(ctx context.Context, examIDs []uint, since time.Time) (int64, error) {
	args := m.Called(ctx, examIDs, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountActiveByRole(ctx context.Context, role models.UserRole) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

// mockRepository bundles the repository mocks behind the Repository interface
type mockRepository struct {
	exam   *MockExamRepository
	result *MockResultRepository
	user   *MockUserRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		exam:   new(MockExamRepository),
		result: new(MockResultRepository),
		user:   new(MockUserRepository),
	}
}

func (m *mockRepository) Exam() repositories.ExamRepository     { return m.exam }
func (m *mockRepository) Result() repositories.ResultRepository { return m.result }
func (m *mockRepository) User() repositories.UserRepository     { return m.user }
