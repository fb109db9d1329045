package postgres

import (
	"github.com/acadex/examtrack-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	exam   repositories.ExamRepository
	result repositories.ResultRepository
	user   repositories.UserRepository
}

// NewRepository wires all PostgreSQL repositories behind the aggregate
// Repository interface.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		exam:   NewExamPostgreSQL(db),
		result: NewResultPostgreSQL(db),
		user:   NewUserPostgreSQL(db),
	}
}

func (r *repository) Exam() repositories.ExamRepository {
	return r.exam
}

func (r *repository) Result() repositories.ResultRepository {
	return r.result
}

func (r *repository) User() repositories.UserRepository {
	return r.user
}
