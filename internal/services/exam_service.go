package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
	"github.com/acadex/examtrack-service/internal/validator"
)

// ExamService manages the exam lifecycle: scheduling, role-scoped listing,
// status transitions and result publication.
type ExamService interface {
	// Core CRUD
	Create(ctx context.Context, req *CreateExamRequest, caller Principal) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, caller Principal) (*ExamResponse, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest, caller Principal) (*ExamResponse, error)
	Delete(ctx context.Context, id uint, caller Principal) error

	// Listing
	List(ctx context.Context, filters repositories.ExamFilters, caller Principal) (*ExamListResponse, error)
	Upcoming(ctx context.Context, caller Principal) ([]*ExamResponse, error)
	Completed(ctx context.Context, caller Principal) ([]*ExamResponse, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, req *UpdateExamStatusRequest, caller Principal) error
	Cancel(ctx context.Context, id uint, caller Principal) error
	PublishResults(ctx context.Context, id uint, caller Principal) (*ExamResponse, error)

	// Permission checks
	CanDelete(ctx context.Context, id uint, caller Principal) (bool, error)
}

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	events    ResultEventService
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, events ResultEventService) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		events:    events,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

type CreateExamRequest struct {
	Title        string                `json:"title" validate:"required,min=3,max=100"`
	Description  string                `json:"description" validate:"omitempty,max=500"`
	Subject      string                `json:"subject" validate:"required"`
	ExamType     models.ExamType       `json:"exam_type" validate:"omitempty,exam_type"`
	Date         time.Time             `json:"date" validate:"required"`
	Duration     int                   `json:"duration" validate:"required,min=15,max=480"`
	TotalMarks   int                   `json:"total_marks" validate:"required,min=1"`
	PassingMarks int                   `json:"passing_marks" validate:"required,min=1"`
	Venue        string                `json:"venue" validate:"omitempty,max=200"`
	Instructions string                `json:"instructions" validate:"omitempty,max=1000"`
	Difficulty   models.ExamDifficulty `json:"difficulty" validate:"omitempty,exam_difficulty"`

	TargetGrades   []string `json:"target_grades"`
	TargetSections []string `json:"target_sections"`
	TargetStudents []string `json:"target_students"`

	// TeacherID assigns the exam to another teacher. Admin callers only;
	// ignored for teachers, who always own the exams they create.
	TeacherID string `json:"teacher_id" validate:"omitempty"`
}

type UpdateExamRequest struct {
	Title        *string                `json:"title" validate:"omitempty,min=3,max=100"`
	Description  *string                `json:"description" validate:"omitempty,max=500"`
	Subject      *string                `json:"subject"`
	ExamType     *models.ExamType       `json:"exam_type" validate:"omitempty,exam_type"`
	Date         *time.Time             `json:"date"`
	Duration     *int                   `json:"duration" validate:"omitempty,min=15,max=480"`
	TotalMarks   *int                   `json:"total_marks" validate:"omitempty,min=1"`
	PassingMarks *int                   `json:"passing_marks" validate:"omitempty,min=1"`
	Venue        *string                `json:"venue" validate:"omitempty,max=200"`
	Instructions *string                `json:"instructions" validate:"omitempty,max=1000"`
	Difficulty   *models.ExamDifficulty `json:"difficulty" validate:"omitempty,exam_difficulty"`

	TargetGrades   []string `json:"target_grades"`
	TargetSections []string `json:"target_sections"`
	TargetStudents []string `json:"target_students"`
}

type UpdateExamStatusRequest struct {
	Status models.ExamStatus `json:"status" validate:"required,exam_status"`
	Reason *string           `json:"reason" validate:"omitempty,max=200"`
}

// ExamResponse decorates the stored exam with its time-derived display status.
type ExamResponse struct {
	*models.Exam
	DerivedStatus models.DerivedExamStatus `json:"derived_status"`
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

func newExamResponse(exam *models.Exam, now time.Time) *ExamResponse {
	return &ExamResponse{
		Exam:          exam,
		DerivedStatus: exam.DerivedStatus(now),
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, caller Principal) (*ExamResponse, error) {
	s.logger.Info("Creating exam", "creator_id", caller.ID, "title", req.Title)

	if !caller.Allows(ActionExamCreate) {
		return nil, NewPermissionError(caller.ID, "", "exam", "create", "insufficient role permissions")
	}

	// Validate request struct tags
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		Title:          req.Title,
		Description:    req.Description,
		Subject:        req.Subject,
		ExamType:       req.ExamType,
		Date:           req.Date,
		Duration:       req.Duration,
		TotalMarks:     req.TotalMarks,
		PassingMarks:   req.PassingMarks,
		Venue:          req.Venue,
		Instructions:   req.Instructions,
		Difficulty:     req.Difficulty,
		TargetGrades:   datatypes.NewJSONSlice(req.TargetGrades),
		TargetSections: datatypes.NewJSONSlice(req.TargetSections),
		TargetStudents: datatypes.NewJSONSlice(req.TargetStudents),
		TeacherID:      caller.ID,
		CreatedBy:      caller.ID,
		Status:         models.ExamScheduled,
	}
	if exam.ExamType == "" {
		exam.ExamType = models.ExamMidterm
	}
	if exam.Difficulty == "" {
		exam.Difficulty = models.DifficultyMedium
	}

	// Admins may schedule an exam on behalf of another teacher
	if caller.IsAdmin() && req.TeacherID != "" {
		isTeacher, err := s.repo.User().HasRole(ctx, req.TeacherID, models.RoleTeacher)
		if err != nil {
			return nil, fmt.Errorf("failed to verify teacher: %w", err)
		}
		if !isTeacher {
			return nil, ErrTeacherNotFound
		}
		exam.TeacherID = req.TeacherID
	}

	// Validate business rules
	if errs := s.validator.GetBusinessValidator().ValidateExamCreate(exam, time.Now()); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created successfully", "exam_id", exam.ID)

	return newExamResponse(exam, time.Now()), nil
}

func (s *examService) GetByID(ctx context.Context, id uint, caller Principal) (*ExamResponse, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}

	// Students only see exams scheduled for them
	if caller.IsStudent() {
		student, err := s.repo.User().GetByID(ctx, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
		if !exam.Targets(student) {
			return nil, NewPermissionError(caller.ID, examIDString(id), "exam", "read", "exam not scheduled for student")
		}
	}

	return newExamResponse(exam, time.Now()), nil
}

func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest, caller Principal) (*ExamResponse, error) {
	s.logger.Info("Updating exam", "exam_id", id, "user_id", caller.ID)

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeExamWrite(caller, exam, ActionExamUpdate); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// A total-marks change after grading would orphan the result snapshots
	if req.TotalMarks != nil && *req.TotalMarks != exam.TotalMarks {
		hasResults, err := s.repo.Result().ExistsByExam(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing results: %w", err)
		}
		if hasResults {
			return nil, NewValidationError("total_marks", "cannot change total marks after results are recorded", *req.TotalMarks)
		}
	}

	s.applyExamUpdates(exam, req)

	if errs := s.validator.GetBusinessValidator().ValidateExamUpdate(exam); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	s.logger.Info("Exam updated successfully", "exam_id", id)

	return newExamResponse(exam, time.Now()), nil
}

func (s *examService) Delete(ctx context.Context, id uint, caller Principal) error {
	s.logger.Info("Deleting exam", "exam_id", id, "user_id", caller.ID)

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return err
	}

	if err := authorizeExamWrite(caller, exam, ActionExamDelete); err != nil {
		return err
	}

	// Exams with recorded results are never deleted, only cancelled
	hasResults, err := s.repo.Result().ExistsByExam(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check existing results: %w", err)
	}
	if hasResults {
		return ErrExamHasResults
	}

	if err := s.repo.Exam().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted successfully", "exam_id", id)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters, caller Principal) (*ExamListResponse, error) {
	now := time.Now()

	switch caller.Role {
	case models.RoleAdmin:
		// Admins see everything, filters apply as-is

	case models.RoleTeacher:
		filters.TeacherID = &caller.ID

	case models.RoleStudent:
		// Student listings ignore pagination filters: the targeted set is
		// already bounded by the student's grade
		student, err := s.repo.User().GetByID(ctx, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
		exams, err := s.repo.Exam().GetTargeted(ctx, student)
		if err != nil {
			return nil, fmt.Errorf("failed to list targeted exams: %w", err)
		}
		return &ExamListResponse{
			Exams: s.buildExamResponses(exams, now),
			Total: int64(len(exams)),
			Page:  0,
			Size:  len(exams),
		}, nil

	default:
		return nil, ErrInvalidRole
	}

	exams, total, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	return &ExamListResponse{
		Exams: s.buildExamResponses(exams, now),
		Total: total,
		Page:  filters.Offset / max(filters.Limit, 1),
		Size:  filters.Limit,
	}, nil
}

func (s *examService) Upcoming(ctx context.Context, caller Principal) ([]*ExamResponse, error) {
	return s.listByDerivedStatus(ctx, caller, models.DerivedUpcoming)
}

func (s *examService) Completed(ctx context.Context, caller Principal) ([]*ExamResponse, error) {
	return s.listByDerivedStatus(ctx, caller, models.DerivedCompleted)
}

// listByDerivedStatus filters the caller's visible exams by their time-derived
// status. The filtering happens in memory: derived status is a function of the
// clock and cannot be pushed into a stored-column query.
func (s *examService) listByDerivedStatus(ctx context.Context, caller Principal, status models.DerivedExamStatus) ([]*ExamResponse, error) {
	now := time.Now()

	var exams []*models.Exam
	var err error

	switch caller.Role {
	case models.RoleStudent:
		var student *models.User
		student, err = s.repo.User().GetByID(ctx, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
		exams, err = s.repo.Exam().GetTargeted(ctx, student)
	case models.RoleTeacher:
		exams, _, err = s.repo.Exam().GetByTeacher(ctx, caller.ID, repositories.ExamFilters{})
	case models.RoleAdmin:
		exams, _, err = s.repo.Exam().List(ctx, repositories.ExamFilters{})
	default:
		return nil, ErrInvalidRole
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	responses := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		if exam.DerivedStatus(now) == status {
			responses = append(responses, newExamResponse(exam, now))
		}
	}
	return responses, nil
}

// ===== STATUS MANAGEMENT =====

func (s *examService) UpdateStatus(ctx context.Context, id uint, req *UpdateExamStatusRequest, caller Principal) error {
	s.logger.Info("Updating exam status", "exam_id", id, "new_status", req.Status, "user_id", caller.ID)

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return err
	}

	if err := authorizeExamWrite(caller, exam, ActionExamUpdate); err != nil {
		return err
	}

	if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(exam.Status, req.Status); len(errs) > 0 {
		return errs
	}

	exam.Status = req.Status
	exam.UpdatedAt = time.Now()

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return fmt.Errorf("failed to update exam status: %w", err)
	}

	s.logger.Info("Exam status updated successfully",
		"exam_id", id,
		"new_status", req.Status,
		"reason", req.Reason)

	return nil
}

func (s *examService) Cancel(ctx context.Context, id uint, caller Principal) error {
	return s.UpdateStatus(ctx, id, &UpdateExamStatusRequest{
		Status: models.ExamCancelled,
		Reason: stringPtr("Cancelled by user"),
	}, caller)
}

func (s *examService) PublishResults(ctx context.Context, id uint, caller Principal) (*ExamResponse, error) {
	s.logger.Info("Publishing exam results", "exam_id", id, "user_id", caller.ID)

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeExamWrite(caller, exam, ActionExamPublish); err != nil {
		return nil, err
	}

	// Idempotent: republishing an already-published exam is a no-op
	if exam.ResultsPublished {
		return newExamResponse(exam, time.Now()), nil
	}

	// Publishing does not require results to exist; results entered later
	// become visible immediately.
	exam.ResultsPublished = true
	exam.UpdatedAt = time.Now()

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to publish results: %w", err)
	}

	if s.events != nil {
		if err := s.events.NotifyResultsPublished(ctx, exam); err != nil {
			// Publication already committed; notification failure is logged, not surfaced
			s.logger.Error("Failed to emit results-published event", "exam_id", id, "error", err)
		}
	}

	s.logger.Info("Exam results published", "exam_id", id)

	return newExamResponse(exam, time.Now()), nil
}

// ===== PERMISSION CHECKS =====

func (s *examService) CanDelete(ctx context.Context, id uint, caller Principal) (bool, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return false, err
	}

	if err := authorizeExamWrite(caller, exam, ActionExamDelete); err != nil {
		return false, nil
	}

	hasResults, err := s.repo.Result().ExistsByExam(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check existing results: %w", err)
	}

	return !hasResults, nil
}

// ===== HELPERS =====

func (s *examService) getExam(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *examService) buildExamResponses(exams []*models.Exam, now time.Time) []*ExamResponse {
	responses := make([]*ExamResponse, len(exams))
	for i, exam := range exams {
		responses[i] = newExamResponse(exam, now)
	}
	return responses
}

func (s *examService) applyExamUpdates(exam *models.Exam, req *UpdateExamRequest) {
	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Subject != nil {
		exam.Subject = *req.Subject
	}
	if req.ExamType != nil {
		exam.ExamType = *req.ExamType
	}
	if req.Date != nil {
		exam.Date = *req.Date
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.TotalMarks != nil {
		exam.TotalMarks = *req.TotalMarks
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.Venue != nil {
		exam.Venue = *req.Venue
	}
	if req.Instructions != nil {
		exam.Instructions = *req.Instructions
	}
	if req.Difficulty != nil {
		exam.Difficulty = *req.Difficulty
	}
	if req.TargetGrades != nil {
		exam.TargetGrades = datatypes.NewJSONSlice(req.TargetGrades)
	}
	if req.TargetSections != nil {
		exam.TargetSections = datatypes.NewJSONSlice(req.TargetSections)
	}
	if req.TargetStudents != nil {
		exam.TargetStudents = datatypes.NewJSONSlice(req.TargetStudents)
	}
}
