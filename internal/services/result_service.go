package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/acadex/examtrack-service/internal/grading"
	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
	"github.com/acadex/examtrack-service/internal/validator"
)

// ResultService manages graded results: creation, bulk entry, updates and
// role-scoped reads. Percentage, grade and pass status are always recomputed
// here; client-supplied values for them never reach storage.
type ResultService interface {
	// Core CRUD
	Create(ctx context.Context, req *CreateResultRequest, caller Principal) (*models.Result, error)
	GetByID(ctx context.Context, id uint, caller Principal) (*models.Result, error)
	Update(ctx context.Context, id uint, req *UpdateResultRequest, caller Principal) (*models.Result, error)
	Delete(ctx context.Context, id uint, caller Principal) error

	// Bulk entry
	BulkCreate(ctx context.Context, req *BulkCreateResultsRequest, caller Principal) (*BulkCreateResultsResponse, error)

	// Listing
	List(ctx context.Context, filters repositories.ResultFilters, caller Principal) (*ResultListResponse, error)
	GetByExam(ctx context.Context, examID uint, caller Principal) ([]*models.Result, error)
	GetByStudent(ctx context.Context, studentID string, caller Principal) ([]*models.Result, error)

	// Review and appeal workflow
	MarkReviewed(ctx context.Context, id uint, caller Principal) (*models.Result, error)
	SubmitAppeal(ctx context.Context, id uint, req *AppealRequest, caller Principal) (*models.Result, error)
	ResolveAppeal(ctx context.Context, id uint, req *ResolveAppealRequest, caller Principal) (*models.Result, error)
}

type resultService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	events    ResultEventService
}

func NewResultService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, events ResultEventService) ResultService {
	return &resultService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		events:    events,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

type CreateResultRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	ExamID        uint    `json:"exam_id" validate:"required"`
	MarksObtained float64 `json:"marks_obtained" validate:"min=0"`

	Breakdown       *models.MarksBreakdown `json:"breakdown"`
	TeacherComments string                 `json:"teacher_comments" validate:"omitempty,max=500"`
	Attendance      *bool                  `json:"attendance"`
	Participation   int                    `json:"participation" validate:"min=0,max=10"`
	SubmittedAt     *time.Time             `json:"submitted_at"`
}

type UpdateResultRequest struct {
	MarksObtained   *float64               `json:"marks_obtained" validate:"omitempty,min=0"`
	Breakdown       *models.MarksBreakdown `json:"breakdown"`
	TeacherComments *string                `json:"teacher_comments" validate:"omitempty,max=500"`
	Attendance      *bool                  `json:"attendance"`
	Participation   *int                   `json:"participation" validate:"omitempty,min=0,max=10"`
}

type BulkCreateResultsRequest struct {
	ExamID  uint              `json:"exam_id" validate:"required"`
	Results []BulkResultEntry `json:"results" validate:"required,min=1,dive"`
}

type BulkResultEntry struct {
	StudentID     string                 `json:"student_id" validate:"required"`
	MarksObtained float64                `json:"marks_obtained" validate:"min=0"`
	Breakdown     *models.MarksBreakdown `json:"breakdown"`
	Attendance    *bool                  `json:"attendance"`
	Participation int                    `json:"participation" validate:"min=0,max=10"`
}

// BulkEntryFailure reports one rejected entry of a bulk request. A failed
// entry never aborts the rest of the batch.
type BulkEntryFailure struct {
	Index     int    `json:"index"`
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

type BulkCreateResultsResponse struct {
	Created []*models.Result   `json:"created"`
	Failed  []BulkEntryFailure `json:"failed"`
}

type AppealRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ResolveAppealRequest struct {
	Status models.AppealStatus `json:"status" validate:"required,oneof=approved rejected"`
}

type ResultListResponse struct {
	Results []*models.Result `json:"results"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

// ===== CORE CRUD OPERATIONS =====

func (s *resultService) Create(ctx context.Context, req *CreateResultRequest, caller Principal) (*models.Result, error) {
	s.logger.Info("Creating result", "exam_id", req.ExamID, "student_id", req.StudentID, "grader_id", caller.ID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}

	if err := authorizeResultWrite(caller, exam, ActionResultCreate); err != nil {
		return nil, err
	}

	result, err := s.buildResult(ctx, exam, req.StudentID, req.MarksObtained, caller)
	if err != nil {
		return nil, err
	}

	result.TeacherComments = req.TeacherComments
	result.Participation = req.Participation
	if req.Attendance != nil {
		result.Attendance = *req.Attendance
	}
	if req.Breakdown != nil {
		result.Breakdown = datatypes.NewJSONType(*req.Breakdown)
	}
	if req.SubmittedAt != nil {
		result.SubmittedAt = *req.SubmittedAt
	}

	if err := s.repo.Result().Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to create result: %w", err)
	}

	if s.events != nil && exam.ResultsPublished {
		if err := s.events.NotifyResultGraded(ctx, result, exam); err != nil {
			s.logger.Error("Failed to emit result-graded event", "result_id", result.ID, "error", err)
		}
	}

	s.logger.Info("Result created successfully", "result_id", result.ID, "grade", result.Grade)
	return result, nil
}

func (s *resultService) GetByID(ctx context.Context, id uint, caller Principal) (*models.Result, error) {
	result, err := s.getResult(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canViewResult(caller, result) {
		return nil, NewPermissionError(caller.ID, resultIDString(id), "result", "read", "not the result owner")
	}

	// Students see their rows only once the teacher has published the exam
	if caller.IsStudent() {
		exam, err := s.getExam(ctx, result.ExamID)
		if err != nil {
			return nil, err
		}
		if !exam.ResultsPublished {
			return nil, NewPermissionError(caller.ID, resultIDString(id), "result", "read", "results not yet published")
		}
	}

	return result, nil
}

func (s *resultService) Update(ctx context.Context, id uint, req *UpdateResultRequest, caller Principal) (*models.Result, error) {
	s.logger.Info("Updating result", "result_id", id, "user_id", caller.ID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	result, err := s.getResult(ctx, id)
	if err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, result.ExamID)
	if err != nil {
		return nil, err
	}

	if err := authorizeResultWrite(caller, exam, ActionResultUpdate); err != nil {
		return nil, err
	}

	if req.MarksObtained != nil {
		if errs := s.validator.GetBusinessValidator().ValidateMarks(*req.MarksObtained, result.TotalMarks); len(errs) > 0 {
			return nil, errs
		}
		result.MarksObtained = *req.MarksObtained

		// Marks changed: recompute every derived field
		graded := grading.Grade(result.MarksObtained, result.TotalMarks)
		result.Percentage = graded.Percentage
		result.Grade = graded.Grade
		result.Status = graded.Status
	}

	if req.TeacherComments != nil {
		result.TeacherComments = *req.TeacherComments
	}
	if req.Attendance != nil {
		result.Attendance = *req.Attendance
	}
	if req.Participation != nil {
		result.Participation = *req.Participation
	}
	if req.Breakdown != nil {
		result.Breakdown = datatypes.NewJSONType(*req.Breakdown)
	}

	if err := s.repo.Result().Update(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to update result: %w", err)
	}

	if s.events != nil && exam.ResultsPublished && req.MarksObtained != nil {
		if err := s.events.NotifyResultUpdated(ctx, result, exam); err != nil {
			s.logger.Error("Failed to emit result-updated event", "result_id", id, "error", err)
		}
	}

	s.logger.Info("Result updated successfully", "result_id", id)
	return result, nil
}

func (s *resultService) Delete(ctx context.Context, id uint, caller Principal) error {
	s.logger.Info("Deleting result", "result_id", id, "user_id", caller.ID)

	result, err := s.getResult(ctx, id)
	if err != nil {
		return err
	}

	exam, err := s.getExam(ctx, result.ExamID)
	if err != nil {
		return err
	}

	if err := authorizeResultWrite(caller, exam, ActionResultDelete); err != nil {
		return err
	}

	if err := s.repo.Result().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	s.logger.Info("Result deleted successfully", "result_id", id)
	return nil
}

// ===== BULK OPERATIONS =====

func (s *resultService) BulkCreate(ctx context.Context, req *BulkCreateResultsRequest, caller Principal) (*BulkCreateResultsResponse, error) {
	s.logger.Info("Bulk creating results", "exam_id", req.ExamID, "entries", len(req.Results), "grader_id", caller.ID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}

	if err := authorizeResultWrite(caller, exam, ActionResultCreate); err != nil {
		return nil, err
	}

	response := &BulkCreateResultsResponse{
		Created: make([]*models.Result, 0, len(req.Results)),
		Failed:  make([]BulkEntryFailure, 0),
	}

	for i, entry := range req.Results {
		result, err := s.buildResult(ctx, exam, entry.StudentID, entry.MarksObtained, caller)
		if err != nil {
			response.Failed = append(response.Failed, BulkEntryFailure{
				Index:     i,
				StudentID: entry.StudentID,
				Error:     err.Error(),
			})
			continue
		}

		result.Participation = entry.Participation
		if entry.Attendance != nil {
			result.Attendance = *entry.Attendance
		}
		if entry.Breakdown != nil {
			result.Breakdown = datatypes.NewJSONType(*entry.Breakdown)
		}

		if err := s.repo.Result().Create(ctx, result); err != nil {
			response.Failed = append(response.Failed, BulkEntryFailure{
				Index:     i,
				StudentID: entry.StudentID,
				Error:     fmt.Sprintf("failed to create result: %v", err),
			})
			continue
		}

		response.Created = append(response.Created, result)
	}

	s.logger.Info("Bulk result creation finished",
		"exam_id", req.ExamID,
		"created", len(response.Created),
		"failed", len(response.Failed))

	return response, nil
}

// ===== LIST OPERATIONS =====

func (s *resultService) List(ctx context.Context, filters repositories.ResultFilters, caller Principal) (*ResultListResponse, error) {
	switch caller.Role {
	case models.RoleAdmin:
		// Unscoped

	case models.RoleTeacher:
		// Teachers see results for their own exams only
		exams, _, err := s.repo.Exam().GetByTeacher(ctx, caller.ID, repositories.ExamFilters{})
		if err != nil {
			return nil, fmt.Errorf("failed to list teacher exams: %w", err)
		}
		examIDs := make([]uint, len(exams))
		for i, exam := range exams {
			examIDs[i] = exam.ID
		}
		if len(examIDs) == 0 {
			return &ResultListResponse{Results: []*models.Result{}}, nil
		}
		filters.ExamIDs = examIDs

	case models.RoleStudent:
		filters.StudentID = &caller.ID

	default:
		return nil, ErrInvalidRole
	}

	results, total, err := s.repo.Result().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	// Unpublished rows stay invisible to students
	if caller.IsStudent() {
		visible := make([]*models.Result, 0, len(results))
		for _, r := range results {
			if r.Exam.ResultsPublished {
				visible = append(visible, r)
			}
		}
		results = visible
		total = int64(len(visible))
	}

	return &ResultListResponse{
		Results: results,
		Total:   total,
		Page:    filters.Offset / max(filters.Limit, 1),
		Size:    filters.Limit,
	}, nil
}

func (s *resultService) GetByExam(ctx context.Context, examID uint, caller Principal) ([]*models.Result, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	if !caller.Allows(ActionResultViewAll) {
		return nil, NewPermissionError(caller.ID, examIDString(examID), "result", "view_all", "role not permitted")
	}
	if caller.IsTeacher() && exam.TeacherID != caller.ID && exam.CreatedBy != caller.ID {
		return nil, NewPermissionError(caller.ID, examIDString(examID), "result", "view_all", "not the owning teacher")
	}

	results, err := s.repo.Result().GetByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam results: %w", err)
	}
	return results, nil
}

func (s *resultService) GetByStudent(ctx context.Context, studentID string, caller Principal) ([]*models.Result, error) {
	if caller.IsStudent() && caller.ID != studentID {
		return nil, NewPermissionError(caller.ID, studentID, "result", "read", "students may only view their own results")
	}

	results, err := s.repo.Result().GetByStudent(ctx, studentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get student results: %w", err)
	}

	if caller.IsStudent() {
		visible := make([]*models.Result, 0, len(results))
		for _, r := range results {
			if r.Exam.ResultsPublished {
				visible = append(visible, r)
			}
		}
		results = visible
	}

	return results, nil
}

// ===== REVIEW AND APPEAL WORKFLOW =====

func (s *resultService) MarkReviewed(ctx context.Context, id uint, caller Principal) (*models.Result, error) {
	result, err := s.getResult(ctx, id)
	if err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, result.ExamID)
	if err != nil {
		return nil, err
	}

	if err := authorizeResultWrite(caller, exam, ActionResultUpdate); err != nil {
		return nil, err
	}

	now := time.Now()
	result.Reviewed = true
	result.ReviewedAt = &now
	result.ReviewedBy = &caller.ID

	if err := s.repo.Result().Update(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to mark result reviewed: %w", err)
	}

	return result, nil
}

func (s *resultService) SubmitAppeal(ctx context.Context, id uint, req *AppealRequest, caller Principal) (*models.Result, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	result, err := s.getResult(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only the graded student may appeal
	if result.StudentID != caller.ID {
		return nil, NewPermissionError(caller.ID, resultIDString(id), "result", "appeal", "not the result owner")
	}

	if result.Appealed && result.AppealStatus == models.AppealPending {
		return nil, ErrConflict
	}

	result.Appealed = true
	result.AppealReason = req.Reason
	result.AppealStatus = models.AppealPending

	if err := s.repo.Result().Update(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to submit appeal: %w", err)
	}

	s.logger.Info("Result appeal submitted", "result_id", id, "student_id", caller.ID)
	return result, nil
}

func (s *resultService) ResolveAppeal(ctx context.Context, id uint, req *ResolveAppealRequest, caller Principal) (*models.Result, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	result, err := s.getResult(ctx, id)
	if err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, result.ExamID)
	if err != nil {
		return nil, err
	}

	if err := authorizeResultWrite(caller, exam, ActionResultUpdate); err != nil {
		return nil, err
	}

	if !result.Appealed {
		return nil, NewValidationError("appeal_status", "result has no appeal to resolve", id)
	}

	result.AppealStatus = req.Status

	if err := s.repo.Result().Update(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to resolve appeal: %w", err)
	}

	s.logger.Info("Result appeal resolved", "result_id", id, "status", req.Status)
	return result, nil
}

// ===== HELPERS =====

// buildResult runs the shared creation pipeline for single and bulk entry.
// Check order matters: missing references surface before conflicts, conflicts
// before invalid marks.
func (s *resultService) buildResult(ctx context.Context, exam *models.Exam, studentID string, marksObtained float64, caller Principal) (*models.Result, error) {
	isStudent, err := s.repo.User().HasRole(ctx, studentID, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to verify student: %w", err)
	}
	if !isStudent {
		return nil, ErrStudentNotFound
	}

	exists, err := s.repo.Result().ExistsByStudentAndExam(ctx, studentID, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing result: %w", err)
	}
	if exists {
		return nil, ErrResultExists
	}

	totalMarks := float64(exam.TotalMarks)
	if errs := s.validator.GetBusinessValidator().ValidateMarks(marksObtained, totalMarks); len(errs) > 0 {
		return nil, errs
	}

	graded := grading.Grade(marksObtained, totalMarks)

	return &models.Result{
		StudentID:     studentID,
		ExamID:        exam.ID,
		MarksObtained: marksObtained,
		TotalMarks:    totalMarks,
		Percentage:    graded.Percentage,
		Grade:         graded.Grade,
		Status:        graded.Status,
		Attendance:    true,
		GradedBy:      caller.ID,
		SubmittedAt:   time.Now(),
	}, nil
}

func (s *resultService) getExam(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *resultService) getResult(ctx context.Context, id uint) (*models.Result, error) {
	result, err := s.repo.Result().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}
