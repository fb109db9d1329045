package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/acadex/examtrack-service/internal/events"
	"github.com/acadex/examtrack-service/internal/models"
	"github.com/acadex/examtrack-service/internal/repositories"
)

// ResultEventService emits domain events for downstream consumers (the
// notification service, audit trail). Emission failures are the caller's
// choice to surface or swallow; the originating write is never rolled back.
type ResultEventService interface {
	NotifyExamScheduled(ctx context.Context, exam *models.Exam) error
	NotifyExamCancelled(ctx context.Context, exam *models.Exam) error
	NotifyResultsPublished(ctx context.Context, exam *models.Exam) error
	NotifyResultGraded(ctx context.Context, result *models.Result, exam *models.Exam) error
	NotifyResultUpdated(ctx context.Context, result *models.Result, exam *models.Exam) error
}

type resultEventService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewResultEventService(
	repo repositories.Repository,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
) ResultEventService {
	return &resultEventService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// ===== EXAM EVENTS =====

func (s *resultEventService) NotifyExamScheduled(ctx context.Context, exam *models.Exam) error {
	s.logger.Info("Publishing exam scheduled event", "exam_id", exam.ID)

	event := events.NewExamScheduledEvent(exam, exam.TargetStudents)
	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

func (s *resultEventService) NotifyExamCancelled(ctx context.Context, exam *models.Exam) error {
	s.logger.Info("Publishing exam cancelled event", "exam_id", exam.ID)

	event := events.NewExamCancelledEvent(exam, exam.TargetStudents)
	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

func (s *resultEventService) NotifyResultsPublished(ctx context.Context, exam *models.Exam) error {
	s.logger.Info("Publishing results published event", "exam_id", exam.ID)

	// Notify the students who actually have a graded row, not the full
	// target population
	studentIDs, err := s.gradedStudentIDs(ctx, exam.ID)
	if err != nil {
		return err
	}

	event := events.NewResultsPublishedEvent(exam, studentIDs)
	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

// ===== RESULT EVENTS =====

func (s *resultEventService) NotifyResultGraded(ctx context.Context, result *models.Result, exam *models.Exam) error {
	s.logger.Info("Publishing result graded event", "result_id", result.ID, "exam_id", exam.ID)

	event := events.NewResultGradedEvent(result, exam)
	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

func (s *resultEventService) NotifyResultUpdated(ctx context.Context, result *models.Result, exam *models.Exam) error {
	s.logger.Info("Publishing result updated event", "result_id", result.ID, "exam_id", exam.ID)

	event := events.NewResultUpdatedEvent(result, exam)
	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

// ===== HELPERS =====

func (s *resultEventService) gradedStudentIDs(ctx context.Context, examID uint) ([]string, error) {
	results, err := s.repo.Result().GetByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam results: %w", err)
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.StudentID)
	}
	return ids, nil
}
