package services

import (
	"context"
	"testing"
	"time"

	"github.com/acadex/examtrack-service/internal/events"
	"github.com/acadex/examtrack-service/internal/models"
)

func TestResultEventService_PublishEvents(t *testing.T) {
	logger := testLogger()
	mockPublisher := events.NewMockEventPublisher(logger)
	repo := newMockRepository()

	service := NewResultEventService(repo, mockPublisher, logger)
	ctx := context.Background()

	exam := testExam(1, "teacher-1")
	exam.Title = "Algebra Midterm"

	t.Run("ResultsPublished_TargetsGradedStudents", func(t *testing.T) {
		mockPublisher.ClearEvents()

		repo.result.On("GetByExam", ctx, uint(1)).Return([]*models.Result{
			{ID: 1, ExamID: 1, StudentID: "student-1"},
			{ID: 2, ExamID: 1, StudentID: "student-2"},
		}, nil)

		if err := service.NotifyResultsPublished(ctx, exam); err != nil {
			t.Fatalf("Failed to publish event: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}

		event := published[0]
		if event.Type != events.EventExamResultsPublished {
			t.Errorf("Expected event type %s, got %s", events.EventExamResultsPublished, event.Type)
		}

		if data, ok := event.Data.(events.ResultsPublishedEvent); ok {
			if len(data.StudentIDs) != 2 {
				t.Errorf("Expected 2 graded students, got %d", len(data.StudentIDs))
			}
			if data.ExamTitle != "Algebra Midterm" {
				t.Errorf("Expected exam title 'Algebra Midterm', got '%s'", data.ExamTitle)
			}
		} else {
			t.Error("Event data is not ResultsPublishedEvent type")
		}
	})

	t.Run("ResultGraded_EventStructure", func(t *testing.T) {
		mockPublisher.ClearEvents()

		result := &models.Result{
			ID:         7,
			ExamID:     1,
			StudentID:  "student-1",
			Percentage: 85,
			Grade:      models.GradeB,
			Status:     models.ResultPass,
			GradedBy:   "teacher-1",
		}

		if err := service.NotifyResultGraded(ctx, result, exam); err != nil {
			t.Fatalf("Failed to publish event: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}

		event := published[0]
		if event.ID == "" {
			t.Error("Event ID should not be empty")
		}
		if event.Source != "examtrack-service" {
			t.Errorf("Expected source 'examtrack-service', got '%s'", event.Source)
		}
		if event.Version != "1.0" {
			t.Errorf("Expected version '1.0', got '%s'", event.Version)
		}
		if event.Timestamp.IsZero() {
			t.Error("Event timestamp should not be zero")
		}

		if data, ok := event.Data.(events.ResultGradedEvent); ok {
			if data.Grade != models.GradeB {
				t.Errorf("Expected grade B, got %s", data.Grade)
			}
			if data.StudentID != "student-1" {
				t.Errorf("Expected student-1, got %s", data.StudentID)
			}
		} else {
			t.Error("Event data is not ResultGradedEvent type")
		}
	})

	t.Run("ExamCancelled_TargetsScheduledStudents", func(t *testing.T) {
		mockPublisher.ClearEvents()

		cancelled := testExam(2, "teacher-1")
		cancelled.TargetStudents = append(cancelled.TargetStudents, "student-1", "student-2", "student-3")
		cancelled.Status = models.ExamCancelled
		cancelled.Date = time.Now().Add(24 * time.Hour)

		if err := service.NotifyExamCancelled(ctx, cancelled); err != nil {
			t.Fatalf("Failed to publish event: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}
		if published[0].Type != events.EventExamCancelled {
			t.Errorf("Expected event type %s, got %s", events.EventExamCancelled, published[0].Type)
		}
	})
}
