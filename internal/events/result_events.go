package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/acadex/examtrack-service/internal/models"
)

// EventType represents different types of notification events
type EventType string

const (
	// Exam events
	EventExamScheduled        EventType = "exam.scheduled"
	EventExamCancelled        EventType = "exam.cancelled"
	EventExamResultsPublished EventType = "exam.results_published"

	// Result events
	EventResultGraded  EventType = "result.graded"
	EventResultUpdated EventType = "result.updated"
)

// NotificationEvent is the envelope shared by all published events.
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

const eventSource = "examtrack-service"

// Exam event payloads

type ExamScheduledEvent struct {
	ExamID     uint      `json:"exam_id"`
	ExamTitle  string    `json:"exam_title"`
	Subject    string    `json:"subject"`
	Date       time.Time `json:"date"`
	Duration   int       `json:"duration"` // minutes
	StudentIDs []string  `json:"student_ids"`
	TeacherID  string    `json:"teacher_id"`
}

type ExamCancelledEvent struct {
	ExamID      uint      `json:"exam_id"`
	ExamTitle   string    `json:"exam_title"`
	Subject     string    `json:"subject"`
	CancelledAt time.Time `json:"cancelled_at"`
	StudentIDs  []string  `json:"student_ids"`
	TeacherID   string    `json:"teacher_id"`
}

type ResultsPublishedEvent struct {
	ExamID      uint      `json:"exam_id"`
	ExamTitle   string    `json:"exam_title"`
	Subject     string    `json:"subject"`
	PublishedAt time.Time `json:"published_at"`
	StudentIDs  []string  `json:"student_ids"`
	TeacherID   string    `json:"teacher_id"`
}

// Result event payloads

type ResultGradedEvent struct {
	ResultID   uint                `json:"result_id"`
	ExamID     uint                `json:"exam_id"`
	ExamTitle  string              `json:"exam_title"`
	StudentID  string              `json:"student_id"`
	Percentage int                 `json:"percentage"`
	Grade      models.Grade        `json:"grade"`
	Status     models.ResultStatus `json:"status"`
	GradedBy   string              `json:"graded_by"`
	GradedAt   time.Time           `json:"graded_at"`
}

type ResultUpdatedEvent struct {
	ResultID   uint                `json:"result_id"`
	ExamID     uint                `json:"exam_id"`
	ExamTitle  string              `json:"exam_title"`
	StudentID  string              `json:"student_id"`
	Percentage int                 `json:"percentage"`
	Grade      models.Grade        `json:"grade"`
	Status     models.ResultStatus `json:"status"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Event factory functions

func NewExamScheduledEvent(exam *models.Exam, studentIDs []string) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventExamScheduled,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ExamScheduledEvent{
			ExamID:     exam.ID,
			ExamTitle:  exam.Title,
			Subject:    exam.Subject,
			Date:       exam.Date,
			Duration:   exam.Duration,
			StudentIDs: studentIDs,
			TeacherID:  exam.TeacherID,
		},
	}
}

func NewExamCancelledEvent(exam *models.Exam, studentIDs []string) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventExamCancelled,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ExamCancelledEvent{
			ExamID:      exam.ID,
			ExamTitle:   exam.Title,
			Subject:     exam.Subject,
			CancelledAt: time.Now(),
			StudentIDs:  studentIDs,
			TeacherID:   exam.TeacherID,
		},
	}
}

func NewResultsPublishedEvent(exam *models.Exam, studentIDs []string) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventExamResultsPublished,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ResultsPublishedEvent{
			ExamID:      exam.ID,
			ExamTitle:   exam.Title,
			Subject:     exam.Subject,
			PublishedAt: time.Now(),
			StudentIDs:  studentIDs,
			TeacherID:   exam.TeacherID,
		},
	}
}

func NewResultGradedEvent(result *models.Result, exam *models.Exam) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventResultGraded,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ResultGradedEvent{
			ResultID:   result.ID,
			ExamID:     exam.ID,
			ExamTitle:  exam.Title,
			StudentID:  result.StudentID,
			Percentage: result.Percentage,
			Grade:      result.Grade,
			Status:     result.Status,
			GradedBy:   result.GradedBy,
			GradedAt:   result.SubmittedAt,
		},
	}
}

func NewResultUpdatedEvent(result *models.Result, exam *models.Exam) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventResultUpdated,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ResultUpdatedEvent{
			ResultID:   result.ID,
			ExamID:     exam.ID,
			ExamTitle:  exam.Title,
			StudentID:  result.StudentID,
			Percentage: result.Percentage,
			Grade:      result.Grade,
			Status:     result.Status,
			UpdatedAt:  time.Now(),
		},
	}
}

// GenerateEventID returns a unique identifier for a new event.
func GenerateEventID() string {
	return watermill.NewUUID()
}
