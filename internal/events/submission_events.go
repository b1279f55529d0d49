package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of submission audit events
type EventType string

const (
	// Packaging events
	EventSubmissionPackaged EventType = "submission.packaged"
	EventPackagingFailed    EventType = "submission.packaging_failed"

	// Viewer events
	EventArchiveDecoded      EventType = "archive.decoded"
	EventArchiveDecodeFailed EventType = "archive.decode_failed"
)

// SubmissionEvent is the base event structure for all submission audit events
type SubmissionEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// SubmissionPackagedEvent is emitted after a result archive is assembled.
type SubmissionPackagedEvent struct {
	ExamID           string    `json:"exam_id"`
	Username         string    `json:"username"`
	PackagedAt       time.Time `json:"packaged_at"`
	Percentage       float64   `json:"percentage"`
	AnsweredCount    int       `json:"answered_count"`
	TotalQuestions   int       `json:"total_questions"`
	SkippedQuestions int       `json:"skipped_questions"`
	ArchiveBytes     int       `json:"archive_bytes"`
}

// PackagingFailedEvent is emitted when the finish pipeline aborts.
type PackagingFailedEvent struct {
	ExamID   string    `json:"exam_id"`
	Username string    `json:"username"`
	FailedAt time.Time `json:"failed_at"`
	Stage    string    `json:"stage"`
}

// ArchiveDecodedEvent is emitted after the viewer successfully opens an archive.
type ArchiveDecodedEvent struct {
	ExamID    string    `json:"exam_id"`
	Username  string    `json:"username"`
	DecodedAt time.Time `json:"decoded_at"`
}

// ArchiveDecodeFailedEvent is emitted when decoding fails; the cause stays in
// the server log, not in the event.
type ArchiveDecodeFailedEvent struct {
	FailedAt time.Time `json:"failed_at"`
}

// Event factory functions

func NewSubmissionPackagedEvent(examID, username string, percentage float64, answered, total, skipped, archiveBytes int) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        GenerateEventID(),
		Type:      EventSubmissionPackaged,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data: SubmissionPackagedEvent{
			ExamID:           examID,
			Username:         username,
			PackagedAt:       time.Now(),
			Percentage:       percentage,
			AnsweredCount:    answered,
			TotalQuestions:   total,
			SkippedQuestions: skipped,
			ArchiveBytes:     archiveBytes,
		},
	}
}

func NewPackagingFailedEvent(examID, username, stage string) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        GenerateEventID(),
		Type:      EventPackagingFailed,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data: PackagingFailedEvent{
			ExamID:   examID,
			Username: username,
			FailedAt: time.Now(),
			Stage:    stage,
		},
	}
}

func NewArchiveDecodedEvent(examID, username string) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        GenerateEventID(),
		Type:      EventArchiveDecoded,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data: ArchiveDecodedEvent{
			ExamID:    examID,
			Username:  username,
			DecodedAt: time.Now(),
		},
	}
}

func NewArchiveDecodeFailedEvent() *SubmissionEvent {
	return &SubmissionEvent{
		ID:        GenerateEventID(),
		Type:      EventArchiveDecodeFailed,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data: ArchiveDecodeFailedEvent{
			FailedAt: time.Now(),
		},
	}
}

// GenerateEventID returns a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
