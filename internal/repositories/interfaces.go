package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetex-tech/exam-service/internal/models"
)

// ErrDocumentNotFound is returned when the document source has no exam with
// the requested id.
var ErrDocumentNotFound = errors.New("exam document not found")

// ExamDocumentRepository is the read-only source of the two per-exam JSON
// documents. The answer-key document must never reach a test-taker-facing
// response.
type ExamDocumentRepository interface {
	// GetQuestions fetches exams/{id}/questions.json.
	GetQuestions(ctx context.Context, examID string) (*models.QuestionDocument, error)

	// GetAnswerKey fetches exams/{id}/answers.json.
	GetAnswerKey(ctx context.Context, examID string) (*models.AnswerKeyDocument, error)
}

// IsNotFoundError reports whether err means the exam does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// NotFound wraps ErrDocumentNotFound with the exam id for logs.
func NotFound(examID string) error {
	return fmt.Errorf("%w: %s", ErrDocumentNotFound, examID)
}
