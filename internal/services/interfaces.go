package services

import (
	"context"

	"github.com/tetex-tech/exam-service/internal/models"
)

// ===== REQUEST/RESPONSE DTOs =====

type FinishExamRequest struct {
	ExamID   string                    `json:"exam_id" validate:"required"`
	Username string                    `json:"username" validate:"required,username"`
	Answers  models.AnswerMap          `json:"answers"`
	Metadata models.SubmissionMetadata `json:"metadata"`
}

// SubmissionArchive is the packaged outcome of a finished exam: the zip
// bytes ready for download plus the report echoed back to the client.
type SubmissionArchive struct {
	Filename string               `json:"filename"`
	Content  []byte               `json:"-"`
	Report   *models.ResultReport `json:"result"`
}

// ReviewRow is one question of a decoded submission resolved into
// human-readable form for the viewer table.
type ReviewRow struct {
	QuestionID     string  `json:"question_id"`
	QuestionText   string  `json:"question_text"`
	QuestionType   string  `json:"question_type"`
	GivenAnswer    string  `json:"given_answer"`
	CorrectAnswer  string  `json:"correct_answer"`
	EarnedPoints   float64 `json:"earned_points"`
	PossiblePoints float64 `json:"possible_points"`
	Status         string  `json:"status"`

	// Last-modified instant of the answer, epoch milliseconds; zero when
	// the submission carried no timestamp.
	AnsweredAt int64 `json:"answered_at,omitempty"`
}

type DecodedSubmission struct {
	Payload   models.SubmissionPayload `json:"payload"`
	TimeLimit *int                     `json:"time_limit,omitempty"`
	Review    []ReviewRow              `json:"review"`
}

// ===== SERVICE INTERFACES =====

// GradingService scores a full answer set against an exam's documents.
// Grading is deterministic: the same inputs always yield the same report.
type GradingService interface {
	GradeExam(questions []models.Question, key *models.AnswerKeyDocument, answers models.AnswerMap) *models.ResultReport
	GradeQuestion(question models.Question, key *models.AnswerKey, answer *models.Answer) models.QuestionResult
}

// PackagingService turns a finished exam session into an encrypted,
// downloadable result archive.
type PackagingService interface {
	FinishExam(ctx context.Context, req FinishExamRequest) (*SubmissionArchive, error)
}

// ViewerService opens a result archive back up for instructor review.
type ViewerService interface {
	Decode(ctx context.Context, archive []byte) (*DecodedSubmission, error)
}

// ExportService renders a decoded submission as an xlsx workbook.
type ExportService interface {
	ExportWorkbook(ctx context.Context, decoded *DecodedSubmission) ([]byte, error)
}
