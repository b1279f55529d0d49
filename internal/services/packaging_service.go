package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tetex-tech/exam-service/internal/archive"
	"github.com/tetex-tech/exam-service/internal/crypto"
	"github.com/tetex-tech/exam-service/internal/events"
	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/repositories"
	"github.com/tetex-tech/exam-service/internal/utils"
	"github.com/tetex-tech/exam-service/internal/validator"
)

type packagingService struct {
	docs      repositories.ExamDocumentRepository
	grader    GradingService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    utils.Logger
	timeout   time.Duration
}

func NewPackagingService(
	docs repositories.ExamDocumentRepository,
	grader GradingService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger utils.Logger,
	timeout time.Duration,
) PackagingService {
	return &packagingService{
		docs:      docs,
		grader:    grader,
		publisher: publisher,
		validator: v,
		logger:    logger.With("service", "packaging"),
		timeout:   timeout,
	}
}

// FinishExam runs the full submission pipeline: fetch the exam documents,
// grade, encrypt the payload and assemble the downloadable archive. The whole
// pipeline runs under the configured timeout so a stuck document fetch or an
// unusually slow key generation never blocks a finish indefinitely.
func (s *packagingService) FinishExam(ctx context.Context, req FinishExamRequest) (*SubmissionArchive, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	s.logger.Info("Packaging submission",
		"exam_id", req.ExamID, "username", req.Username, "answers", len(req.Answers))

	questionDoc, err := s.docs.GetQuestions(ctx, req.ExamID)
	if err != nil {
		return nil, s.failPackaging(ctx, req, "fetch_questions", err)
	}
	if err := s.validator.Validate(questionDoc); err != nil {
		s.logger.Error("Question document failed validation", "exam_id", req.ExamID, "error", err)
		return nil, s.failPackaging(ctx, req, "validate_questions", fmt.Errorf("%w: %v", ErrDocumentMalformed, err))
	}

	answerKeyDoc, err := s.docs.GetAnswerKey(ctx, req.ExamID)
	if err != nil {
		return nil, s.failPackaging(ctx, req, "fetch_answer_key", err)
	}

	report := s.grader.GradeExam(questionDoc.Questions, answerKeyDoc, req.Answers)

	payload := models.SubmissionPayload{
		ExamID:    req.ExamID,
		Username:  req.Username,
		Timestamp: time.Now().UnixMilli(),
		Answers:   req.Answers,
		Result:    report,
		Metadata:  req.Metadata,
	}

	bundle, err := crypto.EncryptPayload(ctx, payload)
	if err != nil {
		return nil, s.failPackaging(ctx, req, "encrypt", err)
	}

	content, err := archive.Assemble(bundle)
	if err != nil {
		return nil, s.failPackaging(ctx, req, "assemble", err)
	}

	s.logger.Info("Submission packaged",
		"exam_id", req.ExamID,
		"username", req.Username,
		"percentage", report.Percentage,
		"skipped_questions", report.SkippedQuestions,
		"archive_bytes", len(content),
		"duration", time.Since(started).String())

	s.publish(events.NewSubmissionPackagedEvent(
		req.ExamID, req.Username, report.Percentage,
		report.AnsweredCount, report.TotalQuestions, report.SkippedQuestions, len(content)))

	return &SubmissionArchive{
		Filename: archive.Filename(req.ExamID, req.Username),
		Content:  content,
		Report:   report,
	}, nil
}

// failPackaging logs the stage that failed, emits the audit event and maps
// the cause to a service-level error.
func (s *packagingService) failPackaging(ctx context.Context, req FinishExamRequest, stage string, err error) error {
	s.logger.Error("Submission packaging failed",
		"exam_id", req.ExamID, "username", req.Username, "stage", stage, "error", err)

	s.publish(events.NewPackagingFailedEvent(req.ExamID, req.Username, stage))

	switch {
	case repositories.IsNotFoundError(err):
		return fmt.Errorf("%w: %s", ErrExamNotFound, req.ExamID)
	case errors.Is(err, ErrDocumentMalformed):
		return err
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrPackagingTimeout
	default:
		return fmt.Errorf("%w: %s", ErrPackagingFailed, stage)
	}
}

// publish fires audit events without letting broker trouble fail the request.
func (s *packagingService) publish(event *events.SubmissionEvent) {
	if s.publisher == nil {
		return
	}
	publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishSubmissionEvent(publishCtx, event); err != nil {
		s.logger.Warn("Failed to publish submission event", "event_type", event.Type, "error", err)
	}
}
