package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tetex-tech/exam-service/internal/archive"
	"github.com/tetex-tech/exam-service/internal/crypto"
	"github.com/tetex-tech/exam-service/internal/events"
	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/repositories"
	"github.com/tetex-tech/exam-service/internal/utils"
	"github.com/tetex-tech/exam-service/internal/validator"
)

type viewerService struct {
	docs      repositories.ExamDocumentRepository
	publisher events.EventPublisher
	logger    utils.Logger
	timeout   time.Duration
}

func NewViewerService(docs repositories.ExamDocumentRepository, publisher events.EventPublisher, logger utils.Logger, timeout time.Duration) ViewerService {
	return &viewerService{
		docs:      docs,
		publisher: publisher,
		logger:    logger.With("service", "viewer"),
		timeout:   timeout,
	}
}

// Decode opens an uploaded result archive, decrypts the payload and resolves
// it into per-question review rows. The pass runs under the same timeout as
// packaging so a stuck document fetch never blocks a review. Every failure
// mode on the decode path (bad zip, missing entry, key import, ciphertext
// tampering, payload parse) collapses into the same opaque error; the real
// cause is only logged.
func (s *viewerService) Decode(ctx context.Context, archiveBytes []byte) (*DecodedSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bundle, err := archive.Open(archiveBytes)
	if err != nil {
		return nil, s.failDecode("open_archive", err)
	}

	plaintext, err := crypto.DecryptBundle(ctx, bundle.Payload, bundle.Keys)
	if err != nil {
		return nil, s.failDecode("decrypt", err)
	}

	var payload models.SubmissionPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, s.failDecode("parse_payload", err)
	}
	if payload.ExamID == "" || payload.Result == nil {
		return nil, s.failDecode("parse_payload", fmt.Errorf("payload missing exam id or result"))
	}

	decoded := &DecodedSubmission{Payload: payload}

	// Review resolution needs the exam documents again. Their absence does
	// not invalidate a successfully decrypted archive, so degrade to
	// unresolved rows instead of failing.
	questionDoc, err := s.docs.GetQuestions(ctx, payload.ExamID)
	if err != nil {
		s.logger.Warn("Question document unavailable for review resolution",
			"exam_id", payload.ExamID, "error", err)
	} else {
		decoded.TimeLimit = questionDoc.TimeLimit
	}

	answerKeyDoc, err := s.docs.GetAnswerKey(ctx, payload.ExamID)
	if err != nil {
		s.logger.Warn("Answer key unavailable for review resolution",
			"exam_id", payload.ExamID, "error", err)
		answerKeyDoc = nil
	}

	if questionDoc != nil {
		decoded.Review = buildReviewRows(questionDoc.Questions, answerKeyDoc, payload)
	}

	s.logger.Info("Archive decoded",
		"exam_id", payload.ExamID, "username", payload.Username,
		"questions", len(decoded.Review))
	s.publish(ctx, events.NewArchiveDecodedEvent(payload.ExamID, payload.Username))

	return decoded, nil
}

func (s *viewerService) failDecode(stage string, err error) error {
	s.logger.Error("Archive decode failed", "stage", stage, "error", err)
	s.publish(context.Background(), events.NewArchiveDecodeFailedEvent())
	return ErrDecryptionFailed
}

func (s *viewerService) publish(ctx context.Context, event *events.SubmissionEvent) {
	if s.publisher == nil {
		return
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishSubmissionEvent(publishCtx, event); err != nil {
		s.logger.Warn("Failed to publish viewer event", "event_type", event.Type, "error", err)
	}
}

// buildReviewRows resolves each graded question into display form, in the
// exam's canonical question order. Skipped questions carry no result entry
// and produce no row, mirroring how the report was built.
func buildReviewRows(questions []models.Question, key *models.AnswerKeyDocument, payload models.SubmissionPayload) []ReviewRow {
	rows := make([]ReviewRow, 0, len(questions))
	for _, question := range questions {
		result, ok := payload.Result.QuestionResults[question.ID]
		if !ok {
			continue
		}

		answer := validator.NormalizeAnswer(payload.Answers[question.ID], question)

		row := ReviewRow{
			QuestionID:     question.ID,
			QuestionText:   question.Text,
			QuestionType:   string(question.Type),
			GivenAnswer:    formatAnswer(question, answer),
			EarnedPoints:   result.EarnedPoints,
			PossiblePoints: result.PossiblePoints,
			Status:         reviewStatus(result),
		}
		if answer != nil {
			row.AnsweredAt = answer.Timestamp
		}
		if key != nil {
			row.CorrectAnswer = formatAnswerKey(question, key.Answers[question.ID])
		}
		rows = append(rows, row)
	}
	return rows
}

func reviewStatus(result models.QuestionResult) string {
	switch {
	case result.NotAnswered:
		return "not_answered"
	case result.NeedsManualGrading:
		return "needs_manual_grading"
	case result.IsCorrect:
		return "correct"
	default:
		return "incorrect"
	}
}

// formatAnswer renders a normalized answer as the viewer shows it: option and
// item IDs resolved to their display text.
func formatAnswer(question models.Question, answer *models.Answer) string {
	if answer == nil {
		return ""
	}

	switch question.Type {
	case models.SingleChoice, models.MultipleChoice:
		return joinOptionText(question, answer.SelectedOptions, ", ")
	case models.Text:
		if answer.Text == nil {
			return ""
		}
		return *answer.Text
	case models.FillIn:
		return joinBlanks(answer.Answers)
	case models.Sort:
		return joinItemText(question, answer.Order)
	}
	return ""
}

func formatAnswerKey(question models.Question, key *models.AnswerKey) string {
	if key == nil {
		return ""
	}

	switch question.Type {
	case models.SingleChoice, models.MultipleChoice:
		return joinOptionText(question, key.CorrectOptions, ", ")
	case models.Text:
		return key.CorrectAnswer
	case models.FillIn:
		blanks := make(map[string]string, len(key.Answers))
		for blank, entry := range key.Answers {
			blanks[blank] = entry.Answer
		}
		return joinBlanks(blanks)
	case models.Sort:
		return joinItemText(question, key.CorrectOrder)
	}
	return ""
}

func joinOptionText(question models.Question, optionIDs []string, sep string) string {
	parts := make([]string, 0, len(optionIDs))
	for _, id := range optionIDs {
		parts = append(parts, optionText(question, id))
	}
	return strings.Join(parts, sep)
}

func optionText(question models.Question, optionID string) string {
	for _, opt := range question.Options {
		if opt.ID == optionID {
			return opt.Text
		}
	}
	return fmt.Sprintf("unknown option (%s)", optionID)
}

// joinBlanks renders fill-in blanks in numeric key order.
func joinBlanks(blanks map[string]string) string {
	keys := make([]string, 0, len(blanks))
	for k := range blanks {
		keys = append(keys, k)
	}
	// Blank keys are small decimal strings; compare numerically so "10"
	// sorts after "9".
	sort.Slice(keys, func(i, j int) bool { return blankLess(keys[i], keys[j]) })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("blank %s: %s", k, blanks[k]))
	}
	return strings.Join(parts, ", ")
}

func blankLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}

// joinItemText resolves sort indices (index-as-string) into item text.
func joinItemText(question models.Question, order []string) string {
	parts := make([]string, 0, len(order))
	for _, idx := range order {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 || n >= len(question.Items) {
			parts = append(parts, fmt.Sprintf("unknown item (%s)", idx))
			continue
		}
		parts = append(parts, question.Items[n])
	}
	return strings.Join(parts, " -> ")
}
