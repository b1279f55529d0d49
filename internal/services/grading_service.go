package services

import (
	"strings"

	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/utils"
	"github.com/tetex-tech/exam-service/internal/validator"
)

type gradingService struct {
	logger utils.Logger
}

func NewGradingService(logger utils.Logger) GradingService {
	return &gradingService{
		logger: logger.With("service", "grading"),
	}
}

// GradeExam walks the questions in their canonical order, normalizes each raw
// answer and accumulates the report. Questions with no answer-key entry are
// excluded from scoring entirely; the skip is logged and counted so a
// partially published key does not shrink an exam's scope unnoticed.
func (s *gradingService) GradeExam(questions []models.Question, key *models.AnswerKeyDocument, answers models.AnswerMap) *models.ResultReport {
	report := &models.ResultReport{
		QuestionResults: make(map[string]models.QuestionResult, len(questions)),
		TotalQuestions:  len(questions),
		AnsweredCount:   answers.AnsweredCount(),
	}

	for _, question := range questions {
		normalized := validator.NormalizeAnswer(answers[question.ID], question)

		// Unanswered questions count toward the total even when the key
		// has no entry for them.
		if normalized == nil {
			report.TotalPoints += question.Points
			report.QuestionResults[question.ID] = models.QuestionResult{
				IsCorrect:          false,
				EarnedPoints:       0,
				PossiblePoints:     question.Points,
				NeedsManualGrading: question.GradingType == models.GradingManual,
				NotAnswered:        true,
			}
			continue
		}

		correct := keyFor(key, question.ID)
		if correct == nil {
			report.SkippedQuestions++
			s.logger.Warn("Question has no answer-key entry, excluded from scoring",
				"question_id", question.ID, "type", question.Type)
			continue
		}

		result := s.GradeQuestion(question, correct, normalized)
		report.TotalPoints += result.PossiblePoints
		report.EarnedPoints += result.EarnedPoints
		report.QuestionResults[question.ID] = result
	}

	if report.TotalPoints > 0 {
		report.Percentage = report.EarnedPoints / report.TotalPoints * 100
	}
	return report
}

// GradeQuestion scores a single normalized answer against its key entry.
// A nil answer is treated as unanswered.
func (s *gradingService) GradeQuestion(question models.Question, key *models.AnswerKey, answer *models.Answer) models.QuestionResult {
	result := models.QuestionResult{
		PossiblePoints:     question.Points,
		NeedsManualGrading: question.GradingType == models.GradingManual,
	}
	if answer == nil {
		result.NotAnswered = true
		return result
	}

	switch question.Type {
	case models.SingleChoice:
		result.IsCorrect = firstOf(answer.SelectedOptions) == firstOf(key.CorrectOptions)
		if result.IsCorrect {
			result.EarnedPoints = question.Points
		}

	case models.MultipleChoice:
		result.IsCorrect = sameOptionSet(answer.SelectedOptions, key.CorrectOptions)
		if result.IsCorrect {
			result.EarnedPoints = question.Points
		}

	case models.Text:
		if question.GradingType != models.GradingAuto {
			// Manual text answers earn nothing here; a grader resolves
			// them outside this pipeline.
			break
		}
		given := ""
		if answer.Text != nil {
			given = *answer.Text
		}
		result.IsCorrect = compareStrings(given, key.CorrectAnswer, key.CaseSensitive)
		if result.IsCorrect {
			result.EarnedPoints = question.Points
		}

	case models.FillIn:
		result.EarnedPoints, result.IsCorrect = gradeBlanks(answer.Answers, key.Answers, question.Points)

	case models.Sort:
		result.IsCorrect = sameOrder(answer.Order, key.CorrectOrder)
		if result.IsCorrect {
			result.EarnedPoints = question.Points
		}

	default:
		// Document validation rejects unknown types before grading; reaching
		// this means a new variant was added without a grading rule.
		s.logger.Error("No grading rule for question type",
			"question_id", question.ID, "type", question.Type)
	}

	return result
}

// gradeBlanks awards fractional credit per matching blank. A key with zero
// blanks yields zero points rather than dividing by zero.
func gradeBlanks(given map[string]string, key map[string]models.BlankKey, points float64) (float64, bool) {
	totalBlanks := len(key)
	if totalBlanks == 0 {
		return 0, false
	}

	correctBlanks := 0
	for blank, want := range key {
		if compareStrings(given[blank], want.Answer, want.CaseSensitive) {
			correctBlanks++
		}
	}

	earned := float64(correctBlanks) / float64(totalBlanks) * points
	return earned, correctBlanks == totalBlanks
}

// compareStrings trims both sides and applies the key's case rule.
func compareStrings(given, want string, caseSensitive bool) bool {
	given = strings.TrimSpace(given)
	want = strings.TrimSpace(want)
	if caseSensitive {
		return given == want
	}
	return strings.EqualFold(given, want)
}

// sameOptionSet compares selections as sets: size match plus full
// containment, order and duplicates irrelevant.
func sameOptionSet(selected, correct []string) bool {
	selectedSet := toSet(selected)
	correctSet := toSet(correct)
	if len(selectedSet) != len(correctSet) {
		return false
	}
	for opt := range selectedSet {
		if _, ok := correctSet[opt]; !ok {
			return false
		}
	}
	return true
}

func toSet(options []string) map[string]struct{} {
	set := make(map[string]struct{}, len(options))
	for _, opt := range options {
		set[opt] = struct{}{}
	}
	return set
}

// sameOrder requires exact positional equality.
func sameOrder(given, correct []string) bool {
	if len(given) != len(correct) {
		return false
	}
	for i := range given {
		if given[i] != correct[i] {
			return false
		}
	}
	return true
}

func firstOf(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[0]
}

func keyFor(doc *models.AnswerKeyDocument, questionID string) *models.AnswerKey {
	if doc == nil || doc.Answers == nil {
		return nil
	}
	return doc.Answers[questionID]
}
