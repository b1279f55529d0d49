package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/utils"
)

func newTestGrader() GradingService {
	return NewGradingService(utils.NewDevelopmentLogger())
}

func strPtr(s string) *string { return &s }

func TestGradeQuestionSingleChoice(t *testing.T) {
	grader := newTestGrader()
	question := models.Question{ID: "q1", Type: models.SingleChoice, Points: 10}
	key := &models.AnswerKey{CorrectOptions: []string{"b"}}

	tests := []struct {
		name     string
		selected []string
		correct  bool
		earned   float64
	}{
		{"matching option", []string{"b"}, true, 10},
		{"wrong option", []string{"a"}, false, 0},
		{"empty selection", []string{}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grader.GradeQuestion(question, key, &models.Answer{SelectedOptions: tt.selected})
			assert.Equal(t, tt.correct, result.IsCorrect)
			assert.Equal(t, tt.earned, result.EarnedPoints)
			assert.Equal(t, 10.0, result.PossiblePoints)
		})
	}
}

func TestGradeQuestionMultipleChoice(t *testing.T) {
	grader := newTestGrader()
	question := models.Question{ID: "q1", Type: models.MultipleChoice, Points: 8}
	key := &models.AnswerKey{CorrectOptions: []string{"a", "c"}}

	tests := []struct {
		name     string
		selected []string
		correct  bool
	}{
		{"exact set", []string{"c", "a"}, true},
		{"extra selection invalidates", []string{"a", "b", "c"}, false},
		{"missing selection", []string{"a"}, false},
		{"duplicates do not pad the set", []string{"a", "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grader.GradeQuestion(question, key, &models.Answer{SelectedOptions: tt.selected})
			assert.Equal(t, tt.correct, result.IsCorrect)
			if tt.correct {
				assert.Equal(t, 8.0, result.EarnedPoints)
			} else {
				assert.Zero(t, result.EarnedPoints)
			}
		})
	}
}

func TestGradeQuestionTextCaseRule(t *testing.T) {
	grader := newTestGrader()
	question := models.Question{ID: "q1", Type: models.Text, Points: 5, GradingType: models.GradingAuto}

	insensitive := &models.AnswerKey{CorrectAnswer: "Paris", CaseSensitive: false}
	result := grader.GradeQuestion(question, insensitive, &models.Answer{Text: strPtr("paris")})
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 5.0, result.EarnedPoints)

	sensitive := &models.AnswerKey{CorrectAnswer: "Paris", CaseSensitive: true}
	result = grader.GradeQuestion(question, sensitive, &models.Answer{Text: strPtr("paris")})
	assert.False(t, result.IsCorrect)
	assert.Zero(t, result.EarnedPoints)

	// Surrounding whitespace never counts against the answer.
	result = grader.GradeQuestion(question, sensitive, &models.Answer{Text: strPtr("  Paris  ")})
	assert.True(t, result.IsCorrect)
}

func TestGradeQuestionTextManualNeverAutoScores(t *testing.T) {
	grader := newTestGrader()
	question := models.Question{ID: "q1", Type: models.Text, Points: 20, GradingType: models.GradingManual, TextType: models.TextLong}
	key := &models.AnswerKey{CorrectAnswer: "anything"}

	result := grader.GradeQuestion(question, key, &models.Answer{Text: strPtr("anything")})
	assert.False(t, result.IsCorrect)
	assert.Zero(t, result.EarnedPoints)
	assert.True(t, result.NeedsManualGrading)
	assert.False(t, result.NotAnswered)
}

func TestGradeQuestionFillInPartialCredit(t *testing.T) {
	grader := newTestGrader()
	question := models.Question{ID: "q1", Type: models.FillIn, Points: 8}
	key := &models.AnswerKey{Answers: map[string]models.BlankKey{
		"1": {Answer: "red"},
		"2": {Answer: "green"},
		"3": {Answer: "blue"},
		"4": {Answer: "white", CaseSensitive: true},
	}}

	answer := &models.Answer{Answers: map[string]string{
		"1": "red",
		"2": " GREEN ",
		"3": "blue",
		"4": "White", // case rule is per blank
	}}

	result := grader.GradeQuestion(question, key, answer)
	assert.False(t, result.IsCorrect)
	assert.InDelta(t, 8.0*3/4, result.EarnedPoints, 1e-9)
}

func TestGradeQuestionFillInZeroBlanks(t *testing.T) {
	grader := newTestGrader()
	question := models.Question{ID: "q1", Type: models.FillIn, Points: 8}
	key := &models.AnswerKey{Answers: map[string]models.BlankKey{}}

	result := grader.GradeQuestion(question, key, &models.Answer{Answers: map[string]string{"1": "x"}})
	assert.False(t, result.IsCorrect)
	assert.Zero(t, result.EarnedPoints)
}

func TestGradeQuestionSortExactness(t *testing.T) {
	grader := newTestGrader()
	question := models.Question{ID: "q1", Type: models.Sort, Points: 6, Items: []string{"first", "second", "third"}}
	key := &models.AnswerKey{CorrectOrder: []string{"2", "0", "1"}}

	result := grader.GradeQuestion(question, key, &models.Answer{Order: []string{"2", "0", "1"}})
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 6.0, result.EarnedPoints)

	result = grader.GradeQuestion(question, key, &models.Answer{Order: []string{"0", "2", "1"}})
	assert.False(t, result.IsCorrect)
	assert.Zero(t, result.EarnedPoints)
}

func TestGradeExamScenarioMixedAnswered(t *testing.T) {
	grader := newTestGrader()
	questions := []models.Question{
		{ID: "q1", Type: models.SingleChoice, Points: 10, Options: []models.QuestionOption{{ID: "a"}, {ID: "b"}}},
		{ID: "q2", Type: models.Text, Points: 5, GradingType: models.GradingAuto},
	}
	key := &models.AnswerKeyDocument{Answers: map[string]*models.AnswerKey{
		"q1": {CorrectOptions: []string{"b"}},
		"q2": {CorrectAnswer: "Paris"},
	}}
	answers := models.AnswerMap{
		"q1": json.RawMessage(`{"selectedOptions":["b"],"timestamp":1700000000000}`),
	}

	report := grader.GradeExam(questions, key, answers)

	assert.Equal(t, 15.0, report.TotalPoints)
	assert.Equal(t, 10.0, report.EarnedPoints)
	assert.InDelta(t, 66.67, report.Percentage, 0.01)
	assert.Equal(t, 1, report.AnsweredCount)
	assert.Equal(t, 2, report.TotalQuestions)

	require.Contains(t, report.QuestionResults, "q2")
	assert.True(t, report.QuestionResults["q2"].NotAnswered)
	assert.Zero(t, report.QuestionResults["q2"].EarnedPoints)
	assert.Equal(t, 5.0, report.QuestionResults["q2"].PossiblePoints)
}

func TestGradeExamSkipsMissingKeyEntries(t *testing.T) {
	grader := newTestGrader()
	questions := []models.Question{
		{ID: "q1", Type: models.SingleChoice, Points: 10},
		{ID: "q2", Type: models.SingleChoice, Points: 10},
	}
	key := &models.AnswerKeyDocument{Answers: map[string]*models.AnswerKey{
		"q1": {CorrectOptions: []string{"a"}},
	}}
	answers := models.AnswerMap{
		"q1": json.RawMessage(`{"selectedOptions":["a"]}`),
		"q2": json.RawMessage(`{"selectedOptions":["a"]}`),
	}

	report := grader.GradeExam(questions, key, answers)

	assert.Equal(t, 10.0, report.TotalPoints)
	assert.Equal(t, 10.0, report.EarnedPoints)
	assert.NotContains(t, report.QuestionResults, "q2")
	assert.Equal(t, 1, report.SkippedQuestions)
	// answeredCount is independent of the per-question skip
	assert.Equal(t, 2, report.AnsweredCount)
}

func TestGradeExamUnansweredBeatsMissingKey(t *testing.T) {
	grader := newTestGrader()
	questions := []models.Question{
		{ID: "q1", Type: models.Text, Points: 5, GradingType: models.GradingAuto},
	}
	key := &models.AnswerKeyDocument{Answers: map[string]*models.AnswerKey{}}

	report := grader.GradeExam(questions, key, models.AnswerMap{})

	// An unanswered question still counts toward the total even when the
	// key has no entry for it.
	assert.Equal(t, 5.0, report.TotalPoints)
	assert.Zero(t, report.SkippedQuestions)
	require.Contains(t, report.QuestionResults, "q1")
	assert.True(t, report.QuestionResults["q1"].NotAnswered)
}

func TestGradeExamEmptyExam(t *testing.T) {
	grader := newTestGrader()
	report := grader.GradeExam(nil, &models.AnswerKeyDocument{}, models.AnswerMap{})

	assert.Zero(t, report.TotalPoints)
	assert.Zero(t, report.Percentage)
	assert.Empty(t, report.QuestionResults)
}

func TestGradeExamMalformedAnswersNeverPanic(t *testing.T) {
	grader := newTestGrader()
	questions := []models.Question{
		{ID: "q1", Type: models.SingleChoice, Points: 10},
		{ID: "q2", Type: models.Text, Points: 5, GradingType: models.GradingAuto},
		{ID: "q3", Type: models.FillIn, Points: 4},
		{ID: "q4", Type: models.Sort, Points: 6, Items: []string{"a", "b"}},
	}
	key := &models.AnswerKeyDocument{Answers: map[string]*models.AnswerKey{
		"q1": {CorrectOptions: []string{"a"}},
		"q2": {CorrectAnswer: "x"},
		"q3": {Answers: map[string]models.BlankKey{"1": {Answer: "x"}}},
		"q4": {CorrectOrder: []string{"0", "1"}},
	}}
	answers := models.AnswerMap{
		"q1": json.RawMessage(`{"selectedOptions":"not-an-array"}`),
		"q2": json.RawMessage(`{"text":42}`),
		"q3": json.RawMessage(`{"answers":[1,2,3]}`),
		"q4": json.RawMessage(`{"order":{}}`),
	}

	require.NotPanics(t, func() {
		report := grader.GradeExam(questions, key, answers)
		assert.Equal(t, 25.0, report.TotalPoints)
	})
}
