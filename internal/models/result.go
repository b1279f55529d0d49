package models

// QuestionResult is the per-question grading outcome. Created once at finish
// time and never mutated afterwards.
type QuestionResult struct {
	IsCorrect          bool    `json:"isCorrect"`
	EarnedPoints       float64 `json:"earnedPoints"`
	PossiblePoints     float64 `json:"possiblePoints"`
	NeedsManualGrading bool    `json:"needsManualGrading"`
	NotAnswered        bool    `json:"notAnswered"`
}

// ResultReport is the aggregate score report embedded in the exported archive.
// SkippedQuestions counts questions excluded from scoring because the answer
// key had no entry for them; it is a diagnostic for operators, not a score.
type ResultReport struct {
	TotalPoints      float64                   `json:"totalPoints"`
	EarnedPoints     float64                   `json:"earnedPoints"`
	Percentage       float64                   `json:"percentage"`
	QuestionResults  map[string]QuestionResult `json:"questionResults"`
	AnsweredCount    int                       `json:"answeredCount"`
	TotalQuestions   int                       `json:"totalQuestions"`
	SkippedQuestions int                       `json:"skippedQuestions,omitempty"`
}

// SubmissionMetadata describes the environment the attempt ran in.
type SubmissionMetadata struct {
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`
	Language  string `json:"language"`
}

// SubmissionPayload is the plaintext that gets hybrid-encrypted into the
// archive: exam identity, the raw frozen answers and the graded report.
// Timestamp is epoch milliseconds.
type SubmissionPayload struct {
	ExamID    string             `json:"examId"`
	Username  string             `json:"username"`
	Timestamp int64              `json:"timestamp"`
	Answers   AnswerMap          `json:"answers"`
	Result    *ResultReport      `json:"result"`
	Metadata  SubmissionMetadata `json:"metadata"`
}
