package models

type QuestionType string

const (
	SingleChoice   QuestionType = "single-choice"
	MultipleChoice QuestionType = "multiple-choice"
	Text           QuestionType = "text"
	FillIn         QuestionType = "fill-in"
	Sort           QuestionType = "sort"
)

// IsValid reports whether the type is one of the five supported variants.
func (t QuestionType) IsValid() bool {
	switch t {
	case SingleChoice, MultipleChoice, Text, FillIn, Sort:
		return true
	}
	return false
}

type GradingType string

const (
	GradingAuto   GradingType = "auto"
	GradingManual GradingType = "manual"
)

type TextType string

const (
	TextShort TextType = "short"
	TextLong  TextType = "long"
)

// QuestionOption is a single selectable choice; IDs are unique within a question.
type QuestionOption struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text"`
}

// Question is the polymorphic question record as published in an exam's
// questions.json. Variant-specific fields are populated per Type and ignored
// for the other variants.
type Question struct {
	ID          string       `json:"id" validate:"required"`
	Type        QuestionType `json:"type" validate:"required,question_type"`
	Text        string       `json:"text"`
	Points      float64      `json:"points" validate:"gt=0"`
	GradingType GradingType  `json:"gradingType,omitempty" validate:"omitempty,grading_type"`

	// single-choice / multiple-choice
	Options []QuestionOption `json:"options,omitempty"`

	// text
	TextType      TextType `json:"textType,omitempty"`
	CaseSensitive bool     `json:"caseSensitive,omitempty"`

	// fill-in: prompt text containing {N} placeholders
	TextWithBlanks string `json:"textWithBlanks,omitempty"`

	// sort: display strings, referenced by positional index converted to string
	Items []string `json:"items,omitempty"`
}

// QuestionDocument is the read-only exam document fetched from the document
// source (exams/{id}/questions.json). TimeLimit is in minutes.
type QuestionDocument struct {
	TimeLimit *int       `json:"time_limit,omitempty"`
	Questions []Question `json:"questions" validate:"required,dive"`
}
