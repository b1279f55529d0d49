package models

import (
	"encoding/json"
	"strings"
)

// Answer is the normalized, type-correct form of one test-taker answer. It
// mirrors the question variants as a tagged union: exactly one of the variant
// fields is meaningful for a given question type. A nil *Answer means
// "not answered".
type Answer struct {
	// single-choice / multiple-choice
	SelectedOptions []string `json:"selectedOptions,omitempty"`

	// text
	Text *string `json:"text,omitempty"`

	// fill-in: blank number (as string) -> submitted text
	Answers map[string]string `json:"answers,omitempty"`

	// sort: item indices as strings, in submitted order
	Order []string `json:"order,omitempty"`

	// Last-modified instant, epoch milliseconds.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// AnswerMap is the frozen session answer state at finish time, keyed by
// question id. Entries stay as raw JSON: the submitted bytes travel into the
// encrypted payload untouched, and normalization happens per question at
// grading time.
type AnswerMap map[string]json.RawMessage

// AnsweredCount counts non-null entries, independent of grading outcomes.
func (m AnswerMap) AnsweredCount() int {
	n := 0
	for _, a := range m {
		if !IsNullRaw(a) {
			n++
		}
	}
	return n
}

// IsNullRaw reports whether a raw answer entry is absent or JSON null.
func IsNullRaw(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

// BlankKey is the correct answer for a single fill-in blank.
type BlankKey struct {
	Answer        string `json:"answer"`
	CaseSensitive bool   `json:"caseSensitive"`
}

// AnswerKey is the authoritative correct-answer entry for one question.
// Shape depends on the question type; unused fields stay empty.
type AnswerKey struct {
	// single-choice / multiple-choice
	CorrectOptions []string `json:"correctOptions,omitempty"`

	// text
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`

	// fill-in: blank number (as string) -> key
	Answers map[string]BlankKey `json:"answers,omitempty"`

	// sort
	CorrectOrder []string `json:"correctOrder,omitempty"`
}

// AnswerKeyDocument is the exam's answer-key document
// (exams/{id}/answers.json), fetched once per attempt at finish time.
type AnswerKeyDocument struct {
	Answers map[string]*AnswerKey `json:"answers"`
}
